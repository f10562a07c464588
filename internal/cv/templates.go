package cv

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // template decoders
	_ "image/png"
	"io/fs"
	"os"

	"jordanella.com/desktop-pilot/internal/apperr"
)

// Template describes a reference image and how to look for it
type Template struct {
	Name      string
	Path      string
	Threshold float64
	Region    *Rect
}

// InRegion sets the global search region for the template
func (t Template) InRegion(x, y, width, height int) Template {
	region := NewRect(x, y, width, height)
	t.Region = &region
	return t
}

// WithThreshold sets the minimum confidence
func (t Template) WithThreshold(threshold float64) Template {
	t.Threshold = threshold
	return t
}

// LoadImage reads and decodes a template file. A missing file is a
// missing-resource condition.
func LoadImage(path string) (*image.RGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.MissingResource("LoadImage", path, err)
		}
		return nil, fmt.Errorf("failed to open template %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, apperr.InvalidArgument("LoadImage", "failed to decode template %s: %v", path, err)
	}

	return normalizeOrigin(toRGBA(img)), nil
}

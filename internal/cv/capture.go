package cv

import (
	"image"
	"image/draw"

	"jordanella.com/desktop-pilot/internal/apperr"
)

// Capturer grabs pixels from the screen. The returned buffer always has its
// origin at (0,0); the returned Rect is the global region it covers.
// A nil region means the full virtual desktop.
type Capturer interface {
	Capture(region *Rect) (*image.RGBA, Rect, error)
}

// displayBackend is the platform surface the ScreenCapturer needs
type displayBackend interface {
	NumActiveDisplays() int
	GetDisplayBounds(index int) image.Rectangle
	CaptureRect(rect image.Rectangle) (*image.RGBA, error)
}

// ScreenCapturer captures from the attached displays
type ScreenCapturer struct {
	backend displayBackend
}

// NewScreenCapturer creates a capturer over the real displays
func NewScreenCapturer() *ScreenCapturer {
	return &ScreenCapturer{backend: screenshotBackend{}}
}

// VirtualDesktop returns the bounding rectangle spanning every display
func (sc *ScreenCapturer) VirtualDesktop() (Rect, error) {
	n := sc.backend.NumActiveDisplays()
	if n <= 0 {
		return Rect{}, apperr.OperationFailed("VirtualDesktop", nil, "no active displays reported")
	}

	union := sc.backend.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(sc.backend.GetDisplayBounds(i))
	}
	if union.Empty() {
		return Rect{}, apperr.OperationFailed("VirtualDesktop", nil, "display bounds are empty")
	}
	return FromImageRectangle(union), nil
}

// Capture implements Capturer
func (sc *ScreenCapturer) Capture(region *Rect) (*image.RGBA, Rect, error) {
	var target Rect
	if region != nil {
		if region.Width <= 0 || region.Height <= 0 {
			return nil, Rect{}, apperr.OutOfRange("Capture", "region %dx%d must have positive size", region.Width, region.Height)
		}
		target = *region
	} else {
		desktop, err := sc.VirtualDesktop()
		if err != nil {
			return nil, Rect{}, err
		}
		target = desktop
	}

	img, err := sc.backend.CaptureRect(target.ToImageRectangle())
	if err != nil {
		return nil, Rect{}, apperr.OperationFailed("Capture", err, "capture of %dx%d at (%d,%d) failed",
			target.Width, target.Height, target.X, target.Y)
	}

	return normalizeOrigin(img), target, nil
}

// StaticCapturer serves captures out of a fixed image placed at Origin in the
// virtual desktop. Used for offline matching against saved screenshots.
type StaticCapturer struct {
	Frame  *image.RGBA
	Origin image.Point
}

// NewStaticCapturer wraps any image, converting it to RGBA
func NewStaticCapturer(img image.Image, origin image.Point) *StaticCapturer {
	return &StaticCapturer{Frame: toRGBA(img), Origin: origin}
}

// Capture implements Capturer
func (s *StaticCapturer) Capture(region *Rect) (*image.RGBA, Rect, error) {
	frame := s.Frame.Bounds()
	full := Rect{X: s.Origin.X, Y: s.Origin.Y, Width: frame.Dx(), Height: frame.Dy()}

	if region == nil {
		return CropRegion(s.Frame, frame), full, nil
	}
	if region.Width <= 0 || region.Height <= 0 {
		return nil, Rect{}, apperr.OutOfRange("Capture", "region %dx%d must have positive size", region.Width, region.Height)
	}

	local := ToLocal(*region, full).ToImageRectangle().Add(frame.Min)
	if !local.In(frame) {
		return nil, Rect{}, apperr.OperationFailed("Capture", nil, "region (%d,%d %dx%d) is outside the frame",
			region.X, region.Y, region.Width, region.Height)
	}
	return CropRegion(s.Frame, local), *region, nil
}

// CropRegion copies rect out of img into a new buffer with origin (0,0)
func CropRegion(img *image.RGBA, rect image.Rectangle) *image.RGBA {
	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(cropped, cropped.Bounds(), img, rect.Min, draw.Src)
	return cropped
}

func normalizeOrigin(img *image.RGBA) *image.RGBA {
	if img.Bounds().Min == (image.Point{}) {
		return img
	}
	return CropRegion(img, img.Bounds())
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

// ToRGBA converts any image into an RGBA buffer with origin (0,0)
func ToRGBA(img image.Image) *image.RGBA {
	return normalizeOrigin(toRGBA(img))
}

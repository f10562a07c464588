package cv

import (
	"image"

	"github.com/kbinani/screenshot"
)

// screenshotBackend delegates to the platform capture in kbinani/screenshot
type screenshotBackend struct{}

func (screenshotBackend) NumActiveDisplays() int {
	return screenshot.NumActiveDisplays()
}

func (screenshotBackend) GetDisplayBounds(index int) image.Rectangle {
	return screenshot.GetDisplayBounds(index)
}

func (screenshotBackend) CaptureRect(rect image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(rect)
}

package cv

import (
	"image"

	"jordanella.com/desktop-pilot/internal/apperr"
)

// Point is a screen coordinate in device pixels. The virtual desktop origin
// may be negative on multi-monitor setups.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. Whether it is local or global depends on
// the region it is paired with.
type Rect struct {
	X, Y          int
	Width, Height int
}

// NewRect creates a new rectangle
func NewRect(x, y, width, height int) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// FromImageRectangle converts a canonical image.Rectangle
func FromImageRectangle(r image.Rectangle) Rect {
	r = r.Canon()
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// ToImageRectangle converts Rect to image.Rectangle
func (r Rect) ToImageRectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Validate fails when the rectangle has no area
func (r Rect) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return apperr.InvalidArgument("Rect.Validate", "rectangle %dx%d must have positive size", r.Width, r.Height)
	}
	return nil
}

// Center returns the geometric center
func (r Rect) Center() Point {
	return Point{
		X: float64(r.X) + float64(r.Width)/2,
		Y: float64(r.Y) + float64(r.Height)/2,
	}
}

// Contains checks if a point is within the rectangle
func (r Rect) Contains(p Point) bool {
	return p.X >= float64(r.X) && p.X < float64(r.X+r.Width) &&
		p.Y >= float64(r.Y) && p.Y < float64(r.Y+r.Height)
}

// ToGlobal translates bounds local to region into virtual desktop coordinates
func ToGlobal(local, region Rect) Rect {
	return Rect{
		X:      region.X + local.X,
		Y:      region.Y + local.Y,
		Width:  local.Width,
		Height: local.Height,
	}
}

// ToLocal is the inverse of ToGlobal
func ToLocal(global, region Rect) Rect {
	return Rect{
		X:      global.X - region.X,
		Y:      global.Y - region.Y,
		Width:  global.Width,
		Height: global.Height,
	}
}

// PointToGlobal translates a point local to region into virtual desktop coordinates
func PointToGlobal(p Point, region Rect) Point {
	return Point{X: p.X + float64(region.X), Y: p.Y + float64(region.Y)}
}

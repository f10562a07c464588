package cv

// ImageHit is the payload of a template match
type ImageHit struct {
	Confidence float64
}

// Word is a single OCR word
type Word struct {
	Text       string
	Confidence float64
}

// Match ties a payload to the rectangle it was found at. Bounds is always
// local to SearchRegion; SearchRegion is global. Global bounds are derived on
// demand and never stored.
type Match[T any] struct {
	Payload      T
	Bounds       Rect
	SearchRegion Rect
}

// ImageMatch is the result of FindImage
type ImageMatch = Match[ImageHit]

// TextMatch is a word-level OCR result
type TextMatch = Match[Word]

// GlobalBounds returns Bounds in virtual desktop coordinates
func (m Match[T]) GlobalBounds() Rect {
	return ToGlobal(m.Bounds, m.SearchRegion)
}

// Center returns the center of Bounds, local to SearchRegion
func (m Match[T]) Center() Point {
	return m.Bounds.Center()
}

// GlobalCenter is the usual pointer target for a match
func (m Match[T]) GlobalCenter() Point {
	return m.GlobalBounds().Center()
}

// TextResult is the output of ReadText
type TextResult struct {
	Text         string
	Words        []TextMatch
	SearchRegion Rect
}

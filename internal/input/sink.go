package input

import (
	"strings"

	"jordanella.com/desktop-pilot/internal/apperr"
)

// Button identifies a pointer button
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "center"
)

// ParseButton converts a script or config name into a Button
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return ButtonLeft, nil
	case "right":
		return ButtonRight, nil
	case "middle", "center":
		return ButtonMiddle, nil
	}
	return "", apperr.InvalidArgument("ParseButton", "unknown button %q", s)
}

// Sink receives synthetic input. Coordinates are absolute virtual desktop
// pixels. Implementations return raw platform errors.
type Sink interface {
	Position() (x, y int, err error)
	MoveAbsolute(x, y int) error
	ButtonDown(b Button) error
	ButtonUp(b Button) error
	KeyDown(key string) error
	KeyUp(key string) error
}

// TextTyper is implemented by sinks that can type a whole string natively
type TextTyper interface {
	TypeText(text string) error
}

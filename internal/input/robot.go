package input

import (
	"github.com/go-vgo/robotgo"
)

// RobotSink drives the real pointer and keyboard through robotgo
type RobotSink struct{}

// NewRobotSink creates the platform sink
func NewRobotSink() *RobotSink {
	return &RobotSink{}
}

func (RobotSink) Position() (int, int, error) {
	x, y := robotgo.Location()
	return x, y, nil
}

func (RobotSink) MoveAbsolute(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

func (RobotSink) ButtonDown(b Button) error {
	return robotgo.Toggle(string(b))
}

func (RobotSink) ButtonUp(b Button) error {
	return robotgo.Toggle(string(b), "up")
}

func (RobotSink) KeyDown(key string) error {
	return robotgo.KeyToggle(key, "down")
}

func (RobotSink) KeyUp(key string) error {
	return robotgo.KeyToggle(key, "up")
}

// TypeText implements TextTyper
func (RobotSink) TypeText(text string) error {
	robotgo.TypeStr(text)
	return nil
}

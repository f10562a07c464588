package input

import (
	"context"
	"time"

	"jordanella.com/desktop-pilot/internal/apperr"
	"jordanella.com/desktop-pilot/internal/cv"
	"jordanella.com/desktop-pilot/internal/logging"
	"jordanella.com/desktop-pilot/internal/motion"
)

const (
	defaultHoldMin = 40 * time.Millisecond
	defaultHoldMax = 110 * time.Millisecond
)

// Clicker combines pointer motion with button presses
type Clicker struct {
	mover  *motion.Mover
	sink   Sink
	rng    motion.Source
	clock  motion.Clock
	logger *logging.Logger

	holdMin, holdMax time.Duration
}

// ClickerOption customizes a Clicker
type ClickerOption func(*Clicker)

// WithHold sets the range a button stays pressed
func WithHold(shortest, longest time.Duration) ClickerOption {
	return func(c *Clicker) {
		c.holdMin, c.holdMax = shortest, longest
	}
}

// WithClickSource sets the random source for hold times
func WithClickSource(src motion.Source) ClickerOption {
	return func(c *Clicker) {
		c.rng = src
	}
}

// WithClickClock sets the clock used while a button is held
func WithClickClock(clock motion.Clock) ClickerOption {
	return func(c *Clicker) {
		c.clock = clock
	}
}

// WithClickLogger sets the logger
func WithClickLogger(l *logging.Logger) ClickerOption {
	return func(c *Clicker) {
		c.logger = l
	}
}

// NewClicker creates a clicker moving with mover and pressing through sink
func NewClicker(mover *motion.Mover, sink Sink, options ...ClickerOption) (*Clicker, error) {
	if mover == nil || sink == nil {
		return nil, apperr.InvalidArgument("NewClicker", "mover and sink are required")
	}

	c := &Clicker{
		mover:   mover,
		sink:    sink,
		clock:   motion.WallClock{},
		holdMin: defaultHoldMin,
		holdMax: defaultHoldMax,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.rng == nil {
		c.rng = motion.NewSource(0)
	}
	if c.holdMin <= 0 || c.holdMin > c.holdMax {
		return nil, apperr.InvalidArgument("NewClicker", "invalid hold range [%v, %v]", c.holdMin, c.holdMax)
	}
	return c, nil
}

// Click presses and releases button at the current position. The button is
// released even when ctx ends while it is held.
func (c *Clicker) Click(ctx context.Context, button Button) error {
	if err := ctx.Err(); err != nil {
		return apperr.Canceled("Click", err)
	}

	if err := c.sink.ButtonDown(button); err != nil {
		return apperr.OperationFailed("Click", err, "failed to press %s button", button)
	}

	sleepErr := c.clock.Sleep(ctx, c.holdDuration())

	if err := c.sink.ButtonUp(button); err != nil {
		return apperr.OperationFailed("Click", err, "failed to release %s button", button)
	}
	if sleepErr != nil {
		return apperr.Canceled("Click", sleepErr)
	}
	return nil
}

// ClickAt moves to target over duration and clicks there
func (c *Clicker) ClickAt(ctx context.Context, target cv.Point, duration time.Duration, button Button) error {
	if err := c.mover.MoveTo(ctx, target, duration); err != nil {
		return err
	}

	c.logger.DebugWithContext("click", map[string]interface{}{
		"x":      target.X,
		"y":      target.Y,
		"button": string(button),
	})
	return c.Click(ctx, button)
}

// Drag presses button at from, moves to to and releases there
func (c *Clicker) Drag(ctx context.Context, from, to cv.Point, duration time.Duration, button Button) error {
	if err := c.mover.MoveTo(ctx, from, duration); err != nil {
		return err
	}
	if err := c.sink.ButtonDown(button); err != nil {
		return apperr.OperationFailed("Drag", err, "failed to press %s button", button)
	}

	moveErr := c.mover.MoveTo(ctx, to, duration)

	if err := c.sink.ButtonUp(button); err != nil {
		return apperr.OperationFailed("Drag", err, "failed to release %s button", button)
	}
	return moveErr
}

func (c *Clicker) holdDuration() time.Duration {
	span := float64(c.holdMax - c.holdMin)
	return c.holdMin + time.Duration(c.rng.Float64()*span)
}

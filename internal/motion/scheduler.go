package motion

import (
	"context"
	"math"
	"sync"
	"time"

	"jordanella.com/desktop-pilot/internal/apperr"
	"jordanella.com/desktop-pilot/internal/cv"
	"jordanella.com/desktop-pilot/internal/logging"
)

const (
	// Epsilon is the distance below which MoveTo emits nothing
	Epsilon = 0.5

	// frameMillis approximates one display frame per step
	frameMillis = 16

	// tick is the shortest delay between two steps
	tick = time.Millisecond
)

// Pointer is the absolute pointer surface the mover drives
type Pointer interface {
	Position() (x, y int, err error)
	MoveAbsolute(x, y int) error
}

// Step is one emitted position followed by a pause. The last step of a plan
// has no pause.
type Step struct {
	Point cv.Point
	Delay time.Duration
}

// Plan is a fully computed move
type Plan struct {
	Start            cv.Point
	Target           cv.Point
	AdjustedDuration time.Duration
	Steps            []Step
}

// Mover moves the pointer along randomized curves. It keeps no state between
// moves; every move starts from the position reported by the pointer.
type Mover struct {
	pointer Pointer
	opts    Options
	clock   Clock
	logger  *logging.Logger

	mu  sync.Mutex // guards rng
	rng Source
}

// NewMover validates opts and creates a mover
func NewMover(pointer Pointer, opts Options, options ...Option) (*Mover, error) {
	if pointer == nil {
		return nil, apperr.InvalidArgument("NewMover", "pointer is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	m := &Mover{
		pointer: pointer,
		opts:    opts,
		clock:   WallClock{},
	}
	for _, opt := range options {
		opt(m)
	}
	if m.rng == nil {
		m.rng = NewSource(0)
	}
	return m, nil
}

// Options returns the validated options
func (m *Mover) Options() Options {
	return m.opts
}

// Plan computes the points and delays of a move without emitting anything.
// A move shorter than Epsilon yields an empty plan.
func (m *Mover) Plan(start, target cv.Point, duration time.Duration) (*Plan, error) {
	if duration <= 0 {
		return nil, apperr.OutOfRange("Plan", "duration must be positive (got %v)", duration)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	factor := uniform(m.rng, m.opts.MinDurationFactor, m.opts.MaxDurationFactor)
	adjusted := time.Duration(float64(duration) * factor)
	plan := &Plan{Start: start, Target: target, AdjustedDuration: adjusted}

	distance := Distance(start, target)
	if distance < Epsilon {
		return plan, nil
	}

	steps := stepCount(adjusted, m.opts.MinSteps, m.opts.MaxSteps)
	c1, c2 := ControlPoints(m.rng, start, target, distance, m.opts.CurvaturePixels)

	plan.Steps = make([]Step, steps)
	var consumed time.Duration
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p := Bezier(start, c1, c2, target, t)

		if i == steps {
			p = target
		} else {
			jitter := m.opts.PathJitterPixels * math.Max(0, 1-t)
			p.X += uniform(m.rng, -jitter, jitter)
			p.Y += uniform(m.rng, -jitter, jitter)
		}

		var delay time.Duration
		if i < steps {
			remaining := adjusted - consumed
			delay = time.Duration(float64(remaining) / float64(steps-i) * uniform(m.rng, 0.7, 1.3))
			if delay < tick {
				delay = tick
			}
			if delay > remaining {
				delay = remaining
			}
			consumed += delay
		}

		plan.Steps[i-1] = Step{Point: p, Delay: delay}
	}

	return plan, nil
}

// MoveTo moves the pointer from its current position to target over roughly
// duration. Cancellation is checked before every step and leaves the pointer
// wherever the last emitted step put it.
//
// The pointer only takes whole pixels, so every point is rounded half away
// from zero. The plan lands exactly on target; the pointer lands on the
// nearest pixel, e.g. the GlobalCenter (10.5, 4.5) of an odd-sized match
// ends at (11, 5).
func (m *Mover) MoveTo(ctx context.Context, target cv.Point, duration time.Duration) error {
	if duration <= 0 {
		return apperr.OutOfRange("MoveTo", "duration must be positive (got %v)", duration)
	}
	if err := ctx.Err(); err != nil {
		return apperr.Canceled("MoveTo", err)
	}

	x, y, err := m.pointer.Position()
	if err != nil {
		return apperr.OperationFailed("MoveTo", err, "failed to read pointer position")
	}
	start := cv.Point{X: float64(x), Y: float64(y)}

	plan, err := m.Plan(start, target, duration)
	if err != nil {
		return err
	}
	if len(plan.Steps) == 0 {
		return nil
	}

	m.logger.DebugWithContext("moving pointer", map[string]interface{}{
		"from_x":   x,
		"from_y":   y,
		"to_x":     target.X,
		"to_y":     target.Y,
		"steps":    len(plan.Steps),
		"duration": plan.AdjustedDuration.String(),
	})

	for i, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return apperr.Canceled("MoveTo", err).WithDetail("step", i)
		}

		px, py := int(math.Round(step.Point.X)), int(math.Round(step.Point.Y))
		if err := m.pointer.MoveAbsolute(px, py); err != nil {
			return apperr.OperationFailed("MoveTo", err, "failed to move pointer to (%d,%d)", px, py)
		}

		if step.Delay > 0 {
			if err := m.clock.Sleep(ctx, step.Delay); err != nil {
				return apperr.Canceled("MoveTo", err).WithDetail("step", i+1)
			}
		}
	}

	return nil
}

// MoveBy moves relative to the current pointer position
func (m *Mover) MoveBy(ctx context.Context, dx, dy float64, duration time.Duration) error {
	x, y, err := m.pointer.Position()
	if err != nil {
		return apperr.OperationFailed("MoveBy", err, "failed to read pointer position")
	}
	return m.MoveTo(ctx, cv.Point{X: float64(x) + dx, Y: float64(y) + dy}, duration)
}

func stepCount(adjusted time.Duration, minSteps, maxSteps int) int {
	steps := int(adjusted.Milliseconds() / frameMillis)
	if steps < minSteps {
		return minSteps
	}
	if steps > maxSteps {
		return maxSteps
	}
	return steps
}

package motion

import (
	"math"

	"jordanella.com/desktop-pilot/internal/apperr"
	"jordanella.com/desktop-pilot/internal/logging"
)

// Options shape the timing and path of every move
type Options struct {
	MinDurationFactor float64 // lower bound of the per-move speed factor
	MaxDurationFactor float64 // upper bound of the per-move speed factor
	CurvaturePixels   float64 // cap on the sideways bend of the path
	PathJitterPixels  float64 // per-step jitter at the start of a move
	MinSteps          int
	MaxSteps          int
}

// DefaultOptions returns recommended settings
func DefaultOptions() Options {
	return Options{
		MinDurationFactor: 0.85,
		MaxDurationFactor: 1.15,
		CurvaturePixels:   60,
		PathJitterPixels:  1.5,
		MinSteps:          8,
		MaxSteps:          120,
	}
}

// Validate fails fast on values no move could honor
func (o Options) Validate() error {
	const op = "motion.Options"

	if !finite(o.MinDurationFactor) || !finite(o.MaxDurationFactor) ||
		o.MinDurationFactor <= 0 || o.MaxDurationFactor <= 0 {
		return apperr.InvalidArgument(op, "duration factors must be positive (got %v, %v)",
			o.MinDurationFactor, o.MaxDurationFactor)
	}
	if o.MinDurationFactor > o.MaxDurationFactor {
		return apperr.InvalidArgument(op, "min duration factor %v exceeds max %v",
			o.MinDurationFactor, o.MaxDurationFactor)
	}
	if !finite(o.CurvaturePixels) || o.CurvaturePixels < 0 {
		return apperr.InvalidArgument(op, "curvature must be >= 0 (got %v)", o.CurvaturePixels)
	}
	if !finite(o.PathJitterPixels) || o.PathJitterPixels < 0 {
		return apperr.InvalidArgument(op, "path jitter must be >= 0 (got %v)", o.PathJitterPixels)
	}
	if o.MinSteps < 1 || o.MinSteps > o.MaxSteps {
		return apperr.InvalidArgument(op, "steps must satisfy 1 <= min <= max (got %d, %d)",
			o.MinSteps, o.MaxSteps)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Option customizes a Mover
type Option func(*Mover)

// WithSource replaces the random source, usually with a seeded one in tests
func WithSource(src Source) Option {
	return func(m *Mover) {
		m.rng = src
	}
}

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(m *Mover) {
		m.clock = c
	}
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(m *Mover) {
		m.logger = l
	}
}

package script

import (
	"time"

	"jordanella.com/desktop-pilot/internal/cv"
	"jordanella.com/desktop-pilot/internal/input"
	"jordanella.com/desktop-pilot/internal/logging"
	"jordanella.com/desktop-pilot/internal/motion"
	"jordanella.com/desktop-pilot/pkg/templates"
)

// Defaults fill in step fields a routine leaves unset
type Defaults struct {
	MoveDuration  time.Duration
	MinConfidence float64
	PollInterval  time.Duration
}

// Env is everything a script may drive during one run
type Env struct {
	Mover     *motion.Mover
	Engine    *cv.Engine
	Keyboard  *input.Keyboard
	Clicker   *input.Clicker
	Templates *templates.TemplateRegistry
	Logger    *logging.Logger
	Defaults  Defaults

	// OnStep, when set, observes every executed routine step
	OnStep func(index int, action string, elapsed time.Duration, err error)
}

func (e *Env) moveDuration(ms int) time.Duration {
	if ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return e.Defaults.MoveDuration
}

func (e *Env) minConfidence(c float64) float64 {
	if c > 0 {
		return c
	}
	return e.Defaults.MinConfidence
}

func (e *Env) pollInterval() time.Duration {
	if e.Defaults.PollInterval > 0 {
		return e.Defaults.PollInterval
	}
	return 250 * time.Millisecond
}

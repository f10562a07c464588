package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jordanella.com/desktop-pilot/internal/apperr"
	"jordanella.com/desktop-pilot/internal/cv"
	"jordanella.com/desktop-pilot/internal/input"
	"jordanella.com/desktop-pilot/pkg/templates"
)

// ErrNotFound is returned by a non-optional step whose visual target is not
// on screen
var ErrNotFound = errors.New("target not found")

func notFound(kind, what string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, what)
}

func validDuration(ms int) error {
	if ms < 0 {
		return fmt.Errorf("duration (%d) must not be negative", ms)
	}
	return nil
}

func validTemplate(name string, lookup TemplateLookup) error {
	if name == "" {
		return fmt.Errorf("template is required")
	}
	if lookup != nil && !lookup.Has(name) {
		return fmt.Errorf("template '%s' not found in registry", name)
	}
	return nil
}

func validConfidence(c float64) error {
	if c < 0 || c > 1 {
		return fmt.Errorf("min_confidence %.3f outside [0,1]", c)
	}
	return nil
}

func searchRegion(def *templates.RegionDef) (*cv.Rect, error) {
	if def == nil {
		return nil, nil
	}
	rect, err := def.Rect()
	if err != nil {
		return nil, err
	}
	return &rect, nil
}

// Move glides the pointer to a point on the virtual desktop
type Move struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Duration int     `yaml:"duration"` // milliseconds, 0 uses the default
}

func (a *Move) Validate(TemplateLookup) error {
	return validDuration(a.Duration)
}

func (a *Move) Execute(ctx context.Context, env *Env) error {
	return env.Mover.MoveTo(ctx, cv.Point{X: a.X, Y: a.Y}, env.moveDuration(a.Duration))
}

// Click presses a button, first moving to X/Y when both are given
type Click struct {
	X        *float64 `yaml:"x"`
	Y        *float64 `yaml:"y"`
	Button   string   `yaml:"button"`
	Duration int      `yaml:"duration"`
}

func (a *Click) Validate(TemplateLookup) error {
	if (a.X == nil) != (a.Y == nil) {
		return fmt.Errorf("x and y must be given together")
	}
	if _, err := input.ParseButton(a.Button); err != nil {
		return err
	}
	return validDuration(a.Duration)
}

func (a *Click) Execute(ctx context.Context, env *Env) error {
	button, err := input.ParseButton(a.Button)
	if err != nil {
		return err
	}
	if a.X == nil {
		return env.Clicker.Click(ctx, button)
	}
	return env.Clicker.ClickAt(ctx, cv.Point{X: *a.X, Y: *a.Y}, env.moveDuration(a.Duration), button)
}

// Drag holds a button from one point to another
type Drag struct {
	FromX    float64 `yaml:"from_x"`
	FromY    float64 `yaml:"from_y"`
	ToX      float64 `yaml:"to_x"`
	ToY      float64 `yaml:"to_y"`
	Button   string  `yaml:"button"`
	Duration int     `yaml:"duration"`
}

func (a *Drag) Validate(TemplateLookup) error {
	if _, err := input.ParseButton(a.Button); err != nil {
		return err
	}
	return validDuration(a.Duration)
}

func (a *Drag) Execute(ctx context.Context, env *Env) error {
	button, err := input.ParseButton(a.Button)
	if err != nil {
		return err
	}
	from := cv.Point{X: a.FromX, Y: a.FromY}
	to := cv.Point{X: a.ToX, Y: a.ToY}
	return env.Clicker.Drag(ctx, from, to, env.moveDuration(a.Duration), button)
}

// FindImage fails unless the template is on screen
type FindImage struct {
	Template string `yaml:"template"`
	Optional bool   `yaml:"optional"`
}

func (a *FindImage) Validate(lookup TemplateLookup) error {
	return validTemplate(a.Template, lookup)
}

func (a *FindImage) Execute(ctx context.Context, env *Env) error {
	match, err := env.Engine.FindTemplate(ctx, a.Template)
	if err != nil {
		return err
	}
	if match == nil {
		if a.Optional {
			return nil
		}
		return notFound("template", a.Template)
	}

	env.Logger.DebugWithContext("template found", map[string]interface{}{
		"template":   a.Template,
		"bounds":     match.GlobalBounds(),
		"confidence": match.Payload.Confidence,
	})
	return nil
}

// WaitImage polls until the template appears. Timeout 0 waits until the run
// is canceled.
type WaitImage struct {
	Template string `yaml:"template"`
	Timeout  int    `yaml:"timeout"` // milliseconds
	Optional bool   `yaml:"optional"`
}

func (a *WaitImage) Validate(lookup TemplateLookup) error {
	if a.Timeout < 0 {
		return fmt.Errorf("timeout (%d) must not be negative", a.Timeout)
	}
	return validTemplate(a.Template, lookup)
}

func (a *WaitImage) Execute(ctx context.Context, env *Env) error {
	if env.Templates == nil {
		return apperr.MissingResource("WaitImage", "template registry", nil)
	}
	img, tmpl, err := env.Templates.ImageCache().Get(a.Template)
	if err != nil {
		return err
	}

	waitCtx := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, time.Duration(a.Timeout)*time.Millisecond)
		defer cancel()
	}

	_, err = env.Engine.WaitForImage(waitCtx, img, tmpl.Threshold, tmpl.Region, env.pollInterval())
	if err != nil && apperr.IsCanceled(err) && ctx.Err() == nil {
		// the step timed out, the run itself goes on
		if a.Optional {
			return nil
		}
		return notFound("template", a.Template)
	}
	return err
}

// ClickImage clicks the center of a template on screen
type ClickImage struct {
	Template string `yaml:"template"`
	Button   string `yaml:"button"`
	Duration int    `yaml:"duration"`
	Optional bool   `yaml:"optional"`
}

func (a *ClickImage) Validate(lookup TemplateLookup) error {
	if _, err := input.ParseButton(a.Button); err != nil {
		return err
	}
	if err := validDuration(a.Duration); err != nil {
		return err
	}
	return validTemplate(a.Template, lookup)
}

func (a *ClickImage) Execute(ctx context.Context, env *Env) error {
	button, err := input.ParseButton(a.Button)
	if err != nil {
		return err
	}

	match, err := env.Engine.FindTemplate(ctx, a.Template)
	if err != nil {
		return err
	}
	if match == nil {
		if a.Optional {
			return nil
		}
		return notFound("template", a.Template)
	}

	return env.Clicker.ClickAt(ctx, match.GlobalCenter(), env.moveDuration(a.Duration), button)
}

// FindText fails unless a recognized word contains Text
type FindText struct {
	Text          string               `yaml:"text"`
	MinConfidence float64              `yaml:"min_confidence"` // 0 uses the default
	Region        *templates.RegionDef `yaml:"region,omitempty"`
	Optional      bool                 `yaml:"optional"`
}

func (a *FindText) Validate(TemplateLookup) error {
	if strings.TrimSpace(a.Text) == "" {
		return fmt.Errorf("text is required")
	}
	if a.Region != nil {
		if _, err := a.Region.Rect(); err != nil {
			return err
		}
	}
	return validConfidence(a.MinConfidence)
}

func (a *FindText) Execute(ctx context.Context, env *Env) error {
	_, err := findWord(ctx, env, a.Text, a.MinConfidence, a.Region, a.Optional)
	return err
}

// ClickText clicks the most confident word containing Text
type ClickText struct {
	Text          string               `yaml:"text"`
	MinConfidence float64              `yaml:"min_confidence"`
	Region        *templates.RegionDef `yaml:"region,omitempty"`
	Button        string               `yaml:"button"`
	Duration      int                  `yaml:"duration"`
	Optional      bool                 `yaml:"optional"`
}

func (a *ClickText) Validate(lookup TemplateLookup) error {
	find := FindText{Text: a.Text, MinConfidence: a.MinConfidence, Region: a.Region}
	if err := find.Validate(lookup); err != nil {
		return err
	}
	if _, err := input.ParseButton(a.Button); err != nil {
		return err
	}
	return validDuration(a.Duration)
}

func (a *ClickText) Execute(ctx context.Context, env *Env) error {
	button, err := input.ParseButton(a.Button)
	if err != nil {
		return err
	}

	word, err := findWord(ctx, env, a.Text, a.MinConfidence, a.Region, a.Optional)
	if err != nil || word == nil {
		return err
	}
	return env.Clicker.ClickAt(ctx, word.GlobalCenter(), env.moveDuration(a.Duration), button)
}

// findWord returns the most confident match, nil when an optional search
// finds nothing
func findWord(ctx context.Context, env *Env, text string, minConfidence float64, regionDef *templates.RegionDef, optional bool) (*cv.TextMatch, error) {
	region, err := searchRegion(regionDef)
	if err != nil {
		return nil, err
	}

	words, err := env.Engine.FindText(ctx, text, env.minConfidence(minConfidence), region)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		if optional {
			return nil, nil
		}
		return nil, notFound("text", text)
	}

	best := words[0]
	for _, w := range words[1:] {
		if w.Payload.Confidence > best.Payload.Confidence {
			best = w
		}
	}

	env.Logger.DebugWithContext("text found", map[string]interface{}{
		"text":       best.Payload.Text,
		"bounds":     best.GlobalBounds(),
		"confidence": best.Payload.Confidence,
	})
	return &best, nil
}

// Type enters text on the keyboard
type Type struct {
	Text string `yaml:"text"`
}

func (a *Type) Validate(TemplateLookup) error {
	if a.Text == "" {
		return fmt.Errorf("text is required")
	}
	return nil
}

func (a *Type) Execute(ctx context.Context, env *Env) error {
	return env.Keyboard.Type(ctx, a.Text)
}

// Key taps a key while holding modifiers
type Key struct {
	Key       string   `yaml:"key"`
	Modifiers []string `yaml:"modifiers,omitempty"`
}

func (a *Key) Validate(TemplateLookup) error {
	if strings.TrimSpace(a.Key) == "" {
		return fmt.Errorf("key is required")
	}
	for _, m := range a.Modifiers {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("empty modifier")
		}
	}
	return nil
}

func (a *Key) Execute(ctx context.Context, env *Env) error {
	return env.Keyboard.Press(ctx, a.Key, a.Modifiers...)
}

// Sleep pauses the run
type Sleep struct {
	Duration int `yaml:"duration"` // milliseconds
}

func (a *Sleep) Validate(TemplateLookup) error {
	if a.Duration <= 0 {
		return fmt.Errorf("duration (%d) must be greater than 0", a.Duration)
	}
	return nil
}

func (a *Sleep) Execute(ctx context.Context, env *Env) error {
	timer := time.NewTimer(time.Duration(a.Duration) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return apperr.Canceled("Sleep", ctx.Err())
	case <-timer.C:
		return nil
	}
}

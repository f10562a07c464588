package script

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"jordanella.com/desktop-pilot/internal/apperr"
)

// stepRegistry maps YAML action names to their concrete step types.
// Names are matched lowercase.
//
// To add a step, implement Step and list it here under the name used in
// routine files.
var stepRegistry = map[string]reflect.Type{
	"move":        reflect.TypeOf(Move{}),
	"click":       reflect.TypeOf(Click{}),
	"drag":        reflect.TypeOf(Drag{}),
	"find_image":  reflect.TypeOf(FindImage{}),
	"wait_image":  reflect.TypeOf(WaitImage{}),
	"click_image": reflect.TypeOf(ClickImage{}),
	"find_text":   reflect.TypeOf(FindText{}),
	"click_text":  reflect.TypeOf(ClickText{}),
	"type":        reflect.TypeOf(Type{}),
	"key":         reflect.TypeOf(Key{}),
	"sleep":       reflect.TypeOf(Sleep{}),
}

func registeredActions() []string {
	names := make([]string, 0, len(stepRegistry))
	for name := range stepRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TemplateLookup reports whether a template name is known
type TemplateLookup interface {
	Has(name string) bool
}

// Step is one action of a routine
type Step interface {
	// Validate checks the step's configuration. templates is nil when
	// template names cannot be checked.
	Validate(templates TemplateLookup) error
	Execute(ctx context.Context, env *Env) error
}

// Routine is a script defined in a YAML file
type Routine struct {
	RoutineName string
	Description string
	Tags        []string
	Steps       []Step

	actions []string // action name per step
}

type routineFile struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Tags        []string    `yaml:"tags,omitempty"`
	Steps       []yaml.Node `yaml:"steps"`
}

type stepHeader struct {
	Action string `yaml:"action"`
}

// UnmarshalYAML resolves each step to its concrete type through the
// action field
func (r *Routine) UnmarshalYAML(value *yaml.Node) error {
	var file routineFile
	if err := value.Decode(&file); err != nil {
		return err
	}

	r.RoutineName = file.Name
	r.Description = file.Description
	r.Tags = file.Tags
	r.Steps = make([]Step, 0, len(file.Steps))
	r.actions = make([]string, 0, len(file.Steps))

	for i := range file.Steps {
		node := &file.Steps[i]

		var header stepHeader
		if err := node.Decode(&header); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if header.Action == "" {
			return fmt.Errorf("step %d: missing 'action' field", i+1)
		}

		action := strings.ToLower(header.Action)
		stepType, found := stepRegistry[action]
		if !found {
			return fmt.Errorf("step %d: unknown action '%s' (available actions: %v)", i+1, header.Action, registeredActions())
		}

		step := reflect.New(stepType).Interface().(Step)
		if err := node.Decode(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, action, err)
		}

		r.Steps = append(r.Steps, step)
		r.actions = append(r.actions, action)
	}
	return nil
}

// Name implements Script
func (r *Routine) Name() string {
	return r.RoutineName
}

// Validate checks every step, failing on the first invalid one
func (r *Routine) Validate(templates TemplateLookup) error {
	if r.RoutineName == "" {
		return apperr.InvalidArgument("Routine.Validate", "routine name must not be empty")
	}
	for i, step := range r.Steps {
		if err := step.Validate(templates); err != nil {
			return fmt.Errorf("routine '%s' step %d (%s) validation failed: %w", r.RoutineName, i+1, r.action(i), err)
		}
	}
	return nil
}

// Run executes the steps in order. Cancellation is checked before each step.
func (r *Routine) Run(ctx context.Context, env *Env) error {
	logger := env.Logger.Named(r.RoutineName)

	for i, step := range r.Steps {
		if err := ctx.Err(); err != nil {
			return apperr.Canceled("Routine.Run", err)
		}

		logger.DebugWithContext("step", map[string]interface{}{
			"index":  i + 1,
			"action": r.action(i),
		})

		started := time.Now()
		err := step.Execute(ctx, env)
		if env.OnStep != nil {
			env.OnStep(i+1, r.action(i), time.Since(started), err)
		}
		if err != nil {
			return fmt.Errorf("routine '%s' step %d (%s): %w", r.RoutineName, i+1, r.action(i), err)
		}
	}
	return nil
}

func (r *Routine) action(i int) string {
	if i < len(r.actions) {
		return r.actions[i]
	}
	return fmt.Sprintf("%T", r.Steps[i])
}

package script

import (
	"context"
	"sort"
	"sync"

	"jordanella.com/desktop-pilot/internal/apperr"
)

// Script is a named task the host can run
type Script interface {
	Name() string
	Run(ctx context.Context, env *Env) error
}

type funcScript struct {
	name string
	run  func(ctx context.Context, env *Env) error
}

func (s funcScript) Name() string { return s.name }
func (s funcScript) Run(ctx context.Context, env *Env) error { return s.run(ctx, env) }

// Func adapts a plain function into a Script
func Func(name string, run func(ctx context.Context, env *Env) error) Script {
	return funcScript{name: name, run: run}
}

// Registry holds scripts by name. Names are unique; a second registration
// under the same name fails instead of replacing the first.
type Registry struct {
	mu      sync.RWMutex
	scripts map[string]Script
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{scripts: make(map[string]Script)}
}

// Register adds s, rejecting empty and duplicate names
func (r *Registry) Register(s Script) error {
	if s == nil || s.Name() == "" {
		return apperr.InvalidArgument("Registry.Register", "script name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scripts[s.Name()]; exists {
		return apperr.InvalidArgument("Registry.Register", "duplicate script name %q", s.Name())
	}
	r.scripts[s.Name()] = s
	return nil
}

// MustRegister is Register for scripts compiled into the binary
func (r *Registry) MustRegister(s Script) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Get looks a script up by name
func (r *Registry) Get(name string) (Script, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.scripts[name]
	if !ok {
		return nil, apperr.MissingResource("Registry.Get", "script "+name, nil)
	}
	return s, nil
}

// List returns the registered names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.scripts))
	for name := range r.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns the description of a routine script, or "" for others
func (r *Registry) Describe(name string) string {
	s, err := r.Get(name)
	if err != nil {
		return ""
	}
	if routine, ok := s.(*Routine); ok {
		return routine.Description
	}
	return ""
}

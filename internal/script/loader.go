package script

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadRoutine reads a routine file and validates every step. A routine
// without a name takes the file's base name. templates may be nil to skip
// template name checks.
func LoadRoutine(path string, templates TemplateLookup) (*Routine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routine file %s: %w", path, err)
	}

	var routine Routine
	if err := yaml.Unmarshal(data, &routine); err != nil {
		return nil, fmt.Errorf("failed to unmarshal routine %s: %w", path, err)
	}

	if routine.RoutineName == "" {
		routine.RoutineName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := routine.Validate(templates); err != nil {
		return nil, err
	}
	return &routine, nil
}

// LoadDirectory registers every routine file in dir. Loading stops at the
// first invalid file or duplicate name.
func (r *Registry) LoadDirectory(dir string, templates TemplateLookup) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read scripts directory %s: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		routine, err := LoadRoutine(filepath.Join(dir, entry.Name()), templates)
		if err != nil {
			return loaded, err
		}
		if err := r.Register(routine); err != nil {
			return loaded, fmt.Errorf("file %s: %w", entry.Name(), err)
		}
		loaded++
	}
	return loaded, nil
}

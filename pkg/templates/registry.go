package templates

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"jordanella.com/desktop-pilot/internal/cv"
	"jordanella.com/desktop-pilot/internal/logging"
)

// DefaultThreshold applies to templates that do not set one
const DefaultThreshold = 0.8

// TemplateRegistry manages named templates loaded from YAML files
type TemplateRegistry struct {
	mu         sync.RWMutex
	templates  map[string]cv.Template
	basePath   string // root for relative image paths
	imageCache *ImageCache
	logger     *logging.Logger
}

// TemplateDefinition represents a template in the YAML file
type TemplateDefinition struct {
	Name        string     `yaml:"name"`
	Path        string     `yaml:"path"`
	Threshold   float64    `yaml:"threshold"`
	Region      *RegionDef `yaml:"region,omitempty"`
	Preload     bool       `yaml:"preload,omitempty"`
	UnloadAfter bool       `yaml:"unload_after,omitempty"`
}

// RegionDef is a global search region in virtual desktop pixels
type RegionDef struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Rect converts the definition, failing on a non-positive size
func (r RegionDef) Rect() (cv.Rect, error) {
	rect := cv.NewRect(r.X, r.Y, r.Width, r.Height)
	if err := rect.Validate(); err != nil {
		return cv.Rect{}, err
	}
	return rect, nil
}

// TemplateFile represents the structure of a template YAML file
type TemplateFile struct {
	Templates []TemplateDefinition `yaml:"templates"`
}

// NewTemplateRegistry creates a registry resolving image paths under basePath
func NewTemplateRegistry(basePath string, logger *logging.Logger) *TemplateRegistry {
	return &TemplateRegistry{
		templates:  make(map[string]cv.Template),
		basePath:   basePath,
		imageCache: NewImageCache(),
		logger:     logger,
	}
}

// LoadFromFile loads templates from a YAML file. Definitions are validated
// before any of them is registered.
func (tr *TemplateRegistry) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read template file %s: %w", filePath, err)
	}

	var templateFile TemplateFile
	if err := yaml.Unmarshal(data, &templateFile); err != nil {
		return fmt.Errorf("failed to unmarshal template YAML: %w", err)
	}

	defs := make([]cv.Template, 0, len(templateFile.Templates))
	for i, def := range templateFile.Templates {
		template, err := tr.fromDefinition(def)
		if err != nil {
			return fmt.Errorf("template %d: %w", i+1, err)
		}
		defs = append(defs, template)
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	for i, template := range defs {
		def := templateFile.Templates[i]
		tr.templates[template.Name] = template

		if err := tr.imageCache.Register(template, def.Preload, def.UnloadAfter); err != nil {
			// the image can still be loaded on demand
			tr.logger.Warn(err.Error())
		}
	}

	tr.logger.InfoWithContext("templates loaded", map[string]interface{}{
		"file":  filePath,
		"count": len(defs),
	})
	return nil
}

func (tr *TemplateRegistry) fromDefinition(def TemplateDefinition) (cv.Template, error) {
	if def.Name == "" {
		return cv.Template{}, fmt.Errorf("name cannot be empty")
	}
	if def.Path == "" {
		return cv.Template{}, fmt.Errorf("%s: path cannot be empty", def.Name)
	}
	if def.Threshold < 0 || def.Threshold > 1 {
		return cv.Template{}, fmt.Errorf("%s: threshold %.3f outside [0,1]", def.Name, def.Threshold)
	}

	path := def.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(tr.basePath, path)
	}

	template := cv.Template{
		Name:      def.Name,
		Path:      path,
		Threshold: def.Threshold,
	}
	if template.Threshold == 0 {
		template.Threshold = DefaultThreshold
	}

	if def.Region != nil {
		region, err := def.Region.Rect()
		if err != nil {
			return cv.Template{}, fmt.Errorf("%s: %w", def.Name, err)
		}
		template.Region = &region
	}

	return template, nil
}

// LoadFromDirectory loads all YAML files from a directory
func (tr *TemplateRegistry) LoadFromDirectory(dirPath string) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read template directory %s: %w", dirPath, err)
	}

	var loadErrors []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		if err := tr.LoadFromFile(filepath.Join(dirPath, entry.Name())); err != nil {
			loadErrors = append(loadErrors, fmt.Errorf("file %s: %w", entry.Name(), err))
		}
	}

	if len(loadErrors) > 0 {
		return fmt.Errorf("failed to load %d template files (first error): %w", len(loadErrors), loadErrors[0])
	}
	return nil
}

// Get retrieves a template by name
func (tr *TemplateRegistry) Get(name string) (cv.Template, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	template, ok := tr.templates[name]
	return template, ok
}

// Register adds a file-backed template programmatically
func (tr *TemplateRegistry) Register(template cv.Template) error {
	if template.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	if template.Threshold == 0 {
		template.Threshold = DefaultThreshold
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.templates[template.Name] = template
	return tr.imageCache.Register(template, false, false)
}

// RegisterImage adds a template backed by an in-memory image
func (tr *TemplateRegistry) RegisterImage(template cv.Template, img image.Image) error {
	if template.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	if img == nil {
		return fmt.Errorf("template %s: image is required", template.Name)
	}
	if template.Threshold == 0 {
		template.Threshold = DefaultThreshold
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.templates[template.Name] = template
	tr.imageCache.RegisterImage(template, img)
	return nil
}

// Has checks if a template exists in the registry
func (tr *TemplateRegistry) Has(name string) bool {
	_, ok := tr.Get(name)
	return ok
}

// List returns all template names, sorted
func (tr *TemplateRegistry) List() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of templates in the registry
func (tr *TemplateRegistry) Count() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.templates)
}

// Remove removes a template and its cached image
func (tr *TemplateRegistry) Remove(name string) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if _, ok := tr.templates[name]; !ok {
		return false
	}
	delete(tr.templates, name)
	tr.imageCache.Remove(name)
	return true
}

// ImageCache returns the image cache, which implements cv.TemplateSource
func (tr *TemplateRegistry) ImageCache() *ImageCache {
	return tr.imageCache
}

// UnloadAll unloads all cached images
func (tr *TemplateRegistry) UnloadAll() {
	tr.imageCache.UnloadAll()
}

// CacheStats returns image cache statistics
func (tr *TemplateRegistry) CacheStats() CacheStats {
	return tr.imageCache.Stats()
}

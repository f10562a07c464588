package templates

import (
	"fmt"
	"image"
	"sync"

	"jordanella.com/desktop-pilot/internal/apperr"
	"jordanella.com/desktop-pilot/internal/cv"
)

// CachedTemplate pairs a template with its decoded image
type CachedTemplate struct {
	cv.Template
	image       *image.RGBA
	mu          sync.RWMutex
	pinned      bool // image supplied in memory, never unloaded
	unloadAfter bool // drop the image on Release
}

// ImageCache loads template images on demand and keeps them in memory
type ImageCache struct {
	templates map[string]*CachedTemplate
	mu        sync.RWMutex
	stats     CacheStats
}

// CacheStats tracks cache performance
type CacheStats struct {
	Hits        int64
	Misses      int64
	Loads       int64
	Unloads     int64
	PreloadFail int64
}

// NewImageCache creates a new image cache
func NewImageCache() *ImageCache {
	return &ImageCache{
		templates: make(map[string]*CachedTemplate),
	}
}

// Register adds a file-backed template, loading it now when preload is set
func (ic *ImageCache) Register(template cv.Template, preload, unloadAfter bool) error {
	cached := &CachedTemplate{
		Template:    template,
		unloadAfter: unloadAfter,
	}

	ic.mu.Lock()
	ic.templates[template.Name] = cached
	ic.mu.Unlock()

	if preload {
		if err := cached.load(); err != nil {
			ic.count(func(s *CacheStats) { s.PreloadFail++ })
			return fmt.Errorf("failed to preload template %s: %w", template.Name, err)
		}
		ic.count(func(s *CacheStats) { s.Loads++ })
	}
	return nil
}

// RegisterImage adds a template whose image is already in memory
func (ic *ImageCache) RegisterImage(template cv.Template, img image.Image) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	ic.templates[template.Name] = &CachedTemplate{
		Template: template,
		image:    cv.ToRGBA(img),
		pinned:   true,
	}
}

// Get returns the image and template for name, loading the file if needed.
// It satisfies cv.TemplateSource.
func (ic *ImageCache) Get(name string) (*image.RGBA, cv.Template, error) {
	ic.mu.RLock()
	cached, ok := ic.templates[name]
	ic.mu.RUnlock()

	if !ok {
		return nil, cv.Template{}, apperr.MissingResource("ImageCache.Get", "template "+name, nil)
	}

	img, loaded, err := cached.getOrLoad()
	if err != nil {
		return nil, cv.Template{}, err
	}

	ic.count(func(s *CacheStats) {
		if loaded {
			s.Misses++
			s.Loads++
		} else {
			s.Hits++
		}
	})

	return img, cached.Template, nil
}

// Release unloads a template image if it was registered with unloadAfter
func (ic *ImageCache) Release(name string) error {
	ic.mu.RLock()
	cached, ok := ic.templates[name]
	ic.mu.RUnlock()

	if !ok {
		return apperr.MissingResource("ImageCache.Release", "template "+name, nil)
	}

	if cached.unloadAfter && cached.unload() {
		ic.count(func(s *CacheStats) { s.Unloads++ })
	}
	return nil
}

// Remove forgets a template entirely
func (ic *ImageCache) Remove(name string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	delete(ic.templates, name)
}

// UnloadAll drops every file-backed image
func (ic *ImageCache) UnloadAll() {
	ic.mu.RLock()
	templates := make([]*CachedTemplate, 0, len(ic.templates))
	for _, t := range ic.templates {
		templates = append(templates, t)
	}
	ic.mu.RUnlock()

	for _, cached := range templates {
		if cached.unload() {
			ic.count(func(s *CacheStats) { s.Unloads++ })
		}
	}
}

// Stats returns cache statistics
func (ic *ImageCache) Stats() CacheStats {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return ic.stats
}

func (ic *ImageCache) count(update func(*CacheStats)) {
	ic.mu.Lock()
	update(&ic.stats)
	ic.mu.Unlock()
}

// getOrLoad returns the cached image, loading it if needed. loaded reports
// whether this call read the file.
func (ct *CachedTemplate) getOrLoad() (img *image.RGBA, loaded bool, err error) {
	ct.mu.RLock()
	if ct.image != nil {
		defer ct.mu.RUnlock()
		return ct.image, false, nil
	}
	ct.mu.RUnlock()

	ct.mu.Lock()
	defer ct.mu.Unlock()

	// another caller may have loaded it meanwhile
	if ct.image != nil {
		return ct.image, false, nil
	}

	img, err = ct.loadLocked()
	return img, err == nil, err
}

func (ct *CachedTemplate) load() error {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if ct.image != nil {
		return nil
	}
	_, err := ct.loadLocked()
	return err
}

// loadLocked decodes the file. Caller holds mu.
func (ct *CachedTemplate) loadLocked() (*image.RGBA, error) {
	img, err := cv.LoadImage(ct.Path)
	if err != nil {
		return nil, err
	}
	ct.image = img
	return img, nil
}

// unload drops the image, reporting whether anything was released
func (ct *CachedTemplate) unload() bool {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if ct.pinned || ct.image == nil {
		return false
	}
	ct.image = nil
	return true
}

// IsLoaded returns true if the image is currently in memory
func (ct *CachedTemplate) IsLoaded() bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.image != nil
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package canvas

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"

	"golang.org/x/image/draw"
)

// Standard backend priorities.
const (
	PriorityRGBA = 100
	PriorityGray = 10
)

// DefaultMaxSurfaceBytes bounds a single surface allocation.
const DefaultMaxSurfaceBytes = 512 << 20

// Registry errors.
var (
	// ErrSurfaceUnavailable is returned when no backend could create the
	// overlay surface.
	ErrSurfaceUnavailable = errors.New("canvas: no surface backend available")

	// ErrSurfaceTooLarge is returned by the built-in factories when a
	// surface would exceed the registry's byte limit.
	ErrSurfaceTooLarge = errors.New("canvas: surface too large")
)

// Surface is a composited raster the overlay is drawn into.
type Surface interface {
	// Backend names the registry entry that created the surface.
	Backend() string

	// Image is the draw target.
	Image() draw.Image

	// Bytes is the memory held by the pixels.
	Bytes() int
}

// Factory creates a width*height surface.
type Factory func(width, height int) (Surface, error)

// Entry is a registered surface backend.
type Entry struct {
	// Name identifies the backend in logs and Stats.
	Name string

	// Priority orders fallback; the highest available entry is tried first.
	Priority int

	// Factory creates surfaces.
	Factory Factory

	// Available reports whether the backend can be used at all.
	Available func() bool
}

// Registry holds surface backends and creates surfaces from the best one
// that succeeds.
//
// Thread safety: all methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// DefaultRegistry creates a registry with the built-in backends: "rgba"
// (full color) and the lower-capability "gray" fallback. Both refuse
// surfaces larger than maxBytes; zero means DefaultMaxSurfaceBytes.
func DefaultRegistry(maxBytes int) *Registry {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxSurfaceBytes
	}
	r := NewRegistry()
	r.Register("rgba", PriorityRGBA, func(w, h int) (Surface, error) {
		if err := checkSize(w, h, 4, maxBytes); err != nil {
			return nil, err
		}
		return &rgbaSurface{img: image.NewRGBA(image.Rect(0, 0, w, h))}, nil
	}, nil)
	r.Register("gray", PriorityGray, func(w, h int) (Surface, error) {
		if err := checkSize(w, h, 1, maxBytes); err != nil {
			return nil, err
		}
		return &graySurface{img: image.NewGray(image.Rect(0, 0, w, h))}, nil
	}, nil)
	return r
}

func checkSize(w, h, bpp, maxBytes int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("canvas: invalid surface size %dx%d", w, h)
	}
	if int64(w)*int64(h)*int64(bpp) > int64(maxBytes) {
		return fmt.Errorf("%w: %dx%d at %d bytes per pixel exceeds %d", ErrSurfaceTooLarge, w, h, bpp, maxBytes)
	}
	return nil
}

// Register adds a backend. If available is nil the backend is assumed
// always available. Registering an existing name replaces it.
func (r *Registry) Register(name string, priority int, factory Factory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*Entry)
	}
	if available == nil {
		available = func() bool { return true }
	}
	r.entries[name] = &Entry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a backend.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns all backend names sorted by priority.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(false)
}

// Available returns the available backend names sorted by priority.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(true)
}

// Get returns a copy of a backend entry.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	cp := *e
	return &cp, true
}

// NewSurface creates a surface from the highest-priority backend that
// succeeds. When every backend fails the error wraps ErrSurfaceUnavailable
// and the last failure.
func (r *Registry) NewSurface(width, height int) (Surface, error) {
	r.mu.RLock()
	names := r.sortedNames(true)
	r.mu.RUnlock()

	if len(names) == 0 {
		return nil, ErrSurfaceUnavailable
	}

	var errs []error
	for _, name := range names {
		s, err := r.NewSurfaceByName(name, width, height)
		if err == nil {
			return s, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return nil, fmt.Errorf("%w: %w", ErrSurfaceUnavailable, errors.Join(errs...))
}

// NewSurfaceByName creates a surface from a specific backend.
func (r *Registry) NewSurfaceByName(name string, width, height int) (Surface, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownSurfaceError{Name: name}
	}
	if !e.Available() {
		return nil, &SurfaceOfflineError{Name: name}
	}
	return e.Factory(width, height)
}

// firstAvailable returns the preferred backend name.
func (r *Registry) firstAvailable() string {
	names := r.Available()
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// sortedNames returns backend names by descending priority, then name.
// Must be called with the lock held.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	if len(r.entries) == 0 {
		return nil
	}

	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if onlyAvailable && !e.Available() {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].Name < entries[j].Name
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// UnknownSurfaceError is returned by NewSurfaceByName for a name nobody registered.
type UnknownSurfaceError struct {
	Name string
}

func (e *UnknownSurfaceError) Error() string {
	return "canvas: backend not found: " + e.Name
}

// SurfaceOfflineError is returned by NewSurfaceByName when the named backend's
// Available check fails.
type SurfaceOfflineError struct {
	Name string
}

func (e *SurfaceOfflineError) Error() string {
	return "canvas: backend unavailable: " + e.Name
}

type rgbaSurface struct {
	img *image.RGBA
}

func (s *rgbaSurface) Backend() string   { return "rgba" }
func (s *rgbaSurface) Image() draw.Image { return s.img }
func (s *rgbaSurface) Bytes() int        { return len(s.img.Pix) }

type graySurface struct {
	img *image.Gray
}

func (s *graySurface) Backend() string   { return "gray" }
func (s *graySurface) Image() draw.Image { return s.img }
func (s *graySurface) Bytes() int        { return len(s.img.Pix) }

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"sort"
	"sync"
)

// RegistryEntry represents a registered canvas backend.
type RegistryEntry struct {
	// Name is the unique identifier for this backend.
	Name string

	// Priority determines selection order (higher = preferred).
	Priority int

	// Factory creates canvases.
	Factory Factory
}

var globalRegistry = &Registry{}

// Registry manages named canvas backends.
//
// Example registration:
//
//	func init() {
//	    surface.Register("recorder", 5, newRecorder)
//	}
//
// Example usage:
//
//	c, err := surface.NewByName("software", 800, 600)
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry creates a new empty registry.
// Most code should use the global registry via Register and NewByName.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*RegistryEntry)}
}

// Register adds a backend to the global registry.
// Registering a name that already exists replaces the previous entry.
func Register(name string, priority int, factory Factory) {
	globalRegistry.Register(name, priority, factory)
}

// Unregister removes a backend from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// List returns all registered backend names sorted by priority.
func List() []string {
	return globalRegistry.List()
}

// NewByName creates a canvas with the named backend of the global registry.
// An empty name selects the highest priority backend.
func NewByName(name string, width, height int) (Canvas, error) {
	return globalRegistry.NewByName(name, width, height)
}

// Lookup returns the factory of the named backend of the global registry.
func Lookup(name string) (Factory, error) {
	return globalRegistry.Lookup(name)
}

// Register adds a backend to this registry.
func (r *Registry) Register(name string, priority int, factory Factory) {
	if factory == nil {
		panic("surface: Register factory is nil for " + name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*RegistryEntry)
	}
	r.entries[name] = &RegistryEntry{Name: name, Priority: priority, Factory: factory}
}

// Unregister removes a backend from this registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// List returns all registered backend names sorted by priority, highest
// first. Equal priorities sort by name.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*RegistryEntry, 0, len(r.entries))
	for _, e := range r.entries {
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

// Lookup returns the factory of a backend. An empty name selects the
// highest priority backend.
func (r *Registry) Lookup(name string) (Factory, error) {
	if name == "" {
		names := r.List()
		if len(names) == 0 {
			return nil, ErrNoBackendAvailable
		}
		name = names[0]
	}

	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}
	return entry.Factory, nil
}

// NewByName creates a canvas using a specific backend.
func (r *Registry) NewByName(name string, width, height int) (Canvas, error) {
	f, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return f(width, height), nil
}

// ErrNoBackendAvailable is returned when no canvas backends are registered.
var ErrNoBackendAvailable = errors.New("surface: no backend available")

// BackendNotFoundError indicates a named backend is not registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "surface: backend not found: " + e.Name
}

func init() {
	Register("software", 10, New)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"cmp"
	"errors"
	"slices"
	"sync"

	"github.com/gogpu/compositor/task"
)

// OutputOptions configures a new output surface.
type OutputOptions struct {
	// Runner receives swap acknowledgements. Required.
	Runner task.Runner
}

// OutputFactory creates an output surface.
type OutputFactory func(opts OutputOptions) (Output, error)

// Backend is a registered output surface backend.
type Backend struct {
	// Name is the unique identifier for this backend.
	Name string

	// Priority determines selection order (higher = preferred).
	//   - 100: host device outputs
	//   - 10: pixmap
	Priority int

	Factory OutputFactory

	// Available reports whether the backend can create outputs now.
	Available func() bool
}

var defaultRegistry = NewRegistry()

// Registry holds output surface backends.
//
// Example:
//
//	render.Register("device", 100, deviceFactory, deviceAvailable)
//	out, err := render.NewOutput(render.OutputOptions{Runner: runner})
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Backend)}
}

// Register adds a backend to the default registry.
func Register(name string, priority int, factory OutputFactory, available func() bool) {
	defaultRegistry.Register(name, priority, factory, available)
}

// Unregister removes a backend from the default registry.
func Unregister(name string) { defaultRegistry.Unregister(name) }

// Backends returns the default registry's backend names by priority.
func Backends() []string { return defaultRegistry.List() }

// NewOutput creates an output from the best available default backend.
func NewOutput(opts OutputOptions) (Output, error) { return defaultRegistry.NewOutput(opts) }

// NewOutputByName creates an output from a named default backend.
func NewOutputByName(name string, opts OutputOptions) (Output, error) {
	return defaultRegistry.NewOutputByName(name, opts)
}

// Register adds a backend. A nil available means always available.
// Registering an existing name replaces it.
func (r *Registry) Register(name string, priority int, factory OutputFactory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if available == nil {
		available = func() bool { return true }
	}
	r.entries[name] = &Backend{Name: name, Priority: priority, Factory: factory, Available: available}
}

// Unregister removes a backend.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Get returns a copy of the named backend.
func (r *Registry) Get(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.entries[name]
	if !ok {
		return Backend{}, false
	}
	return *b, true
}

// List returns all backend names, highest priority first.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(false)
}

// Available returns the available backend names, highest priority first.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(true)
}

// NewOutput tries the available backends in priority order.
func (r *Registry) NewOutput(opts OutputOptions) (Output, error) {
	names := r.Available()
	if len(names) == 0 {
		return nil, ErrNoBackendAvailable
	}
	var errs []error
	for _, name := range names {
		out, err := r.NewOutputByName(name, opts)
		if err == nil {
			return out, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// NewOutputByName creates an output from the named backend.
func (r *Registry) NewOutputByName(name string, opts OutputOptions) (Output, error) {
	r.mu.RLock()
	b, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}
	if !b.Available() {
		return nil, &BackendUnavailableError{Name: name}
	}
	if opts.Runner == nil {
		return nil, ErrNoRunner
	}
	return b.Factory(opts)
}

// sortedNames must be called with the lock held. Ties sort by name.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	var bs []*Backend
	for _, b := range r.entries {
		if onlyAvailable && !b.Available() {
			continue
		}
		bs = append(bs, b)
	}
	slices.SortFunc(bs, func(a, b *Backend) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	names := make([]string, len(bs))
	for i, b := range bs {
		names[i] = b.Name
	}
	return names
}

// Errors.
var (
	// ErrNoBackendAvailable is returned when no backend is registered or
	// available.
	ErrNoBackendAvailable = errors.New("render: no output backend available")

	// ErrNoRunner is returned when OutputOptions has no runner.
	ErrNoRunner = errors.New("render: output options need a runner")
)

// BackendNotFoundError indicates a named backend is not registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "render: backend not found: " + e.Name
}

// BackendUnavailableError indicates a backend exists but is not available.
type BackendUnavailableError struct {
	Name string
}

func (e *BackendUnavailableError) Error() string {
	return "render: backend unavailable: " + e.Name
}

// RegisterDevice registers a "device" backend on handle in r. It is
// available while the host provides a device. Software adapters rank below
// the pixmap backend so they are only used when selected by name.
func RegisterDevice(r *Registry, handle DeviceHandle) {
	priority := 100
	if softwareAdapter(handle) {
		priority = 5
	}
	r.Register("device", priority, func(opts OutputOptions) (Output, error) {
		return NewDeviceOutputSurface(handle, opts.Runner), nil
	}, func() bool { return deviceAvailable(handle) })
}

// DefaultRegistry returns the registry used by the package-level functions.
func DefaultRegistry() *Registry { return defaultRegistry }

func init() {
	Register("pixmap", 10, func(opts OutputOptions) (Output, error) {
		return NewPixmapOutputSurface(opts.Runner), nil
	}, nil)
}

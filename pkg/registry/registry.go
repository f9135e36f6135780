// Package registry holds named component factories.
//
// Extractors, transformers, loaders and publishers each keep one Registry
// and fill it from init functions. Jobs resolve the names in their
// configuration through it.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"go.uber.org/zap"
)

// Factory creates a fresh, uninitialized component.
type Factory[T any] func() T

// Registry maps component names to factories.
type Registry[T any] struct {
	kind      string
	factories map[string]Factory[T]
	mu        sync.RWMutex
}

// New creates an empty registry for components of the given kind
// ("extractor", "loader", ...).
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:      kind,
		factories: make(map[string]Factory[T]),
	}
}

// Kind returns the component kind.
func (r *Registry[T]) Kind() string { return r.kind }

// Register adds a factory. Names are unique per registry.
func (r *Registry[T]) Register(name string, factory Factory[T]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("%s %s already registered", r.kind, name))
	}

	r.factories[name] = factory
	logger.Get().Debug("component registered",
		zap.String("component", r.kind+"_registry"),
		zap.String("name", name))
	return nil
}

// MustRegister is Register for init functions; it panics on duplicates.
func (r *Registry[T]) MustRegister(name string, factory Factory[T]) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Create instantiates the named component.
func (r *Registry[T]) Create(name string) (T, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		var zero T
		return zero, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("%s %s not found", r.kind, name)).
			WithDetail("available", r.List())
	}
	return factory(), nil
}

// List returns the registered names in sorted order.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[name]
	return exists
}

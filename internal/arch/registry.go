package arch

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/born-ml/archbuild/internal/nn"
	"github.com/born-ml/archbuild/internal/tensor"
)

// Env carries what a factory needs besides its arguments.
type Env[B tensor.Backend] struct {
	// Backend is the backend parameters are allocated on.
	Backend B

	// Source drives parameter initialisation. Nil means the global
	// math/rand/v2 source.
	Source rand.Source
}

// Factory constructs a layer from keyword arguments.
//
// Factories should report rejected arguments as *ConstructionError. The
// args map must not be modified.
type Factory[B tensor.Backend] func(env Env[B], args map[string]any) (nn.Module[B], error)

// Registry maps layer type names to factories.
//
// A Registry is not safe for concurrent modification; populate it before
// sharing it between builders.
type Registry[B tensor.Backend] struct {
	factories map[string]Factory[B]
}

// NewRegistry returns an empty registry. Use NewDefaultRegistry for one
// holding the standard layers.
func NewRegistry[B tensor.Backend]() *Registry[B] {
	return &Registry[B]{factories: make(map[string]Factory[B])}
}

// Register adds a factory under name.
//
// The names "Sequential" and "ResBlock" are reserved, and a name can only be
// registered once.
func (r *Registry[B]) Register(name string, factory Factory[B]) error {
	switch {
	case name == "":
		return errors.New("layer name must not be empty")
	case name == SequentialType || name == ResBlockType:
		return fmt.Errorf("layer name %q is reserved", name)
	case factory == nil:
		return fmt.Errorf("factory for %q is nil", name)
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("layer %q is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry[B]) MustRegister(name string, factory Factory[B]) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Lookup returns the factory registered under name.
func (r *Registry[B]) Lookup(name string) (Factory[B], bool) {
	factory, ok := r.factories[name]
	return factory, ok
}

// Names returns the registered names in sorted order.
func (r *Registry[B]) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered layers.
func (r *Registry[B]) Len() int {
	return len(r.factories)
}

// Package arch builds nn module graphs from declarative architecture
// descriptions.
//
// A description is a nested [typeName, args] value:
//
//	["Sequential", [
//	    ["Linear", {"in_features": 4, "out_features": 8}],
//	    ["ResBlock", {"nested": ["Sequential", [
//	        ["Linear", {"in_features": 8, "out_features": 8}],
//	        ["ReLU", {}]
//	    ]]}],
//	    ["Linear", {"in_features": 8, "out_features": 2}]
//	]]
//
// "Sequential" and "ResBlock" are built recursively; every other type name
// is looked up in a Registry and its factory receives args verbatim.
package arch

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/born-ml/archbuild/internal/nn"
	"github.com/born-ml/archbuild/internal/tensor"
)

type options struct {
	registry any
	source   rand.Source
}

// Option configures a Builder.
type Option func(*options)

// WithRegistry makes the builder resolve layer names in r instead of the
// default registry.
func WithRegistry[B tensor.Backend](r *Registry[B]) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithSeed makes parameter initialisation deterministic.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.source = rand.NewPCG(seed, seed)
	}
}

// WithSource draws initial parameter values from src.
func WithSource(src rand.Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// Builder builds modules from descriptions.
//
// A Builder owns its random source and is not safe for concurrent use.
// Modules returned by Build are independent of each other and of the
// description.
type Builder[B tensor.Backend] struct {
	backend  B
	registry *Registry[B]
	source   rand.Source
}

// New creates a Builder allocating parameters on backend and resolving
// layer names in NewDefaultRegistry, unless WithRegistry says otherwise.
func New[B LayerBackend](backend B, opts ...Option) *Builder[B] {
	return newBuilder(backend, NewDefaultRegistry[B](), opts)
}

// NewWithRegistry creates a Builder for backends that do not support the
// standard layers. Only the layers in registry are available.
func NewWithRegistry[B tensor.Backend](backend B, registry *Registry[B], opts ...Option) *Builder[B] {
	return newBuilder(backend, registry, opts)
}

func newBuilder[B tensor.Backend](backend B, registry *Registry[B], opts []Option) *Builder[B] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch r := o.registry.(type) {
	case nil:
	case *Registry[B]:
		registry = r
	default:
		panic(fmt.Sprintf("arch: registry %T does not match backend %T", o.registry, backend))
	}

	return &Builder[B]{
		backend:  backend,
		registry: registry,
		source:   o.source,
	}
}

// Registry returns the registry the builder resolves layer names in.
func (b *Builder[B]) Registry() *Registry[B] {
	return b.registry
}

// Build constructs the module described by d.
//
// Errors are reported for the first failing node in depth-first order. It
// returns *UnknownLayerTypeError for type names that are not registered,
// *DescriptionError for malformed values, and *ConstructionError when a
// constructor rejects its arguments or the args have the wrong shape.
func (b *Builder[B]) Build(d Description) (nn.Module[B], error) {
	switch d := d.(type) {
	case SequentialSpec:
		modules := make([]nn.Module[B], 0, len(d.Items))
		for _, item := range d.Items {
			m, err := b.Build(item)
			if err != nil {
				return nil, err
			}
			modules = append(modules, m)
		}
		return nn.NewSequential(modules...), nil

	case ResBlockSpec:
		keys := make([]string, 0, len(d.Args))
		for key := range d.Args {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		built := make(map[string]nn.Module[B], len(keys))
		for _, key := range keys {
			m, err := b.Build(d.Args[key])
			if err != nil {
				return nil, err
			}
			built[key] = m
		}
		block, err := nn.NewResBlockFromArgs(built)
		if err != nil {
			return nil, &ConstructionError{Name: ResBlockType, Err: err}
		}
		return block, nil

	case Leaf:
		return b.buildLeaf(d)

	case invalid:
		return nil, b.invalidError(d)

	case nil:
		return nil, &DescriptionError{Msg: "description is nil"}

	default:
		return nil, &DescriptionError{Msg: fmt.Sprintf("unsupported description type %T", d)}
	}
}

// invalidError reports a malformed value. Once its type name resolves, bad
// args fail like a constructor rejecting them.
func (b *Builder[B]) invalidError(d invalid) error {
	switch d.name {
	case "":
		return d.err
	case SequentialType, ResBlockType:
	default:
		if _, ok := b.registry.Lookup(d.name); !ok {
			return &UnknownLayerTypeError{Name: d.name}
		}
	}
	return &ConstructionError{Name: d.name, Err: d.err}
}

func (b *Builder[B]) buildLeaf(d Leaf) (nn.Module[B], error) {
	factory, ok := b.registry.Lookup(d.Type)
	if !ok {
		return nil, &UnknownLayerTypeError{Name: d.Type}
	}

	args := d.Args
	if args == nil {
		args = map[string]any{}
	}
	return callFactory(d.Type, factory, Env[B]{Backend: b.backend, Source: b.source}, args)
}

// callFactory runs factory, reporting every failure, panics included, as a
// *ConstructionError.
func callFactory[B tensor.Backend](name string, factory Factory[B], env Env[B], args map[string]any) (m nn.Module[B], err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, &ConstructionError{Name: name, Err: fmt.Errorf("%v", r)}
		}
	}()

	m, err = factory(env, args)
	if err != nil {
		var constructionErr *ConstructionError
		if !errors.As(err, &constructionErr) {
			err = &ConstructionError{Name: name, Err: err}
		}
		return nil, err
	}
	if m == nil {
		return nil, &ConstructionError{Name: name, Err: errors.New("factory returned no module")}
	}
	return m, nil
}

// BuildJSON parses a JSON description and builds it.
func (b *Builder[B]) BuildJSON(data []byte) (nn.Module[B], error) {
	d, err := ParseJSON(data)
	if err != nil {
		return nil, err
	}
	return b.Build(d)
}

// BuildYAML parses a YAML description and builds it.
func (b *Builder[B]) BuildYAML(data []byte) (nn.Module[B], error) {
	d, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return b.Build(d)
}

// BuildFile parses the description stored at path and builds it.
func (b *Builder[B]) BuildFile(path string, format Format) (nn.Module[B], error) {
	d, err := ParseFile(path, format)
	if err != nil {
		return nil, err
	}
	return b.Build(d)
}

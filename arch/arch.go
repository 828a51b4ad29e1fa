// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package arch builds neural network modules from nested [type, args]
// architecture descriptions.
//
// A description is "Sequential" with a list of descriptions, "ResBlock"
// with a single "nested" description (x + nested(x)), or the name of a
// registered layer with its keyword arguments:
//
//	["Sequential", [
//	    ["Linear", {"in_features": 4, "out_features": 8}],
//	    ["ReLU", {}],
//	    ["ResBlock", {"nested": ["Linear", {"in_features": 8, "out_features": 8}]}]
//	]]
//
// Example:
//
//	b := arch.New(cpu.New(), arch.WithSeed(42))
//	model, err := b.BuildJSON(data)
package arch

import (
	"math/rand/v2"

	"github.com/born-ml/archbuild/internal/arch"
	"github.com/born-ml/archbuild/internal/nn"
	"github.com/born-ml/archbuild/internal/tensor"
)

// Reserved type names.
const (
	SequentialType = arch.SequentialType
	ResBlockType   = arch.ResBlockType
)

// Description is a parsed architecture description.
type Description = arch.Description

// Leaf describes a registered layer and its keyword arguments.
type Leaf = arch.Leaf

// SequentialSpec describes a Sequential container.
type SequentialSpec = arch.SequentialSpec

// ResBlockSpec describes a residual block.
type ResBlockSpec = arch.ResBlockSpec

// Layer returns a Leaf description.
func Layer(typeName string, args map[string]any) Leaf { return arch.Layer(typeName, args) }

// Seq returns a Sequential description.
func Seq(items ...Description) SequentialSpec { return arch.Seq(items...) }

// Residual returns a ResBlock description wrapping nested.
func Residual(nested Description) ResBlockSpec { return arch.Residual(nested) }

// Errors

// ErrUnknownLayerType matches every *UnknownLayerTypeError.
var ErrUnknownLayerType = arch.ErrUnknownLayerType

type (
	// UnknownLayerTypeError reports a type name missing from the registry.
	UnknownLayerTypeError = arch.UnknownLayerTypeError

	// ConstructionError reports a constructor rejecting its arguments.
	ConstructionError = arch.ConstructionError

	// DescriptionError reports a malformed description.
	DescriptionError = arch.DescriptionError

	// ForwardError reports a failure while evaluating a module.
	ForwardError = arch.ForwardError
)

// Parsing

// Format is an encoding of architecture descriptions.
type Format = arch.Format

// Supported formats.
const (
	FormatJSON = arch.FormatJSON
	FormatYAML = arch.FormatYAML
)

// ParseFormat parses a format name.
func ParseFormat(name string) (Format, error) { return arch.ParseFormat(name) }

// FormatFromPath picks YAML for .yaml and .yml files and JSON otherwise.
func FormatFromPath(path string) Format { return arch.FormatFromPath(path) }

// Parse converts decoded JSON or YAML values into a Description. Only a
// malformed root fails here; other malformed values are reported by Build.
func Parse(v any) (Description, error) { return arch.Parse(v) }

// ParseJSON parses a JSON description. Numbers are kept as json.Number.
func ParseJSON(data []byte) (Description, error) { return arch.ParseJSON(data) }

// ParseYAML parses a YAML description.
func ParseYAML(data []byte) (Description, error) { return arch.ParseYAML(data) }

// ParseFile reads and parses a description file. An empty format is
// derived from the file extension.
func ParseFile(path string, format Format) (Description, error) {
	return arch.ParseFile(path, format)
}

// Registry

// Env is what a factory receives besides its arguments.
type Env[B tensor.Backend] = arch.Env[B]

// Factory constructs a layer from keyword arguments.
type Factory[B tensor.Backend] = arch.Factory[B]

// Registry maps layer type names to factories.
type Registry[B tensor.Backend] = arch.Registry[B]

// LayerBackend is the set of backend capabilities the standard layers use.
type LayerBackend = arch.LayerBackend

// NewRegistry returns an empty registry.
func NewRegistry[B tensor.Backend]() *Registry[B] { return arch.NewRegistry[B]() }

// NewDefaultRegistry returns a registry holding the standard layers.
func NewDefaultRegistry[B LayerBackend]() *Registry[B] { return arch.NewDefaultRegistry[B]() }

// Building

// Builder builds modules from descriptions. It is not safe for concurrent use.
type Builder[B tensor.Backend] = arch.Builder[B]

// Option configures a Builder.
type Option = arch.Option

// WithRegistry makes the builder resolve layer names in r.
func WithRegistry[B tensor.Backend](r *Registry[B]) Option { return arch.WithRegistry(r) }

// WithSeed makes parameter initialisation deterministic.
func WithSeed(seed uint64) Option { return arch.WithSeed(seed) }

// WithSource draws initial parameter values from src.
func WithSource(src rand.Source) Option { return arch.WithSource(src) }

// New returns a builder using the standard layers.
func New[B LayerBackend](backend B, opts ...Option) *Builder[B] {
	return arch.New(backend, opts...)
}

// NewWithRegistry returns a builder resolving layer names in registry only.
func NewWithRegistry[B tensor.Backend](backend B, registry *Registry[B], opts ...Option) *Builder[B] {
	return arch.NewWithRegistry(backend, registry, opts...)
}

// Forward evaluates m on input, reporting panics as *ForwardError.
func Forward[B tensor.Backend](m nn.Module[B], input *tensor.Tensor[B]) (*tensor.Tensor[B], error) {
	return arch.Forward(m, input)
}

// Summary describes a module and its children.
type Summary = arch.Summary

// Summarize returns the module tree rooted at m.
func Summarize[B tensor.Backend](m nn.Module[B]) Summary { return arch.Summarize(m) }

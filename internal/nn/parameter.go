package nn

import (
	"github.com/born-ml/archbuild/internal/tensor"
)

// Parameter represents a named parameter tensor of a layer, such as a weight
// matrix or bias vector.
type Parameter[B tensor.Backend] struct {
	name   string            // Parameter name (e.g., "weight", "bias")
	tensor *tensor.Tensor[B] // The parameter tensor
}

// NewParameter creates a new parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[B] {
	return p.tensor
}

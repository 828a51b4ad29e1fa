package nn

import (
	"fmt"

	"github.com/born-ml/archbuild/internal/tensor"
)

// Identity returns its input unchanged.
type Identity[B tensor.Backend] struct {
	stateless[B]
}

// NewIdentity creates a new Identity module.
func NewIdentity[B tensor.Backend]() *Identity[B] {
	return &Identity[B]{}
}

// Forward returns input.
func (i *Identity[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	return input
}

// String returns the module name.
func (i *Identity[B]) String() string {
	return "Identity()"
}

// Dropout keeps the dropout probability of a layer for architecture
// compatibility. Modules built here are used for inference only, so Forward
// is the identity.
type Dropout[B tensor.Backend] struct {
	stateless[B]
	p float32
}

// NewDropout creates a new Dropout module. Panics unless 0 <= p <= 1.
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	if p < 0 || p > 1 {
		panic(fmt.Sprintf("dropout: probability has to be between 0 and 1, but got %g", p))
	}
	return &Dropout[B]{p: p}
}

// Forward returns input (inference mode).
func (d *Dropout[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	return input
}

// P returns the dropout probability.
func (d *Dropout[B]) P() float32 {
	return d.p
}

// String returns a short description of the module.
func (d *Dropout[B]) String() string {
	return fmt.Sprintf("Dropout(p=%g)", d.p)
}

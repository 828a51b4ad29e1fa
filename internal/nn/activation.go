package nn

import (
	"fmt"

	"github.com/born-ml/archbuild/internal/tensor"
)

// ReLUBackend is an interface for backends that support ReLU activation.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// LeakyReLUBackend is an interface for backends that support LeakyReLU activation.
type LeakyReLUBackend interface {
	LeakyReLU(x *tensor.RawTensor, slope float32) *tensor.RawTensor
}

// SigmoidBackend is an interface for backends that support Sigmoid activation.
type SigmoidBackend interface {
	Sigmoid(*tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is an interface for backends that support Tanh activation.
type TanhBackend interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

// SiLUBackend is an interface for backends that support SiLU activation.
type SiLUBackend interface {
	SiLU(*tensor.RawTensor) *tensor.RawTensor
}

// GELUBackend is an interface for backends that support GELU activation.
type GELUBackend interface {
	GELU(*tensor.RawTensor) *tensor.RawTensor
}

// stateless provides the parameter methods of modules without parameters.
type stateless[B tensor.Backend] struct{}

// Parameters returns nil.
func (stateless[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty state dictionary.
func (stateless[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict accepts only an empty state dictionary.
func (stateless[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadParams[B](stateDict)
}

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
type ReLU[B tensor.Backend] struct {
	stateless[B]
}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU activation: f(x) = max(0, x).
func (r *ReLU[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	backend := input.Backend()
	if reluBackend, ok := any(backend).(ReLUBackend); ok {
		return tensor.New(reluBackend.ReLU(input.Raw()), backend)
	}
	panic("ReLU: backend must implement ReLU operation")
}

// String returns the module name.
func (r *ReLU[B]) String() string {
	return "ReLU()"
}

// LeakyReLU applies max(0, x) + negativeSlope * min(0, x).
type LeakyReLU[B tensor.Backend] struct {
	stateless[B]
	negativeSlope float32
}

// NewLeakyReLU creates a new LeakyReLU activation module.
func NewLeakyReLU[B tensor.Backend](negativeSlope float32) *LeakyReLU[B] {
	return &LeakyReLU[B]{negativeSlope: negativeSlope}
}

// Forward applies LeakyReLU activation.
func (l *LeakyReLU[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	backend := input.Backend()
	if leakyBackend, ok := any(backend).(LeakyReLUBackend); ok {
		return tensor.New(leakyBackend.LeakyReLU(input.Raw(), l.negativeSlope), backend)
	}
	panic("LeakyReLU: backend must implement LeakyReLU operation")
}

// NegativeSlope returns the slope used for negative inputs.
func (l *LeakyReLU[B]) NegativeSlope() float32 {
	return l.negativeSlope
}

// String returns a short description of the module.
func (l *LeakyReLU[B]) String() string {
	return fmt.Sprintf("LeakyReLU(negative_slope=%g)", l.negativeSlope)
}

// Sigmoid is a sigmoid activation module.
//
// Applies the element-wise function: σ(x) = 1 / (1 + exp(-x))
type Sigmoid[B tensor.Backend] struct {
	stateless[B]
}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies Sigmoid activation: σ(x) = 1 / (1 + exp(-x)).
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	backend := input.Backend()
	if sigmoidBackend, ok := any(backend).(SigmoidBackend); ok {
		return tensor.New(sigmoidBackend.Sigmoid(input.Raw()), backend)
	}
	panic("Sigmoid: backend must implement Sigmoid operation")
}

// String returns the module name.
func (s *Sigmoid[B]) String() string {
	return "Sigmoid()"
}

// Tanh is a hyperbolic tangent activation module.
type Tanh[B tensor.Backend] struct {
	stateless[B]
}

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies Tanh activation.
func (t *Tanh[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	backend := input.Backend()
	if tanhBackend, ok := any(backend).(TanhBackend); ok {
		return tensor.New(tanhBackend.Tanh(input.Raw()), backend)
	}
	panic("Tanh: backend must implement Tanh operation")
}

// String returns the module name.
func (t *Tanh[B]) String() string {
	return "Tanh()"
}

// SiLU (Swish) activation: f(x) = x * sigmoid(x).
type SiLU[B tensor.Backend] struct {
	stateless[B]
}

// NewSiLU creates a new SiLU activation module.
func NewSiLU[B tensor.Backend]() *SiLU[B] {
	return &SiLU[B]{}
}

// Forward applies SiLU activation.
func (s *SiLU[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	backend := input.Backend()
	if siluBackend, ok := any(backend).(SiLUBackend); ok {
		return tensor.New(siluBackend.SiLU(input.Raw()), backend)
	}
	panic("SiLU: backend must implement SiLU operation")
}

// String returns the module name.
func (s *SiLU[B]) String() string {
	return "SiLU()"
}

// GELU activation (exact, erf-based).
type GELU[B tensor.Backend] struct {
	stateless[B]
}

// NewGELU creates a new GELU activation module.
func NewGELU[B tensor.Backend]() *GELU[B] {
	return &GELU[B]{}
}

// Forward applies GELU activation.
func (g *GELU[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	backend := input.Backend()
	if geluBackend, ok := any(backend).(GELUBackend); ok {
		return tensor.New(geluBackend.GELU(input.Raw()), backend)
	}
	panic("GELU: backend must implement GELU operation")
}

// String returns the module name.
func (g *GELU[B]) String() string {
	return "GELU()"
}

// Softmax normalises its input into a probability distribution along dim.
type Softmax[B tensor.Backend] struct {
	stateless[B]
	dim int
}

// NewSoftmax creates a new Softmax module. Negative dims count from the end.
func NewSoftmax[B tensor.Backend](dim int) *Softmax[B] {
	return &Softmax[B]{dim: dim}
}

// Forward applies softmax along the configured dimension.
func (s *Softmax[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	return input.Softmax(s.dim)
}

// Dim returns the softmax dimension.
func (s *Softmax[B]) Dim() int {
	return s.dim
}

// String returns a short description of the module.
func (s *Softmax[B]) String() string {
	return fmt.Sprintf("Softmax(dim=%d)", s.dim)
}

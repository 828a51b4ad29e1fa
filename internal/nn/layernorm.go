package nn

import (
	"fmt"

	"github.com/born-ml/archbuild/internal/tensor"
)

// LayerNormBackend is an interface for backends that support layer normalisation.
type LayerNormBackend interface {
	LayerNorm(x, gamma, beta *tensor.RawTensor, normalizedSize int, eps float32) *tensor.RawTensor
}

// LayerNorm normalises over the trailing dimensions given by normalizedShape:
//
//	y = (x - mean) / sqrt(var + eps) * weight + bias
//
// With elementwise affine enabled, weight starts at ones and bias at zeros.
type LayerNorm[B tensor.Backend] struct {
	normalizedShape tensor.Shape
	eps             float32
	weight          *Parameter[B] // normalizedShape, or nil
	bias            *Parameter[B] // normalizedShape, or nil
}

// NewLayerNorm creates a new LayerNorm module.
func NewLayerNorm[B tensor.Backend](normalizedShape tensor.Shape, eps float32, elementwiseAffine, useBias bool, backend B) *LayerNorm[B] {
	if len(normalizedShape) == 0 {
		panic("layer_norm: normalized_shape must not be empty")
	}
	if err := normalizedShape.Validate(); err != nil {
		panic(fmt.Sprintf("layer_norm: %v", err))
	}

	ln := &LayerNorm[B]{
		normalizedShape: normalizedShape.Clone(),
		eps:             eps,
	}
	if elementwiseAffine {
		ln.weight = NewParameter("weight", Ones(normalizedShape, backend))
		if useBias {
			ln.bias = NewParameter("bias", Zeros(normalizedShape, backend))
		}
	}
	return ln
}

// Forward applies layer normalisation.
func (l *LayerNorm[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	shape := input.Shape()
	n := len(l.normalizedShape)
	if len(shape) < n || !shape[len(shape)-n:].Equal(l.normalizedShape) {
		panic(fmt.Sprintf("layer_norm: input shape %v does not end with normalized shape %v", shape, l.normalizedShape))
	}

	backend := input.Backend()
	normBackend, ok := any(backend).(LayerNormBackend)
	if !ok {
		panic("LayerNorm: backend must implement LayerNorm operation")
	}

	var gamma, beta *tensor.RawTensor
	if l.weight != nil {
		gamma = l.weight.Tensor().Raw()
	}
	if l.bias != nil {
		beta = l.bias.Tensor().Raw()
	}
	out := normBackend.LayerNorm(input.Raw(), gamma, beta, l.normalizedShape.NumElements(), l.eps)
	return tensor.New(out, backend)
}

// Parameters returns the affine parameters, if any.
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	if l.weight != nil {
		params = append(params, l.weight)
	}
	if l.bias != nil {
		params = append(params, l.bias)
	}
	return params
}

// StateDict returns a map of parameter names to raw tensors.
func (l *LayerNorm[B]) StateDict() map[string]*tensor.RawTensor {
	return paramsStateDict(l.Parameters()...)
}

// LoadStateDict loads parameters from a state dictionary.
func (l *LayerNorm[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadParams(stateDict, l.Parameters()...)
}

// NormalizedShape returns the normalised trailing shape.
func (l *LayerNorm[B]) NormalizedShape() tensor.Shape {
	return l.normalizedShape
}

// String returns a short description of the module.
func (l *LayerNorm[B]) String() string {
	return fmt.Sprintf("LayerNorm(%v, eps=%g, elementwise_affine=%t)", []int(l.normalizedShape), l.eps, l.weight != nil)
}

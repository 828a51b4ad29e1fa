// Package nn implements neural network modules for the architecture builder.
//
// This package provides building blocks for constructing neural networks:
//   - Module interface: Base interface for all NN components
//   - Parameter: Named parameter tensors
//   - Layers: Linear, Conv2D, MaxPool2D, AvgPool2D, Flatten, LayerNorm, Dropout, Identity
//   - Activations: ReLU, LeakyReLU, Sigmoid, Tanh, SiLU, GELU, Softmax
//   - Containers: Sequential and ResBlock
//
// State dictionaries use PyTorch's naming scheme ("0.weight",
// "1.nested.2.bias", ...), so weights exported from an equivalent
// torch.nn model load without renaming.
package nn

import (
	"github.com/born-ml/archbuild/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential[Backend](
//	    nn.NewLinear(784, 128, true, backend, nil),
//	    nn.NewReLU[Backend](),
//	    nn.NewLinear(128, 10, true, backend, nil),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// Forward panics if the input shape is not valid for the module.
	// It never modifies the input tensor.
	Forward(input *tensor.Tensor[B]) *tensor.Tensor[B]

	// Parameters returns all parameters of this module, including the
	// parameters of nested modules. Returns an empty slice for modules
	// without parameters (e.g., activation functions).
	Parameters() []*Parameter[B]

	// StateDict returns a map of parameter names to raw tensors.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies parameters from a state dictionary.
	//
	// Returns an error if a parameter is missing, has the wrong shape, or if
	// the dictionary holds keys the module does not own.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// NamedModule pairs a child module with the name it has inside its parent.
type NamedModule[B tensor.Backend] struct {
	Name   string
	Module Module[B]
}

// Container is implemented by modules that own child modules.
type Container[B tensor.Backend] interface {
	Module[B]

	// Children returns the direct children in evaluation order.
	Children() []NamedModule[B]
}

// NumParameters returns the total number of scalar parameters of m.
func NumParameters[B tensor.Backend](m Module[B]) int {
	total := 0
	for _, p := range m.Parameters() {
		total += p.Tensor().NumElements()
	}
	return total
}

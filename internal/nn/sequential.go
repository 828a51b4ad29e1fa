package nn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/born-ml/archbuild/internal/tensor"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input, creating a
// sequential pipeline of transformations.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, true, backend, nil),
//	    nn.NewReLU[Backend](),
//	    nn.NewLinear(128, 10, true, backend, nil),
//	)
//
//	output := model.Forward(input)
//
// An empty Sequential returns its input unchanged.
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a new Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{
		modules: modules,
	}
}

// Forward applies all modules in sequence.
//
// The output of each module becomes the input to the next module.
func (s *Sequential[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	output := input

	for _, module := range s.modules {
		output = module.Forward(output)
	}

	return output
}

// Parameters returns the parameters of all modules, in module order.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]

	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}

	return params
}

// Add appends a module to the sequence.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// Children returns the modules named by their index.
func (s *Sequential[B]) Children() []NamedModule[B] {
	children := make([]NamedModule[B], len(s.modules))
	for i, module := range s.modules {
		children[i] = NamedModule[B]{Name: strconv.Itoa(i), Module: module}
	}
	return children
}

// StateDict returns a map of parameter names to raw tensors.
//
// Parameters are prefixed with their module index (e.g., "0.weight", "0.bias", "2.weight").
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	return childrenStateDict(s.Children())
}

// LoadStateDict loads parameters from a state dictionary.
//
// Keys must carry the module index prefix used by StateDict.
func (s *Sequential[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadChildren(stateDict, s.Children())
}

// String returns a multi-line representation of the container.
func (s *Sequential[B]) String() string {
	if len(s.modules) == 0 {
		return "Sequential()"
	}
	var sb strings.Builder
	sb.WriteString("Sequential(\n")
	for i, module := range s.modules {
		fmt.Fprintf(&sb, "  (%d): %s\n", i, indent(describe(module)))
	}
	sb.WriteString(")")
	return sb.String()
}

// describe returns the String of m, or its Go type when it has none.
func describe[B tensor.Backend](m Module[B]) string {
	if str, ok := m.(fmt.Stringer); ok {
		return str.String()
	}
	return fmt.Sprintf("%T", m)
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n  ")
}

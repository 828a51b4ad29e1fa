package arch

import (
	"github.com/born-ml/archbuild/internal/nn"
	"github.com/born-ml/archbuild/internal/tensor"
)

// Forward evaluates m on input and reports shape errors and other panics
// raised during evaluation as *ForwardError.
func Forward[B tensor.Backend](m nn.Module[B], input *tensor.Tensor[B]) (out *tensor.Tensor[B], err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &ForwardError{Value: r}
		}
	}()
	return m.Forward(input), nil
}

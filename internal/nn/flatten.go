package nn

import (
	"fmt"

	"github.com/born-ml/archbuild/internal/tensor"
)

// Flatten merges the dimensions startDim..endDim (inclusive) into one.
// Negative dims count from the end; the defaults used by the builder are
// startDim=1, endDim=-1, which keeps the batch dimension.
type Flatten[B tensor.Backend] struct {
	stateless[B]
	startDim int
	endDim   int
}

// NewFlatten creates a new Flatten module.
func NewFlatten[B tensor.Backend](startDim, endDim int) *Flatten[B] {
	return &Flatten[B]{startDim: startDim, endDim: endDim}
}

// Forward reshapes the input.
func (f *Flatten[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	shape := input.Shape()
	ndim := len(shape)
	if ndim == 0 {
		return input.Reshape(1)
	}

	start, end := f.startDim, f.endDim
	if start < 0 {
		start += ndim
	}
	if end < 0 {
		end += ndim
	}
	if start < 0 || end >= ndim || start > end {
		panic(fmt.Sprintf("flatten: invalid dims start=%d, end=%d for %dD input", f.startDim, f.endDim, ndim))
	}

	merged := 1
	for _, dim := range shape[start : end+1] {
		merged *= dim
	}

	newShape := make([]int, 0, ndim-(end-start))
	newShape = append(newShape, shape[:start]...)
	newShape = append(newShape, merged)
	newShape = append(newShape, shape[end+1:]...)
	return input.Reshape(newShape...)
}

// String returns a short description of the module.
func (f *Flatten[B]) String() string {
	return fmt.Sprintf("Flatten(start_dim=%d, end_dim=%d)", f.startDim, f.endDim)
}

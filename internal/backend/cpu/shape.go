package cpu

import (
	"fmt"

	"github.com/born-ml/archbuild/internal/tensor"
)

// Reshape returns a copy of t with a new shape. One dimension may be -1.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	resolved, err := newShape.Resolve(t.NumElements())
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	result, err := tensor.RawFromSlice(t.Data(), resolved, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return result
}

// Transpose permutes the dimensions of t.
// With no axes, all dimensions are reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, axis := range axes {
		if axis < 0 || axis >= ndim || seen[axis] {
			panic(fmt.Sprintf("transpose: invalid permutation %v for %dD tensor", axes, ndim))
		}
		seen[axis] = true
		outShape[i] = shape[axis]
	}

	result, err := tensor.NewRaw(outShape, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	src := t.Data()
	dst := result.Data()
	inStrides := t.Strides()
	outStrides := result.Strides()
	for i := range dst {
		srcIdx := 0
		rem := i
		for d, stride := range outStrides {
			coord := rem / stride
			rem %= stride
			srcIdx += coord * inStrides[axes[d]]
		}
		dst[i] = src[srcIdx]
	}

	return result
}

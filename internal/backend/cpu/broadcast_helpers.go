package cpu

import "github.com/born-ml/archbuild/internal/tensor"

// broadcastStrides returns strides of shape aligned to outShape, with zero
// strides for broadcast (size-1 or missing) dimensions.
func broadcastStrides(shape, outShape tensor.Shape) []int {
	strides := make([]int, len(outShape))
	src := shape.ComputeStrides()
	offset := len(outShape) - len(shape)
	for i := range shape {
		if shape[i] != 1 {
			strides[offset+i] = src[i]
		}
	}
	return strides
}

package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/archbuild/internal/tensor"
)

// LayerNorm normalises x over its trailing dimensions whose shape is given by
// the shape of gamma, then applies the element-wise affine transform
// y = (x - mean) / sqrt(var + eps) * gamma + beta.
//
// beta may be nil (no shift); gamma may be nil (unit scale), in which case
// normalizedSize gives the number of trailing elements per group.
func (cpu *CPUBackend) LayerNorm(x, gamma, beta *tensor.RawTensor, normalizedSize int, eps float32) *tensor.RawTensor {
	n := x.NumElements()
	if normalizedSize <= 0 || n%normalizedSize != 0 {
		panic(fmt.Sprintf("layer_norm: cannot normalise %v over groups of %d elements", x.Shape(), normalizedSize))
	}
	if gamma != nil && gamma.NumElements() != normalizedSize {
		panic(fmt.Sprintf("layer_norm: weight has %d elements, want %d", gamma.NumElements(), normalizedSize))
	}
	if beta != nil && beta.NumElements() != normalizedSize {
		panic(fmt.Sprintf("layer_norm: bias has %d elements, want %d", beta.NumElements(), normalizedSize))
	}

	result, err := tensor.NewRaw(x.Shape(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("layer_norm: %v", err))
	}

	src, dst := x.Data(), result.Data()
	for start := 0; start < n; start += normalizedSize {
		group := src[start : start+normalizedSize]

		mean := 0.0
		for _, v := range group {
			mean += float64(v)
		}
		mean /= float64(normalizedSize)

		variance := 0.0
		for _, v := range group {
			d := float64(v) - mean
			variance += d * d
		}
		variance /= float64(normalizedSize)
		inv := 1 / math.Sqrt(variance+float64(eps))

		for i, v := range group {
			y := float32((float64(v) - mean) * inv)
			if gamma != nil {
				y *= gamma.Data()[i]
			}
			if beta != nil {
				y += beta.Data()[i]
			}
			dst[start+i] = y
		}
	}

	return result
}

package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/archbuild/internal/tensor"
)

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// LeakyReLU computes max(0, x) + slope * min(0, x) element-wise.
func (cpu *CPUBackend) LeakyReLU(x *tensor.RawTensor, slope float32) *tensor.RawTensor {
	return cpu.unary("leaky_relu", x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return slope * v
	})
}

// Sigmoid computes 1 / (1 + exp(-x)) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid", x, sigmoid)
}

// Tanh computes the hyperbolic tangent element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("tanh", x, func(v float32) float32 {
		return float32(math.Tanh(float64(v)))
	})
}

// SiLU computes x * sigmoid(x) element-wise.
func (cpu *CPUBackend) SiLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("silu", x, func(v float32) float32 {
		return v * sigmoid(v)
	})
}

// GELU computes the exact (erf-based) Gaussian error linear unit element-wise:
// 0.5 * x * (1 + erf(x / sqrt(2))).
func (cpu *CPUBackend) GELU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("gelu", x, func(v float32) float32 {
		return float32(0.5 * float64(v) * (1 + math.Erf(float64(v)/math.Sqrt2)))
	})
}

func sigmoid(v float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(v))))
}

func (cpu *CPUBackend) unary(op string, x *tensor.RawTensor, fn func(float32) float32) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	src, dst := x.Data(), result.Data()
	for i, v := range src {
		dst[i] = fn(v)
	}
	return result
}

// Softmax computes softmax along the specified dimension.
// Softmax(x_i) = exp(x_i) / sum(exp(x_j)) for all j in dimension.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	// Normalize dimension
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("softmax: dimension %d out of range for tensor of rank %d", dim, ndim))
	}

	result, err := tensor.NewRaw(shape, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("softmax: %v", err))
	}

	src := x.Data()
	dst := result.Data()
	strides := x.Strides()
	dimSize := shape[dim]
	dimStride := strides[dim]

	// outer indexes the dimensions before dim, inner the ones after it.
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	inner := dimStride

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*dimStride + in

			// Max for numerical stability
			maxVal := math.Inf(-1)
			for i := 0; i < dimSize; i++ {
				maxVal = math.Max(maxVal, float64(src[base+i*dimStride]))
			}

			sum := 0.0
			for i := 0; i < dimSize; i++ {
				e := math.Exp(float64(src[base+i*dimStride]) - maxVal)
				dst[base+i*dimStride] = float32(e)
				sum += e
			}
			for i := 0; i < dimSize; i++ {
				dst[base+i*dimStride] = float32(float64(dst[base+i*dimStride]) / sum)
			}
		}
	}

	return result
}

package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/archbuild/internal/parallel"
	"github.com/born-ml/archbuild/internal/tensor"
)

// MaxPool2D performs 2D max pooling over [N, C, H, W] inputs.
// Padded positions never win the maximum.
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride, padding [2]int) *tensor.RawTensor {
	return cpu.pool2d("maxpool2d", input, kernelSize, stride, padding, func(window []float32, _ int) float32 {
		best := float32(math.Inf(-1))
		for _, v := range window {
			if v > best {
				best = v
			}
		}
		return best
	})
}

// AvgPool2D performs 2D average pooling over [N, C, H, W] inputs.
// Padded positions count as zeros in the divisor (count_include_pad).
func (cpu *CPUBackend) AvgPool2D(input *tensor.RawTensor, kernelSize, stride, padding [2]int) *tensor.RawTensor {
	return cpu.pool2d("avgpool2d", input, kernelSize, stride, padding, func(window []float32, size int) float32 {
		var sum float32
		for _, v := range window {
			sum += v
		}
		return sum / float32(size)
	})
}

// pool2d slides a kernel window over every channel and reduces the in-bounds
// elements with reduce. The second reduce argument is the full window size
// including padding.
func (cpu *CPUBackend) pool2d(op string, input *tensor.RawTensor, kernelSize, stride, padding [2]int,
	reduce func(window []float32, size int) float32,
) *tensor.RawTensor {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("%s: input must be 4D [N,C,H,W], got %dD", op, len(shape)))
	}

	N, C, H, W := shape[0], shape[1], shape[2], shape[3]
	KH, KW := kernelSize[0], kernelSize[1]
	if padding[0]*2 > KH || padding[1]*2 > KW {
		panic(fmt.Sprintf("%s: padding %v should be at most half of kernel size %v", op, padding, kernelSize))
	}

	if H+2*padding[0] < KH || W+2*padding[1] < KW {
		panic(fmt.Sprintf("%s: padded input %dx%d is smaller than kernel %dx%d", op, H+2*padding[0], W+2*padding[1], KH, KW))
	}

	HOut := (H+2*padding[0]-KH)/stride[0] + 1
	WOut := (W+2*padding[1]-KW)/stride[1] + 1
	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("%s: invalid output dimensions: out_h=%d, out_w=%d", op, HOut, WOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{N, C, HOut, WOut}, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create output tensor: %v", op, err))
	}

	src := input.Data()
	dst := output.Data()
	planeOut := HOut * WOut
	parallel.Range(N*C, cpu.parallel, func(start, end int) {
		window := make([]float32, 0, KH*KW)
		for nc := start; nc < end; nc++ {
			plane := src[nc*H*W : (nc+1)*H*W]
			idx := nc * planeOut
			for oh := 0; oh < HOut; oh++ {
				for ow := 0; ow < WOut; ow++ {
					window = window[:0]
					for kh := 0; kh < KH; kh++ {
						h := oh*stride[0] - padding[0] + kh
						if h < 0 || h >= H {
							continue
						}
						for kw := 0; kw < KW; kw++ {
							w := ow*stride[1] - padding[1] + kw
							if w < 0 || w >= W {
								continue
							}
							window = append(window, plane[h*W+w])
						}
					}
					dst[idx] = reduce(window, KH*KW)
					idx++
				}
			}
		}
	})

	return output
}

package cpu

import (
	"fmt"

	"github.com/born-ml/archbuild/internal/parallel"
	"github.com/born-ml/archbuild/internal/tensor"
	"gonum.org/v1/gonum/blas"
)

// Conv2D performs 2D convolution using im2col algorithm.
//
// Input shape: [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Algorithm: Im2col
//  1. Transform input patches into columns (im2col)
//  2. Multiply the [C_out, C_in*K_h*K_w] kernel matrix with the columns (SGEMM)
//  3. Rearrange the result to [N, C_out, H_out, W_out]
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding [2]int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}

	N, CIn, H, W := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	COut, CInK, KH, KW := kernelShape[0], kernelShape[1], kernelShape[2], kernelShape[3]

	if CIn != CInK {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", CIn, CInK))
	}

	if H+2*padding[0] < KH || W+2*padding[1] < KW {
		panic(fmt.Sprintf("conv2d: padded input %dx%d is smaller than kernel %dx%d", H+2*padding[0], W+2*padding[1], KH, KW))
	}

	HOut := (H+2*padding[0]-KH)/stride[0] + 1
	WOut := (W+2*padding[1]-KW)/stride[1] + 1
	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", HOut, WOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{N, COut, HOut, WOut}, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: failed to create output tensor: %v", err))
	}

	colWidth := CIn * KH * KW
	colHeight := N * HOut * WOut
	colBuf := make([]float32, colHeight*colWidth)
	parallel.Range(colHeight, cpu.parallel, func(start, end int) {
		im2col(colBuf, input.Data(), start, end, CIn, H, W, KH, KW, HOut, WOut, stride, padding)
	})

	// [C_out, colWidth] @ [colHeight, colWidth]^T -> [C_out, N*H_out*W_out]
	tmp := make([]float32, COut*colHeight)
	gemm(blas.NoTrans, blas.Trans, COut, colHeight, colWidth, kernel.Data(), colBuf, tmp)

	out := output.Data()
	spatial := HOut * WOut
	for n := 0; n < N; n++ {
		for c := 0; c < COut; c++ {
			src := tmp[c*colHeight+n*spatial : c*colHeight+(n+1)*spatial]
			copy(out[(n*COut+c)*spatial:], src)
		}
	}

	return output
}

// im2col fills rows [start, end) of the column matrix.
//
// Input: [N, C, H, W]
// Output: colBuf [N * H_out * W_out, C * K_h * K_w]
//
// Each row of colBuf corresponds to one output position; out-of-bounds
// (padding) positions are zero.
func im2col(colBuf, inputData []float32, start, end, C, H, W, KH, KW, HOut, WOut int, stride, padding [2]int) {
	colWidth := C * KH * KW
	spatial := HOut * WOut
	for row := start; row < end; row++ {
		n, pos := row/spatial, row%spatial
		hStart := (pos/WOut)*stride[0] - padding[0]
		wStart := (pos%WOut)*stride[1] - padding[1]

		bufIdx := row * colWidth
		for c := 0; c < C; c++ {
			for kh := 0; kh < KH; kh++ {
				for kw := 0; kw < KW; kw++ {
					h := hStart + kh
					w := wStart + kw
					if h >= 0 && h < H && w >= 0 && w < W {
						colBuf[bufIdx] = inputData[((n*C+c)*H+h)*W+w]
					} else {
						colBuf[bufIdx] = 0
					}
					bufIdx++
				}
			}
		}
	}
}

package cpu

import (
	"fmt"

	"github.com/born-ml/archbuild/internal/tensor"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N)
// Uses gonum SGEMM.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]

	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result, err := tensor.NewRaw(tensor.Shape{m, n}, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: failed to create result tensor: %v", err))
	}

	gemm(blas.NoTrans, blas.NoTrans, m, n, k, a.Data(), b.Data(), result.Data())
	return result
}

// gemm computes c = op(a) @ op(b) for row-major float32 buffers, where c is
// [m, n] and the reduction dimension is k.
func gemm(tA, tB blas.Transpose, m, n, k int, a, b, c []float32) {
	aMat := blas32.General{Rows: m, Cols: k, Stride: k, Data: a}
	if tA == blas.Trans {
		aMat = blas32.General{Rows: k, Cols: m, Stride: m, Data: a}
	}
	bMat := blas32.General{Rows: k, Cols: n, Stride: n, Data: b}
	if tB == blas.Trans {
		bMat = blas32.General{Rows: n, Cols: k, Stride: k, Data: b}
	}
	cMat := blas32.General{Rows: m, Cols: n, Stride: n, Data: c}

	blas32.Gemm(tA, tB, 1, aMat, bMat, 0, cMat)
}

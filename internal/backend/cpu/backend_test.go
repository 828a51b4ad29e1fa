package cpu

import (
	"math"
	"testing"

	"github.com/born-ml/archbuild/internal/parallel"
	"github.com/born-ml/archbuild/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(t *testing.T, data []float32, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.RawFromSlice(data, tensor.Shape(shape), tensor.CPU)
	require.NoError(t, err)
	return r
}

func assertClose(t *testing.T, expected, actual []float32) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], 1e-5, "index %d", i)
	}
}

func TestCPUBackend_Metadata(t *testing.T) {
	backend := New()
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
}

func TestCPUBackend_AddSameShape(t *testing.T) {
	backend := New()
	a := raw(t, []float32{1, 2, 3, 4}, 2, 2)
	b := raw(t, []float32{10, 20, 30, 40}, 2, 2)

	out := backend.Add(a, b)

	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assertClose(t, []float32{11, 22, 33, 44}, out.Data())
	// Inputs are never modified.
	assertClose(t, []float32{1, 2, 3, 4}, a.Data())
}

func TestCPUBackend_AddBroadcast(t *testing.T) {
	backend := New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := raw(t, []float32{10, 20, 30}, 3)

	out := backend.Add(a, b)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assertClose(t, []float32{11, 22, 33, 14, 25, 36}, out.Data())

	col := raw(t, []float32{100, 200}, 2, 1)
	out = backend.Add(a, col)
	assertClose(t, []float32{101, 102, 103, 204, 205, 206}, out.Data())
}

func TestCPUBackend_SubMul(t *testing.T) {
	backend := New()
	a := raw(t, []float32{5, 6, 7}, 3)
	b := raw(t, []float32{1, 2, 3}, 3)

	assertClose(t, []float32{4, 4, 4}, backend.Sub(a, b).Data())
	assertClose(t, []float32{5, 12, 21}, backend.Mul(a, b).Data())
}

func TestCPUBackend_AddIncompatiblePanics(t *testing.T) {
	backend := New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := raw(t, []float32{1, 2}, 2)

	assert.PanicsWithValue(t,
		"add: shapes not compatible for broadcasting: [2 3] vs [2] (dimension 1: 3 vs 2)",
		func() { backend.Add(a, b) })
}

func TestCPUBackend_MatMul(t *testing.T) {
	backend := New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := raw(t, []float32{7, 8, 9, 10, 11, 12}, 3, 2)

	out := backend.MatMul(a, b)

	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assertClose(t, []float32{58, 64, 139, 154}, out.Data())
}

func TestCPUBackend_MatMulShapeMismatch(t *testing.T) {
	backend := New()
	a := raw(t, []float32{1, 2, 3, 4}, 2, 2)
	b := raw(t, []float32{1, 2, 3}, 3, 1)

	assert.Panics(t, func() { backend.MatMul(a, b) })
}

func TestCPUBackend_ReshapeInfer(t *testing.T) {
	backend := New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, 6)

	out := backend.Reshape(a, tensor.Shape{2, -1})

	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assertClose(t, a.Data(), out.Data())
	assert.Panics(t, func() { backend.Reshape(a, tensor.Shape{4, -1}) })
}

func TestCPUBackend_Transpose(t *testing.T) {
	backend := New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	out := backend.Transpose(a)
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assertClose(t, []float32{1, 4, 2, 5, 3, 6}, out.Data())

	cube := raw(t, []float32{0, 1, 2, 3, 4, 5, 6, 7}, 2, 2, 2)
	out = backend.Transpose(cube, 2, 0, 1)
	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	// out[i][j][k] = cube[j][k][i]
	assertClose(t, []float32{0, 2, 4, 6, 1, 3, 5, 7}, out.Data())

	assert.Panics(t, func() { backend.Transpose(cube, 0, 0, 1) })
}

func TestCPUBackend_Activations(t *testing.T) {
	backend := New()
	x := raw(t, []float32{-2, -0.5, 0, 0.5, 2}, 5)

	assertClose(t, []float32{0, 0, 0, 0.5, 2}, backend.ReLU(x).Data())
	assertClose(t, []float32{-0.2, -0.05, 0, 0.5, 2}, backend.LeakyReLU(x, 0.1).Data())

	sig := backend.Sigmoid(x).Data()
	tanh := backend.Tanh(x).Data()
	silu := backend.SiLU(x).Data()
	gelu := backend.GELU(x).Data()
	for i, v := range x.Data() {
		s := 1 / (1 + math.Exp(-float64(v)))
		assert.InDelta(t, s, sig[i], 1e-6)
		assert.InDelta(t, math.Tanh(float64(v)), tanh[i], 1e-6)
		assert.InDelta(t, float64(v)*s, silu[i], 1e-6)
		assert.InDelta(t, 0.5*float64(v)*(1+math.Erf(float64(v)/math.Sqrt2)), gelu[i], 1e-6)
	}
}

func TestCPUBackend_Softmax(t *testing.T) {
	backend := New()
	x := raw(t, []float32{1, 2, 3, 1, 1, 1}, 2, 3)

	rows := backend.Softmax(x, -1).Data()
	e1, e2, e3 := math.Exp(1), math.Exp(2), math.Exp(3)
	sum := e1 + e2 + e3
	assertClose(t, []float32{
		float32(e1 / sum), float32(e2 / sum), float32(e3 / sum),
		1.0 / 3, 1.0 / 3, 1.0 / 3,
	}, rows)

	cols := backend.Softmax(x, 0).Data()
	for j := 0; j < 3; j++ {
		assert.InDelta(t, 1.0, cols[j]+cols[3+j], 1e-6)
	}

	assert.Panics(t, func() { backend.Softmax(x, 2) })
}

func TestCPUBackend_LayerNorm(t *testing.T) {
	backend := New()
	x := raw(t, []float32{1, 2, 3, 4, 2, 2, 2, 2}, 2, 4)
	gamma := raw(t, []float32{1, 1, 2, 2}, 4)
	beta := raw(t, []float32{0, 0, 0, 1}, 4)

	out := backend.LayerNorm(x, gamma, beta, 4, 1e-5).Data()

	// Row 0: mean 2.5, var 1.25
	inv := 1 / math.Sqrt(1.25+1e-5)
	assert.InDelta(t, -1.5*inv, out[0], 1e-5)
	assert.InDelta(t, -0.5*inv, out[1], 1e-5)
	assert.InDelta(t, 2*0.5*inv, out[2], 1e-5)
	assert.InDelta(t, 2*1.5*inv+1, out[3], 1e-5)

	// Row 1 is constant: normalised to zero, then shifted by beta.
	assertClose(t, []float32{0, 0, 0, 1}, out[4:])
}

func TestCPUBackend_Conv2D(t *testing.T) {
	backend := New()
	// 1x1x3x3 input, 1x1x2x2 kernel of ones.
	input := raw(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, 1, 1, 3, 3)
	kernel := raw(t, []float32{1, 1, 1, 1}, 1, 1, 2, 2)

	out := backend.Conv2D(input, kernel, [2]int{1, 1}, [2]int{0, 0})

	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assertClose(t, []float32{12, 16, 24, 28}, out.Data())
}

func TestCPUBackend_Conv2DPaddingAndChannels(t *testing.T) {
	backend := New()
	// Two output channels: identity kernel and a doubled identity kernel.
	input := raw(t, []float32{1, 2, 3, 4}, 1, 1, 2, 2)
	kernel := raw(t, []float32{
		0, 0, 0, 0, 1, 0, 0, 0, 0,
		0, 0, 0, 0, 2, 0, 0, 0, 0,
	}, 2, 1, 3, 3)

	out := backend.Conv2D(input, kernel, [2]int{1, 1}, [2]int{1, 1})

	assert.Equal(t, tensor.Shape{1, 2, 2, 2}, out.Shape())
	assertClose(t, []float32{1, 2, 3, 4, 2, 4, 6, 8}, out.Data())
}

func TestCPUBackend_Conv2DChannelMismatch(t *testing.T) {
	backend := New()
	input := raw(t, make([]float32, 8), 1, 2, 2, 2)
	kernel := raw(t, make([]float32, 4), 1, 1, 2, 2)

	assert.Panics(t, func() { backend.Conv2D(input, kernel, [2]int{1, 1}, [2]int{0, 0}) })
}

func TestCPUBackend_Conv2DKernelLargerThanInput(t *testing.T) {
	backend := New()
	input := raw(t, make([]float32, 4), 1, 1, 2, 2)
	kernel := raw(t, make([]float32, 9), 1, 1, 3, 3)

	// (2-3)/2+1 truncates to 1, so the output size alone does not catch this.
	assert.PanicsWithValue(t,
		"conv2d: padded input 2x2 is smaller than kernel 3x3",
		func() { backend.Conv2D(input, kernel, [2]int{2, 2}, [2]int{0, 0}) })

	out := backend.Conv2D(input, kernel, [2]int{2, 2}, [2]int{1, 1})
	assert.Equal(t, tensor.Shape{1, 1, 1, 1}, out.Shape())
}

func TestCPUBackend_Pool2DKernelLargerThanInput(t *testing.T) {
	backend := New()
	input := raw(t, []float32{1, 2, 3, 4}, 1, 1, 2, 2)
	narrow := raw(t, make([]float32, 6), 1, 1, 2, 3)

	assert.PanicsWithValue(t,
		"maxpool2d: padded input 2x2 is smaller than kernel 3x3",
		func() { backend.MaxPool2D(input, [2]int{3, 3}, [2]int{1, 1}, [2]int{0, 0}) })
	assert.PanicsWithValue(t,
		"avgpool2d: padded input 2x3 is smaller than kernel 2x4",
		func() { backend.AvgPool2D(narrow, [2]int{2, 4}, [2]int{2, 2}, [2]int{0, 0}) })
}

func TestCPUBackend_Pool2D(t *testing.T) {
	backend := New()
	input := raw(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, 1, 1, 4, 4)

	maxOut := backend.MaxPool2D(input, [2]int{2, 2}, [2]int{2, 2}, [2]int{0, 0})
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, maxOut.Shape())
	assertClose(t, []float32{6, 8, 14, 16}, maxOut.Data())

	avgOut := backend.AvgPool2D(input, [2]int{2, 2}, [2]int{2, 2}, [2]int{0, 0})
	assertClose(t, []float32{3.5, 5.5, 11.5, 13.5}, avgOut.Data())
}

func TestCPUBackend_MaxPool2DPadding(t *testing.T) {
	backend := New()
	input := raw(t, []float32{-1, -2, -3, -4}, 1, 1, 2, 2)

	out := backend.MaxPool2D(input, [2]int{2, 2}, [2]int{1, 1}, [2]int{1, 1})

	assert.Equal(t, tensor.Shape{1, 1, 3, 3}, out.Shape())
	// Padding never wins, so corners keep the single in-bounds value.
	assertClose(t, []float32{-1, -1, -2, -1, -1, -2, -3, -3, -4}, out.Data())
}

func TestCPUBackend_ParallelMatchesSequential(t *testing.T) {
	const n, c, h, w = 3, 2, 9, 7
	data := make([]float32, n*c*h*w)
	for i := range data {
		data[i] = float32(math.Sin(float64(i)))
	}
	kernelData := make([]float32, 4*c*3*3)
	for i := range kernelData {
		kernelData[i] = float32(math.Cos(float64(i)))
	}
	input := raw(t, data, n, c, h, w)
	kernel := raw(t, kernelData, 4, c, 3, 3)

	seq := NewWithConfig(parallel.Sequential())
	par := NewWithConfig(parallel.Config{Workers: 4, MinChunk: 1})

	stride, padding := [2]int{2, 1}, [2]int{1, 1}
	assertClose(t,
		seq.Conv2D(input, kernel, stride, padding).Data(),
		par.Conv2D(input, kernel, stride, padding).Data())
	assertClose(t,
		seq.MaxPool2D(input, [2]int{3, 3}, stride, padding).Data(),
		par.MaxPool2D(input, [2]int{3, 3}, stride, padding).Data())
	assertClose(t,
		seq.AvgPool2D(input, [2]int{2, 2}, [2]int{2, 2}, [2]int{0, 0}).Data(),
		par.AvgPool2D(input, [2]int{2, 2}, [2]int{2, 2}, [2]int{0, 0}).Data())
}

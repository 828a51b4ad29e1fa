package nn_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/archbuild/internal/backend/cpu"
	"github.com/born-ml/archbuild/internal/nn"
	"github.com/born-ml/archbuild/internal/tensor"
)

type backendT = *cpu.CPUBackend

func fromSlice(t *testing.T, data []float32, shape ...int) *tensor.Tensor[backendT] {
	t.Helper()
	out, err := tensor.FromSlice(data, tensor.Shape(shape), cpu.New())
	require.NoError(t, err)
	return out
}

func rawFromSlice(t *testing.T, data []float32, shape ...int) *tensor.RawTensor {
	t.Helper()
	out, err := tensor.RawFromSlice(data, tensor.Shape(shape), tensor.CPU)
	require.NoError(t, err)
	return out
}

func assertClose(t *testing.T, expected, actual []float32) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], 1e-4, "element %d", i)
	}
}

func seeded() rand.Source {
	return rand.NewPCG(1, 2)
}

func TestParameter(t *testing.T) {
	data := fromSlice(t, []float32{1, 2, 3}, 3)
	param := nn.NewParameter("test_param", data)

	assert.Equal(t, "test_param", param.Name())
	assert.Same(t, data, param.Tensor())
}

func TestLinear_Creation(t *testing.T) {
	layer := nn.NewLinear(10, 5, true, cpu.New(), seeded())

	assert.Equal(t, 10, layer.InFeatures())
	assert.Equal(t, 5, layer.OutFeatures())
	assert.Equal(t, tensor.Shape{5, 10}, layer.Weight().Tensor().Shape())
	assert.Equal(t, tensor.Shape{5}, layer.Bias().Tensor().Shape())
	assert.Len(t, layer.Parameters(), 2)
	assert.Equal(t, 55, nn.NumParameters[backendT](layer))

	bound := float32(math.Sqrt(6.0 / 15.0))
	for _, v := range layer.Weight().Tensor().Data() {
		assert.LessOrEqual(t, v, bound)
		assert.GreaterOrEqual(t, v, -bound)
	}
	for _, v := range layer.Bias().Tensor().Data() {
		assert.Zero(t, v)
	}
}

func TestLinear_NoBias(t *testing.T) {
	layer := nn.NewLinear(3, 2, false, cpu.New(), seeded())

	assert.Nil(t, layer.Bias())
	assert.Len(t, layer.Parameters(), 1)
	assert.Equal(t, "Linear(in_features=3, out_features=2, bias=false)", layer.String())
}

func TestLinear_InvalidFeaturesPanics(t *testing.T) {
	assert.PanicsWithValue(t, "linear: invalid features in=0, out=2", func() {
		nn.NewLinear(0, 2, true, cpu.New(), nil)
	})
}

func TestLinear_Forward(t *testing.T) {
	layer := nn.NewLinear(3, 2, true, cpu.New(), seeded())
	require.NoError(t, layer.LoadStateDict(map[string]*tensor.RawTensor{
		"weight": rawFromSlice(t, []float32{1, 0, 1, 0, 1, 0}, 2, 3),
		"bias":   rawFromSlice(t, []float32{0.5, -0.5}, 2),
	}))

	out := layer.Forward(fromSlice(t, []float32{1, 2, 3, -1, 0, 1}, 2, 3))
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assertClose(t, []float32{4.5, 1.5, 0.5, -0.5}, out.Data())

	// Leading dimensions are batch dimensions.
	out = layer.Forward(fromSlice(t, []float32{1, 2, 3, -1, 0, 1}, 2, 1, 3))
	assert.Equal(t, tensor.Shape{2, 1, 2}, out.Shape())
	assertClose(t, []float32{4.5, 1.5, 0.5, -0.5}, out.Data())
}

func TestLinear_ForwardWrongFeaturesPanics(t *testing.T) {
	layer := nn.NewLinear(3, 2, true, cpu.New(), seeded())
	assert.PanicsWithValue(t, "linear: expected input with 3 features, got 4", func() {
		layer.Forward(tensor.Zeros(tensor.Shape{1, 4}, cpu.New()))
	})
}

func TestLinear_SeededInitIsDeterministic(t *testing.T) {
	a := nn.NewLinear(4, 4, true, cpu.New(), rand.NewPCG(7, 7))
	b := nn.NewLinear(4, 4, true, cpu.New(), rand.NewPCG(7, 7))
	assert.Equal(t, a.Weight().Tensor().Data(), b.Weight().Tensor().Data())
}

func TestConv2D_Forward(t *testing.T) {
	conv := nn.NewConv2D(1, 1, [2]int{2, 2}, [2]int{1, 1}, [2]int{0, 0}, true, cpu.New(), seeded())
	require.NoError(t, conv.LoadStateDict(map[string]*tensor.RawTensor{
		"weight": rawFromSlice(t, []float32{1, 1, 1, 1}, 1, 1, 2, 2),
		"bias":   rawFromSlice(t, []float32{1}, 1),
	}))

	input := fromSlice(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, 1, 1, 3, 3)
	out := conv.Forward(input)

	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assertClose(t, []float32{13, 17, 25, 29}, out.Data())
	assert.Equal(t, "Conv2d(1, 1, kernel_size=[2 2], stride=[1 1], padding=[0 0], bias=true)", conv.String())
}

func TestConv2D_WrongChannelsPanics(t *testing.T) {
	conv := nn.NewConv2D(3, 4, [2]int{3, 3}, [2]int{1, 1}, [2]int{1, 1}, true, cpu.New(), seeded())
	assert.PanicsWithValue(t, "conv2d: input channels 1 != expected 3", func() {
		conv.Forward(tensor.Zeros(tensor.Shape{1, 1, 5, 5}, cpu.New()))
	})
}

func TestPool2D_Forward(t *testing.T) {
	input := fromSlice(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, 1, 1, 4, 4)

	maxPool := nn.NewMaxPool2D([2]int{2, 2}, [2]int{2, 2}, [2]int{0, 0}, cpu.New())
	assertClose(t, []float32{6, 8, 14, 16}, maxPool.Forward(input).Data())

	avgPool := nn.NewAvgPool2D[backendT]([2]int{2, 2}, [2]int{2, 2}, [2]int{0, 0})
	assertClose(t, []float32{3.5, 5.5, 11.5, 13.5}, avgPool.Forward(input).Data())

	assert.Empty(t, maxPool.Parameters())
	assert.Empty(t, avgPool.StateDict())
}

func TestPool2D_InvalidPaddingPanics(t *testing.T) {
	assert.Panics(t, func() {
		nn.NewMaxPool2D([2]int{2, 2}, [2]int{2, 2}, [2]int{2, 2}, cpu.New())
	})
}

func TestActivations(t *testing.T) {
	input := fromSlice(t, []float32{-2, 0, 2}, 3)

	tests := []struct {
		name     string
		module   nn.Module[backendT]
		expected []float32
	}{
		{"ReLU", nn.NewReLU[backendT](), []float32{0, 0, 2}},
		{"LeakyReLU", nn.NewLeakyReLU[backendT](0.1), []float32{-0.2, 0, 2}},
		{"Sigmoid", nn.NewSigmoid[backendT](), []float32{0.11920292, 0.5, 0.88079708}},
		{"Tanh", nn.NewTanh[backendT](), []float32{-0.96402758, 0, 0.96402758}},
		{"SiLU", nn.NewSiLU[backendT](), []float32{-0.23840584, 0, 1.76159416}},
		{"GELU", nn.NewGELU[backendT](), []float32{-0.04550026, 0, 1.95449974}},
		{"Identity", nn.NewIdentity[backendT](), []float32{-2, 0, 2}},
		{"Dropout", nn.NewDropout[backendT](0.5), []float32{-2, 0, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.module.Forward(input)
			assertClose(t, tt.expected, out.Data())
			assert.Empty(t, tt.module.Parameters())
			assert.Empty(t, tt.module.StateDict())
			require.NoError(t, tt.module.LoadStateDict(map[string]*tensor.RawTensor{}))
		})
	}

	assertClose(t, []float32{-2, 0, 2}, input.Data())
}

func TestStatelessModule_RejectsKeys(t *testing.T) {
	err := nn.NewReLU[backendT]().LoadStateDict(map[string]*tensor.RawTensor{
		"weight": rawFromSlice(t, []float32{1}, 1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected keys in state dict: weight")
}

func TestDropout_InvalidProbabilityPanics(t *testing.T) {
	assert.Panics(t, func() { nn.NewDropout[backendT](1.5) })
	assert.Equal(t, "Dropout(p=0.25)", nn.NewDropout[backendT](0.25).String())
}

func TestSoftmax(t *testing.T) {
	softmax := nn.NewSoftmax[backendT](-1)
	out := softmax.Forward(fromSlice(t, []float32{1, 2, 3, 1, 1, 1}, 2, 3))

	assertClose(t, []float32{0.09003057, 0.24472847, 0.66524096, 1. / 3, 1. / 3, 1. / 3}, out.Data())
	assert.Equal(t, "Softmax(dim=-1)", softmax.String())
}

func TestFlatten(t *testing.T) {
	input := tensor.Zeros(tensor.Shape{2, 3, 4, 5}, cpu.New())

	assert.Equal(t, tensor.Shape{2, 60}, nn.NewFlatten[backendT](1, -1).Forward(input).Shape())
	assert.Equal(t, tensor.Shape{120}, nn.NewFlatten[backendT](0, -1).Forward(input).Shape())
	assert.Equal(t, tensor.Shape{2, 12, 5}, nn.NewFlatten[backendT](1, 2).Forward(input).Shape())

	assert.Panics(t, func() { nn.NewFlatten[backendT](3, 1).Forward(input) })
}

func TestLayerNorm_Forward(t *testing.T) {
	ln := nn.NewLayerNorm(tensor.Shape{3}, 1e-5, true, true, cpu.New())
	out := ln.Forward(fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3))

	assertClose(t, []float32{-1.2247, 0, 1.2247, -1.2247, 0, 1.2247}, out.Data())
	assert.Len(t, ln.Parameters(), 2)
	assert.ElementsMatch(t, []string{"weight", "bias"}, keys(ln.StateDict()))
}

func TestLayerNorm_NoAffine(t *testing.T) {
	ln := nn.NewLayerNorm(tensor.Shape{2, 2}, 1e-5, false, true, cpu.New())

	assert.Empty(t, ln.Parameters())
	out := ln.Forward(fromSlice(t, []float32{1, 3, 1, 3}, 1, 2, 2))
	assertClose(t, []float32{-1, 1, -1, 1}, out.Data())
}

func TestLayerNorm_ShapeMismatchPanics(t *testing.T) {
	ln := nn.NewLayerNorm(tensor.Shape{4}, 1e-5, true, true, cpu.New())
	assert.Panics(t, func() {
		ln.Forward(tensor.Zeros(tensor.Shape{2, 3}, cpu.New()))
	})
}

func keys(m map[string]*tensor.RawTensor) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

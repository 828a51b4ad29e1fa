package tensor_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/archbuild/internal/backend/cpu"
	"github.com/born-ml/archbuild/internal/tensor"
)

func TestShape_NumElements(t *testing.T) {
	assert.Equal(t, 1, tensor.Shape{}.NumElements())
	assert.Equal(t, 24, tensor.Shape{2, 3, 4}.NumElements())
}

func TestShape_Validate(t *testing.T) {
	require.NoError(t, tensor.Shape{1, 2}.Validate())
	assert.EqualError(t, tensor.Shape{2, 0}.Validate(), "invalid dimension at index 1: 0 (must be > 0)")
}

func TestShape_ComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, tensor.Shape{2, 3, 4}.ComputeStrides())
	assert.Empty(t, tensor.Shape{}.ComputeStrides())
}

func TestShape_Resolve(t *testing.T) {
	resolved, err := tensor.Shape{3, -1}.Resolve(12)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 4}, resolved)

	_, err = tensor.Shape{-1, -1}.Resolve(12)
	assert.Error(t, err)

	_, err = tensor.Shape{5, -1}.Resolve(12)
	assert.Error(t, err)

	_, err = tensor.Shape{2, 2}.Resolve(12)
	assert.Error(t, err)
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name      string
		a, b      tensor.Shape
		expected  tensor.Shape
		broadcast bool
	}{
		{"same", tensor.Shape{3, 5}, tensor.Shape{3, 5}, tensor.Shape{3, 5}, false},
		{"column", tensor.Shape{3, 1}, tensor.Shape{3, 5}, tensor.Shape{3, 5}, true},
		{"rank", tensor.Shape{5}, tensor.Shape{2, 3, 5}, tensor.Shape{2, 3, 5}, true},
		{"scalar", tensor.Shape{}, tensor.Shape{4}, tensor.Shape{4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, broadcast, err := tensor.BroadcastShapes(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
			assert.Equal(t, tt.broadcast, broadcast)
		})
	}

	_, _, err := tensor.BroadcastShapes(tensor.Shape{3, 4}, tensor.Shape{3, 5})
	assert.EqualError(t, err, "shapes not compatible for broadcasting: [3 4] vs [3 5] (dimension 1: 4 vs 5)")
}

func TestRawTensor_Bytes(t *testing.T) {
	raw, err := tensor.RawFromSlice([]float32{1, -2.5, 3}, tensor.Shape{3}, tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, 12, raw.ByteSize())

	decoded, err := tensor.RawFromBytes(raw.Bytes(), tensor.Shape{3}, tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, raw.Data(), decoded.Data())

	_, err = tensor.RawFromBytes(raw.Bytes()[:8], tensor.Shape{3}, tensor.CPU)
	assert.Error(t, err)
}

func TestRawTensor_FromSliceSizeMismatch(t *testing.T) {
	_, err := tensor.RawFromSlice([]float32{1, 2, 3}, tensor.Shape{2, 2}, tensor.CPU)
	assert.Error(t, err)
}

func TestRawTensor_CloneAndWithShape(t *testing.T) {
	raw, err := tensor.RawFromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.CPU)
	require.NoError(t, err)

	clone := raw.Clone()
	clone.Data()[0] = 10
	assert.Equal(t, float32(1), raw.Data()[0])

	view, err := raw.WithShape(tensor.Shape{4})
	require.NoError(t, err)
	view.Data()[1] = 20
	assert.Equal(t, float32(20), raw.Data()[1])

	_, err = raw.WithShape(tensor.Shape{3})
	assert.Error(t, err)
}

func TestTensor_AtSetString(t *testing.T) {
	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, cpu.New())
	require.NoError(t, err)

	assert.Equal(t, float32(6), x.At(1, 2))
	x.Set(7, 0, 1)
	assert.Equal(t, float32(7), x.At(0, 1))
	assert.Equal(t, "Tensor[float32][2 3] on CPU", x.String())
	assert.Panics(t, func() { x.At(2, 0) })
	assert.Panics(t, func() { x.At(0) })
}

func TestTensor_OpsDoNotModifyInputs(t *testing.T) {
	backend := cpu.New()
	a, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{10, 20}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	assert.Equal(t, []float32{11, 22, 13, 24}, a.Add(b).Data())
	assert.Equal(t, []float32{-9, -18, -7, -16}, a.Sub(b).Data())
	assert.Equal(t, []float32{10, 40, 30, 80}, a.Mul(b).Data())
	assert.Equal(t, []float32{7, 10, 15, 22}, a.MatMul(a).Data())
	assert.Equal(t, []float32{1, 3, 2, 4}, a.T().Data())
	assert.Equal(t, tensor.Shape{4, 1}, a.Reshape(-1, 1).Shape())

	assert.Equal(t, []float32{1, 2, 3, 4}, a.Data())
	assert.Equal(t, []float32{10, 20}, b.Data())
}

func TestTensor_TRequires2D(t *testing.T) {
	x := tensor.Zeros(tensor.Shape{2, 2, 2}, cpu.New())
	assert.PanicsWithValue(t, "T() only works for 2D tensors", func() { x.T() })
}

func TestCreation(t *testing.T) {
	backend := cpu.New()

	assert.Equal(t, []float32{0, 0, 0}, tensor.Zeros(tensor.Shape{3}, backend).Data())
	assert.Equal(t, []float32{1, 1}, tensor.Ones(tensor.Shape{2}, backend).Data())
	assert.Equal(t, []float32{2.5, 2.5}, tensor.Full(tensor.Shape{2}, 2.5, backend).Data())

	u := tensor.Uniform(tensor.Shape{100}, -0.5, 0.5, backend, rand.NewPCG(1, 1))
	for _, v := range u.Data() {
		assert.GreaterOrEqual(t, v, float32(-0.5))
		assert.LessOrEqual(t, v, float32(0.5))
	}

	r1 := tensor.Randn(tensor.Shape{8}, backend, rand.NewPCG(3, 4))
	r2 := tensor.Randn(tensor.Shape{8}, backend, rand.NewPCG(3, 4))
	assert.Equal(t, r1.Data(), r2.Data())
	assert.Equal(t, tensor.Shape{8}, r1.Shape())
}

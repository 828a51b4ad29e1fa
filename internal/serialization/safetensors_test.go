package serialization

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/archbuild/internal/tensor"
)

func rawTensor(t *testing.T, data []float32, shape ...int) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.RawFromSlice(data, tensor.Shape(shape), tensor.CPU)
	require.NoError(t, err)
	return raw
}

// writeFile writes a hand-built SafeTensors file.
func writeFile(t *testing.T, header map[string]any, data []byte) string {
	t.Helper()
	headerJSON, err := json.Marshal(header)
	require.NoError(t, err)

	buf := make([]byte, 8, 8+len(headerJSON)+len(data))
	binary.LittleEndian.PutUint64(buf, uint64(len(headerJSON)))
	buf = append(buf, headerJSON...)
	buf = append(buf, data...)

	path := filepath.Join(t.TempDir(), "model.safetensors")
	require.NoError(t, os.WriteFile(path, buf, 0o600))
	return path
}

func TestSafeTensors_RoundTrip(t *testing.T) {
	stateDict := map[string]*tensor.RawTensor{
		"0.weight":          rawTensor(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3),
		"0.bias":            rawTensor(t, []float32{-1, 1}, 2),
		"1.nested.0.weight": rawTensor(t, []float32{0.5}, 1, 1),
	}
	path := filepath.Join(t.TempDir(), "model.safetensors")

	require.NoError(t, WriteSafeTensors(path, stateDict, map[string]string{"format": "pt"}))

	r, err := OpenSafeTensors(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	assert.Equal(t, []string{"0.bias", "0.weight", "1.nested.0.weight"}, r.TensorNames())
	assert.Equal(t, "pt", r.Metadata()["format"])
	assert.Len(t, r.Metadata()[ChecksumKey], 64)

	loaded, err := r.ReadStateDict()
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for name, raw := range stateDict {
		assert.Equal(t, raw.Shape(), loaded[name].Shape(), name)
		assert.Equal(t, raw.Data(), loaded[name].Data(), name)
	}

	info, err := r.TensorInfo("0.weight")
	require.NoError(t, err)
	assert.Equal(t, DTypeF32, info.DType)
	assert.Equal(t, int64(24), info.Size)
}

func TestSafeTensors_HeaderLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	require.NoError(t, WriteSafeTensors(path, map[string]*tensor.RawTensor{
		"b": rawTensor(t, []float32{2}, 1),
		"a": rawTensor(t, []float32{1, 1}, 2),
	}, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	headerSize := binary.LittleEndian.Uint64(data[:8])
	assert.Zero(t, headerSize%8, "data section must be 8-byte aligned")

	var header map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data[8:8+headerSize], &header))

	var a, b headerEntry
	require.NoError(t, json.Unmarshal(header["a"], &a))
	require.NoError(t, json.Unmarshal(header["b"], &b))
	assert.Equal(t, headerEntry{DType: "F32", Shape: []int64{2}, DataOffsets: [2]int64{0, 8}}, a)
	assert.Equal(t, headerEntry{DType: "F32", Shape: []int64{1}, DataOffsets: [2]int64{8, 12}}, b)
	assert.Len(t, data, int(8+headerSize+12))
}

func TestSafeTensors_ConvertsDTypes(t *testing.T) {
	data := make([]byte, 0, 16+4)
	data = binary.LittleEndian.AppendUint64(data, math.Float64bits(1.5))
	data = binary.LittleEndian.AppendUint64(data, math.Float64bits(-2))
	data = binary.LittleEndian.AppendUint16(data, uint16(math.Float32bits(3)>>16))
	data = binary.LittleEndian.AppendUint16(data, uint16(math.Float32bits(-0.5)>>16))

	path := writeFile(t, map[string]any{
		"double": headerEntry{DType: "F64", Shape: []int64{2}, DataOffsets: [2]int64{0, 16}},
		"brain":  headerEntry{DType: "BF16", Shape: []int64{2}, DataOffsets: [2]int64{16, 20}},
	}, data)

	loaded, err := ReadSafeTensors(path)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2}, loaded["double"].Data())
	assert.Equal(t, []float32{3, -0.5}, loaded["brain"].Data())
}

func TestSafeTensors_ChecksumMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	require.NoError(t, WriteSafeTensors(path, map[string]*tensor.RawTensor{
		"w": rawTensor(t, []float32{1, 2}, 2),
	}, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = OpenSafeTensors(path)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	r, err := OpenSafeTensorsWithOptions(path, ReaderOptions{SkipChecksumValidation: true})
	require.NoError(t, err)
	assert.NoError(t, r.Close())
}

func TestSafeTensors_InvalidFiles(t *testing.T) {
	t.Run("too small", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tiny.safetensors")
		require.NoError(t, os.WriteFile(path, []byte{1, 2}, 0o600))
		_, err := OpenSafeTensors(path)
		assert.ErrorIs(t, err, ErrInvalidHeaderSize)
	})

	t.Run("header beyond file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "short.safetensors")
		buf := binary.LittleEndian.AppendUint64(nil, 1000)
		require.NoError(t, os.WriteFile(path, append(buf, '{', '}'), 0o600))
		_, err := OpenSafeTensors(path)
		assert.ErrorIs(t, err, ErrInvalidHeaderSize)
	})

	t.Run("out of bounds", func(t *testing.T) {
		path := writeFile(t, map[string]any{
			"w": headerEntry{DType: "F32", Shape: []int64{4}, DataOffsets: [2]int64{0, 16}},
		}, make([]byte, 8))
		_, err := OpenSafeTensors(path)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "out_of_bounds", validationErr.Type)
	})

	t.Run("unsupported dtype", func(t *testing.T) {
		path := writeFile(t, map[string]any{
			"w": headerEntry{DType: "I64", Shape: []int64{1}, DataOffsets: [2]int64{0, 8}},
		}, make([]byte, 8))
		_, err := OpenSafeTensors(path)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "unsupported_dtype", validationErr.Type)
	})

	t.Run("size mismatch", func(t *testing.T) {
		path := writeFile(t, map[string]any{
			"w": headerEntry{DType: "F32", Shape: []int64{3}, DataOffsets: [2]int64{0, 8}},
		}, make([]byte, 8))
		_, err := OpenSafeTensors(path)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "size_mismatch", validationErr.Type)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadSafeTensors(filepath.Join(t.TempDir(), "nope.safetensors"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestSafeTensorsReader_Closed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	require.NoError(t, WriteSafeTensors(path, map[string]*tensor.RawTensor{
		"w": rawTensor(t, []float32{1}, 1),
	}, nil))

	r, err := OpenSafeTensors(path)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err = r.LoadTensor("w")
	assert.ErrorIs(t, err, ErrReaderClosed)
	_, err = r.ReadStateDict()
	assert.ErrorIs(t, err, ErrReaderClosed)
}

func TestSafeTensorsReader_TensorNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	require.NoError(t, WriteSafeTensors(path, map[string]*tensor.RawTensor{}, nil))

	r, err := OpenSafeTensors(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	assert.Empty(t, r.TensorNames())
	_, err = r.LoadTensor("w")
	assert.ErrorIs(t, err, ErrTensorNotFound)
}

func TestWriteSafeTensors_RejectsBadNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	err := WriteSafeTensors(path, map[string]*tensor.RawTensor{
		"../w": rawTensor(t, []float32{1}, 1),
	}, nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "invalid_name", validationErr.Type)
}

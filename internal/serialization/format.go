package serialization

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Format constants.
const (
	HeaderSizeBytes = 8              // Size of the little-endian header length prefix
	MetadataKey     = "__metadata__" // Header key holding free-form string metadata
	ChecksumKey     = "sha256"       // Metadata key holding the hex SHA-256 of the data section
)

// SafeTensors dtype names.
const (
	DTypeF32  = "F32"
	DTypeF64  = "F64"
	DTypeBF16 = "BF16"
)

// Header is the parsed SafeTensors header.
type Header struct {
	Tensors  []TensorMeta      // Tensor metadata, sorted by name
	Metadata map[string]string // Contents of "__metadata__"
}

// TensorMeta describes a tensor in a SafeTensors file.
type TensorMeta struct {
	Name   string // Tensor name (e.g., "0.weight")
	DType  string // SafeTensors dtype (e.g., "F32")
	Shape  []int  // Tensor shape
	Offset int64  // Offset in the data section
	Size   int64  // Size in bytes
}

// headerEntry is the JSON form of a tensor in the header.
type headerEntry struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// dtypeSize returns the element size of a supported dtype.
func dtypeSize(dtype string) (int, bool) {
	switch dtype {
	case DTypeF32:
		return 4, true
	case DTypeF64:
		return 8, true
	case DTypeBF16:
		return 2, true
	default:
		return 0, false
	}
}

// decodeFloat32 converts little-endian values of dtype into dst.
func decodeFloat32(dst []float32, src []byte, dtype string) error {
	switch dtype {
	case DTypeF32:
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		}
	case DTypeF64:
		for i := range dst {
			dst[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(src[i*8:])))
		}
	case DTypeBF16:
		for i := range dst {
			dst[i] = math.Float32frombits(uint32(binary.LittleEndian.Uint16(src[i*2:])) << 16)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDType, dtype)
	}
	return nil
}

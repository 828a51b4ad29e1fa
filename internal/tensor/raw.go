package tensor

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// RawTensor is the low-level float32 tensor representation used by backends.
//
// Data is stored contiguously in row-major order. Backends never modify the
// data of their inputs; every operation allocates a fresh RawTensor.
type RawTensor struct {
	data   []float32
	shape  Shape
	stride []int
	device Device
}

// NewRaw creates a new zero-filled RawTensor with the given shape.
func NewRaw(shape Shape, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		data:   make([]float32, shape.NumElements()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		device: device,
	}, nil
}

// RawFromSlice creates a RawTensor holding a copy of data.
func RawFromSlice(data []float32, shape Shape, device Device) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	raw, err := NewRaw(shape, device)
	if err != nil {
		return nil, err
	}
	copy(raw.data, data)
	return raw, nil
}

// RawFromBytes decodes little-endian float32 values into a RawTensor.
func RawFromBytes(b []byte, shape Shape, device Device) (*RawTensor, error) {
	if len(b) != shape.NumElements()*4 {
		return nil, fmt.Errorf("shape %v requires %d bytes, but got %d", shape, shape.NumElements()*4, len(b))
	}
	raw, err := NewRaw(shape, device)
	if err != nil {
		return nil, err
	}
	for i := range raw.data {
		raw.data[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return raw, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * 4
}

// Data returns the underlying float32 slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []float32 {
	return r.data
}

// Bytes encodes the data as little-endian float32 values.
func (r *RawTensor) Bytes() []byte {
	out := make([]byte, r.ByteSize())
	for i, v := range r.data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// WithShape returns a RawTensor sharing this tensor's data under a new shape.
// The new shape must have the same number of elements.
func (r *RawTensor) WithShape(shape Shape) (*RawTensor, error) {
	if shape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("cannot view %v as %v", r.shape, shape)
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &RawTensor{
		data:   r.data,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		device: r.device,
	}, nil
}

// Clone creates a deep copy of the RawTensor.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]float32, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		data:   data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		device: r.device,
	}
}

package nn

import (
	"fmt"

	"github.com/born-ml/archbuild/internal/tensor"
)

// AvgPool2DBackend is an interface for backends that support average pooling.
type AvgPool2DBackend interface {
	AvgPool2D(input *tensor.RawTensor, kernelSize, stride, padding [2]int) *tensor.RawTensor
}

// MaxPool2D is a 2D max pooling layer over [N, C, H, W] inputs.
type MaxPool2D[B tensor.Backend] struct {
	stateless[B]

	kernelSize [2]int
	stride     [2]int
	padding    [2]int
	backend    B
}

// NewMaxPool2D creates a new 2D max pooling layer.
// kernelSize, stride and padding are given as {h, w}.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride, padding [2]int, backend B) *MaxPool2D[B] {
	validatePool("maxpool2d", kernelSize, stride, padding)
	return &MaxPool2D[B]{
		kernelSize: kernelSize,
		stride:     stride,
		padding:    padding,
		backend:    backend,
	}
}

// Forward applies max pooling.
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	if len(input.Shape()) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %dD", len(input.Shape())))
	}
	out := m.backend.MaxPool2D(input.Raw(), m.kernelSize, m.stride, m.padding)
	return tensor.New(out, m.backend)
}

// String returns a short description of the layer.
func (m *MaxPool2D[B]) String() string {
	return fmt.Sprintf("MaxPool2d(kernel_size=%v, stride=%v, padding=%v)", m.kernelSize, m.stride, m.padding)
}

// AvgPool2D is a 2D average pooling layer over [N, C, H, W] inputs.
type AvgPool2D[B tensor.Backend] struct {
	stateless[B]

	kernelSize [2]int
	stride     [2]int
	padding    [2]int
}

// NewAvgPool2D creates a new 2D average pooling layer.
func NewAvgPool2D[B tensor.Backend](kernelSize, stride, padding [2]int) *AvgPool2D[B] {
	validatePool("avgpool2d", kernelSize, stride, padding)
	return &AvgPool2D[B]{
		kernelSize: kernelSize,
		stride:     stride,
		padding:    padding,
	}
}

// Forward applies average pooling.
func (a *AvgPool2D[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	if len(input.Shape()) != 4 {
		panic(fmt.Sprintf("avgpool2d: expected 4D input [N,C,H,W], got %dD", len(input.Shape())))
	}
	backend := input.Backend()
	poolBackend, ok := any(backend).(AvgPool2DBackend)
	if !ok {
		panic("AvgPool2D: backend must implement AvgPool2D operation")
	}
	return tensor.New(poolBackend.AvgPool2D(input.Raw(), a.kernelSize, a.stride, a.padding), backend)
}

// String returns a short description of the layer.
func (a *AvgPool2D[B]) String() string {
	return fmt.Sprintf("AvgPool2d(kernel_size=%v, stride=%v, padding=%v)", a.kernelSize, a.stride, a.padding)
}

func validatePool(op string, kernelSize, stride, padding [2]int) {
	if kernelSize[0] <= 0 || kernelSize[1] <= 0 {
		panic(fmt.Sprintf("%s: invalid kernel size %v", op, kernelSize))
	}
	if stride[0] <= 0 || stride[1] <= 0 {
		panic(fmt.Sprintf("%s: invalid stride %v", op, stride))
	}
	if padding[0] < 0 || padding[1] < 0 || 2*padding[0] > kernelSize[0] || 2*padding[1] > kernelSize[1] {
		panic(fmt.Sprintf("%s: padding %v should be non-negative and at most half of kernel size %v", op, padding, kernelSize))
	}
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the float32 tensors that
// archbuild modules consume and produce.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros(tensor.Shape{2, 3}, backend)
//	y := tensor.Ones(tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // Element-wise addition
package tensor

import (
	"math/rand/v2"

	"github.com/born-ml/archbuild/internal/tensor"
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// CPU is the only supported device.
const CPU Device = tensor.CPU

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is the low-level tensor representation used by backends.
type RawTensor = tensor.RawTensor

// Backend defines the interface that all compute backends must implement.
type Backend = tensor.Backend

// Tensor is a float32 tensor bound to a backend.
type Tensor[B Backend] = tensor.Tensor[B]

// BroadcastShapes computes the NumPy-style broadcast of two shapes.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}

// FromSlice creates a tensor from a flat row-major slice.
func FromSlice[B Backend](data []float32, shape Shape, b B) (*Tensor[B], error) {
	return tensor.FromSlice(data, shape, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[B Backend](shape Shape, b B) *Tensor[B] {
	return tensor.Zeros(shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[B Backend](shape Shape, b B) *Tensor[B] {
	return tensor.Ones(shape, b)
}

// Full creates a tensor filled with value.
func Full[B Backend](shape Shape, value float32, b B) *Tensor[B] {
	return tensor.Full(shape, value, b)
}

// Randn creates a tensor with values drawn from N(0, 1).
// A nil src uses the global math/rand/v2 source.
func Randn[B Backend](shape Shape, b B, src rand.Source) *Tensor[B] {
	return tensor.Randn(shape, b, src)
}

// Uniform creates a tensor with values drawn from U(low, high).
func Uniform[B Backend](shape Shape, low, high float64, b B, src rand.Source) *Tensor[B] {
	return tensor.Uniform(shape, low, high, b, src)
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural network layers and containers that
// architecture descriptions are built from.
package nn

import (
	"math/rand/v2"

	"github.com/born-ml/archbuild/internal/nn"
	"github.com/born-ml/archbuild/internal/tensor"
)

// Module interface defines the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// NamedModule is a child module together with its name in the parent.
type NamedModule[B tensor.Backend] = nn.NamedModule[B]

// Container is a module that owns child modules.
type Container[B tensor.Backend] = nn.Container[B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// NumParameters returns the number of scalar parameters of m.
func NumParameters[B tensor.Backend](m Module[B]) int {
	return nn.NumParameters(m)
}

// Containers

// Sequential applies its children in order.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// ResBlock computes x + nested(x).
type ResBlock[B tensor.Backend] = nn.ResBlock[B]

// NewResBlock wraps nested in a residual connection.
func NewResBlock[B tensor.Backend](nested Module[B]) *ResBlock[B] {
	return nn.NewResBlock(nested)
}

// ErrMissingNested is returned by NewResBlockFromArgs without a "nested" module.
var ErrMissingNested = nn.ErrMissingNested

// NewResBlockFromArgs creates a ResBlock from keyword arguments. The only
// accepted key is "nested".
func NewResBlockFromArgs[B tensor.Backend](args map[string]Module[B]) (*ResBlock[B], error) {
	return nn.NewResBlockFromArgs(args)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 128, true, backend, nil)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B, src rand.Source) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, useBias, backend, src)
}

// Conv2D represents a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer. Sizes are given as {h, w}.
func NewConv2D[B tensor.Backend](
	inChannels, outChannels int,
	kernelSize, stride, padding [2]int,
	useBias bool,
	backend B,
	src rand.Source,
) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelSize, stride, padding, useBias, backend, src)
}

// MaxPool2D represents a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a new 2D max pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride, padding [2]int, backend B) *MaxPool2D[B] {
	return nn.NewMaxPool2D(kernelSize, stride, padding, backend)
}

// AvgPool2D represents a 2D average pooling layer.
type AvgPool2D[B tensor.Backend] = nn.AvgPool2D[B]

// NewAvgPool2D creates a new 2D average pooling layer.
func NewAvgPool2D[B tensor.Backend](kernelSize, stride, padding [2]int) *AvgPool2D[B] {
	return nn.NewAvgPool2D[B](kernelSize, stride, padding)
}

// LayerNorm normalizes over the trailing dimensions.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a layer normalization module.
func NewLayerNorm[B tensor.Backend](normalizedShape tensor.Shape, eps float32, elementwiseAffine, useBias bool, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm(normalizedShape, eps, elementwiseAffine, useBias, backend)
}

// Flatten merges the dimensions startDim..endDim.
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a Flatten module.
func NewFlatten[B tensor.Backend](startDim, endDim int) *Flatten[B] {
	return nn.NewFlatten[B](startDim, endDim)
}

// Identity returns its input.
type Identity[B tensor.Backend] = nn.Identity[B]

// NewIdentity creates an Identity module.
func NewIdentity[B tensor.Backend]() *Identity[B] {
	return nn.NewIdentity[B]()
}

// Dropout is the identity at inference time.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a Dropout module.
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	return nn.NewDropout[B](p)
}

// Activations

// ReLU applies max(0, x).
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] { return nn.NewReLU[B]() }

// LeakyReLU applies max(0, x) + slope*min(0, x).
type LeakyReLU[B tensor.Backend] = nn.LeakyReLU[B]

// NewLeakyReLU creates a LeakyReLU activation.
func NewLeakyReLU[B tensor.Backend](negativeSlope float32) *LeakyReLU[B] {
	return nn.NewLeakyReLU[B](negativeSlope)
}

// Sigmoid applies 1 / (1 + exp(-x)).
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a Sigmoid activation.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] { return nn.NewSigmoid[B]() }

// Tanh applies the hyperbolic tangent.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a Tanh activation.
func NewTanh[B tensor.Backend]() *Tanh[B] { return nn.NewTanh[B]() }

// SiLU applies x * sigmoid(x).
type SiLU[B tensor.Backend] = nn.SiLU[B]

// NewSiLU creates a SiLU activation.
func NewSiLU[B tensor.Backend]() *SiLU[B] { return nn.NewSiLU[B]() }

// GELU applies the exact Gaussian error linear unit.
type GELU[B tensor.Backend] = nn.GELU[B]

// NewGELU creates a GELU activation.
func NewGELU[B tensor.Backend]() *GELU[B] { return nn.NewGELU[B]() }

// Softmax normalizes along one dimension.
type Softmax[B tensor.Backend] = nn.Softmax[B]

// NewSoftmax creates a Softmax over dim.
func NewSoftmax[B tensor.Backend](dim int) *Softmax[B] { return nn.NewSoftmax[B](dim) }

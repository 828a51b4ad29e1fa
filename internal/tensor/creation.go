package tensor

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros(Shape{3, 4}, backend)
func Zeros[B Backend](shape Shape, b B) *Tensor[B] {
	raw, err := NewRaw(shape, b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}
	return New(raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[B Backend](shape Shape, b B) *Tensor[B] {
	return Full(shape, 1, b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full(Shape{3, 3}, 3.14, backend)
func Full[B Backend](shape Shape, value float32, b B) *Tensor[B] {
	t := Zeros(shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor with values drawn from N(0, 1).
//
// src may be nil, in which case the global math/rand/v2 source is used.
func Randn[B Backend](shape Shape, b B, src rand.Source) *Tensor[B] {
	t := Zeros(shape, b)
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	data := t.Data()
	for i := range data {
		data[i] = float32(dist.Rand())
	}
	return t
}

// Uniform creates a tensor with values drawn from U(low, high).
//
// src may be nil, in which case the global math/rand/v2 source is used.
func Uniform[B Backend](shape Shape, low, high float64, b B, src rand.Source) *Tensor[B] {
	t := Zeros(shape, b)
	dist := distuv.Uniform{Min: low, Max: high, Src: src}
	data := t.Data()
	for i := range data {
		data[i] = float32(dist.Rand())
	}
	return t
}

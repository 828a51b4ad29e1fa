package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Operations panic on invalid input shapes; they never modify their inputs.
// Activation functions and normalisation are optional capabilities that
// layers discover through type assertions (see package nn).
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Convolutional operations on [N, C, H, W] inputs.
	// Stride and padding are given per spatial axis as {h, w}.
	Conv2D(input, kernel *RawTensor, stride, padding [2]int) *RawTensor
	MaxPool2D(input *RawTensor, kernelSize, stride, padding [2]int) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Softmax along dimension dim (negative values count from the end).
	Softmax(x *RawTensor, dim int) *RawTensor

	// Metadata
	Name() string
	Device() Device
}

// Copyright 2026 Retouch ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/retouch-ml/retouch/internal/tensor"

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - backend/cpu: Pure Go kernels with worker-pool parallelism
//   - backend/webgpu: GPU compute via WebGPU (windows builds; partial op set)
//
// Decorator backends for additional functionality:
//   - autodiff: Automatic differentiation (wraps any backend)
//
// Activation functions (ReLU, LeakyReLU, Sigmoid, Tanh) and fused losses are
// capability methods discovered by type assertion, so they do not appear here.
//
// Example:
//
//	import (
//	    "github.com/retouch-ml/retouch/tensor"
//	    "github.com/retouch-ml/retouch/backend/cpu"
//	)
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // Uses backend.Add under the hood
type Backend interface {
	// Element-wise binary operations.
	Add(a, b *RawTensor) *RawTensor // Element-wise addition.
	Sub(a, b *RawTensor) *RawTensor // Element-wise subtraction.
	Mul(a, b *RawTensor) *RawTensor // Element-wise multiplication.
	Div(a, b *RawTensor) *RawTensor // Element-wise division.

	// Matrix operations.
	MatMul(a, b *RawTensor) *RawTensor // Matrix multiplication.

	// Convolutional operations.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor                     // 2D convolution.
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor  // Conv2D input gradient.
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor // Conv2D kernel gradient.

	// Pooling and resampling operations.
	MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor                                 // 2D max pooling.
	MaxPool2DBackward(input, grad *RawTensor, maxIndices []int, kernelSize, stride int) *RawTensor // MaxPool2D gradient.
	AvgPool2D(input *RawTensor, kernelSize, stride int) *RawTensor                                 // 2D average pooling.
	AvgPool2DBackward(input, grad *RawTensor, kernelSize, stride int) *RawTensor                   // AvgPool2D gradient.
	Upsample2D(input *RawTensor, scale int) *RawTensor                                             // Nearest-neighbor upsampling.
	Upsample2DBackward(input, grad *RawTensor, scale int) *RawTensor                               // Upsample2D gradient.

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor // Reshape tensor.
	Transpose(t *RawTensor, axes ...int) *RawTensor  // Transpose dimensions.
	Expand(x *RawTensor, shape Shape) *RawTensor     // Broadcast to shape.

	// Scalar operations (element-wise with scalar).
	MulScalar(x *RawTensor, scalar any) *RawTensor // Multiply by scalar.
	AddScalar(x *RawTensor, scalar any) *RawTensor // Add scalar.
	SubScalar(x *RawTensor, scalar any) *RawTensor // Subtract scalar.
	DivScalar(x *RawTensor, scalar any) *RawTensor // Divide by scalar.

	// Math operations (element-wise).
	Exp(x *RawTensor) *RawTensor   // Exponential.
	Log(x *RawTensor) *RawTensor   // Natural logarithm.
	Sqrt(x *RawTensor) *RawTensor  // Square root.
	Rsqrt(x *RawTensor) *RawTensor // Reciprocal square root (1/sqrt(x)).
	Abs(x *RawTensor) *RawTensor   // Absolute value.
	Cos(x *RawTensor) *RawTensor   // Cosine.
	Sin(x *RawTensor) *RawTensor   // Sine.

	// Activation functions.
	Softmax(x *RawTensor, dim int) *RawTensor // Softmax along dimension.

	// Comparison operations (element-wise, return bool tensor).
	Greater(a, b *RawTensor) *RawTensor      // a > b.
	Lower(a, b *RawTensor) *RawTensor        // a < b.
	GreaterEqual(a, b *RawTensor) *RawTensor // a >= b.
	LowerEqual(a, b *RawTensor) *RawTensor   // a <= b.
	Equal(a, b *RawTensor) *RawTensor        // a == b.
	NotEqual(a, b *RawTensor) *RawTensor     // a != b.

	// Boolean operations (element-wise on bool tensors).
	Or(a, b *RawTensor) *RawTensor  // Logical OR.
	And(a, b *RawTensor) *RawTensor // Logical AND.
	Not(x *RawTensor) *RawTensor    // Logical NOT.

	// Reduction operations.
	Sum(x *RawTensor) *RawTensor                            // Total sum (scalar result).
	Mean(x *RawTensor) *RawTensor                           // Total mean (scalar result).
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor  // Sum along dimension.
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor // Mean along dimension.
	Argmax(x *RawTensor, dim int) *RawTensor                // Index of maximum value along dimension.

	// Manipulation operations.
	Cat(tensors []*RawTensor, dim int) *RawTensor // Concatenate along dimension.
	Chunk(x *RawTensor, n, dim int) []*RawTensor  // Split into n equal parts.
	Unsqueeze(x *RawTensor, dim int) *RawTensor   // Add dimension of size 1.
	Squeeze(x *RawTensor, dim int) *RawTensor     // Remove dimension of size 1.

	// Indexing operations.
	Where(condition, x, y *RawTensor) *RawTensor // Conditional element selection.

	// Type conversion.
	Cast(x *RawTensor, dtype DataType) *RawTensor // Cast to different data type.

	// Metadata.
	Name() string   // Backend name (e.g., "CPU", "WebGPU").
	Device() Device // Device type.
}

// Compile-time check that internal Backend implements public Backend.
var _ Backend = tensor.Backend(nil)

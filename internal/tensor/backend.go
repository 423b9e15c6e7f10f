package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - CPU: Pure Go kernels with optional worker-pool parallelism
//   - WebGPU: GPU compute via go-webgpu (windows builds; partial op set)
//   - Autodiff: decorator over any backend, records ops on a gradient tape
//
// Activation functions (ReLU, LeakyReLU, Sigmoid, Tanh) and fused losses
// are capability methods: nn discovers them by type assertion on the
// backend rather than through this interface, so plain backends stay small.
type Backend interface {
	// Element-wise binary operations
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// Convolution and its gradients. Input is [N, C, H, W], kernel is
	// [C_out, C_in, KH, KW]; stride and padding are symmetric.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor

	// Pooling and resampling
	MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor
	MaxPool2DBackward(input, grad *RawTensor, maxIndices []int, kernelSize, stride int) *RawTensor
	AvgPool2D(input *RawTensor, kernelSize, stride int) *RawTensor
	AvgPool2DBackward(input, grad *RawTensor, kernelSize, stride int) *RawTensor
	Upsample2D(input *RawTensor, scale int) *RawTensor
	Upsample2DBackward(input, grad *RawTensor, scale int) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor // broadcast to shape

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar any) *RawTensor // multiply by scalar
	AddScalar(x *RawTensor, scalar any) *RawTensor // add scalar
	SubScalar(x *RawTensor, scalar any) *RawTensor // subtract scalar
	DivScalar(x *RawTensor, scalar any) *RawTensor // divide by scalar

	// Math operations (element-wise)
	Exp(x *RawTensor) *RawTensor   // exponential
	Log(x *RawTensor) *RawTensor   // natural logarithm
	Sqrt(x *RawTensor) *RawTensor  // square root
	Rsqrt(x *RawTensor) *RawTensor // reciprocal square root (1/sqrt(x))
	Abs(x *RawTensor) *RawTensor   // absolute value
	Cos(x *RawTensor) *RawTensor   // cosine
	Sin(x *RawTensor) *RawTensor   // sine

	// Activation functions
	Softmax(x *RawTensor, dim int) *RawTensor // softmax along dimension

	// Comparison operations (element-wise, return bool tensor)
	Greater(a, b *RawTensor) *RawTensor      // a > b
	Lower(a, b *RawTensor) *RawTensor        // a < b
	GreaterEqual(a, b *RawTensor) *RawTensor // a >= b
	LowerEqual(a, b *RawTensor) *RawTensor   // a <= b
	Equal(a, b *RawTensor) *RawTensor        // a == b
	NotEqual(a, b *RawTensor) *RawTensor     // a != b

	// Boolean operations (element-wise on bool tensors)
	Or(a, b *RawTensor) *RawTensor  // logical OR
	And(a, b *RawTensor) *RawTensor // logical AND
	Not(x *RawTensor) *RawTensor    // logical NOT

	// Reduction operations
	Sum(x *RawTensor) *RawTensor                            // total sum (scalar result)
	Mean(x *RawTensor) *RawTensor                           // total mean (scalar result)
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor  // sum along dimension
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor // mean along dimension
	Argmax(x *RawTensor, dim int) *RawTensor                // index of maximum value along dimension

	// Manipulation operations
	Cat(tensors []*RawTensor, dim int) *RawTensor // concatenate along dimension
	Chunk(x *RawTensor, n, dim int) []*RawTensor  // split into n equal parts
	Unsqueeze(x *RawTensor, dim int) *RawTensor   // add dimension of size 1
	Squeeze(x *RawTensor, dim int) *RawTensor     // remove dimension of size 1

	// Indexing operations
	Where(condition, x, y *RawTensor) *RawTensor // conditional element selection

	// Type conversion
	Cast(x *RawTensor, dtype DataType) *RawTensor // cast to different data type

	// Metadata
	Name() string
	Device() Device
}

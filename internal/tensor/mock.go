// Package tensor provides the core tensor types and operations for Retouch framework.
package tensor

import (
	"fmt"
	"math"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a simple backend for testing.
// It implements all operations naively for correctness verification.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x / y })
}

// elementWise performs element-wise operations with broadcasting.
func (m *MockBackend) elementWise(a, b *RawTensor, op func(float64, float64) float64) *RawTensor {
	// Broadcast shapes
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	// Create output tensor
	result, err := NewRaw(outShape, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	// Perform operation (naive implementation)
	numElements := outShape.NumElements()

	// Convert to float64 for generic processing
	aData := m.toFloat64Slice(a)
	bData := m.toFloat64Slice(b)
	resultData := make([]float64, numElements)

	for i := 0; i < numElements; i++ {
		aIdx := m.broadcastIndex(i, outShape, a.Shape())
		bIdx := m.broadcastIndex(i, outShape, b.Shape())

		resultData[i] = op(aData[aIdx], bData[bIdx])
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// unaryWise applies op to every element of x.
func (m *MockBackend) unaryWise(x *RawTensor, op func(float64) float64) *RawTensor {
	result, err := NewRaw(x.Shape(), x.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	data := m.toFloat64Slice(x)
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = op(v)
	}

	m.fromFloat64Slice(out, result)
	return result
}

// MatMul performs matrix multiplication.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	// Only support 2D for now
	if len(aShape) != 2 || len(bShape) != 2 {
		panic("MatMul only supports 2D tensors in mock backend")
	}

	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("incompatible shapes for MatMul: %v @ %v", aShape, bShape))
	}

	M, K := aShape[0], aShape[1]
	N := bShape[1]

	outShape := Shape{M, N}
	result, err := NewRaw(outShape, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	aData := m.toFloat64Slice(a)
	bData := m.toFloat64Slice(b)
	resultData := make([]float64, outShape.NumElements())

	// Naive matrix multiplication
	for i := 0; i < M; i++ {
		for j := 0; j < N; j++ {
			sum := 0.0
			for k := 0; k < K; k++ {
				sum += aData[i*K+k] * bData[k*N+j]
			}
			resultData[i*N+j] = sum
		}
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// Conv2D performs 2D convolution (naive implementation for testing).
func (m *MockBackend) Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 || len(kernelShape) != 4 {
		panic("Conv2D requires 4D tensors [N,C,H,W]")
	}

	N := inputShape[0]
	CIn := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	COut := kernelShape[0]
	KH := kernelShape[2]
	KW := kernelShape[3]

	if CIn != kernelShape[1] {
		panic(fmt.Sprintf("Conv2D: input channels %d != kernel channels %d", CIn, kernelShape[1]))
	}

	HOut := (H+2*padding-KH)/stride + 1
	WOut := (W+2*padding-KW)/stride + 1

	output, err := NewRaw(Shape{N, COut, HOut, WOut}, input.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	inputData := m.toFloat64Slice(input)
	kernelData := m.toFloat64Slice(kernel)
	outputData := make([]float64, output.NumElements())

	// Naive convolution (direct implementation)
	for n := 0; n < N; n++ {
		for cOut := 0; cOut < COut; cOut++ {
			for outH := 0; outH < HOut; outH++ {
				for outW := 0; outW < WOut; outW++ {
					sum := 0.0

					// Convolve over input patch
					for cIn := 0; cIn < CIn; cIn++ {
						for kh := 0; kh < KH; kh++ {
							for kw := 0; kw < KW; kw++ {
								h := outH*stride - padding + kh
								w := outW*stride - padding + kw

								// Check bounds (zero padding)
								if h >= 0 && h < H && w >= 0 && w < W {
									inputIdx := n*CIn*H*W + cIn*H*W + h*W + w
									kernelIdx := cOut*CIn*KH*KW + cIn*KH*KW + kh*KW + kw
									sum += inputData[inputIdx] * kernelData[kernelIdx]
								}
							}
						}
					}

					outputIdx := n*COut*HOut*WOut + cOut*HOut*WOut + outH*WOut + outW
					outputData[outputIdx] = sum
				}
			}
		}
	}

	m.fromFloat64Slice(outputData, output)
	return output
}

// Conv2DInputBackward computes the convolution gradient with respect to the input.
func (m *MockBackend) Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()
	gradShape := grad.Shape()

	N := inputShape[0]
	CIn := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	COut := kernelShape[0]
	KH := kernelShape[2]
	KW := kernelShape[3]
	HOut := gradShape[2]
	WOut := gradShape[3]

	inputGrad, err := NewRaw(inputShape, grad.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	kernelData := m.toFloat64Slice(kernel)
	gradData := m.toFloat64Slice(grad)
	out := make([]float64, inputGrad.NumElements())

	// Scatter each output gradient back through the receptive field
	for n := 0; n < N; n++ {
		for cOut := 0; cOut < COut; cOut++ {
			for outH := 0; outH < HOut; outH++ {
				for outW := 0; outW < WOut; outW++ {
					g := gradData[n*COut*HOut*WOut+cOut*HOut*WOut+outH*WOut+outW]

					for cIn := 0; cIn < CIn; cIn++ {
						for kh := 0; kh < KH; kh++ {
							for kw := 0; kw < KW; kw++ {
								h := outH*stride - padding + kh
								w := outW*stride - padding + kw

								if h >= 0 && h < H && w >= 0 && w < W {
									inputIdx := n*CIn*H*W + cIn*H*W + h*W + w
									kernelIdx := cOut*CIn*KH*KW + cIn*KH*KW + kh*KW + kw
									out[inputIdx] += g * kernelData[kernelIdx]
								}
							}
						}
					}
				}
			}
		}
	}

	m.fromFloat64Slice(out, inputGrad)
	return inputGrad
}

// Conv2DKernelBackward computes the convolution gradient with respect to the kernel.
func (m *MockBackend) Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()
	gradShape := grad.Shape()

	N := inputShape[0]
	CIn := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	COut := kernelShape[0]
	KH := kernelShape[2]
	KW := kernelShape[3]
	HOut := gradShape[2]
	WOut := gradShape[3]

	kernelGrad, err := NewRaw(kernelShape, grad.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	inputData := m.toFloat64Slice(input)
	gradData := m.toFloat64Slice(grad)
	out := make([]float64, kernelGrad.NumElements())

	for n := 0; n < N; n++ {
		for cOut := 0; cOut < COut; cOut++ {
			for outH := 0; outH < HOut; outH++ {
				for outW := 0; outW < WOut; outW++ {
					g := gradData[n*COut*HOut*WOut+cOut*HOut*WOut+outH*WOut+outW]

					for cIn := 0; cIn < CIn; cIn++ {
						for kh := 0; kh < KH; kh++ {
							for kw := 0; kw < KW; kw++ {
								h := outH*stride - padding + kh
								w := outW*stride - padding + kw

								if h >= 0 && h < H && w >= 0 && w < W {
									inputIdx := n*CIn*H*W + cIn*H*W + h*W + w
									kernelIdx := cOut*CIn*KH*KW + cIn*KH*KW + kh*KW + kw
									out[kernelIdx] += g * inputData[inputIdx]
								}
							}
						}
					}
				}
			}
		}
	}

	m.fromFloat64Slice(out, kernelGrad)
	return kernelGrad
}

// MaxPool2D performs 2D max pooling (naive implementation for testing).
func (m *MockBackend) MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("MaxPool2D: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]

	// Compute output dimensions
	HOut := (H-kernelSize)/stride + 1
	WOut := (W-kernelSize)/stride + 1

	output, err := NewRaw(Shape{N, C, HOut, WOut}, input.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	inputData := m.toFloat64Slice(input)
	outputData := make([]float64, output.NumElements())

	// Naive max pooling
	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			for outH := 0; outH < HOut; outH++ {
				for outW := 0; outW < WOut; outW++ {
					hStart := outH * stride
					wStart := outW * stride

					// Find max in pooling window
					maxVal := math.Inf(-1)
					for kh := 0; kh < kernelSize; kh++ {
						for kw := 0; kw < kernelSize; kw++ {
							h := hStart + kh
							w := wStart + kw
							inputIdx := n*C*H*W + c*H*W + h*W + w
							if inputData[inputIdx] > maxVal {
								maxVal = inputData[inputIdx]
							}
						}
					}

					outputIdx := n*C*HOut*WOut + c*HOut*WOut + outH*WOut + outW
					outputData[outputIdx] = maxVal
				}
			}
		}
	}

	m.fromFloat64Slice(outputData, output)
	return output
}

// MaxPool2DBackward routes gradients back to the positions recorded in maxIndices.
func (m *MockBackend) MaxPool2DBackward(input, grad *RawTensor, maxIndices []int, _, _ int) *RawTensor {
	inputGrad, err := NewRaw(input.Shape(), grad.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	gradData := m.toFloat64Slice(grad)
	out := make([]float64, inputGrad.NumElements())

	if len(maxIndices) != len(gradData) {
		panic(fmt.Sprintf("MaxPool2DBackward: maxIndices length %d != grad length %d", len(maxIndices), len(gradData)))
	}

	for i, g := range gradData {
		out[maxIndices[i]] += g
	}

	m.fromFloat64Slice(out, inputGrad)
	return inputGrad
}

// AvgPool2D performs 2D average pooling without padding.
func (m *MockBackend) AvgPool2D(input *RawTensor, kernelSize, stride int) *RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("AvgPool2D: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]

	HOut := (H-kernelSize)/stride + 1
	WOut := (W-kernelSize)/stride + 1

	output, err := NewRaw(Shape{N, C, HOut, WOut}, input.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	inputData := m.toFloat64Slice(input)
	outputData := make([]float64, output.NumElements())
	windowSize := float64(kernelSize * kernelSize)

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			for outH := 0; outH < HOut; outH++ {
				for outW := 0; outW < WOut; outW++ {
					hStart := outH * stride
					wStart := outW * stride

					sum := 0.0
					for kh := 0; kh < kernelSize; kh++ {
						for kw := 0; kw < kernelSize; kw++ {
							h := hStart + kh
							w := wStart + kw
							sum += inputData[n*C*H*W+c*H*W+h*W+w]
						}
					}

					outputIdx := n*C*HOut*WOut + c*HOut*WOut + outH*WOut + outW
					outputData[outputIdx] = sum / windowSize
				}
			}
		}
	}

	m.fromFloat64Slice(outputData, output)
	return output
}

// AvgPool2DBackward distributes each output gradient evenly over its window.
func (m *MockBackend) AvgPool2DBackward(input, grad *RawTensor, kernelSize, stride int) *RawTensor {
	inputShape := input.Shape()
	gradShape := grad.Shape()

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	HOut := gradShape[2]
	WOut := gradShape[3]

	inputGrad, err := NewRaw(inputShape, grad.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	gradData := m.toFloat64Slice(grad)
	out := make([]float64, inputGrad.NumElements())
	windowSize := float64(kernelSize * kernelSize)

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			for outH := 0; outH < HOut; outH++ {
				for outW := 0; outW < WOut; outW++ {
					g := gradData[n*C*HOut*WOut+c*HOut*WOut+outH*WOut+outW] / windowSize

					for kh := 0; kh < kernelSize; kh++ {
						for kw := 0; kw < kernelSize; kw++ {
							h := outH*stride + kh
							w := outW*stride + kw
							out[n*C*H*W+c*H*W+h*W+w] += g
						}
					}
				}
			}
		}
	}

	m.fromFloat64Slice(out, inputGrad)
	return inputGrad
}

// Upsample2D performs nearest-neighbor upsampling by an integer scale factor.
func (m *MockBackend) Upsample2D(input *RawTensor, scale int) *RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("Upsample2D: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if scale < 1 {
		panic(fmt.Sprintf("Upsample2D: scale must be >= 1, got %d", scale))
	}

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	HOut := H * scale
	WOut := W * scale

	output, err := NewRaw(Shape{N, C, HOut, WOut}, input.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	inputData := m.toFloat64Slice(input)
	outputData := make([]float64, output.NumElements())

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			for outH := 0; outH < HOut; outH++ {
				for outW := 0; outW < WOut; outW++ {
					inputIdx := n*C*H*W + c*H*W + (outH/scale)*W + outW/scale
					outputIdx := n*C*HOut*WOut + c*HOut*WOut + outH*WOut + outW
					outputData[outputIdx] = inputData[inputIdx]
				}
			}
		}
	}

	m.fromFloat64Slice(outputData, output)
	return output
}

// Upsample2DBackward sums gradients over each scale x scale replica block.
func (m *MockBackend) Upsample2DBackward(input, grad *RawTensor, scale int) *RawTensor {
	inputShape := input.Shape()
	gradShape := grad.Shape()

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	HOut := gradShape[2]
	WOut := gradShape[3]

	inputGrad, err := NewRaw(inputShape, grad.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	gradData := m.toFloat64Slice(grad)
	out := make([]float64, inputGrad.NumElements())

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			for outH := 0; outH < HOut; outH++ {
				for outW := 0; outW < WOut; outW++ {
					inputIdx := n*C*H*W + c*H*W + (outH/scale)*W + outW/scale
					out[inputIdx] += gradData[n*C*HOut*WOut+c*HOut*WOut+outH*WOut+outW]
				}
			}
		}
	}

	m.fromFloat64Slice(out, inputGrad)
	return inputGrad
}

// Reshape changes tensor shape.
func (m *MockBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(err)
	}

	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("cannot reshape tensor with %d elements to shape %v (%d elements)",
			t.NumElements(), newShape, newShape.NumElements()))
	}

	result, err := NewRaw(newShape, t.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	// Copy data
	copy(result.Data(), t.Data())
	return result
}

// Transpose transposes tensor dimensions.
func (m *MockBackend) Transpose(t *RawTensor, axes ...int) *RawTensor {
	shape := t.Shape()

	// Default: reverse all dimensions
	if len(axes) == 0 {
		axes = make([]int, len(shape))
		for i := range axes {
			axes[i] = len(shape) - 1 - i
		}
	}

	// Validate axes
	if len(axes) != len(shape) {
		panic(fmt.Sprintf("axes length %d doesn't match tensor dimensions %d", len(axes), len(shape)))
	}

	// Compute new shape
	newShape := make(Shape, len(shape))
	for i, axis := range axes {
		if axis < 0 || axis >= len(shape) {
			panic(fmt.Sprintf("axis %d out of bounds for tensor with %d dimensions", axis, len(shape)))
		}
		newShape[i] = shape[axis]
	}

	result, err := NewRaw(newShape, t.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	// Transpose data (naive implementation)
	tData := m.toFloat64Slice(t)
	resultData := make([]float64, t.NumElements())

	oldStrides := shape.ComputeStrides()
	newStrides := newShape.ComputeStrides()

	for i := 0; i < t.NumElements(); i++ {
		// Convert flat index to multi-dimensional indices
		indices := make([]int, len(shape))
		temp := i
		for j := 0; j < len(shape); j++ {
			indices[j] = temp / oldStrides[j]
			temp %= oldStrides[j]
		}

		// Permute indices
		permuted := make([]int, len(indices))
		for j, axis := range axes {
			permuted[j] = indices[axis]
		}

		// Convert permuted indices to flat index
		newIdx := 0
		for j, idx := range permuted {
			newIdx += idx * newStrides[j]
		}

		resultData[newIdx] = tData[i]
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// Expand broadcasts the tensor to the given shape.
func (m *MockBackend) Expand(x *RawTensor, shape Shape) *RawTensor {
	outShape, _, err := BroadcastShapes(x.Shape(), shape)
	if err != nil {
		panic(err)
	}
	if !outShape.Equal(shape) {
		panic(fmt.Sprintf("cannot expand shape %v to %v", x.Shape(), shape))
	}

	result, err := NewRaw(shape, x.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	data := m.toFloat64Slice(x)
	out := make([]float64, shape.NumElements())
	for i := range out {
		out[i] = data[m.broadcastIndex(i, shape, x.Shape())]
	}

	m.fromFloat64Slice(out, result)
	return result
}

// MulScalar multiplies every element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unaryWise(x, func(v float64) float64 { return v * s })
}

// AddScalar adds a scalar to every element.
func (m *MockBackend) AddScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unaryWise(x, func(v float64) float64 { return v + s })
}

// SubScalar subtracts a scalar from every element.
func (m *MockBackend) SubScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unaryWise(x, func(v float64) float64 { return v - s })
}

// DivScalar divides every element by a scalar.
func (m *MockBackend) DivScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unaryWise(x, func(v float64) float64 { return v / s })
}

// Exp computes the element-wise exponential.
func (m *MockBackend) Exp(x *RawTensor) *RawTensor {
	return m.unaryWise(x, math.Exp)
}

// Log computes the element-wise natural logarithm.
func (m *MockBackend) Log(x *RawTensor) *RawTensor {
	return m.unaryWise(x, math.Log)
}

// Sqrt computes the element-wise square root.
func (m *MockBackend) Sqrt(x *RawTensor) *RawTensor {
	return m.unaryWise(x, math.Sqrt)
}

// Rsqrt computes the element-wise reciprocal square root.
func (m *MockBackend) Rsqrt(x *RawTensor) *RawTensor {
	return m.unaryWise(x, func(v float64) float64 { return 1 / math.Sqrt(v) })
}

// Abs computes the element-wise absolute value.
func (m *MockBackend) Abs(x *RawTensor) *RawTensor {
	return m.unaryWise(x, math.Abs)
}

// Cos computes the element-wise cosine.
func (m *MockBackend) Cos(x *RawTensor) *RawTensor {
	return m.unaryWise(x, math.Cos)
}

// Sin computes the element-wise sine.
func (m *MockBackend) Sin(x *RawTensor) *RawTensor {
	return m.unaryWise(x, math.Sin)
}

// Softmax computes softmax along the given dimension.
func (m *MockBackend) Softmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("softmax: dimension %d out of range for %dD tensor", dim, ndim))
	}

	result, err := NewRaw(shape, x.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	data := m.toFloat64Slice(x)
	out := make([]float64, len(data))
	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]
	numSlices := x.NumElements() / dimSize

	for s := 0; s < numSlices; s++ {
		// Base offset of this slice across the remaining dimensions
		base := 0
		rem := s
		for i := ndim - 1; i >= 0; i-- {
			if i == dim {
				continue
			}
			base += (rem % shape[i]) * strides[i]
			rem /= shape[i]
		}

		maxVal := math.Inf(-1)
		for j := 0; j < dimSize; j++ {
			if v := data[base+j*dimStride]; v > maxVal {
				maxVal = v
			}
		}

		sum := 0.0
		for j := 0; j < dimSize; j++ {
			e := math.Exp(data[base+j*dimStride] - maxVal)
			out[base+j*dimStride] = e
			sum += e
		}
		for j := 0; j < dimSize; j++ {
			out[base+j*dimStride] /= sum
		}
	}

	m.fromFloat64Slice(out, result)
	return result
}

// Greater returns a bool tensor with a > b.
func (m *MockBackend) Greater(a, b *RawTensor) *RawTensor {
	return m.compareWise(a, b, func(x, y float64) bool { return x > y })
}

// Lower returns a bool tensor with a < b.
func (m *MockBackend) Lower(a, b *RawTensor) *RawTensor {
	return m.compareWise(a, b, func(x, y float64) bool { return x < y })
}

// GreaterEqual returns a bool tensor with a >= b.
func (m *MockBackend) GreaterEqual(a, b *RawTensor) *RawTensor {
	return m.compareWise(a, b, func(x, y float64) bool { return x >= y })
}

// LowerEqual returns a bool tensor with a <= b.
func (m *MockBackend) LowerEqual(a, b *RawTensor) *RawTensor {
	return m.compareWise(a, b, func(x, y float64) bool { return x <= y })
}

// Equal returns a bool tensor with a == b.
func (m *MockBackend) Equal(a, b *RawTensor) *RawTensor {
	return m.compareWise(a, b, func(x, y float64) bool { return x == y })
}

// NotEqual returns a bool tensor with a != b.
func (m *MockBackend) NotEqual(a, b *RawTensor) *RawTensor {
	return m.compareWise(a, b, func(x, y float64) bool { return x != y })
}

// compareWise performs element-wise comparison with broadcasting.
func (m *MockBackend) compareWise(a, b *RawTensor, op func(float64, float64) bool) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	result, err := NewRaw(outShape, Bool, m.Device())
	if err != nil {
		panic(err)
	}

	aData := m.toFloat64Slice(a)
	bData := m.toFloat64Slice(b)
	dst := result.AsBool()

	for i := range dst {
		aIdx := m.broadcastIndex(i, outShape, a.Shape())
		bIdx := m.broadcastIndex(i, outShape, b.Shape())
		dst[i] = op(aData[aIdx], bData[bIdx])
	}

	return result
}

// Or computes element-wise logical OR of bool tensors.
func (m *MockBackend) Or(a, b *RawTensor) *RawTensor {
	return m.boolWise(a, b, func(x, y bool) bool { return x || y })
}

// And computes element-wise logical AND of bool tensors.
func (m *MockBackend) And(a, b *RawTensor) *RawTensor {
	return m.boolWise(a, b, func(x, y bool) bool { return x && y })
}

// Not computes element-wise logical NOT of a bool tensor.
func (m *MockBackend) Not(x *RawTensor) *RawTensor {
	if x.DType() != Bool {
		panic(fmt.Sprintf("not: expected bool tensor, got %s", x.DType()))
	}

	result, err := NewRaw(x.Shape(), Bool, m.Device())
	if err != nil {
		panic(err)
	}

	src := x.AsBool()
	dst := result.AsBool()
	for i, v := range src {
		dst[i] = !v
	}

	return result
}

func (m *MockBackend) boolWise(a, b *RawTensor, op func(bool, bool) bool) *RawTensor {
	if a.DType() != Bool || b.DType() != Bool {
		panic(fmt.Sprintf("boolean op: expected bool tensors, got %s and %s", a.DType(), b.DType()))
	}

	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	result, err := NewRaw(outShape, Bool, m.Device())
	if err != nil {
		panic(err)
	}

	aData := a.AsBool()
	bData := b.AsBool()
	dst := result.AsBool()

	for i := range dst {
		aIdx := m.broadcastIndex(i, outShape, a.Shape())
		bIdx := m.broadcastIndex(i, outShape, b.Shape())
		dst[i] = op(aData[aIdx], bData[bIdx])
	}

	return result
}

// Sum reduces the tensor to a scalar sum.
func (m *MockBackend) Sum(x *RawTensor) *RawTensor {
	result, err := NewRaw(Shape{}, x.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	sum := 0.0
	for _, v := range m.toFloat64Slice(x) {
		sum += v
	}

	m.fromFloat64Slice([]float64{sum}, result)
	return result
}

// Mean reduces the tensor to its scalar mean.
func (m *MockBackend) Mean(x *RawTensor) *RawTensor {
	result, err := NewRaw(Shape{}, x.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	sum := 0.0
	data := m.toFloat64Slice(x)
	for _, v := range data {
		sum += v
	}

	m.fromFloat64Slice([]float64{sum / float64(len(data))}, result)
	return result
}

// SumDim sums along the given dimension.
func (m *MockBackend) SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.reduceDim(x, dim, keepDim, false)
}

// MeanDim averages along the given dimension.
func (m *MockBackend) MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.reduceDim(x, dim, keepDim, true)
}

func (m *MockBackend) reduceDim(x *RawTensor, dim int, keepDim, mean bool) *RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("reduce: dimension %d out of range for %dD tensor", dim, ndim))
	}

	var outShape Shape
	if keepDim {
		outShape = shape.Clone()
		outShape[dim] = 1
	} else {
		outShape = make(Shape, 0, ndim-1)
		for i, s := range shape {
			if i != dim {
				outShape = append(outShape, s)
			}
		}
	}

	result, err := NewRaw(outShape, x.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	data := m.toFloat64Slice(x)
	out := make([]float64, outShape.NumElements())
	strides := shape.ComputeStrides()

	for i, v := range data {
		// Flat output index: drop the reduced coordinate
		rem := i
		outIdx := 0
		for d := 0; d < ndim; d++ {
			idx := rem / strides[d]
			rem %= strides[d]
			if d == dim {
				continue
			}
			outIdx = outIdx*shape[d] + idx
		}
		out[outIdx] += v
	}

	if mean {
		n := float64(shape[dim])
		for i := range out {
			out[i] /= n
		}
	}

	m.fromFloat64Slice(out, result)
	return result
}

// Argmax returns int32 indices of the maximum along the given dimension.
func (m *MockBackend) Argmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("argmax: dimension %d out of range for %dD tensor", dim, ndim))
	}

	outShape := make(Shape, 0, ndim-1)
	for i, s := range shape {
		if i != dim {
			outShape = append(outShape, s)
		}
	}

	result, err := NewRaw(outShape, Int32, m.Device())
	if err != nil {
		panic(err)
	}

	data := m.toFloat64Slice(x)
	best := make([]float64, outShape.NumElements())
	for i := range best {
		best[i] = math.Inf(-1)
	}
	idxs := result.AsInt32()
	strides := shape.ComputeStrides()

	for i, v := range data {
		rem := i
		outIdx := 0
		dimIdx := 0
		for d := 0; d < ndim; d++ {
			idx := rem / strides[d]
			rem %= strides[d]
			if d == dim {
				dimIdx = idx
				continue
			}
			outIdx = outIdx*shape[d] + idx
		}
		if v > best[outIdx] {
			best[outIdx] = v
			idxs[outIdx] = int32(dimIdx)
		}
	}

	return result
}

// Cat concatenates tensors along the given dimension.
func (m *MockBackend) Cat(tensors []*RawTensor, dim int) *RawTensor {
	if len(tensors) == 0 {
		panic("cat: no tensors to concatenate")
	}

	shape := tensors[0].Shape()
	ndim := len(shape)

	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cat: dimension %d out of range for %dD tensor", dim, ndim))
	}

	outShape := shape.Clone()
	outShape[dim] = 0
	for _, t := range tensors {
		tShape := t.Shape()
		if len(tShape) != ndim {
			panic(fmt.Sprintf("cat: tensors have different ranks %d and %d", ndim, len(tShape)))
		}
		for d := 0; d < ndim; d++ {
			if d != dim && tShape[d] != shape[d] {
				panic(fmt.Sprintf("cat: shape mismatch at dim %d: %v vs %v", d, shape, tShape))
			}
		}
		outShape[dim] += tShape[dim]
	}

	result, err := NewRaw(outShape, tensors[0].DType(), m.Device())
	if err != nil {
		panic(err)
	}

	out := make([]float64, outShape.NumElements())
	outStrides := outShape.ComputeStrides()

	offset := 0
	for _, t := range tensors {
		tShape := t.Shape()
		tStrides := tShape.ComputeStrides()
		data := m.toFloat64Slice(t)

		for i, v := range data {
			rem := i
			outIdx := 0
			for d := 0; d < ndim; d++ {
				idx := rem / tStrides[d]
				rem %= tStrides[d]
				if d == dim {
					idx += offset
				}
				outIdx += idx * outStrides[d]
			}
			out[outIdx] = v
		}
		offset += tShape[dim]
	}

	m.fromFloat64Slice(out, result)
	return result
}

// Chunk splits the tensor into n equal parts along the given dimension.
func (m *MockBackend) Chunk(x *RawTensor, n, dim int) []*RawTensor {
	if n <= 0 {
		panic(fmt.Sprintf("chunk: n must be positive, got %d", n))
	}

	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("chunk: dimension %d out of range for %dD tensor", dim, ndim))
	}
	if shape[dim]%n != 0 {
		panic(fmt.Sprintf("chunk: dimension %d size %d not divisible by %d", dim, shape[dim], n))
	}

	chunkSize := shape[dim] / n
	chunkShape := shape.Clone()
	chunkShape[dim] = chunkSize

	data := m.toFloat64Slice(x)
	strides := shape.ComputeStrides()
	chunkStrides := chunkShape.ComputeStrides()

	results := make([]*RawTensor, n)
	outs := make([][]float64, n)
	for i := range results {
		chunk, err := NewRaw(chunkShape, x.DType(), m.Device())
		if err != nil {
			panic(err)
		}
		results[i] = chunk
		outs[i] = make([]float64, chunkShape.NumElements())
	}

	for i, v := range data {
		rem := i
		outIdx := 0
		which := 0
		for d := 0; d < ndim; d++ {
			idx := rem / strides[d]
			rem %= strides[d]
			if d == dim {
				which = idx / chunkSize
				idx %= chunkSize
			}
			outIdx += idx * chunkStrides[d]
		}
		outs[which][outIdx] = v
	}

	for i := range results {
		m.fromFloat64Slice(outs[i], results[i])
	}
	return results
}

// Unsqueeze inserts a dimension of size 1 at the given position.
func (m *MockBackend) Unsqueeze(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim += ndim + 1
	}
	if dim < 0 || dim > ndim {
		panic(fmt.Sprintf("unsqueeze: dimension %d out of range for %dD tensor", dim, ndim))
	}

	newShape := make(Shape, 0, ndim+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)

	return m.Reshape(x, newShape)
}

// Squeeze removes a dimension of size 1 at the given position.
func (m *MockBackend) Squeeze(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("squeeze: dimension %d out of range for %dD tensor", dim, ndim))
	}
	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, expected 1", dim, shape[dim]))
	}

	newShape := make(Shape, 0, ndim-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)

	return m.Reshape(x, newShape)
}

// Where selects elements from x where condition is true, else from y.
func (m *MockBackend) Where(condition, x, y *RawTensor) *RawTensor {
	if condition.DType() != Bool {
		panic(fmt.Sprintf("where: condition must be bool tensor, got %s", condition.DType()))
	}

	xyShape, _, err := BroadcastShapes(x.Shape(), y.Shape())
	if err != nil {
		panic(err)
	}
	outShape, _, err := BroadcastShapes(condition.Shape(), xyShape)
	if err != nil {
		panic(err)
	}

	result, err := NewRaw(outShape, x.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	cond := condition.AsBool()
	xData := m.toFloat64Slice(x)
	yData := m.toFloat64Slice(y)
	out := make([]float64, outShape.NumElements())

	for i := range out {
		cIdx := m.broadcastIndex(i, outShape, condition.Shape())
		if cond[cIdx] {
			out[i] = xData[m.broadcastIndex(i, outShape, x.Shape())]
		} else {
			out[i] = yData[m.broadcastIndex(i, outShape, y.Shape())]
		}
	}

	m.fromFloat64Slice(out, result)
	return result
}

// Cast converts the tensor to a different data type.
func (m *MockBackend) Cast(x *RawTensor, dtype DataType) *RawTensor {
	if x.DType() == dtype {
		return x
	}

	result, err := NewRaw(x.Shape(), dtype, m.Device())
	if err != nil {
		panic(err)
	}

	m.fromFloat64Slice(m.toFloat64Slice(x), result)
	return result
}

// Helper functions

func scalarToFloat64(scalar any) float64 {
	switch s := scalar.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case int:
		return float64(s)
	case int32:
		return float64(s)
	case int64:
		return float64(s)
	default:
		panic(fmt.Sprintf("unsupported scalar type: %T", scalar))
	}
}

func (m *MockBackend) toFloat64Slice(t *RawTensor) []float64 {
	switch t.DType() {
	case Float32:
		src := t.AsFloat32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case Float64:
		return t.AsFloat64()
	case Int32:
		src := t.AsInt32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case Int64:
		src := t.AsInt64()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case Uint8:
		src := t.AsUint8()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case Bool:
		src := t.AsBool()
		dst := make([]float64, len(src))
		for i, v := range src {
			if v {
				dst[i] = 1
			}
		}
		return dst
	default:
		panic(fmt.Sprintf("unsupported dtype: %s", t.DType()))
	}
}

func (m *MockBackend) fromFloat64Slice(src []float64, t *RawTensor) {
	switch t.DType() {
	case Float32:
		dst := t.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case Float64:
		copy(t.AsFloat64(), src)
	case Int32:
		dst := t.AsInt32()
		for i, v := range src {
			dst[i] = int32(v)
		}
	case Int64:
		dst := t.AsInt64()
		for i, v := range src {
			dst[i] = int64(v)
		}
	case Uint8:
		dst := t.AsUint8()
		for i, v := range src {
			dst[i] = uint8(v)
		}
	case Bool:
		dst := t.AsBool()
		for i, v := range src {
			dst[i] = v != 0
		}
	}
}

func (m *MockBackend) broadcastIndex(flatIdx int, outShape, inShape Shape) int {
	// Convert flat index to multi-dimensional indices in output shape
	outStrides := outShape.ComputeStrides()
	indices := make([]int, len(outShape))

	temp := flatIdx
	for i := 0; i < len(outShape); i++ {
		indices[i] = temp / outStrides[i]
		temp %= outStrides[i]
	}

	// Map to input shape (accounting for broadcasting)
	inStrides := inShape.ComputeStrides()
	inIdx := 0

	offset := len(outShape) - len(inShape)
	for i := 0; i < len(inShape); i++ {
		outDimIdx := indices[offset+i]
		inDim := inShape[i]

		// If input dimension is 1, always use index 0 (broadcasting)
		if inDim == 1 {
			outDimIdx = 0
		}

		inIdx += outDimIdx * inStrides[i]
	}

	return inIdx
}

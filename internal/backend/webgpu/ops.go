//go:build windows

package webgpu

import (
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Add performs element-wise addition on GPU.
func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "add", addShader)
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	return result
}

// Sub performs element-wise subtraction on GPU.
func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "sub", subShader)
	if err != nil {
		panic("webgpu: Sub: " + err.Error())
	}
	return result
}

// Mul performs element-wise multiplication on GPU.
func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "mul", mulShader)
	if err != nil {
		panic("webgpu: Mul: " + err.Error())
	}
	return result
}

// Div performs element-wise division on GPU.
func (b *Backend) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "div", divShader)
	if err != nil {
		panic("webgpu: Div: " + err.Error())
	}
	return result
}

// MatMul performs matrix multiplication on GPU.
func (b *Backend) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runMatMul(a, other)
	if err != nil {
		panic("webgpu: MatMul: " + err.Error())
	}
	return result
}

// Reshape returns a tensor with new shape.
// This is a metadata operation, no shader is involved.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic("webgpu: Reshape: invalid shape: " + err.Error())
	}

	if t.NumElements() != newShape.NumElements() {
		panic("webgpu: Reshape: incompatible number of elements")
	}

	result, err := tensor.NewRaw(newShape, t.DType(), tensor.WebGPU)
	if err != nil {
		panic("webgpu: Reshape: " + err.Error())
	}

	copy(result.Data(), t.Data())
	return result
}

// Transpose transposes a 2D tensor on GPU. Multi-dimensional permutations
// have no shader and panic.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	swap2D := len(axes) == 0 || (len(axes) == 2 && axes[0] == 1 && axes[1] == 0)
	if len(t.Shape()) == 2 && swap2D {
		result, err := b.runTranspose(t)
		if err != nil {
			panic("webgpu: Transpose: " + err.Error())
		}
		return result
	}

	panic("webgpu: Transpose: only 2D transpose is implemented")
}

// ReLU applies ReLU activation: max(0, x).
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "relu", reluShader)
	if err != nil {
		panic("webgpu: ReLU: " + err.Error())
	}
	return result
}

// LeakyReLU applies leaky ReLU activation: x if x > 0, alpha*x otherwise.
func (b *Backend) LeakyReLU(x *tensor.RawTensor, alpha float64) *tensor.RawTensor {
	result, err := b.runScalarOp(x, float32(alpha), "leakyRelu", leakyReluShader)
	if err != nil {
		panic("webgpu: LeakyReLU: " + err.Error())
	}
	return result
}

// Sigmoid applies sigmoid activation: 1 / (1 + exp(-x)).
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "sigmoid", sigmoidShader)
	if err != nil {
		panic("webgpu: Sigmoid: " + err.Error())
	}
	return result
}

// Tanh applies tanh activation.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "tanh", tanhShader)
	if err != nil {
		panic("webgpu: Tanh: " + err.Error())
	}
	return result
}

// Softmax applies softmax along dim. The shader normalizes rows of a 2D
// tensor, so only the last dimension is supported.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(x.Shape()) != 2 || (dim != 1 && dim != -1) {
		panic("webgpu: Softmax: only the last dimension of a 2D tensor is supported")
	}
	result, err := b.runSoftmax(x)
	if err != nil {
		panic("webgpu: Softmax: " + err.Error())
	}
	return result
}

// The convolution, pooling and resampling family has no WGSL shaders yet.

// Conv2D performs 2D convolution on GPU.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	panic("webgpu: Conv2D not implemented")
}

// Conv2DInputBackward computes the gradient with respect to input for Conv2D.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	panic("webgpu: Conv2DInputBackward not implemented")
}

// Conv2DKernelBackward computes the gradient with respect to kernel for Conv2D.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	panic("webgpu: Conv2DKernelBackward not implemented")
}

// MaxPool2D performs 2D max pooling on GPU.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	panic("webgpu: MaxPool2D not implemented")
}

// MaxPool2DBackward computes the gradient with respect to input for MaxPool2D.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) MaxPool2DBackward(input, grad *tensor.RawTensor, maxIndices []int, kernelSize, stride int) *tensor.RawTensor {
	panic("webgpu: MaxPool2DBackward not implemented")
}

// AvgPool2D performs 2D average pooling on GPU.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) AvgPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	panic("webgpu: AvgPool2D not implemented")
}

// AvgPool2DBackward computes the gradient with respect to input for AvgPool2D.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) AvgPool2DBackward(input, grad *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	panic("webgpu: AvgPool2DBackward not implemented")
}

// Upsample2D performs nearest-neighbor upsampling on GPU.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) Upsample2D(input *tensor.RawTensor, scale int) *tensor.RawTensor {
	panic("webgpu: Upsample2D not implemented")
}

// Upsample2DBackward computes the gradient with respect to input for Upsample2D.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) Upsample2DBackward(input, grad *tensor.RawTensor, scale int) *tensor.RawTensor {
	panic("webgpu: Upsample2DBackward not implemented")
}

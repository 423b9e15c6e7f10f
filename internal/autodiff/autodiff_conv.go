package autodiff

import (
	"github.com/retouch-ml/retouch/internal/autodiff/ops"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Conv2D performs 2D convolution and records the operation.
//
// CRITICAL: Conv2D must be recorded on tape for gradient flow!
// Just like Transpose, Conv2D creates new tensors and without recording,
// gradients won't flow back to the kernel/input parameters.
func (b *AutodiffBackend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	defer input.ForceNonUnique()()
	defer kernel.ForceNonUnique()()

	result := b.inner.Conv2D(input, kernel, stride, padding)

	if b.tape.IsRecording() {
		op := ops.NewConv2DOp(input, kernel, result, stride, padding)
		b.tape.Record(op)
	}

	return result
}

// Conv2DInputBackward computes the convolution input gradient.
//
// Gradient kernels are primitives consumed by the ops package during the
// backward pass; they delegate directly and are never recorded themselves.
func (b *AutodiffBackend[B]) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DInputBackward(input, kernel, grad, stride, padding)
}

// Conv2DKernelBackward computes the convolution kernel gradient.
func (b *AutodiffBackend[B]) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DKernelBackward(input, kernel, grad, stride, padding)
}

// MaxPool2D performs 2D max pooling and records the operation.
//
// CRITICAL: MaxPool2D must be recorded on tape for gradient flow!
// During backward pass, gradients only flow to positions that had max values.
// MaxPool2DOp stores max indices during forward pass for correct gradient routing.
func (b *AutodiffBackend[B]) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	defer input.ForceNonUnique()()

	result := b.inner.MaxPool2D(input, kernelSize, stride)

	if b.tape.IsRecording() {
		op := ops.NewMaxPool2DOp(input, result, kernelSize, stride)
		b.tape.Record(op)
	}

	return result
}

// MaxPool2DBackward routes gradients to max positions. Not recorded.
func (b *AutodiffBackend[B]) MaxPool2DBackward(input, grad *tensor.RawTensor, maxIndices []int, kernelSize, stride int) *tensor.RawTensor {
	return b.inner.MaxPool2DBackward(input, grad, maxIndices, kernelSize, stride)
}

// AvgPool2D performs 2D average pooling and records the operation.
//
// Average pooling is the differentiable downscale used by the pixel loss:
// every position in a window contributed to the mean, so the backward pass
// spreads the gradient evenly instead of routing it to a single position.
func (b *AutodiffBackend[B]) AvgPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	defer input.ForceNonUnique()()

	result := b.inner.AvgPool2D(input, kernelSize, stride)

	if b.tape.IsRecording() {
		op := ops.NewAvgPool2DOp(input, result, kernelSize, stride)
		b.tape.Record(op)
	}

	return result
}

// AvgPool2DBackward distributes gradients over pooling windows. Not recorded.
func (b *AutodiffBackend[B]) AvgPool2DBackward(input, grad *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	return b.inner.AvgPool2DBackward(input, grad, kernelSize, stride)
}

// Upsample2D performs nearest-neighbor upsampling and records the operation.
func (b *AutodiffBackend[B]) Upsample2D(input *tensor.RawTensor, scale int) *tensor.RawTensor {
	defer input.ForceNonUnique()()

	result := b.inner.Upsample2D(input, scale)

	if b.tape.IsRecording() {
		op := ops.NewUpsample2DOp(input, result, scale)
		b.tape.Record(op)
	}

	return result
}

// Upsample2DBackward sums gradients over replica blocks. Not recorded.
func (b *AutodiffBackend[B]) Upsample2DBackward(input, grad *tensor.RawTensor, scale int) *tensor.RawTensor {
	return b.inner.Upsample2DBackward(input, grad, scale)
}

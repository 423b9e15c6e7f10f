package ops

import (
	"github.com/retouch-ml/retouch/internal/tensor"
)

// AvgPool2DOp records an average pooling operation for autodiff.
//
// Forward:
//
//	output[n,c,h,w] = mean(input[n,c,h*stride+kh,w*stride+kw] for kh,kw in kernel)
//
// Backward:
//   - Each input position in a window receives outputGrad / windowSize
//   - With overlapping windows (stride < kernelSize) contributions accumulate
//
// Unlike MaxPool2D there is no index bookkeeping: every position in the
// window participated in the forward mean, so every position gets an equal
// share of the gradient.
type AvgPool2DOp struct {
	input      *tensor.RawTensor
	output     *tensor.RawTensor
	kernelSize int
	stride     int
}

// NewAvgPool2DOp creates a new AvgPool2D operation.
func NewAvgPool2DOp(input, output *tensor.RawTensor, kernelSize, stride int) *AvgPool2DOp {
	return &AvgPool2DOp{
		input:      input,
		output:     output,
		kernelSize: kernelSize,
		stride:     stride,
	}
}

// Inputs returns the input tensors.
func (op *AvgPool2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *AvgPool2DOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes gradients for AvgPool2D.
//
// This is pure orchestration - delegates computation to backend.
func (op *AvgPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inputGrad := backend.AvgPool2DBackward(op.input, outputGrad, op.kernelSize, op.stride)

	return []*tensor.RawTensor{inputGrad}
}

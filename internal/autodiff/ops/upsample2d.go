package ops

import (
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Upsample2DOp records a nearest-neighbor upsampling operation for autodiff.
//
// Forward:
//
//	output[n,c,h,w] = input[n,c,h/scale,w/scale]
//
// Backward:
//   - Each input position was replicated into a scale x scale block
//   - Its gradient is the sum of the output gradients over that block
type Upsample2DOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	scale  int
}

// NewUpsample2DOp creates a new Upsample2D operation.
func NewUpsample2DOp(input, output *tensor.RawTensor, scale int) *Upsample2DOp {
	return &Upsample2DOp{
		input:  input,
		output: output,
		scale:  scale,
	}
}

// Inputs returns the input tensors.
func (op *Upsample2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *Upsample2DOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes gradients for Upsample2D.
//
// This is pure orchestration - delegates computation to backend.
func (op *Upsample2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inputGrad := backend.Upsample2DBackward(op.input, outputGrad, op.scale)

	return []*tensor.RawTensor{inputGrad}
}

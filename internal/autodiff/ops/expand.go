package ops

import "github.com/retouch-ml/retouch/internal/tensor"

// ExpandOp records a broadcast expansion to a larger shape.
//
// Forward:
//
//	output = x broadcast to targetShape (size-1 dims replicated)
//
// Backward:
//   - Replicated positions all came from the same input element
//   - The input gradient sums the output gradient over the expanded dims
type ExpandOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewExpandOp creates a new ExpandOp.
func NewExpandOp(input, output *tensor.RawTensor) *ExpandOp {
	return &ExpandOp{
		input:  input,
		output: output,
	}
}

// Inputs returns the input tensor [x].
func (op *ExpandOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the expanded output tensor.
func (op *ExpandOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward reduces the gradient back to the input shape.
func (op *ExpandOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradInput := reduceBroadcast(outputGrad, op.input.Shape(), backend)
	return []*tensor.RawTensor{gradInput}
}

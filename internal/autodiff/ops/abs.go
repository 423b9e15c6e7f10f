package ops

import (
	"fmt"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// AbsOp represents an element-wise absolute value operation: output = |x|.
//
// Backward pass:
//
//	d|x|/dx = sign(x), so grad_input = outputGrad * sign(x)
//
// The subgradient at x = 0 is taken to be 0.
type AbsOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewAbsOp creates a new AbsOp.
func NewAbsOp(input, output *tensor.RawTensor) *AbsOp {
	return &AbsOp{
		input:  input,
		output: output,
	}
}

// Inputs returns the input tensor [x].
func (op *AbsOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor |x|.
func (op *AbsOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the input gradient for Abs.
func (op *AbsOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	sign := createSignMask(op.input, backend)

	// grad_input = outputGrad * sign(x)
	gradInput := backend.Mul(outputGrad, sign)

	return []*tensor.RawTensor{gradInput}
}

// createSignMask creates a mask with +1 where input > 0, -1 where input < 0,
// and 0 at exactly zero.
func createSignMask(input *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	mask, err := tensor.NewRaw(input.Shape(), input.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("abs: failed to create sign mask: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		inputData := input.AsFloat32()
		maskData := mask.AsFloat32()
		for i, val := range inputData {
			switch {
			case val > 0:
				maskData[i] = 1.0
			case val < 0:
				maskData[i] = -1.0
			}
		}

	case tensor.Float64:
		inputData := input.AsFloat64()
		maskData := mask.AsFloat64()
		for i, val := range inputData {
			switch {
			case val > 0:
				maskData[i] = 1.0
			case val < 0:
				maskData[i] = -1.0
			}
		}

	default:
		panic("AbsOp: backward only supports float32 and float64")
	}

	return mask
}

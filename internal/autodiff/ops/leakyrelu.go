package ops

import (
	"fmt"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// LeakyReLUOp represents a leaky rectified linear unit activation:
//
//	output = x         if x > 0
//	output = alpha * x otherwise
//
// Backward pass:
//
//	d(LeakyReLU(x))/dx = 1 if x > 0, else alpha
type LeakyReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	alpha  float64
}

// NewLeakyReLUOp creates a new LeakyReLUOp.
func NewLeakyReLUOp(input, output *tensor.RawTensor, alpha float64) *LeakyReLUOp {
	return &LeakyReLUOp{
		input:  input,
		output: output,
		alpha:  alpha,
	}
}

// Inputs returns the input tensor [x].
func (op *LeakyReLUOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *LeakyReLUOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the input gradient for LeakyReLU.
func (op *LeakyReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// Mask: 1 where input > 0, alpha otherwise
	mask := createLeakyReLUMask(op.input, op.alpha, backend)

	gradInput := backend.Mul(outputGrad, mask)

	return []*tensor.RawTensor{gradInput}
}

// createLeakyReLUMask creates a mask with 1 where input > 0 and alpha elsewhere.
func createLeakyReLUMask(input *tensor.RawTensor, alpha float64, backend tensor.Backend) *tensor.RawTensor {
	mask, err := tensor.NewRaw(input.Shape(), input.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("leakyrelu: failed to create mask: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		inputData := input.AsFloat32()
		maskData := mask.AsFloat32()
		a := float32(alpha)
		for i, val := range inputData {
			if val > 0 {
				maskData[i] = 1.0
			} else {
				maskData[i] = a
			}
		}

	case tensor.Float64:
		inputData := input.AsFloat64()
		maskData := mask.AsFloat64()
		for i, val := range inputData {
			if val > 0 {
				maskData[i] = 1.0
			} else {
				maskData[i] = alpha
			}
		}

	default:
		panic(fmt.Sprintf("leakyrelu: unsupported dtype %s (only float32/float64 supported)", input.DType()))
	}

	return mask
}

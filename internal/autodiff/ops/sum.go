package ops

import (
	"fmt"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// SumOp represents a full reduction: output = sum(x) as a scalar tensor.
//
// Backward pass:
//
//	d(sum(x))/dx_i = 1, so every input element receives the scalar outputGrad.
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // scalar (rank-0)
}

// NewSumOp creates a new SumOp.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{
		input:  input,
		output: output,
	}
}

// Inputs returns the input tensor [x].
func (op *SumOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the scalar output tensor.
func (op *SumOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward broadcasts the scalar gradient to the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	gradInput := fillLike(op.input, outputGrad, 1.0)
	return []*tensor.RawTensor{gradInput}
}

// MeanOp represents a full reduction: output = mean(x) as a scalar tensor.
//
// Backward pass:
//
//	d(mean(x))/dx_i = 1/N, so every input element receives outputGrad / N.
type MeanOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // scalar (rank-0)
}

// NewMeanOp creates a new MeanOp.
func NewMeanOp(input, output *tensor.RawTensor) *MeanOp {
	return &MeanOp{
		input:  input,
		output: output,
	}
}

// Inputs returns the input tensor [x].
func (op *MeanOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the scalar output tensor.
func (op *MeanOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward broadcasts the scalar gradient divided by N to the input shape.
func (op *MeanOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	n := op.input.NumElements()
	gradInput := fillLike(op.input, outputGrad, 1.0/float64(n))
	return []*tensor.RawTensor{gradInput}
}

// fillLike creates a tensor shaped like ref, filled with the scalar gradient
// value times factor.
func fillLike(ref, scalarGrad *tensor.RawTensor, factor float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(ref.Shape(), ref.DType(), ref.Device())
	if err != nil {
		panic(fmt.Sprintf("fillLike: failed to create result: %v", err))
	}

	switch ref.DType() {
	case tensor.Float32:
		v := scalarGrad.AsFloat32()[0] * float32(factor)
		data := result.AsFloat32()
		for i := range data {
			data[i] = v
		}

	case tensor.Float64:
		v := scalarGrad.AsFloat64()[0] * factor
		data := result.AsFloat64()
		for i := range data {
			data[i] = v
		}

	default:
		panic(fmt.Sprintf("fillLike: unsupported dtype %s", ref.DType()))
	}

	return result
}

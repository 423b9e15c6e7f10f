package ops

import (
	"fmt"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// SoftmaxOp represents the softmax operation along a dimension.
//
// Forward (along dim):
//
//	softmax(x)_i = exp(x_i - max(x)) / Σ_j exp(x_j - max(x))
//
// The max-shifting ensures numerical stability (prevents overflow).
//
// Backward:
//
//	The Jacobian of softmax is:
//	∂softmax_i/∂x_j = softmax_i * (δ_ij - softmax_j)
//
//	Chain rule gives:
//	∂L/∂x_j = softmax_j * (∂L/∂softmax_j - Σ_i (∂L/∂softmax_i * softmax_i))
//
// The backward works for any rank by viewing the tensor as
// [outer, dimSize, inner] around the softmax dimension.
type SoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // Cached softmax output for backward pass
	dim    int               // Normalized (non-negative) softmax dimension
}

// NewSoftmaxOp creates a new softmax operation.
func NewSoftmaxOp(input, output *tensor.RawTensor, dim int) *SoftmaxOp {
	if dim < 0 {
		dim += len(input.Shape())
	}
	return &SoftmaxOp{
		input:  input,
		output: output,
		dim:    dim,
	}
}

// Inputs returns the input tensors.
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SoftmaxOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the gradient with respect to input.
//
// For each slice along dim:
//
//	∂L/∂x[j] = softmax[j] * (∂L/∂softmax[j] - dot(∂L/∂softmax, softmax))
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()

	inputGrad, err := tensor.NewRaw(shape, op.input.DType(), op.input.Device())
	if err != nil {
		panic(err)
	}

	// View the tensor as [outer, dimSize, inner]
	outer := 1
	for d := 0; d < op.dim; d++ {
		outer *= shape[d]
	}
	dimSize := shape[op.dim]
	inner := 1
	for d := op.dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	switch op.input.DType() {
	case tensor.Float32:
		softmaxBackwardFloat32(
			op.output.AsFloat32(), outputGrad.AsFloat32(), inputGrad.AsFloat32(),
			outer, dimSize, inner,
		)

	case tensor.Float64:
		softmaxBackwardFloat64(
			op.output.AsFloat64(), outputGrad.AsFloat64(), inputGrad.AsFloat64(),
			outer, dimSize, inner,
		)

	default:
		panic(fmt.Sprintf("SoftmaxOp: backward unsupported dtype %s", op.input.DType()))
	}

	return []*tensor.RawTensor{inputGrad}
}

// softmaxBackwardFloat32 computes the softmax gradient for float32 data.
func softmaxBackwardFloat32(softmaxData, outGradData, inGradData []float32, outer, dimSize, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in

			// dot = Σ_i (grad_output[i] * softmax[i]) over the dim slice
			dot := float32(0.0)
			for j := 0; j < dimSize; j++ {
				idx := base + j*inner
				dot += outGradData[idx] * softmaxData[idx]
			}

			for j := 0; j < dimSize; j++ {
				idx := base + j*inner
				inGradData[idx] = softmaxData[idx] * (outGradData[idx] - dot)
			}
		}
	}
}

// softmaxBackwardFloat64 computes the softmax gradient for float64 data.
func softmaxBackwardFloat64(softmaxData, outGradData, inGradData []float64, outer, dimSize, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in

			dot := 0.0
			for j := 0; j < dimSize; j++ {
				idx := base + j*inner
				dot += outGradData[idx] * softmaxData[idx]
			}

			for j := 0; j < dimSize; j++ {
				idx := base + j*inner
				inGradData[idx] = softmaxData[idx] * (outGradData[idx] - dot)
			}
		}
	}
}

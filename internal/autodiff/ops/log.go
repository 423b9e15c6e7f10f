package ops

import "github.com/retouch-ml/retouch/internal/tensor"

// LogOp represents element-wise natural logarithm operation.
//
// Forward:
//
//	output = log(input)
//
// Backward:
//
//	∂L/∂input = ∂L/∂output * (1 / input)
//
// The gradient is the reciprocal of the input, scaled by the output gradient.
type LogOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewLogOp creates a new log operation.
func NewLogOp(input, output *tensor.RawTensor) *LogOp {
	return &LogOp{
		input:  input,
		output: output,
	}
}

// Inputs returns the input tensors.
func (op *LogOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *LogOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the gradient with respect to input.
//
// Gradient formula:
//
//	∂L/∂input[i] = ∂L/∂output[i] * (1 / input[i])
//
// Note: This assumes input > 0 (log is only defined for positive values).
// In practice, a small epsilon (e.g., 1e-8) is often added for numerical stability.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	// Create gradient tensor with same shape as input
	inputGrad, err := tensor.NewRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	if err != nil {
		panic(err)
	}

	// Get data slices based on dtype
	switch op.input.DType() {
	case tensor.Float32:
		inputData := op.input.AsFloat32()
		gradData := inputGrad.AsFloat32()
		outGradData := outputGrad.AsFloat32()

		// Compute gradient: grad_input = grad_output / input
		for i := range inputData {
			gradData[i] = outGradData[i] / inputData[i]
		}

	case tensor.Float64:
		inputData := op.input.AsFloat64()
		gradData := inputGrad.AsFloat64()
		outGradData := outputGrad.AsFloat64()

		for i := range inputData {
			gradData[i] = outGradData[i] / inputData[i]
		}

	default:
		panic("LogOp: backward only supports float32 and float64")
	}

	return []*tensor.RawTensor{inputGrad}
}

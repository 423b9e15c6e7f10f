package ops

import "github.com/retouch-ml/retouch/internal/tensor"

// Scalar operations: element-wise ops between a tensor and a Go scalar.
// The scalar is a constant, so only the tensor input receives gradient.

// AddScalarOp represents output = x + scalar.
//
// Backward: d(x+s)/dx = 1, gradient passes through unchanged.
type AddScalarOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewAddScalarOp creates a new AddScalarOp.
func NewAddScalarOp(input, output *tensor.RawTensor) *AddScalarOp {
	return &AddScalarOp{input: input, output: output}
}

// Inputs returns the input tensor [x].
func (op *AddScalarOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *AddScalarOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward passes the gradient through unchanged.
func (op *AddScalarOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	// Clone to avoid aliasing the shared gradient buffer
	return []*tensor.RawTensor{outputGrad.Clone()}
}

// SubScalarOp represents output = x - scalar.
//
// Backward: d(x-s)/dx = 1, gradient passes through unchanged.
type SubScalarOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSubScalarOp creates a new SubScalarOp.
func NewSubScalarOp(input, output *tensor.RawTensor) *SubScalarOp {
	return &SubScalarOp{input: input, output: output}
}

// Inputs returns the input tensor [x].
func (op *SubScalarOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SubScalarOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward passes the gradient through unchanged.
func (op *SubScalarOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{outputGrad.Clone()}
}

// MulScalarOp represents output = x * scalar.
//
// Backward: d(x*s)/dx = s, so grad_input = outputGrad * scalar.
type MulScalarOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	scalar any // same concrete type as the tensor dtype
}

// NewMulScalarOp creates a new MulScalarOp.
func NewMulScalarOp(input, output *tensor.RawTensor, scalar any) *MulScalarOp {
	return &MulScalarOp{input: input, output: output, scalar: scalar}
}

// Inputs returns the input tensor [x].
func (op *MulScalarOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *MulScalarOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward scales the gradient by the recorded scalar.
func (op *MulScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradInput := backend.MulScalar(outputGrad, op.scalar)
	return []*tensor.RawTensor{gradInput}
}

// DivScalarOp represents output = x / scalar.
//
// Backward: d(x/s)/dx = 1/s, so grad_input = outputGrad / scalar.
type DivScalarOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	scalar any // same concrete type as the tensor dtype
}

// NewDivScalarOp creates a new DivScalarOp.
func NewDivScalarOp(input, output *tensor.RawTensor, scalar any) *DivScalarOp {
	return &DivScalarOp{input: input, output: output, scalar: scalar}
}

// Inputs returns the input tensor [x].
func (op *DivScalarOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *DivScalarOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward divides the gradient by the recorded scalar.
func (op *DivScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradInput := backend.DivScalar(outputGrad, op.scalar)
	return []*tensor.RawTensor{gradInput}
}

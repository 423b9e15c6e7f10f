package ops

import (
	"fmt"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	// If shapes already match, clone to avoid aliasing issues
	// (prevents inplace operations from modifying shared gradients)
	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	// Handle scalar target (empty shape)
	if len(targetShape) == 0 {
		return backend.Sum(grad)
	}

	// A scalar gradient flowing into a non-scalar input is broadcast up:
	// view it as all size-1 dims, then let Expand replicate it.
	if len(gradShape) == 0 {
		ones := make(tensor.Shape, len(targetShape))
		for i := range ones {
			ones[i] = 1
		}
		return backend.Expand(backend.Reshape(grad, ones), targetShape)
	}

	// NumPy broadcasting aligns shapes from the right. If the target has
	// fewer dimensions, sum away the leading ones first.
	gradDims := len(gradShape)
	targetDims := len(targetShape)

	result := grad
	for i := 0; i < gradDims-targetDims; i++ {
		result = backend.SumDim(result, 0, false)
	}
	gradShape = result.Shape()

	// Then sum along dimensions where the target is 1
	for i := 0; i < targetDims; i++ {
		if targetShape[i] == 1 && gradShape[i] > 1 {
			result = backend.SumDim(result, i, true)
			gradShape = result.Shape()
		}
	}

	// Reshape if necessary to match target shape exactly
	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}

	return result
}

// createScalar creates a tensor of the given shape filled with a constant value.
func createScalar(shape tensor.Shape, dtype tensor.DataType, value float64, device tensor.Device) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("createScalar: failed to create tensor: %v", err))
	}

	switch dtype {
	case tensor.Float32:
		data := result.AsFloat32()
		for i := range data {
			data[i] = float32(value)
		}
	case tensor.Float64:
		data := result.AsFloat64()
		for i := range data {
			data[i] = value
		}
	default:
		panic(fmt.Sprintf("createScalar: unsupported dtype %s", dtype))
	}

	return result
}

// negateGradient returns -grad.
func negateGradient(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	// NewRaw zero-initializes, so this is a zeros tensor
	zeros, err := tensor.NewRaw(grad.Shape(), grad.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("negateGradient: failed to create zeros: %v", err))
	}

	return backend.Sub(zeros, grad)
}

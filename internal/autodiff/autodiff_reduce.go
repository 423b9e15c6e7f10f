package autodiff

import (
	"github.com/retouch-ml/retouch/internal/autodiff/ops"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Sum reduces the whole tensor to a scalar and records the operation.
//
// Loss heads end in Sum or Mean; the backward pass broadcasts the scalar
// gradient back over the input.
func (b *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Sum(x)

	if b.tape.IsRecording() {
		op := ops.NewSumOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// Mean reduces the whole tensor to its scalar mean and records the operation.
func (b *AutodiffBackend[B]) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Mean(x)

	if b.tape.IsRecording() {
		op := ops.NewMeanOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// SumDim sums along a dimension and records the operation.
func (b *AutodiffBackend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.SumDim(x, dim, keepDim)

	if b.tape.IsRecording() {
		op := ops.NewSumDimOp(x, result, dim, keepDim)
		b.tape.Record(op)
	}

	return result
}

// MeanDim averages along a dimension and records the operation.
//
// Batch normalization statistics are MeanDim chains over the batch and
// spatial dimensions, so this op carries most of the normalization gradient.
func (b *AutodiffBackend[B]) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.MeanDim(x, dim, keepDim)

	if b.tape.IsRecording() {
		op := ops.NewMeanDimOp(x, result, dim, keepDim)
		b.tape.Record(op)
	}

	return result
}

// Argmax returns the index of the maximum along a dimension.
// Not recorded: indices are not differentiable.
func (b *AutodiffBackend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}

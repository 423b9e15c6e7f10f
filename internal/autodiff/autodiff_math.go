package autodiff

import (
	"github.com/retouch-ml/retouch/internal/autodiff/ops"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Exp computes element-wise e^x and records the operation.
func (b *AutodiffBackend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Exp(x)

	if b.tape.IsRecording() {
		op := ops.NewExpOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// Log computes element-wise natural logarithm and records the operation.
//
// Input values must be positive.
func (b *AutodiffBackend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Log(x)

	if b.tape.IsRecording() {
		op := ops.NewLogOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// Sqrt computes element-wise square root and records the operation.
func (b *AutodiffBackend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Sqrt(x)

	if b.tape.IsRecording() {
		op := ops.NewSqrtOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// Rsqrt computes element-wise 1/sqrt(x) and records the operation.
func (b *AutodiffBackend[B]) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Rsqrt(x)

	if b.tape.IsRecording() {
		op := ops.NewRsqrtOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// Abs computes element-wise absolute value and records the operation.
//
// Abs drives the L1 pixel loss; its subgradient at zero is taken to be 0.
func (b *AutodiffBackend[B]) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Abs(x)

	if b.tape.IsRecording() {
		op := ops.NewAbsOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// Cos computes element-wise cosine and records the operation.
func (b *AutodiffBackend[B]) Cos(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Cos(x)

	if b.tape.IsRecording() {
		op := ops.NewCosOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// Sin computes element-wise sine and records the operation.
func (b *AutodiffBackend[B]) Sin(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Sin(x)

	if b.tape.IsRecording() {
		op := ops.NewSinOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// Softmax applies softmax along the given dimension and records the operation.
//
// Forward (along dim):
//
//	softmax(x)_i = exp(x_i - max(x)) / Σ_j exp(x_j - max(x))
//
// The max-shifting ensures numerical stability (prevents overflow).
func (b *AutodiffBackend[B]) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Softmax(x, dim)

	if b.tape.IsRecording() {
		op := ops.NewSoftmaxOp(x, result, dim)
		b.tape.Record(op)
	}

	return result
}

// AddScalar adds a scalar to each element and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.AddScalar(x, scalar)

	if b.tape.IsRecording() {
		op := ops.NewAddScalarOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// SubScalar subtracts a scalar from each element and records the operation.
func (b *AutodiffBackend[B]) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.SubScalar(x, scalar)

	if b.tape.IsRecording() {
		op := ops.NewSubScalarOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// MulScalar multiplies each element by a scalar and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.MulScalar(x, scalar)

	if b.tape.IsRecording() {
		op := ops.NewMulScalarOp(x, result, scalar)
		b.tape.Record(op)
	}

	return result
}

// DivScalar divides each element by a scalar and records the operation.
func (b *AutodiffBackend[B]) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.DivScalar(x, scalar)

	if b.tape.IsRecording() {
		op := ops.NewDivScalarOp(x, result, scalar)
		b.tape.Record(op)
	}

	return result
}

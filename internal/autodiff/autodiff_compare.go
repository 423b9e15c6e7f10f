package autodiff

import "github.com/retouch-ml/retouch/internal/tensor"

// Comparison and boolean operations produce bool tensors. They are not
// differentiable, so they delegate to the inner backend without recording.

// Greater returns a > b element-wise.
func (b *AutodiffBackend[B]) Greater(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Greater(a, c)
}

// Lower returns a < b element-wise.
func (b *AutodiffBackend[B]) Lower(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Lower(a, c)
}

// GreaterEqual returns a >= b element-wise.
func (b *AutodiffBackend[B]) GreaterEqual(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.GreaterEqual(a, c)
}

// LowerEqual returns a <= b element-wise.
func (b *AutodiffBackend[B]) LowerEqual(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.LowerEqual(a, c)
}

// Equal returns a == b element-wise.
func (b *AutodiffBackend[B]) Equal(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Equal(a, c)
}

// NotEqual returns a != b element-wise.
func (b *AutodiffBackend[B]) NotEqual(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.NotEqual(a, c)
}

// Or computes element-wise logical OR on bool tensors.
func (b *AutodiffBackend[B]) Or(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Or(a, c)
}

// And computes element-wise logical AND on bool tensors.
func (b *AutodiffBackend[B]) And(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.And(a, c)
}

// Not computes element-wise logical NOT on a bool tensor.
func (b *AutodiffBackend[B]) Not(x *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Not(x)
}

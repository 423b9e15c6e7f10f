// Package autodiff implements automatic differentiation using the decorator pattern.
//
// AutodiffBackend wraps any Backend implementation (CPU, GPU, etc.) and adds
// gradient tracking capabilities through a GradientTape.
//
// Architecture:
//   - Decorator pattern: AutodiffBackend[B] wraps any Backend implementation
//   - GradientTape: Records operations during forward pass
//   - Operation interface: Each op (Add, Mul, Conv2D) implements backward pass
//   - Reverse-mode AD: Computes gradients efficiently using chain rule
//
// Differentiable operations delegate the forward pass to the wrapped backend
// and record themselves on the tape. Non-differentiable operations
// (comparisons, Argmax, Cast) delegate without recording. Activations and
// fused losses are capability methods computed here directly; see
// activations.go.
//
// Usage:
//
//	// Wrap any backend with autodiff
//	cpuBackend := cpu.New()
//	autodiffBackend := autodiff.New(cpuBackend)
//
//	// Use with tensors
//	x := tensor.FromSlice([]float32{2.0}, tensor.Shape{1}, autodiffBackend)
//	y := x.Mul(x) // y = x²
//
//	// Compute gradients
//	y.Backward()
//	fmt.Println(x.Grad()) // dy/dx = 2x = 4.0
package autodiff

import (
	"github.com/retouch-ml/retouch/internal/autodiff/ops"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a GradientTape.
//
// Type parameter B must satisfy the tensor.Backend interface.
type AutodiffBackend[B tensor.Backend] struct {
	inner B             // Wrapped backend (CPU, GPU, etc.)
	tape  *GradientTape // Records operations for backpropagation
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
// Useful for:
//   - Starting/stopping recording
//   - Clearing tape between iterations
//   - Inspecting recorded operations
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// NoGrad runs fn with tape recording disabled and restores the previous
// recording state afterwards. Parameter updates and evaluation passes go
// through here so they do not pollute the tape.
//
// Nested calls are safe: each level restores what it found.
func (b *AutodiffBackend[B]) NoGrad(fn func()) {
	wasRecording := b.tape.IsRecording()
	b.tape.StopRecording()
	defer func() {
		if wasRecording {
			b.tape.StartRecording()
		}
	}()

	fn()
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(a, c *tensor.RawTensor) *tensor.RawTensor {
	// CRITICAL: Prevent inplace modification that would corrupt autodiff graph.
	// Temporarily increase refCount so IsUnique() returns false.
	// This forces the inner backend to allocate a new result instead of
	// modifying an input that the tape still references.
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	// Forward pass using wrapped backend
	result := b.inner.Add(a, c)

	// Record operation if tape is recording
	if b.tape.IsRecording() {
		op := ops.NewAddOp(a, c, result)
		b.tape.Record(op)
	}

	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Sub(a, c)

	if b.tape.IsRecording() {
		op := ops.NewSubOp(a, c, result)
		b.tape.Record(op)
	}

	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Mul(a, c)

	if b.tape.IsRecording() {
		op := ops.NewMulOp(a, c, result)
		b.tape.Record(op)
	}

	return result
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Div(a, c)

	if b.tape.IsRecording() {
		op := ops.NewDivOp(a, c, result)
		b.tape.Record(op)
	}

	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.MatMul(a, c)

	if b.tape.IsRecording() {
		op := ops.NewMatMulOp(a, c, result)
		b.tape.Record(op)
	}

	return result
}

// Reshape reshapes a tensor and records the operation.
//
// CRITICAL: Like Transpose, Reshape must be recorded on tape!
// Without recording, gradients won't flow back to reshaped parameters.
//
// Example: Conv2D bias
//   - bias parameter: [out_channels]
//   - reshaped for broadcasting: [1, out_channels, 1, 1]
//   - Without ReshapeOp: gradient computed for reshaped tensor only
//   - With ReshapeOp: gradient propagates back to original bias parameter
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	defer t.ForceNonUnique()()

	result := b.inner.Reshape(t, newShape)

	if b.tape.IsRecording() {
		op := ops.NewReshapeOp(t, result)
		b.tape.Record(op)
	}

	return result
}

// Transpose transposes a tensor and records the operation.
//
// CRITICAL: Even though conceptually transpose is a "view", the underlying
// backend may create a new tensor (e.g., CPU backend copies data).
// We MUST record this operation so gradients flow back correctly.
//
// For example, in Linear layer:
//
//	w = weight parameter
//	wT = w.Transpose()  // Creates NEW tensor!
//	output = input @ wT  // MatMul records operation with wT
//
// Without recording Transpose:
//   - Backward computes grad for wT (new tensor)
//   - Optimizer looks for grad of w (original parameter)
//   - NO GRADIENT FOUND! Parameters don't update!
//
// With TransposeOp:
//   - Backward computes grad for wT
//   - TransposeOp.Backward propagates grad back to w
//   - Optimizer finds grad for w ✓
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	defer t.ForceNonUnique()()

	// Handle default axes (reverse all dimensions)
	ndim := len(t.Shape())
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	result := b.inner.Transpose(t, axes...)

	if b.tape.IsRecording() {
		op := ops.NewTransposeOp(t, result, axes)
		b.tape.Record(op)
	}

	return result
}

// Expand broadcasts a tensor to a larger shape and records the operation.
//
// The backward pass sums the gradient over the expanded dimensions so it
// flows back to the original (smaller) tensor.
func (b *AutodiffBackend[B]) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Expand(x, shape)

	if b.tape.IsRecording() {
		op := ops.NewExpandOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// Unsqueeze adds a dimension of size 1 and records it as a reshape.
//
// Gradient-wise unsqueeze is a pure reshape: the backward pass reshapes the
// gradient back to the input shape.
func (b *AutodiffBackend[B]) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Unsqueeze(x, dim)

	if b.tape.IsRecording() {
		op := ops.NewReshapeOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// Squeeze removes a dimension of size 1 and records it as a reshape.
func (b *AutodiffBackend[B]) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Squeeze(x, dim)

	if b.tape.IsRecording() {
		op := ops.NewReshapeOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// Cat concatenates tensors along a dimension and records the operation.
//
// The backward pass splits the gradient at the input boundaries and routes
// each slice to the corresponding input.
func (b *AutodiffBackend[B]) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	for _, t := range tensors {
		defer t.ForceNonUnique()()
	}

	result := b.inner.Cat(tensors, dim)

	if b.tape.IsRecording() {
		d := dim
		if d < 0 {
			d += len(tensors[0].Shape())
		}
		sizes := make([]int, len(tensors))
		for i, t := range tensors {
			sizes[i] = t.Shape()[d]
		}
		op := ops.NewCatOp(tensors, dim, sizes, result)
		b.tape.Record(op)
	}

	return result
}

// Chunk splits a tensor into n equal parts and records the operation.
//
// Chunk is the only multi-output operation: the tape collects gradients for
// all chunks before concatenating them back into the input gradient.
func (b *AutodiffBackend[B]) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	defer x.ForceNonUnique()()

	results := b.inner.Chunk(x, n, dim)

	if b.tape.IsRecording() {
		op := ops.NewChunkOp(x, n, dim, results)
		b.tape.Record(op)
	}

	return results
}

// Where selects elements from x or y based on condition and records the
// operation.
//
// The condition itself is not differentiable; gradients flow to x where the
// condition held and to y elsewhere.
func (b *AutodiffBackend[B]) Where(condition, x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	result := b.inner.Where(condition, x, y)

	if b.tape.IsRecording() {
		op := ops.NewWhereOp(condition, x, y, result)
		b.tape.Record(op)
	}

	return result
}

// Cast converts a tensor to a different dtype. Not recorded: casts appear
// only on non-differentiable paths (labels, masks, image decoding).
func (b *AutodiffBackend[B]) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	return b.inner.Cast(x, dtype)
}

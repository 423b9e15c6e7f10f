package nn

import (
	"github.com/retouch-ml/retouch/internal/tensor"
)

// SigmoidCrossEntropyBackend is an interface for backends that support the
// fused sigmoid cross-entropy loss on logits.
type SigmoidCrossEntropyBackend interface {
	SigmoidCrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
//
// MSE is commonly used for regression tasks where the goal is to predict
// continuous values.
//
// Example:
//
//	mse := nn.NewMSELoss[Backend]()
//	predictions := model.Forward(input)
//	loss := mse.Forward(predictions, targets)
type MSELoss[B tensor.Backend] struct{}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return &MSELoss[B]{}
}

// Forward computes the MSE loss.
//
// The reduction is composed from differentiable ops, so the 1/N factor
// shows up in the gradients as well.
//
// Parameters:
//   - predictions: Model predictions with shape [batch_size, ...]
//   - targets: Ground truth targets with same shape as predictions
//
// Returns a scalar loss tensor.
func (m *MSELoss[B]) Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// Validate shapes match
	if !predictions.Shape().Equal(targets.Shape()) {
		panic("MSELoss: predictions and targets must have the same shape")
	}

	diff := predictions.Sub(targets)

	return diff.Mul(diff).Mean()
}

// Parameters returns an empty slice (loss functions have no trainable parameters).
func (m *MSELoss[B]) Parameters() []*Parameter[B] {
	return nil
}

// L1Loss computes mean absolute error loss.
//
// Loss = mean(|predictions - targets|)
//
// L1 penalizes all errors proportionally instead of quadratically, which
// keeps it from over-weighting outlier pixels. Image-to-image models use it
// as the pixel-space reconstruction term because it produces less blur than
// MSE.
//
// Example:
//
//	l1 := nn.NewL1Loss[Backend]()
//	loss := l1.Forward(enhanced, reference)
type L1Loss[B tensor.Backend] struct{}

// NewL1Loss creates a new L1 loss function.
func NewL1Loss[B tensor.Backend]() *L1Loss[B] {
	return &L1Loss[B]{}
}

// Forward computes the L1 loss.
//
// Parameters:
//   - predictions: Model predictions with shape [batch_size, ...]
//   - targets: Ground truth targets with same shape as predictions
//
// Returns a scalar loss tensor.
func (l *L1Loss[B]) Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic("L1Loss: predictions and targets must have the same shape")
	}

	return predictions.Sub(targets).Abs().Mean()
}

// Parameters returns an empty slice (loss functions have no trainable parameters).
func (l *L1Loss[B]) Parameters() []*Parameter[B] {
	return nil
}

// BCEWithLogitsLoss computes binary cross-entropy directly on logits.
//
// Loss = mean(max(x, 0) - x*z + log(1 + exp(-|x|)))
//
// The fused form never exponentiates a positive argument, so it stays
// finite for logits of any magnitude, unlike sigmoid followed by a plain
// BCE. Adversarial training scores both real and generated images through
// this loss.
//
// Example:
//
//	bce := nn.NewBCEWithLogitsLoss[Backend]()
//	loss := bce.Forward(logits, labels) // labels in [0, 1]
type BCEWithLogitsLoss[B tensor.Backend] struct{}

// NewBCEWithLogitsLoss creates a new BCE-with-logits loss function.
func NewBCEWithLogitsLoss[B tensor.Backend]() *BCEWithLogitsLoss[B] {
	return &BCEWithLogitsLoss[B]{}
}

// Forward computes the BCE loss on raw logits.
//
// Parameters:
//   - logits: Raw scores (pre-sigmoid) with shape [batch_size, ...]
//   - targets: Labels in [0, 1] with same shape as logits
//
// Returns a scalar loss tensor.
func (b *BCEWithLogitsLoss[B]) Forward(logits, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !logits.Shape().Equal(targets.Shape()) {
		panic("BCEWithLogitsLoss: logits and targets must have the same shape")
	}

	backend := logits.Backend()

	// Check if backend supports the fused loss via interface
	if bceBackend, ok := any(backend).(SigmoidCrossEntropyBackend); ok {
		resultRaw := bceBackend.SigmoidCrossEntropy(logits.Raw(), targets.Raw())
		return tensor.New[float32, B](resultRaw, backend)
	}

	// Fallback: backend doesn't support the fused loss
	panic("BCEWithLogitsLoss: backend must implement SigmoidCrossEntropy operation (use autodiff.AutodiffBackend)")
}

// Parameters returns an empty slice (loss functions have no trainable parameters).
func (b *BCEWithLogitsLoss[B]) Parameters() []*Parameter[B] {
	return nil
}

package nn

import (
	"github.com/retouch-ml/retouch/internal/tensor"
)

// ReLUBackend is an interface for backends that support ReLU activation.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// LeakyReLUBackend is an interface for backends that support leaky ReLU activation.
type LeakyReLUBackend interface {
	LeakyReLU(x *tensor.RawTensor, alpha float64) *tensor.RawTensor
}

// SigmoidBackend is an interface for backends that support Sigmoid activation.
type SigmoidBackend interface {
	Sigmoid(*tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is an interface for backends that support Tanh activation.
type TanhBackend interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
//
// ReLU is the most commonly used activation function in deep learning.
// It helps with the vanishing gradient problem and is computationally efficient.
//
// Example:
//
//	relu := nn.NewReLU[Backend]()
//	output := relu.Forward(input)  // All negative values become 0
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU activation: f(x) = max(0, x).
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()

	// Check if backend supports ReLU via interface
	if reluBackend, ok := any(backend).(ReLUBackend); ok {
		resultRaw := reluBackend.ReLU(input.Raw())
		return tensor.New[float32, B](resultRaw, backend)
	}

	// Fallback: backend doesn't support ReLU
	panic("ReLU: backend must implement ReLU operation (use autodiff.AutodiffBackend)")
}

// Parameters returns an empty slice (ReLU has no trainable parameters).
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map (ReLU has no state).
func (r *ReLU[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op (ReLU has no state).
func (r *ReLU[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}

// LeakyReLU is a leaky rectified linear unit activation module.
//
// Applies the element-wise function:
//
//	f(x) = x           if x > 0
//	f(x) = alpha * x   otherwise
//
// The small negative slope keeps gradients flowing through inactive units,
// which matters in adversarial training where a discriminator with dead
// units stops teaching the generator anything.
//
// Example:
//
//	lrelu := nn.NewLeakyReLU[Backend](0.2)
//	output := lrelu.Forward(input)
type LeakyReLU[B tensor.Backend] struct {
	alpha float64
}

// NewLeakyReLU creates a new LeakyReLU activation module with the given
// negative slope.
func NewLeakyReLU[B tensor.Backend](alpha float64) *LeakyReLU[B] {
	return &LeakyReLU[B]{alpha: alpha}
}

// Forward applies leaky ReLU activation.
func (l *LeakyReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()

	// Check if backend supports LeakyReLU via interface
	if lreluBackend, ok := any(backend).(LeakyReLUBackend); ok {
		resultRaw := lreluBackend.LeakyReLU(input.Raw(), l.alpha)
		return tensor.New[float32, B](resultRaw, backend)
	}

	// Fallback: backend doesn't support LeakyReLU
	panic("LeakyReLU: backend must implement LeakyReLU operation (use autodiff.AutodiffBackend)")
}

// Alpha returns the negative slope.
func (l *LeakyReLU[B]) Alpha() float64 {
	return l.alpha
}

// Parameters returns an empty slice (LeakyReLU has no trainable parameters).
func (l *LeakyReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map (LeakyReLU has no state).
func (l *LeakyReLU[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op (LeakyReLU has no state).
func (l *LeakyReLU[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}

// Sigmoid is a sigmoid activation module.
//
// Applies the element-wise function: σ(x) = 1 / (1 + exp(-x))
//
// Sigmoid squashes values to the range (0, 1), making it useful for
// binary classification and for bounding image outputs.
//
// Example:
//
//	sigmoid := nn.NewSigmoid[Backend]()
//	output := sigmoid.Forward(input)  // Values in range (0, 1)
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies Sigmoid activation: σ(x) = 1 / (1 + exp(-x)).
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()

	// Check if backend supports Sigmoid via interface
	if sigmoidBackend, ok := any(backend).(SigmoidBackend); ok {
		resultRaw := sigmoidBackend.Sigmoid(input.Raw())
		return tensor.New[float32, B](resultRaw, backend)
	}

	// Fallback
	panic("Sigmoid: backend must implement Sigmoid operation (use autodiff.AutodiffBackend)")
}

// Parameters returns an empty slice (Sigmoid has no trainable parameters).
func (s *Sigmoid[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map (Sigmoid has no state).
func (s *Sigmoid[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op (Sigmoid has no state).
func (s *Sigmoid[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}

// Tanh is a hyperbolic tangent activation module.
//
// Applies the element-wise function: tanh(x) = (exp(x) - exp(-x)) / (exp(x) + exp(-x))
//
// Tanh squashes values to the range (-1, 1), making it zero-centered
// which can help with training.
//
// Example:
//
//	tanh := nn.NewTanh[Backend]()
//	output := tanh.Forward(input)  // Values in range (-1, 1)
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies Tanh activation.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()

	// Check if backend supports Tanh via interface
	if tanhBackend, ok := any(backend).(TanhBackend); ok {
		resultRaw := tanhBackend.Tanh(input.Raw())
		return tensor.New[float32, B](resultRaw, backend)
	}

	// Fallback
	panic("Tanh: backend must implement Tanh operation (use autodiff.AutodiffBackend)")
}

// Parameters returns an empty slice (Tanh has no trainable parameters).
func (t *Tanh[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map (Tanh has no state).
func (t *Tanh[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op (Tanh has no state).
func (t *Tanh[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}

package nn

import (
	"fmt"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// Upsample2D is a nearest-neighbor upsampling layer.
//
// Each input pixel is replicated into a scale x scale block, multiplying
// both spatial dimensions by the scale factor. Decoders pair this with
// convolutions to grow feature maps back to the input resolution.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, height*scale, width*scale]
//
// Example:
//
//	up := nn.NewUpsample2D(2, backend)
//
//	input := tensor.Randn[float32](tensor.Shape{4, 96, 8, 8}, backend)
//	output := up.Forward(input) // [4, 96, 16, 16]
type Upsample2D[B tensor.Backend] struct {
	scale   int
	backend B
}

// NewUpsample2D creates a new nearest-neighbor upsampling layer.
//
// Parameters:
//   - scale: Integer upscale factor (both dimensions)
//   - backend: Backend for computation
func NewUpsample2D[B tensor.Backend](scale int, backend B) *Upsample2D[B] {
	if scale <= 0 {
		panic(fmt.Sprintf("upsample2d: invalid scale %d", scale))
	}

	return &Upsample2D[B]{
		scale:   scale,
		backend: backend,
	}
}

// Forward performs the forward pass.
//
// Input: [batch, channels, height, width]
// Output: [batch, channels, height*scale, width*scale].
func (u *Upsample2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// Validate input shape
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("upsample2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}

	outputRaw := u.backend.Upsample2D(input.Raw(), u.scale)

	return tensor.New[float32, B](outputRaw, u.backend)
}

// Parameters returns all trainable parameters (empty for Upsample2D).
func (u *Upsample2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

// String returns a string representation of the layer.
func (u *Upsample2D[B]) String() string {
	return fmt.Sprintf("Upsample2D(scale=%d)", u.scale)
}

// Scale returns the upscale factor.
func (u *Upsample2D[B]) Scale() int {
	return u.scale
}

// StateDict returns an empty map (Upsample2D has no state).
func (u *Upsample2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op (Upsample2D has no state).
func (u *Upsample2D[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}

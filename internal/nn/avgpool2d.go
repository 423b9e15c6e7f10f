package nn

import (
	"fmt"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// AvgPool2D is a 2D average pooling layer.
//
// Average pooling reduces spatial dimensions by averaging the values in
// each window. Like MaxPool2D it has no learnable parameters, but unlike
// max pooling every input contributes to the gradient, which makes it the
// usual choice for encoder downsampling in image-to-image networks.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height - kernelSize) / stride + 1
//	out_width = (width - kernelSize) / stride + 1
//
// Example:
//
//	// Halve spatial dimensions
//	pool := nn.NewAvgPool2D(2, 2, backend)
//
//	input := tensor.Randn[float32](tensor.Shape{4, 24, 32, 32}, backend)
//	output := pool.Forward(input) // [4, 24, 16, 16]
type AvgPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
	backend    B
}

// NewAvgPool2D creates a new 2D average pooling layer.
//
// Parameters:
//   - kernelSize: Size of pooling window (square)
//   - stride: Stride for pooling (typically same as kernelSize for non-overlapping)
//   - backend: Backend for computation
func NewAvgPool2D[B tensor.Backend](kernelSize, stride int, backend B) *AvgPool2D[B] {
	if kernelSize <= 0 {
		panic(fmt.Sprintf("avgpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("avgpool2d: invalid stride %d", stride))
	}

	return &AvgPool2D[B]{
		kernelSize: kernelSize,
		stride:     stride,
		backend:    backend,
	}
}

// Forward performs the forward pass.
//
// Input: [batch, channels, height, width]
// Output: [batch, channels, out_height, out_width].
func (a *AvgPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// Validate input shape
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("avgpool2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}

	outputRaw := a.backend.AvgPool2D(input.Raw(), a.kernelSize, a.stride)

	return tensor.New[float32, B](outputRaw, a.backend)
}

// Parameters returns all trainable parameters (empty for AvgPool2D).
func (a *AvgPool2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

// String returns a string representation of the layer.
func (a *AvgPool2D[B]) String() string {
	return fmt.Sprintf("AvgPool2D(kernel_size=%d, stride=%d)",
		a.kernelSize, a.stride)
}

// KernelSize returns the pooling kernel size.
func (a *AvgPool2D[B]) KernelSize() int {
	return a.kernelSize
}

// Stride returns the stride.
func (a *AvgPool2D[B]) Stride() int {
	return a.stride
}

// ComputeOutputSize computes output spatial dimensions for given input size.
//
// Returns: [out_height, out_width].
func (a *AvgPool2D[B]) ComputeOutputSize(inputH, inputW int) [2]int {
	outH := (inputH-a.kernelSize)/a.stride + 1
	outW := (inputW-a.kernelSize)/a.stride + 1
	return [2]int{outH, outW}
}

// StateDict returns an empty map (AvgPool2D has no state).
func (a *AvgPool2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op (AvgPool2D has no state).
func (a *AvgPool2D[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}

// Package nn implements neural network modules for the Retouch ML Framework.
//
// This package provides building blocks for constructing neural networks:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable parameters with gradient tracking
//   - Conv2D, Linear: Learnable layers
//   - MaxPool2D, AvgPool2D, Upsample2D: Resampling layers
//   - BatchNorm2d: Per-channel batch normalization
//   - Activations: ReLU, LeakyReLU, Sigmoid, Tanh
//   - Loss functions: MSE, L1, BCEWithLogits
//   - Sequential: Container for stacking layers
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//   - StateDict / LoadStateDict: Serialize and restore parameters
//
// Modules can be composed to build complex architectures:
//
//	model := nn.Sequential[Backend](
//	    nn.NewConv2D(3, 24, 3, 3, 1, 1, true, backend),
//	    nn.NewReLU[Backend](),
//	    nn.NewAvgPool2D(2, 2, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// The input tensor should have the appropriate shape for this module.
	// For example, Conv2D expects [batch, channels, height, width].
	//
	// Returns the output tensor with shape determined by the module type.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	//
	// This includes weights, biases, and any nested module parameters.
	// Returns an empty slice for modules without trainable parameters
	// (e.g., activation functions).
	Parameters() []*Parameter[B]

	// StateDict returns a map of parameter names to raw tensors for
	// serialization. Modules without parameters return an empty map.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads parameters from a state dictionary.
	//
	// Returns an error if a required parameter is missing or has a
	// mismatched shape or dtype.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Copyright 2026 Retouch ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/retouch-ml/retouch/internal/nn"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 128, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// Conv2D represents a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConv2D(3, 24, 3, 3, 1, 1, true, backend)
func NewConv2D[B tensor.Backend](
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding int,
	useBias bool,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}

// NewConv2DScaled creates a square-kernel convolutional layer whose weight
// initialization variance is scaled by stddevFactor. A tiny factor (1e-3)
// makes the layer start near zero, which is how residual branches begin
// close to the identity.
func NewConv2DScaled[B tensor.Backend](
	inChannels, outChannels int,
	mapSize int,
	stride, padding int,
	useBias bool,
	stddevFactor float64,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2DScaled(inChannels, outChannels, mapSize, stride, padding, useBias, stddevFactor, backend)
}

// MaxPool2D represents a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a new 2D max pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	return nn.NewMaxPool2D(kernelSize, stride, backend)
}

// AvgPool2D represents a 2D average pooling layer.
type AvgPool2D[B tensor.Backend] = nn.AvgPool2D[B]

// NewAvgPool2D creates a new 2D average pooling layer.
//
// Example:
//
//	pool := nn.NewAvgPool2D(2, 2, backend) // halves H and W
func NewAvgPool2D[B tensor.Backend](kernelSize, stride int, backend B) *AvgPool2D[B] {
	return nn.NewAvgPool2D(kernelSize, stride, backend)
}

// Upsample2D represents a nearest-neighbor upsampling layer.
type Upsample2D[B tensor.Backend] = nn.Upsample2D[B]

// NewUpsample2D creates a nearest-neighbor upsampling layer with an integer
// scale factor.
func NewUpsample2D[B tensor.Backend](scale int, backend B) *Upsample2D[B] {
	return nn.NewUpsample2D(scale, backend)
}

// BatchNorm2d represents 2D batch normalization over the channel axis.
type BatchNorm2d[B tensor.Backend] = nn.BatchNorm2d[B]

// NewBatchNorm2d creates a batch normalization layer for NCHW feature maps.
//
// Example:
//
//	bn := nn.NewBatchNorm2d(24, 1e-5, 0.1, backend)
func NewBatchNorm2d[B tensor.Backend](numFeatures int, epsilon, momentum float32, backend B) *BatchNorm2d[B] {
	return nn.NewBatchNorm2d(numFeatures, epsilon, momentum, backend)
}

// LayerNorm represents layer normalization over the last dimension.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a new layer normalization module.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm(normalizedShape, epsilon, backend)
}

// Activations

// ReLU represents the Rectified Linear Unit activation function.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// LeakyReLU represents the leaky Rectified Linear Unit activation function.
type LeakyReLU[B tensor.Backend] = nn.LeakyReLU[B]

// NewLeakyReLU creates a new leaky ReLU activation layer with the given
// negative-side slope.
func NewLeakyReLU[B tensor.Backend](alpha float64) *LeakyReLU[B] {
	return nn.NewLeakyReLU[B](alpha)
}

// Sigmoid represents the sigmoid activation function.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a new sigmoid activation layer.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh represents the hyperbolic tangent activation function.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a new tanh activation layer.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Losses

// MSELoss represents the mean squared error loss function.
type MSELoss[B tensor.Backend] = nn.MSELoss[B]

// NewMSELoss creates a new mean squared error loss function.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return nn.NewMSELoss[B]()
}

// L1Loss represents the mean absolute error loss function.
type L1Loss[B tensor.Backend] = nn.L1Loss[B]

// NewL1Loss creates a new mean absolute error loss function.
func NewL1Loss[B tensor.Backend]() *L1Loss[B] {
	return nn.NewL1Loss[B]()
}

// BCEWithLogitsLoss represents binary cross-entropy on raw logits, computed
// in the numerically stable fused form.
type BCEWithLogitsLoss[B tensor.Backend] = nn.BCEWithLogitsLoss[B]

// NewBCEWithLogitsLoss creates a new binary cross-entropy loss on logits.
func NewBCEWithLogitsLoss[B tensor.Backend]() *BCEWithLogitsLoss[B] {
	return nn.NewBCEWithLogitsLoss[B]()
}

// Containers

// Sequential chains modules so that each module's output feeds the next.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential container from the given modules.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewConv2D(3, 24, 3, 3, 1, 1, true, backend),
//	    nn.NewReLU[Backend](),
//	)
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Initialization

// Xavier creates a tensor initialized with Xavier/Glorot uniform initialization.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// XavierConv creates a convolution weight tensor drawn from a truncated
// normal distribution whose stddev follows Glorot scaling times stddevFactor.
func XavierConv[B tensor.Backend](fanIn, fanOut, mapSize int, stddevFactor float64, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.XavierConv(fanIn, fanOut, mapSize, stddevFactor, shape, backend)
}

// Zeros creates a zero-initialized tensor.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones creates a ones-initialized tensor.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}

// Randn creates a tensor initialized with standard normal random values.
func Randn[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Randn(shape, backend)
}

// Checkpointing

// Checkpoint bundles a module, its optimizer state and training-run metadata
// for persistence.
type Checkpoint[B tensor.Backend] = nn.Checkpoint[B]

// OptimizerState is the optimizer surface the checkpoint machinery consumes.
type OptimizerState = nn.OptimizerState

// SaveCheckpoint saves a module together with its optimizer state.
func SaveCheckpoint[B tensor.Backend](path string, model Module[B], optimizer OptimizerState, epoch int) error {
	return nn.SaveCheckpoint(path, model, optimizer, epoch)
}

// LoadCheckpoint restores a module and optimizer state from a checkpoint file.
func LoadCheckpoint[B tensor.Backend](path string, backend B, model Module[B], optimizer OptimizerState) (*Checkpoint[B], error) {
	return nn.LoadCheckpoint(path, backend, model, optimizer)
}

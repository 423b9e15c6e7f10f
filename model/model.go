// Copyright 2026 Retouch ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model

import (
	"github.com/retouch-ml/retouch/internal/model"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Config holds the model hyperparameters.
type Config = model.Config

// DefaultConfig returns the default hyperparameters.
func DefaultConfig() Config {
	return model.DefaultConfig()
}

// Networks

// Generator is the enhancement network: an encoder-decoder stack of
// residual blocks that maps a face image to its retouched version.
type Generator[B tensor.Backend] = model.Generator[B]

// NewGenerator creates the generator. The first Forward call creates the
// layers; later calls reuse them.
func NewGenerator[B tensor.Backend](backend B) *Generator[B] {
	return model.NewGenerator(backend)
}

// Discriminator scores images as real or generated, one logit per sample.
type Discriminator[B tensor.Backend] = model.Discriminator[B]

// NewDiscriminator creates the discriminator. The first Forward call
// creates the layers; later calls reuse them, so both discriminator passes
// of a training step share one weight set.
func NewDiscriminator[B tensor.Backend](backend B) *Discriminator[B] {
	return model.NewDiscriminator(backend)
}

// Graph building

// Net traces one forward pass while creating or replaying layers.
type Net[B tensor.Backend] = model.Net[B]

// NewNet starts a forward trace on the given rank-4 input.
func NewNet[B tensor.Backend](name string, input *tensor.Tensor[float32, B], backend B) *Net[B] {
	return model.NewNet(name, input, backend)
}

// LayerRow is one line of a per-layer summary table.
type LayerRow = model.LayerRow

// ResidualBlock appends a residual block (projection if the channel count
// changes, then nlayers conv layers each summed with its bypass).
func ResidualBlock[B tensor.Backend](net *Net[B], numUnits, mapSize, nlayers int) {
	model.ResidualBlock(net, numUnits, mapSize, nlayers)
}

// DenseBlock appends a densely connected block whose per-layer fan-in is
// capped by a sliding window of trailing prior outputs.
func DenseBlock[B tensor.Backend](net *Net[B], numUnits, mapSize, nlayers, trailing int) {
	model.DenseBlock(net, numUnits, mapSize, nlayers, trailing)
}

// Losses and schedules

// BlendFactor interpolates the pixel-loss blend between the configured
// bounds at the given annealing factor.
func BlendFactor(cfg Config, annealing float64) float64 {
	return model.BlendFactor(cfg, annealing)
}

// LearningRate scales the configured starting rate by the annealing factor,
// clamped to a floor of 1e-7.
func LearningRate(cfg Config, annealing float64) float32 {
	return model.LearningRate(cfg, annealing)
}

// GeneratorLoss combines the adversarial and downscaled-pixel losses at the
// annealed blend factor. Returns the combined loss plus both components.
func GeneratorLoss[B tensor.Backend](
	source, geneOutput, discFakeLogits *tensor.Tensor[float32, B],
	annealing float64,
	cfg Config,
) (combined, adversarial, pixel *tensor.Tensor[float32, B]) {
	return model.GeneratorLoss(source, geneOutput, discFakeLogits, annealing, cfg)
}

// DiscriminatorLoss sums the real-vs-ones and fake-vs-zeros cross-entropy
// terms. Returns the sum plus both components.
func DiscriminatorLoss[B tensor.Backend](
	discRealLogits, discFakeLogits *tensor.Tensor[float32, B],
) (combined, real, fake *tensor.Tensor[float32, B]) {
	return model.DiscriminatorLoss(discRealLogits, discFakeLogits)
}

// Downscale reduces spatial resolution by the factor k with a box average.
func Downscale[B tensor.Backend](x *tensor.Tensor[float32, B], k int) *tensor.Tensor[float32, B] {
	return model.Downscale(x, k)
}

// ValidDownscaleFactor reports whether k is an accepted pixel-loss
// downscale factor (2, 4, 8 or 16).
func ValidDownscaleFactor(k int) bool {
	return model.ValidDownscaleFactor(k)
}

// InstanceNoise samples truncated-normal noise whose stddev fades with the
// annealing factor. The sample is created outside the gradient tape.
func InstanceNoise[B tensor.Backend](shape tensor.Shape, annealing float64, backend B) *tensor.Tensor[float32, B] {
	return model.InstanceNoise(shape, annealing, backend)
}

// Assembly

// Model bundles networks, outputs, losses, noise and optimizers for the
// training loop.
type Model[B tensor.Backend] = model.Model[B]

// Build assembles the model around one batch. With a nil target it returns
// an inference bundle holding only the generator side.
func Build[B tensor.Backend](
	cfg Config,
	backend B,
	source, target *tensor.Tensor[float32, B],
	annealing float64,
	verbose bool,
) (*Model[B], error) {
	return model.Build(cfg, backend, source, target, annealing, verbose)
}

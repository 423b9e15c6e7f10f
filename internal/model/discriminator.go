package model

import (
	"github.com/retouch-ml/retouch/internal/nn"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Discriminator scores images as real or generated.
//
// Four residual stages with average pooling shrink the image while growing
// channels, a final residual stage and 1x1 convolution reduce to a single
// map, and a global mean collapses it to one logit per sample. Higher
// logits mean "more real"; the losses apply the sigmoid.
//
// Like the Generator, layer parameters are created on the first Forward
// call and shared by every later call, so scoring a real batch and a fake
// batch through the same Discriminator uses one set of weights.
type Discriminator[B tensor.Backend] struct {
	backend B
	store   *layerStore[B]
	summary []LayerRow
}

// NewDiscriminator creates a discriminator for the given backend.
func NewDiscriminator[B tensor.Backend](backend B) *Discriminator[B] {
	return &Discriminator[B]{
		backend: backend,
		store:   newLayerStore[B](),
	}
}

// Forward scores a batch of images.
//
// Input: [batch, 3, height, width] in [0, 1] (plus any instance noise).
// Output: [batch] real/fake logits.
func (d *Discriminator[B]) Forward(image *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// Rescale [0, 1] pixels to [-1, 1]
	net := newNet("discriminator", image.MulScalar(2).SubScalar(1), d.store, d.backend)

	mapSize := 3

	for _, numUnits := range []int{32, 48, 96, 128} {
		ResidualBlock(net, numUnits, mapSize, 2)
		net.AddAvgPool()
	}

	ResidualBlock(net, 128, mapSize, 2)
	net.AddConv2D(1, 1)
	net.AddMean()

	if d.summary == nil {
		d.summary = net.Rows()
	}

	return net.Output()
}

// Parameters returns all trainable parameters.
func (d *Discriminator[B]) Parameters() []*nn.Parameter[B] {
	return d.store.parameters()
}

// NumParameters returns the total trainable parameter count.
func (d *Discriminator[B]) NumParameters() int {
	return countParams(d.store.parameters())
}

// Summary returns per-layer summary rows from the first forward pass, or
// nil if the discriminator has not run yet.
func (d *Discriminator[B]) Summary() []LayerRow {
	return d.summary
}

// SetTraining switches batch normalization between batch statistics and
// running statistics.
func (d *Discriminator[B]) SetTraining(training bool) {
	d.store.setTraining(training)
}

// StateDict exports the discriminator weights under layer-indexed names.
func (d *Discriminator[B]) StateDict() map[string]*tensor.RawTensor {
	return d.store.stateDict()
}

// LoadStateDict restores discriminator weights exported by StateDict.
//
// The discriminator must have run Forward at least once so its layers exist.
func (d *Discriminator[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return d.store.loadStateDict(stateDict)
}

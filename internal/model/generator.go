package model

import (
	"github.com/retouch-ml/retouch/internal/nn"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Generator is the image enhancement network.
//
// It is a symmetric encoder/decoder over residual blocks: two downsampling
// stages, two upsampling stages, and a refinement tail, with the output
// passed through a sigmoid scaled to 1.1 so the network can express fully
// saturated pixels. Input and output share the same [N, 3, H, W] geometry;
// pixels are expected in [0, 1].
//
// The layer parameters are created on the first Forward call and reused
// afterwards, so a Generator can be built before its input size is known.
type Generator[B tensor.Backend] struct {
	backend B
	store   *layerStore[B]
	summary []LayerRow
}

// NewGenerator creates a generator for the given backend.
func NewGenerator[B tensor.Backend](backend B) *Generator[B] {
	return &Generator[B]{
		backend: backend,
		store:   newLayerStore[B](),
	}
}

// Forward enhances a batch of source images.
//
// Input: [batch, 3, height, width] in [0, 1].
// Output: same shape, values in (0, 1.1).
func (g *Generator[B]) Forward(source *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// Rescale [0, 1] pixels to [-1, 1]
	net := newNet("generator", source.MulScalar(2).SubScalar(1), g.store, g.backend)

	mapSize := 3

	// Encoder
	for _, numUnits := range []int{24, 48} {
		ResidualBlock(net, numUnits, mapSize, 2)
		net.AddAvgPool()
	}

	// Decoder
	for _, numUnits := range []int{96, 64} {
		ResidualBlock(net, numUnits, mapSize, 2)
		ResidualBlock(net, numUnits, mapSize, 2)
		net.AddUpscale()
	}

	ResidualBlock(net, 48, mapSize, 2)
	ResidualBlock(net, 48, 1, 2)
	net.AddConv2D(3, 1)
	net.AddScaledSigmoid(1.1)

	if g.summary == nil {
		g.summary = net.Rows()
	}

	return net.Output()
}

// Parameters returns all trainable parameters.
func (g *Generator[B]) Parameters() []*nn.Parameter[B] {
	return g.store.parameters()
}

// NumParameters returns the total trainable parameter count.
func (g *Generator[B]) NumParameters() int {
	return countParams(g.store.parameters())
}

// Summary returns per-layer summary rows from the first forward pass, or
// nil if the generator has not run yet.
func (g *Generator[B]) Summary() []LayerRow {
	return g.summary
}

// SetTraining switches batch normalization between batch statistics and
// running statistics.
func (g *Generator[B]) SetTraining(training bool) {
	g.store.setTraining(training)
}

// StateDict exports the generator weights under layer-indexed names.
func (g *Generator[B]) StateDict() map[string]*tensor.RawTensor {
	return g.store.stateDict()
}

// LoadStateDict restores generator weights exported by StateDict.
//
// The generator must have run Forward at least once so its layers exist.
func (g *Generator[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return g.store.loadStateDict(stateDict)
}

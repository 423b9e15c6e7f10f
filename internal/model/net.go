package model

import (
	"fmt"

	"github.com/retouch-ml/retouch/internal/nn"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// leakySlope is the negative slope shared by every leaky ReLU in the model.
const leakySlope = 0.2

// residualInitFactor scales down the weight initialization of convolutions
// on residual branches, so a fresh residual block starts close to the
// identity of its skip path.
const residualInitFactor = 1e-3

// LayerRow describes one layer for the verbose model summary.
type LayerRow struct {
	Name   string // short op label, e.g. "conv 3x3, 48"
	Output string // output shape after the layer
	Params int    // trainable parameter count contributed by the layer
}

// layerStore owns the layers of a network across forward passes.
//
// The first pass creates layers in order and appends them; every later
// pass replays the same sequence, so two traces of the same architecture
// share one set of parameters. This is how a single discriminator scores
// both its real and its fake input.
type layerStore[B tensor.Backend] struct {
	layers []nn.Module[B]
	next   int
}

func newLayerStore[B tensor.Backend]() *layerStore[B] {
	return &layerStore[B]{}
}

// rewind restarts replay from the first layer.
func (s *layerStore[B]) rewind() {
	s.next = 0
}

// take returns the next stored layer, if one exists.
func (s *layerStore[B]) take() (nn.Module[B], bool) {
	if s.next < len(s.layers) {
		m := s.layers[s.next]
		s.next++
		return m, true
	}
	return nil, false
}

// put appends a newly created layer and keeps replay position in sync.
func (s *layerStore[B]) put(m nn.Module[B]) {
	s.layers = append(s.layers, m)
	s.next = len(s.layers)
}

// parameters flattens the trainable parameters of every stored layer.
func (s *layerStore[B]) parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, m := range s.layers {
		params = append(params, m.Parameters()...)
	}
	return params
}

// stateDict collects layer state under Sequential-style index prefixes
// ("0.weight", "3.gamma", ...).
func (s *layerStore[B]) stateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, m := range s.layers {
		for name, raw := range m.StateDict() {
			stateDict[fmt.Sprintf("%d.%s", i, name)] = raw
		}
	}
	return stateDict
}

// loadStateDict routes index-prefixed entries back to their layers.
func (s *layerStore[B]) loadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, m := range s.layers {
		layerStateDict := make(map[string]*tensor.RawTensor)
		prefix := fmt.Sprintf("%d.", i)

		for key, raw := range stateDict {
			if len(key) > len(prefix) && key[:len(prefix)] == prefix {
				layerStateDict[key[len(prefix):]] = raw
			}
		}

		if len(layerStateDict) > 0 {
			if err := m.LoadStateDict(layerStateDict); err != nil {
				return fmt.Errorf("failed to load layer %d: %w", i, err)
			}
		}
	}
	return nil
}

// setTraining propagates the training flag to layers that track one.
func (s *layerStore[B]) setTraining(training bool) {
	for _, m := range s.layers {
		if t, ok := any(m).(interface{ SetTraining(bool) }); ok {
			t.SetTraining(training)
		}
	}
}

// Net is a network graph under construction.
//
// It carries the output tensor of the layers added so far; each Add method
// transforms that output and advances the graph. Block builders like
// ResidualBlock and DenseBlock mutate a Net in place, mirroring how the
// networks are described layer by layer.
//
// A Net traces one forward pass. Layers live in a layerStore that outlasts
// the trace, so re-tracing the same architecture (a new Net over the same
// store) reuses the parameters instead of re-initializing them.
type Net[B tensor.Backend] struct {
	name    string
	backend B
	output  *tensor.Tensor[float32, B]
	store   *layerStore[B]
	record  bool
	rows    []LayerRow
}

// NewNet starts a standalone graph from the given input tensor.
//
// Standalone nets own a fresh layer store; Generator and Discriminator use
// the package-private constructor to share a store across forward passes.
func NewNet[B tensor.Backend](name string, input *tensor.Tensor[float32, B], backend B) *Net[B] {
	return newNet(name, input, newLayerStore[B](), backend)
}

func newNet[B tensor.Backend](name string, input *tensor.Tensor[float32, B], store *layerStore[B], backend B) *Net[B] {
	record := len(store.layers) == 0
	store.rewind()
	return &Net[B]{
		name:    name,
		backend: backend,
		output:  input,
		store:   store,
		record:  record,
	}
}

// Output returns the current output tensor of the graph.
func (n *Net[B]) Output() *tensor.Tensor[float32, B] {
	return n.output
}

// Rank returns the number of dimensions of the current output.
func (n *Net[B]) Rank() int {
	return len(n.output.Shape())
}

// Channels returns the channel count of the current [N, C, H, W] output.
func (n *Net[B]) Channels() int {
	shape := n.output.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("%s: expected 4D output [N,C,H,W], got %dD", n.name, len(shape)))
	}
	return shape[1]
}

// Layers returns the stored layers in graph order.
func (n *Net[B]) Layers() []nn.Module[B] {
	return n.store.layers
}

// Parameters returns all trainable parameters of the graph.
func (n *Net[B]) Parameters() []*nn.Parameter[B] {
	return n.store.parameters()
}

// Rows returns the summary rows recorded while tracing.
//
// Rows are only recorded on the first trace over a store; replays return nil.
func (n *Net[B]) Rows() []LayerRow {
	return n.rows
}

// module replays the next stored layer or creates and stores a new one.
func (n *Net[B]) module(create func() nn.Module[B]) nn.Module[B] {
	if m, ok := n.store.take(); ok {
		return m
	}
	m := create()
	n.store.put(m)
	return m
}

// row records a summary row for the layer that produced the current output.
func (n *Net[B]) row(name string, params int) {
	if !n.record {
		return
	}
	n.rows = append(n.rows, LayerRow{
		Name:   name,
		Output: fmt.Sprintf("%v", n.output.Shape()),
		Params: params,
	})
}

// AddConv2D appends a mapSize x mapSize convolution with stride 1 and
// symmetric padding that preserves spatial dimensions.
func (n *Net[B]) AddConv2D(numUnits, mapSize int) {
	n.addConv(numUnits, mapSize, 1.0)
}

// AddResidualConv2D appends a convolution whose weights are initialized
// near zero, for use on residual branches.
func (n *Net[B]) AddResidualConv2D(numUnits, mapSize int) {
	n.addConv(numUnits, mapSize, residualInitFactor)
}

func (n *Net[B]) addConv(numUnits, mapSize int, stddevFactor float64) {
	in := n.Channels()
	m := n.module(func() nn.Module[B] {
		return nn.NewConv2DScaled(in, numUnits, mapSize, 1, mapSize/2, true, stddevFactor, n.backend)
	})
	conv, ok := m.(*nn.Conv2D[B])
	if !ok {
		panic(fmt.Sprintf("%s: layer replay mismatch, expected Conv2D, got %T", n.name, m))
	}
	n.output = conv.Forward(n.output)
	n.row(fmt.Sprintf("conv %dx%d, %d", mapSize, mapSize, numUnits), countParams(conv.Parameters()))
}

// AddBatchNorm appends batch normalization over the current channels.
func (n *Net[B]) AddBatchNorm() {
	in := n.Channels()
	m := n.module(func() nn.Module[B] {
		return nn.NewBatchNorm2d(in, 1e-5, 0.1, n.backend)
	})
	bn, ok := m.(*nn.BatchNorm2d[B])
	if !ok {
		panic(fmt.Sprintf("%s: layer replay mismatch, expected BatchNorm2d, got %T", n.name, m))
	}
	n.output = bn.Forward(n.output)
	n.row("batch norm", countParams(bn.Parameters()))
}

// AddReLU appends a ReLU activation.
func (n *Net[B]) AddReLU() {
	m := n.module(func() nn.Module[B] {
		return nn.NewReLU[B]()
	})
	n.output = m.Forward(n.output)
	n.row("relu", 0)
}

// AddLeakyReLU appends a leaky ReLU activation with the model-wide slope.
func (n *Net[B]) AddLeakyReLU() {
	m := n.module(func() nn.Module[B] {
		return nn.NewLeakyReLU[B](leakySlope)
	})
	n.output = m.Forward(n.output)
	n.row("leaky relu", 0)
}

// AddScaledSigmoid appends a sigmoid scaled by the given factor, bounding
// the output in (0, scale).
func (n *Net[B]) AddScaledSigmoid(scale float32) {
	m := n.module(func() nn.Module[B] {
		return nn.NewSigmoid[B]()
	})
	n.output = m.Forward(n.output).MulScalar(scale)
	n.row(fmt.Sprintf("sigmoid x%g", scale), 0)
}

// AddAvgPool appends 2x2 average pooling with stride 2, halving the
// spatial dimensions.
func (n *Net[B]) AddAvgPool() {
	m := n.module(func() nn.Module[B] {
		return nn.NewAvgPool2D(2, 2, n.backend)
	})
	n.output = m.Forward(n.output)
	n.row("avg pool 2x2", 0)
}

// AddUpscale appends 2x nearest-neighbor upsampling, doubling the spatial
// dimensions.
func (n *Net[B]) AddUpscale() {
	m := n.module(func() nn.Module[B] {
		return nn.NewUpsample2D(2, n.backend)
	})
	n.output = m.Forward(n.output)
	n.row("upscale x2", 0)
}

// AddConcat concatenates earlier outputs onto the current output along the
// channel axis, current output first. An empty slice is a no-op.
func (n *Net[B]) AddConcat(priors []*tensor.Tensor[float32, B]) {
	if len(priors) == 0 {
		return
	}
	all := make([]*tensor.Tensor[float32, B], 0, len(priors)+1)
	all = append(all, n.output)
	all = append(all, priors...)
	n.output = tensor.Cat(all, 1)
	n.row(fmt.Sprintf("concat %d", len(all)), 0)
}

// AddSum adds an earlier output elementwise onto the current output,
// closing a residual bypass.
func (n *Net[B]) AddSum(bypass *tensor.Tensor[float32, B]) {
	n.output = n.output.Add(bypass)
	n.row("sum", 0)
}

// AddMean reduces the current output to its mean over all non-batch axes,
// leaving shape [batch].
func (n *Net[B]) AddMean() {
	out := n.output
	for dim := len(out.Shape()) - 1; dim >= 1; dim-- {
		out = out.MeanDim(dim, false)
	}
	n.output = out
	n.row("mean", 0)
}

// countParams sums the element counts of a parameter list.
func countParams[B tensor.Backend](params []*nn.Parameter[B]) int {
	total := 0
	for _, p := range params {
		total += p.Tensor().NumElements()
	}
	return total
}

package model

import (
	"fmt"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// DenseBlock appends a densely connected block in the style of
// arXiv 1608.06993, with the skip fan-in capped by a sliding window.
//
// The block always opens with batch norm, projects to numUnits channels if
// needed (leaky ReLU then 1x1 convolution), and then runs nlayers rounds
// of: concatenate the window of retained earlier outputs onto the current
// output, retain the concatenated tensor, bottleneck (leaky ReLU + 1x1
// convolution to numUnits), composite (leaky ReLU + mapSize convolution to
// numUnits). The window keeps at most trailing entries, evicting the
// oldest. A closing concat, batch norm, leaky ReLU and 1x1 convolution
// bring the output back to numUnits channels.
//
// The input must be 4D [N, C, H, W]; anything else panics.
func DenseBlock[B tensor.Backend](net *Net[B], numUnits, mapSize, nlayers, trailing int) {
	if net.Rank() != 4 {
		panic(fmt.Sprintf("dense block: input must be 4D [N,C,H,W], got %dD", net.Rank()))
	}

	// Always begin with a batch norm
	net.AddBatchNorm()

	// Projection in series if the channel count needs to change
	if numUnits != net.Channels() {
		net.AddLeakyReLU()
		net.AddConv2D(numUnits, 1)
	}

	var window []*tensor.Tensor[float32, B]

	for i := 0; i < nlayers; i++ {
		// Skip connections from the retained window
		net.AddConcat(window)
		window = append(window, net.Output())

		if len(window) > trailing {
			window = window[1:]
			if len(window) != trailing {
				panic(fmt.Sprintf("dense block: window length %d exceeds trailing %d", len(window), trailing))
			}
		}

		// Bottleneck
		net.AddLeakyReLU()
		net.AddConv2D(numUnits, 1)

		// Composite function
		net.AddLeakyReLU()
		net.AddConv2D(numUnits, mapSize)
	}

	net.AddConcat(window)

	// Final bottleneck
	net.AddBatchNorm()
	net.AddLeakyReLU()
	net.AddConv2D(numUnits, 1)
}

// ResidualBlock appends a residual block in the style of arXiv 1512.03385,
// Figure 3, bypassing every convolution layer.
//
// A linear 1x1 projection changes the channel count to numUnits if needed.
// With nlayers > 0 a single batch norm precedes the stack; each layer then
// saves its input as the bypass, applies ReLU and a mapSize convolution
// initialized near zero, and sums the bypass back in. nlayers == 0 leaves
// just the projection.
//
// The input must be 4D [N, C, H, W]; anything else panics.
func ResidualBlock[B tensor.Backend](net *Net[B], numUnits, mapSize, nlayers int) {
	if net.Rank() != 4 {
		panic(fmt.Sprintf("residual block: input must be 4D [N,C,H,W], got %dD", net.Rank()))
	}

	// Linear projection in series if the channel count needs to change
	if numUnits != net.Channels() {
		net.AddConv2D(numUnits, 1)
	}

	if nlayers > 0 {
		// One batch norm for the whole stack; per-conv batch norms slow
		// training down without helping.
		net.AddBatchNorm()

		for i := 0; i < nlayers; i++ {
			bypass := net.Output()
			net.AddReLU()
			net.AddResidualConv2D(numUnits, mapSize)
			net.AddSum(bypass)
		}
	}
}

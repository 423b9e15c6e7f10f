package model

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/retouch-ml/retouch/internal/optim"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Model bundles everything a training loop consumes: both networks, the
// tensors of the build-time forward pass, the loss scalars, the per-network
// optimizers and the sampled instance noise.
//
// In inference mode (Build with a nil target) only the generator side is
// populated.
type Model[B tensor.Backend] struct {
	Config    Config
	Annealing float64

	Generator  *Generator[B]
	GeneOutput *tensor.Tensor[float32, B]

	Discriminator  *Discriminator[B]
	DiscRealOutput *tensor.Tensor[float32, B]
	DiscFakeOutput *tensor.Tensor[float32, B]

	GeneLoss            *tensor.Tensor[float32, B]
	GeneAdversarialLoss *tensor.Tensor[float32, B]
	GenePixelLoss       *tensor.Tensor[float32, B]

	DiscLoss     *tensor.Tensor[float32, B]
	DiscRealLoss *tensor.Tensor[float32, B]
	DiscFakeLoss *tensor.Tensor[float32, B]

	NoiseReal *tensor.Tensor[float32, B]
	NoiseFake *tensor.Tensor[float32, B]

	LearningRate  float32
	GeneOptimizer *optim.Adam[B]
	DiscOptimizer *optim.Adam[B]
}

// Build assembles the model around one batch of images.
//
// The generator always runs on source. When target is nil the result is an
// inference bundle: generator and its output, nothing else. When target is
// given, Build also samples instance noise (independently for each pass),
// scores target+noise and geneOutput+noise through one shared
// discriminator, assembles both losses at the given annealing factor, and
// creates one Adam optimizer per network at the annealed learning rate.
//
// Build validates cfg and returns an error for out-of-range values. With
// verbose set it logs input dimensions, parameter counts and a per-layer
// table for each network.
func Build[B tensor.Backend](
	cfg Config,
	backend B,
	source, target *tensor.Tensor[float32, B],
	annealing float64,
	verbose bool,
) (*Model[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gene := NewGenerator(backend)
	geneOut := gene.Forward(source)

	if verbose {
		writeSummary(os.Stdout, "Generator", source.Shape(), gene.NumParameters(), gene.Summary())
	}

	m := &Model[B]{
		Config:     cfg,
		Annealing:  annealing,
		Generator:  gene,
		GeneOutput: geneOut,
	}

	if target == nil {
		return m, nil
	}

	lr := LearningRate(cfg, annealing)

	// One independent noise sample per discriminator pass
	noiseReal := InstanceNoise(source.Shape(), annealing, backend)
	noiseFake := InstanceNoise(source.Shape(), annealing, backend)

	disc := NewDiscriminator(backend)
	discRealOut := disc.Forward(target.Add(noiseReal))
	discFakeOut := disc.Forward(geneOut.Add(noiseFake))

	if verbose {
		writeSummary(os.Stdout, "Discriminator", target.Shape(), disc.NumParameters(), disc.Summary())
	}

	geneLoss, geneAdv, genePix := GeneratorLoss(source, geneOut, discFakeOut, annealing, cfg)
	discLoss, discReal, discFake := DiscriminatorLoss(discRealOut, discFakeOut)

	m.Discriminator = disc
	m.DiscRealOutput = discRealOut
	m.DiscFakeOutput = discFakeOut
	m.GeneLoss = geneLoss
	m.GeneAdversarialLoss = geneAdv
	m.GenePixelLoss = genePix
	m.DiscLoss = discLoss
	m.DiscRealLoss = discReal
	m.DiscFakeLoss = discFake
	m.NoiseReal = noiseReal
	m.NoiseFake = noiseFake
	m.LearningRate = lr
	m.GeneOptimizer = optim.NewAdam(gene.Parameters(), optim.AdamConfig{LR: lr}, backend)
	m.DiscOptimizer = optim.NewAdam(disc.Parameters(), optim.AdamConfig{LR: lr}, backend)

	return m, nil
}

// Forward re-runs the forward pass on a fresh batch at a new annealing
// factor, refreshing the output, noise, loss and learning-rate fields in
// place. The networks and optimizers persist, so a training loop calls
// Forward once per batch and steps the optimizers on the refreshed losses.
//
// With a nil target (or an inference bundle) only the generator side runs.
func (m *Model[B]) Forward(source, target *tensor.Tensor[float32, B], annealing float64) {
	m.Annealing = annealing
	m.GeneOutput = m.Generator.Forward(source)

	if target == nil || m.Discriminator == nil {
		return
	}

	backend := source.Backend()

	m.LearningRate = LearningRate(m.Config, annealing)
	m.NoiseReal = InstanceNoise(source.Shape(), annealing, backend)
	m.NoiseFake = InstanceNoise(source.Shape(), annealing, backend)

	m.DiscRealOutput = m.Discriminator.Forward(target.Add(m.NoiseReal))
	m.DiscFakeOutput = m.Discriminator.Forward(m.GeneOutput.Add(m.NoiseFake))

	m.GeneLoss, m.GeneAdversarialLoss, m.GenePixelLoss =
		GeneratorLoss(source, m.GeneOutput, m.DiscFakeOutput, annealing, m.Config)
	m.DiscLoss, m.DiscRealLoss, m.DiscFakeLoss =
		DiscriminatorLoss(m.DiscRealOutput, m.DiscFakeOutput)
}

// SetTraining switches both networks between training and eval mode.
func (m *Model[B]) SetTraining(training bool) {
	m.Generator.SetTraining(training)
	if m.Discriminator != nil {
		m.Discriminator.SetTraining(training)
	}
}

// writeSummary logs one network's input geometry, parameter count and
// per-layer table.
func writeSummary(w io.Writer, name string, inShape tensor.Shape, numParams int, rows []LayerRow) {
	if len(inShape) == 4 {
		height, width, depth := inShape[2], inShape[3], inShape[1]
		fmt.Fprintf(w, "%s input size is %d x %d x %d = %d\n",
			name, height, width, depth, height*width*depth)
	}
	fmt.Fprintf(w, "%s has %4.2fM parameters\n\n", name, float64(numParams)/1e6)

	if len(rows) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"LAYER", "OUTPUT", "PARAMS"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	for _, row := range rows {
		table.Append([]string{row.Name, row.Output, strconv.Itoa(row.Params)})
	}
	table.Render()
	fmt.Fprintln(w)
}

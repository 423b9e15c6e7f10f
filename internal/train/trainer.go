// Package train drives the adversarial training loop: the annealing
// schedule, per-batch optimization of both networks, progress logging and
// periodic checkpoints tagged with a run ID.
package train

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/retouch-ml/retouch/internal/autodiff"
	"github.com/retouch-ml/retouch/internal/model"
	"github.com/retouch-ml/retouch/internal/nn"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Config holds the training-loop settings.
type Config struct {
	// Model is the network and loss configuration.
	Model model.Config

	// HalfLife is the annealing half-life in steps. Zero or less disables
	// the decay.
	HalfLife float64

	// Steps is the total number of optimization steps Run performs.
	Steps int

	// LogEvery is the progress-logging cadence in steps. Zero disables.
	LogEvery int

	// CheckpointEvery is the checkpoint cadence in steps. Zero disables.
	CheckpointEvery int

	// CheckpointDir receives the checkpoint files.
	CheckpointDir string

	// Verbose prints per-layer summaries when the networks are first built.
	Verbose bool
}

// DefaultConfig returns the standard training-loop settings.
func DefaultConfig() Config {
	return Config{
		Model:           model.DefaultConfig(),
		HalfLife:        5000,
		Steps:           20000,
		LogEvery:        50,
		CheckpointEvery: 500,
		CheckpointDir:   "checkpoints",
	}
}

// Stats reports one optimization step.
type Stats struct {
	Step         int
	Annealing    float64
	LearningRate float32

	GeneLoss            float32
	GeneAdversarialLoss float32
	GenePixelLoss       float32

	DiscLoss     float32
	DiscRealLoss float32
	DiscFakeLoss float32
	DiscAccuracy float64
}

// NextBatch supplies one unpaired batch: source images for the generator
// and target images for the discriminator's real pass.
type NextBatch[B tensor.Backend] func() (source, target *tensor.Tensor[float32, B], err error)

// Trainer owns the tape lifecycle and both optimizers across steps.
//
// The networks are built lazily on the first TrainStep (or by Resume), so
// a Trainer can be created before the batch geometry is known.
type Trainer[B tensor.Backend] struct {
	cfg     Config
	backend *autodiff.AutodiffBackend[B]
	runID   string
	m       *model.Model[*autodiff.AutodiffBackend[B]]
	step    int
}

// New creates a trainer. The config's model settings are validated here so
// a bad downscale factor or blend range fails before any work happens.
func New[B tensor.Backend](cfg Config, backend *autodiff.AutodiffBackend[B]) (*Trainer[B], error) {
	if err := cfg.Model.Validate(); err != nil {
		return nil, err
	}
	if cfg.Steps < 0 {
		return nil, fmt.Errorf("train: steps must not be negative, got %d", cfg.Steps)
	}
	if cfg.CheckpointEvery > 0 && cfg.CheckpointDir == "" {
		return nil, fmt.Errorf("train: checkpoint directory required when checkpointing is enabled")
	}

	return &Trainer[B]{
		cfg:     cfg,
		backend: backend,
		runID:   uuid.NewString(),
	}, nil
}

// RunID returns the identifier stamped into checkpoints from this run.
func (t *Trainer[B]) RunID() string {
	return t.runID
}

// Step returns the number of completed optimization steps.
func (t *Trainer[B]) Step() int {
	return t.step
}

// Annealing returns the annealing factor for the next step.
func (t *Trainer[B]) Annealing() float64 {
	return Annealing(t.step, t.cfg.HalfLife)
}

// Model returns the model bundle, or nil before the first step.
func (t *Trainer[B]) Model() *model.Model[*autodiff.AutodiffBackend[B]] {
	return t.m
}

// TrainStep runs one optimization step on a batch: forward pass under the
// tape, both losses differentiated from that single pass, then one Adam
// step per network at the annealed learning rate.
func (t *Trainer[B]) TrainStep(source, target *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]]) (Stats, error) {
	if source == nil || target == nil {
		return Stats{}, fmt.Errorf("train: source and target batches are required")
	}

	annealing := Annealing(t.step, t.cfg.HalfLife)

	tape := t.backend.Tape()
	tape.Clear()
	tape.StartRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	if t.m == nil {
		m, err := model.Build(t.cfg.Model, t.backend, source, target, annealing, t.cfg.Verbose)
		if err != nil {
			return Stats{}, err
		}
		t.m = m
	} else {
		t.m.Forward(source, target, annealing)
	}
	m := t.m

	m.GeneOptimizer.SetLR(m.LearningRate)
	m.DiscOptimizer.SetLR(m.LearningRate)
	m.GeneOptimizer.ZeroGrad()
	m.DiscOptimizer.ZeroGrad()

	// Differentiate both losses from the same forward pass before either
	// network moves, then apply both updates.
	discGrads := autodiff.Backward(m.DiscLoss, t.backend)
	geneGrads := autodiff.Backward(m.GeneLoss, t.backend)
	m.DiscOptimizer.Step(discGrads)
	m.GeneOptimizer.Step(geneGrads)

	t.step++

	stats := Stats{
		Step:                t.step,
		Annealing:           annealing,
		LearningRate:        m.LearningRate,
		GeneLoss:            lossValue(m.GeneLoss),
		GeneAdversarialLoss: lossValue(m.GeneAdversarialLoss),
		GenePixelLoss:       lossValue(m.GenePixelLoss),
		DiscLoss:            lossValue(m.DiscLoss),
		DiscRealLoss:        lossValue(m.DiscRealLoss),
		DiscFakeLoss:        lossValue(m.DiscFakeLoss),
		DiscAccuracy:        DiscriminatorAccuracy(m.DiscRealOutput, m.DiscFakeOutput),
	}

	if t.cfg.LogEvery > 0 && t.step%t.cfg.LogEvery == 0 {
		log.Printf("step %6d  gene %.4f (adv %.4f, pix %.4f)  disc %.4f (real %.4f, fake %.4f)  acc %.2f  lr %.3g  annealing %.4f",
			stats.Step, stats.GeneLoss, stats.GeneAdversarialLoss, stats.GenePixelLoss,
			stats.DiscLoss, stats.DiscRealLoss, stats.DiscFakeLoss,
			stats.DiscAccuracy, stats.LearningRate, stats.Annealing)
	}

	if t.cfg.CheckpointEvery > 0 && t.step%t.cfg.CheckpointEvery == 0 {
		if _, _, err := t.SaveCheckpoint(); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// Run performs Config.Steps optimization steps, pulling batches from next.
func (t *Trainer[B]) Run(next NextBatch[*autodiff.AutodiffBackend[B]]) error {
	for t.step < t.cfg.Steps {
		source, target, err := next()
		if err != nil {
			return fmt.Errorf("train: next batch: %w", err)
		}
		if _, err := t.TrainStep(source, target); err != nil {
			return err
		}
	}
	return nil
}

// SaveCheckpoint writes one checkpoint file per network, named after the
// run ID and step count, and returns both paths.
func (t *Trainer[B]) SaveCheckpoint() (genePath, discPath string, err error) {
	if t.m == nil || t.m.Discriminator == nil {
		return "", "", fmt.Errorf("train: no model to checkpoint")
	}
	if t.cfg.CheckpointDir == "" {
		return "", "", fmt.Errorf("train: checkpoint directory not configured")
	}
	if err := os.MkdirAll(t.cfg.CheckpointDir, 0o755); err != nil {
		return "", "", fmt.Errorf("train: create checkpoint directory: %w", err)
	}

	genePath = t.checkpointPath("gene")
	discPath = t.checkpointPath("disc")
	now := time.Now().UTC()

	geneCkpt := &nn.Checkpoint[*autodiff.AutodiffBackend[B]]{
		Model:     t.m.Generator,
		Optimizer: t.m.GeneOptimizer,
		RunID:     t.runID,
		Step:      int64(t.step),
		Annealing: t.m.Annealing,
		Loss:      float64(lossValue(t.m.GeneLoss)),
		CreatedAt: now,
	}
	if err := geneCkpt.Save(genePath); err != nil {
		return "", "", fmt.Errorf("train: save generator checkpoint: %w", err)
	}

	discCkpt := &nn.Checkpoint[*autodiff.AutodiffBackend[B]]{
		Model:     t.m.Discriminator,
		Optimizer: t.m.DiscOptimizer,
		RunID:     t.runID,
		Step:      int64(t.step),
		Annealing: t.m.Annealing,
		Loss:      float64(lossValue(t.m.DiscLoss)),
		CreatedAt: now,
	}
	if err := discCkpt.Save(discPath); err != nil {
		return "", "", fmt.Errorf("train: save discriminator checkpoint: %w", err)
	}

	return genePath, discPath, nil
}

// Resume restores a trainer from a checkpoint pair written by
// SaveCheckpoint. The networks are built around the given batch first so
// their layers exist to receive the stored weights; the run ID and step
// count continue from the checkpoint.
//
// Resume must be called before the first TrainStep.
func (t *Trainer[B]) Resume(genePath, discPath string, source, target *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]]) error {
	if t.m != nil {
		return fmt.Errorf("train: resume requires a fresh trainer")
	}

	m, err := model.Build(t.cfg.Model, t.backend, source, target, 1.0, false)
	if err != nil {
		return err
	}

	geneCkpt, err := nn.LoadCheckpoint(genePath, t.backend, m.Generator, m.GeneOptimizer)
	if err != nil {
		return fmt.Errorf("train: load generator checkpoint: %w", err)
	}
	if _, err := nn.LoadCheckpoint(discPath, t.backend, m.Discriminator, m.DiscOptimizer); err != nil {
		return fmt.Errorf("train: load discriminator checkpoint: %w", err)
	}

	t.m = m
	t.step = int(geneCkpt.Step)
	if geneCkpt.RunID != "" {
		t.runID = geneCkpt.RunID
	}
	return nil
}

func (t *Trainer[B]) checkpointPath(prefix string) string {
	return filepath.Join(t.cfg.CheckpointDir, fmt.Sprintf("%s-%s-%06d.retouch", prefix, shortID(t.runID), t.step))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func lossValue[B tensor.Backend](t *tensor.Tensor[float32, B]) float32 {
	return t.Raw().AsFloat32()[0]
}

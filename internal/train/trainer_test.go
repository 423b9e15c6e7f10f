package train_test

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/retouch-ml/retouch/internal/autodiff"
	"github.com/retouch-ml/retouch/internal/backend/cpu"
	"github.com/retouch-ml/retouch/internal/tensor"
	"github.com/retouch-ml/retouch/internal/train"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

// testConfig returns settings small enough for unit tests.
func testConfig() train.Config {
	cfg := train.DefaultConfig()
	cfg.Steps = 2
	cfg.HalfLife = 10
	cfg.LogEvery = 0
	cfg.CheckpointEvery = 0
	cfg.CheckpointDir = ""
	return cfg
}

// imageBatch builds a deterministic batch of images with values in [0, 1].
func imageBatch(t *testing.T, batch, channels, height, width int, backend Backend) *tensor.Tensor[float32, Backend] {
	t.Helper()

	n := batch * channels * height * width
	data := make([]float32, n)
	for i := range data {
		data[i] = float32((i*31+7)%97) / 96.0
	}

	img, err := tensor.FromSlice(data, tensor.Shape{batch, channels, height, width}, backend)
	if err != nil {
		t.Fatalf("Failed to create image batch: %v", err)
	}
	return img
}

// TestNewValidatesConfig tests the construction-time checks.
func TestNewValidatesConfig(t *testing.T) {
	backend := autodiff.New(cpu.New())

	cfg := testConfig()
	cfg.Model.DownscaleFactor = 3
	if _, err := train.New(cfg, backend); err == nil {
		t.Error("Expected error for invalid model config")
	}

	cfg = testConfig()
	cfg.Steps = -1
	if _, err := train.New(cfg, backend); err == nil {
		t.Error("Expected error for negative steps")
	}

	cfg = testConfig()
	cfg.CheckpointEvery = 100
	cfg.CheckpointDir = ""
	if _, err := train.New(cfg, backend); err == nil {
		t.Error("Expected error for checkpointing without a directory")
	}
}

// TestTrainerSteps tests two consecutive optimization steps.
func TestTrainerSteps(t *testing.T) {
	backend := autodiff.New(cpu.New())

	trainer, err := train.New(testConfig(), backend)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if trainer.Model() != nil {
		t.Error("Expected no model before the first step")
	}
	if trainer.Annealing() != 1.0 {
		t.Errorf("Initial annealing = %g, want 1", trainer.Annealing())
	}

	source := imageBatch(t, 1, 3, 16, 16, backend)
	target := imageBatch(t, 1, 3, 16, 16, backend)

	stats1, err := trainer.TrainStep(source, target)
	if err != nil {
		t.Fatalf("TrainStep failed: %v", err)
	}
	if stats1.Step != 1 {
		t.Errorf("Step = %d, want 1", stats1.Step)
	}
	if stats1.Annealing != 1.0 {
		t.Errorf("First-step annealing = %g, want 1", stats1.Annealing)
	}

	stats2, err := trainer.TrainStep(source, target)
	if err != nil {
		t.Fatalf("Second TrainStep failed: %v", err)
	}
	if stats2.Step != 2 {
		t.Errorf("Step = %d, want 2", stats2.Step)
	}
	expected := math.Pow(0.5, 1.0/10.0)
	if math.Abs(stats2.Annealing-expected) > 1e-12 {
		t.Errorf("Second-step annealing = %g, want %g", stats2.Annealing, expected)
	}

	for _, v := range []float32{stats2.GeneLoss, stats2.DiscLoss} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			t.Errorf("Loss = %f, want finite positive", f)
		}
	}

	m := trainer.Model()
	if m == nil {
		t.Fatal("Expected model after steps")
	}
	if m.GeneOptimizer.GetTimestep() != 2 {
		t.Errorf("Generator optimizer timestep = %d, want 2", m.GeneOptimizer.GetTimestep())
	}
	if m.DiscOptimizer.GetTimestep() != 2 {
		t.Errorf("Discriminator optimizer timestep = %d, want 2", m.DiscOptimizer.GetTimestep())
	}

	// TrainStep owns the tape lifecycle
	if backend.Tape().NumOps() != 0 {
		t.Errorf("Tape holds %d operations after step, want 0", backend.Tape().NumOps())
	}
	if backend.Tape().IsRecording() {
		t.Error("Tape should not be recording between steps")
	}
}

// TestTrainerRun tests the batch-pulling loop.
func TestTrainerRun(t *testing.T) {
	backend := autodiff.New(cpu.New())

	trainer, err := train.New(testConfig(), backend)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	source := imageBatch(t, 1, 3, 16, 16, backend)
	target := imageBatch(t, 1, 3, 16, 16, backend)

	calls := 0
	next := func() (*tensor.Tensor[float32, Backend], *tensor.Tensor[float32, Backend], error) {
		calls++
		return source, target, nil
	}

	if err := trainer.Run(next); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("Batch source called %d times, want 2", calls)
	}
	if trainer.Step() != 2 {
		t.Errorf("Step() = %d, want 2", trainer.Step())
	}
}

// TestTrainerRunBatchError tests that batch failures surface.
func TestTrainerRunBatchError(t *testing.T) {
	backend := autodiff.New(cpu.New())

	trainer, err := train.New(testConfig(), backend)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	errBatch := errors.New("batch source exhausted")
	next := func() (*tensor.Tensor[float32, Backend], *tensor.Tensor[float32, Backend], error) {
		return nil, nil, errBatch
	}

	if err := trainer.Run(next); !errors.Is(err, errBatch) {
		t.Errorf("Run error = %v, want wrapped batch error", err)
	}
}

// TestTrainerCheckpointResume tests the checkpoint pair and resuming from
// it with a fresh trainer.
func TestTrainerCheckpointResume(t *testing.T) {
	backend := autodiff.New(cpu.New())

	cfg := testConfig()
	cfg.Steps = 1
	cfg.CheckpointEvery = 1
	cfg.CheckpointDir = t.TempDir()

	trainer, err := train.New(cfg, backend)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	source := imageBatch(t, 1, 3, 16, 16, backend)
	target := imageBatch(t, 1, 3, 16, 16, backend)

	if _, err := trainer.TrainStep(source, target); err != nil {
		t.Fatalf("TrainStep failed: %v", err)
	}

	genePaths, err := filepath.Glob(filepath.Join(cfg.CheckpointDir, "gene-*.retouch"))
	if err != nil || len(genePaths) != 1 {
		t.Fatalf("Expected one generator checkpoint, got %v (err %v)", genePaths, err)
	}
	discPaths, err := filepath.Glob(filepath.Join(cfg.CheckpointDir, "disc-*.retouch"))
	if err != nil || len(discPaths) != 1 {
		t.Fatalf("Expected one discriminator checkpoint, got %v (err %v)", discPaths, err)
	}

	// Fresh trainer on a fresh backend picks up where the first left off
	backend2 := autodiff.New(cpu.New())
	trainer2, err := train.New(cfg, backend2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	source2 := imageBatch(t, 1, 3, 16, 16, backend2)
	target2 := imageBatch(t, 1, 3, 16, 16, backend2)

	if err := trainer2.Resume(genePaths[0], discPaths[0], source2, target2); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	if trainer2.Step() != 1 {
		t.Errorf("Resumed step = %d, want 1", trainer2.Step())
	}
	if trainer2.RunID() != trainer.RunID() {
		t.Errorf("Resumed run ID = %q, want %q", trainer2.RunID(), trainer.RunID())
	}

	// Restored weights match the checkpointed ones
	origParams := trainer.Model().Generator.Parameters()
	loadedParams := trainer2.Model().Generator.Parameters()
	if len(origParams) != len(loadedParams) {
		t.Fatalf("Parameter count = %d, want %d", len(loadedParams), len(origParams))
	}
	for i := range origParams {
		a := origParams[i].Tensor().Raw().AsFloat32()
		b := loadedParams[i].Tensor().Raw().AsFloat32()
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("Parameter %d differs after resume", i)
			}
		}
	}

	// Training continues from the restored state
	stats, err := trainer2.TrainStep(source2, target2)
	if err != nil {
		t.Fatalf("TrainStep after resume failed: %v", err)
	}
	if stats.Step != 2 {
		t.Errorf("Step after resume = %d, want 2", stats.Step)
	}
	if trainer2.Model().GeneOptimizer.GetTimestep() != 2 {
		t.Errorf("Optimizer timestep after resume = %d, want 2",
			trainer2.Model().GeneOptimizer.GetTimestep())
	}
}

package model_test

import (
	"math"
	"testing"

	"github.com/retouch-ml/retouch/internal/autodiff"
	"github.com/retouch-ml/retouch/internal/backend/cpu"
	"github.com/retouch-ml/retouch/internal/model"
	"github.com/retouch-ml/retouch/internal/nn"
	"github.com/retouch-ml/retouch/internal/tensor"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func floatEqual(a, b, epsilon float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
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

// scalarValue extracts the value of a scalar loss tensor.
func scalarValue(t *testing.T, s *tensor.Tensor[float32, Backend]) float32 {
	t.Helper()

	if s.NumElements() != 1 {
		t.Fatalf("Expected scalar tensor, got shape %v", s.Shape())
	}
	return s.Raw().AsFloat32()[0]
}

// TestBuildRejectsInvalidConfig tests that Build validates the config.
func TestBuildRejectsInvalidConfig(t *testing.T) {
	backend := autodiff.New(cpu.New())

	source := imageBatch(t, 1, 3, 16, 16, backend)
	target := imageBatch(t, 1, 3, 16, 16, backend)

	cfg := model.DefaultConfig()
	cfg.DownscaleFactor = 3

	_, err := model.Build(cfg, backend, source, target, 1.0, false)
	if err == nil {
		t.Fatal("Expected error for downscale factor 3")
	}
}

// TestBuildInference tests that Build with a nil target produces a
// generator-only bundle.
func TestBuildInference(t *testing.T) {
	backend := autodiff.New(cpu.New())

	source := imageBatch(t, 1, 3, 16, 16, backend)

	m, err := model.Build(model.DefaultConfig(), backend, source, nil, 0.75, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if m.Generator == nil {
		t.Fatal("Expected generator in inference bundle")
	}
	if !m.GeneOutput.Shape().Equal(source.Shape()) {
		t.Errorf("Generator output shape = %v, want %v", m.GeneOutput.Shape(), source.Shape())
	}
	if m.Annealing != 0.75 {
		t.Errorf("Annealing = %f, want 0.75", m.Annealing)
	}

	if m.Discriminator != nil {
		t.Error("Inference bundle should have no discriminator")
	}
	if m.GeneLoss != nil || m.DiscLoss != nil {
		t.Error("Inference bundle should have no losses")
	}
	if m.GeneOptimizer != nil || m.DiscOptimizer != nil {
		t.Error("Inference bundle should have no optimizers")
	}
}

// TestBuildTraining tests the shape and wiring of a full training bundle.
func TestBuildTraining(t *testing.T) {
	backend := autodiff.New(cpu.New())

	batch := 2
	source := imageBatch(t, batch, 3, 16, 16, backend)
	target := imageBatch(t, batch, 3, 16, 16, backend)

	m, err := model.Build(model.DefaultConfig(), backend, source, target, 0.5, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !m.GeneOutput.Shape().Equal(source.Shape()) {
		t.Errorf("Generator output shape = %v, want %v", m.GeneOutput.Shape(), source.Shape())
	}

	// One logit per sample from each discriminator pass
	logitShape := tensor.Shape{batch}
	if !m.DiscRealOutput.Shape().Equal(logitShape) {
		t.Errorf("Real logits shape = %v, want %v", m.DiscRealOutput.Shape(), logitShape)
	}
	if !m.DiscFakeOutput.Shape().Equal(logitShape) {
		t.Errorf("Fake logits shape = %v, want %v", m.DiscFakeOutput.Shape(), logitShape)
	}

	// All six losses are scalars
	losses := []*tensor.Tensor[float32, Backend]{
		m.GeneLoss, m.GeneAdversarialLoss, m.GenePixelLoss,
		m.DiscLoss, m.DiscRealLoss, m.DiscFakeLoss,
	}
	for i, loss := range losses {
		if loss == nil {
			t.Fatalf("Loss %d is nil", i)
		}
		v := float64(scalarValue(t, loss))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("Loss %d is not finite: %f", i, v)
		}
	}

	// Noise matches the image geometry, sampled independently per pass
	if !m.NoiseReal.Shape().Equal(source.Shape()) {
		t.Errorf("Noise shape = %v, want %v", m.NoiseReal.Shape(), source.Shape())
	}
	if m.NoiseReal == m.NoiseFake || m.NoiseReal.Raw() == m.NoiseFake.Raw() {
		t.Error("Expected independent noise samples for the two passes")
	}

	if !floatEqual(m.LearningRate, 1e-4, 1e-9) {
		t.Errorf("Learning rate = %g, want 1e-4", m.LearningRate)
	}
	if m.GeneOptimizer == nil || m.DiscOptimizer == nil {
		t.Fatal("Expected one optimizer per network")
	}
	if !floatEqual(m.GeneOptimizer.GetLR(), m.LearningRate, 1e-9) {
		t.Errorf("Generator optimizer LR = %g, want %g", m.GeneOptimizer.GetLR(), m.LearningRate)
	}
}

// TestBuildTrainingStep tests that one optimization step flows gradients
// from both losses into the right networks.
func TestBuildTrainingStep(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()
	defer backend.Tape().Clear()

	source := imageBatch(t, 2, 3, 16, 16, backend)
	target := imageBatch(t, 2, 3, 16, 16, backend)

	m, err := model.Build(model.DefaultConfig(), backend, source, target, 0.5, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	geneBefore := snapshotParams(m.Generator.Parameters())
	discBefore := snapshotParams(m.Discriminator.Parameters())

	// Differentiate both losses from the same forward pass, then step
	discGrads := autodiff.Backward(m.DiscLoss, backend)
	geneGrads := autodiff.Backward(m.GeneLoss, backend)
	m.DiscOptimizer.Step(discGrads)
	m.GeneOptimizer.Step(geneGrads)

	if m.GeneOptimizer.GetTimestep() != 1 {
		t.Errorf("Generator optimizer timestep = %d, want 1", m.GeneOptimizer.GetTimestep())
	}
	if m.DiscOptimizer.GetTimestep() != 1 {
		t.Errorf("Discriminator optimizer timestep = %d, want 1", m.DiscOptimizer.GetTimestep())
	}

	if countChanged(m.Generator.Parameters(), geneBefore) == 0 {
		t.Error("Expected generator parameters to change after step")
	}
	if countChanged(m.Discriminator.Parameters(), discBefore) == 0 {
		t.Error("Expected discriminator parameters to change after step")
	}
}

func snapshotParams(params []*nn.Parameter[Backend]) [][]float32 {
	out := make([][]float32, len(params))
	for i, p := range params {
		data := p.Tensor().Raw().AsFloat32()
		out[i] = append([]float32(nil), data...)
	}
	return out
}

func countChanged(params []*nn.Parameter[Backend], before [][]float32) int {
	changed := 0
	for i, p := range params {
		data := p.Tensor().Raw().AsFloat32()
		for j := range data {
			if data[j] != before[i][j] {
				changed++
				break
			}
		}
	}
	return changed
}

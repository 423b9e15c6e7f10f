package model_test

import (
	"testing"

	"github.com/retouch-ml/retouch/internal/autodiff"
	"github.com/retouch-ml/retouch/internal/backend/cpu"
	"github.com/retouch-ml/retouch/internal/model"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// TestBlendFactor tests the pixel-loss blend at both ends and the middle
// of the annealing schedule.
func TestBlendFactor(t *testing.T) {
	cfg := model.DefaultConfig()

	tests := []struct {
		annealing float64
		expected  float64
	}{
		{0.0, 0.25},
		{1.0, 0.90},
		{0.5, 0.575},
	}

	for _, tt := range tests {
		p := model.BlendFactor(cfg, tt.annealing)
		if !floatEqual(float32(p), float32(tt.expected), 1e-6) {
			t.Errorf("BlendFactor(annealing=%g) = %g, want %g", tt.annealing, p, tt.expected)
		}
	}
}

// TestLearningRate tests the annealed learning rate and its floor.
func TestLearningRate(t *testing.T) {
	cfg := model.DefaultConfig()

	if lr := model.LearningRate(cfg, 1.0); !floatEqual(lr, 2e-4, 1e-9) {
		t.Errorf("LearningRate(1.0) = %g, want 2e-4", lr)
	}
	if lr := model.LearningRate(cfg, 0.5); !floatEqual(lr, 1e-4, 1e-9) {
		t.Errorf("LearningRate(0.5) = %g, want 1e-4", lr)
	}

	// Deep into training the rate bottoms out at the floor
	if lr := model.LearningRate(cfg, 0.0); !floatEqual(lr, 1e-7, 1e-12) {
		t.Errorf("LearningRate(0.0) = %g, want 1e-7", lr)
	}
	if lr := model.LearningRate(cfg, 1e-9); !floatEqual(lr, 1e-7, 1e-12) {
		t.Errorf("LearningRate(1e-9) = %g, want 1e-7", lr)
	}
}

// TestGeneratorLossPerfectMatch tests the combined loss when the generator
// reproduces the source exactly, so the pixel term vanishes and only the
// adversarial term remains.
func TestGeneratorLossPerfectMatch(t *testing.T) {
	backend := autodiff.New(cpu.New())
	cfg := model.DefaultConfig()

	source := tensor.Full[float32](tensor.Shape{1, 3, 8, 8}, 0.5, backend)
	output := tensor.Full[float32](tensor.Shape{1, 3, 8, 8}, 0.5, backend)
	logits := tensor.Zeros[float32](tensor.Shape{1}, backend)

	loss, adversarial, pixel := model.GeneratorLoss(source, output, logits, 0.5, cfg)

	// Sigmoid cross-entropy of logit 0 against target 1 is ln(2)
	if v := scalarValue(t, adversarial); !floatEqual(v, 0.6931472, 1e-5) {
		t.Errorf("Adversarial loss = %f, want ln(2)", v)
	}
	if v := scalarValue(t, pixel); !floatEqual(v, 0.0, 1e-6) {
		t.Errorf("Pixel loss = %f, want 0", v)
	}

	// (1-p)*ln(2) with p = 0.575
	if v := scalarValue(t, loss); !floatEqual(v, 0.29458756, 1e-5) {
		t.Errorf("Combined loss = %f, want 0.29458756", v)
	}
}

// TestGeneratorLossPixelTerm tests that the pixel term measures the mean
// absolute difference of the downscaled images.
func TestGeneratorLossPixelTerm(t *testing.T) {
	backend := autodiff.New(cpu.New())
	cfg := model.DefaultConfig()

	source := tensor.Full[float32](tensor.Shape{1, 3, 8, 8}, 0.5, backend)
	output := tensor.Full[float32](tensor.Shape{1, 3, 8, 8}, 0.75, backend)
	logits := tensor.Zeros[float32](tensor.Shape{1}, backend)

	loss, _, pixel := model.GeneratorLoss(source, output, logits, 0.5, cfg)

	// Constant images downscale to constants, so the term is just |diff|
	if v := scalarValue(t, pixel); !floatEqual(v, 0.25, 1e-6) {
		t.Errorf("Pixel loss = %f, want 0.25", v)
	}

	// 0.425*ln(2) + 0.575*0.25
	if v := scalarValue(t, loss); !floatEqual(v, 0.43833756, 1e-5) {
		t.Errorf("Combined loss = %f, want 0.43833756", v)
	}
}

// TestGeneratorLossBlendShift tests that decaying annealing moves weight
// from the pixel term to the adversarial term.
func TestGeneratorLossBlendShift(t *testing.T) {
	backend := autodiff.New(cpu.New())
	cfg := model.DefaultConfig()

	source := tensor.Full[float32](tensor.Shape{1, 3, 8, 8}, 0.5, backend)
	output := tensor.Full[float32](tensor.Shape{1, 3, 8, 8}, 0.5, backend)
	logits := tensor.Zeros[float32](tensor.Shape{1}, backend)

	early, _, _ := model.GeneratorLoss(source, output, logits, 1.0, cfg)
	late, _, _ := model.GeneratorLoss(source, output, logits, 0.0, cfg)

	// The pixel term is zero here, so a smaller p means a larger share of
	// the adversarial ln(2).
	if scalarValue(t, early) >= scalarValue(t, late) {
		t.Errorf("Loss at annealing 1.0 (%f) should be below annealing 0.0 (%f)",
			scalarValue(t, early), scalarValue(t, late))
	}
}

// TestDiscriminatorLossZeroLogits tests the loss for an undecided
// discriminator.
func TestDiscriminatorLossZeroLogits(t *testing.T) {
	backend := autodiff.New(cpu.New())

	real := tensor.Zeros[float32](tensor.Shape{2}, backend)
	fake := tensor.Zeros[float32](tensor.Shape{2}, backend)

	loss, realLoss, fakeLoss := model.DiscriminatorLoss(real, fake)

	if v := scalarValue(t, realLoss); !floatEqual(v, 0.6931472, 1e-5) {
		t.Errorf("Real loss = %f, want ln(2)", v)
	}
	if v := scalarValue(t, fakeLoss); !floatEqual(v, 0.6931472, 1e-5) {
		t.Errorf("Fake loss = %f, want ln(2)", v)
	}
	if v := scalarValue(t, loss); !floatEqual(v, 1.3862944, 1e-5) {
		t.Errorf("Total loss = %f, want 2*ln(2)", v)
	}
}

// TestDiscriminatorLossConfidentLogits tests that correct confident
// predictions drive the loss toward zero.
func TestDiscriminatorLossConfidentLogits(t *testing.T) {
	backend := autodiff.New(cpu.New())

	real := tensor.Full[float32](tensor.Shape{2}, 10, backend)
	fake := tensor.Full[float32](tensor.Shape{2}, -10, backend)

	loss, _, _ := model.DiscriminatorLoss(real, fake)

	if v := scalarValue(t, loss); v >= 0.001 {
		t.Errorf("Loss for confident correct predictions = %f, want < 0.001", v)
	}
}

// TestGeneratorLossGradients tests that both loss terms propagate
// gradients to their inputs.
func TestGeneratorLossGradients(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()
	defer backend.Tape().Clear()

	cfg := model.DefaultConfig()

	source := tensor.Full[float32](tensor.Shape{1, 3, 8, 8}, 0.5, backend)
	output := imageBatch(t, 1, 3, 8, 8, backend)
	logits, err := tensor.FromSlice([]float32{0.3}, tensor.Shape{1}, backend)
	if err != nil {
		t.Fatalf("Failed to create logits: %v", err)
	}

	loss, _, _ := model.GeneratorLoss(source, output, logits, 0.5, cfg)

	gradients := autodiff.Backward(loss, backend)

	// Adversarial path reaches the logits, pixel path reaches the output
	if gradients[logits.Raw()] == nil {
		t.Error("Expected gradient for the fake logits")
	}
	if gradients[output.Raw()] == nil {
		t.Error("Expected gradient for the generator output")
	}
}

package nn

import (
	"testing"

	"github.com/retouch-ml/retouch/internal/autodiff"
	"github.com/retouch-ml/retouch/internal/backend/cpu"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// TestUpsample2D_Creation tests Upsample2D layer creation.
func TestUpsample2D_Creation(t *testing.T) {
	backend := cpu.New()

	up := NewUpsample2D(2, backend)

	if up.Scale() != 2 {
		t.Errorf("Expected scale=2, got %d", up.Scale())
	}

	params := up.Parameters()
	if len(params) != 0 {
		t.Errorf("Expected 0 parameters (Upsample2D has no learnable params), got %d", len(params))
	}
}

// TestUpsample2D_ForwardShape tests forward pass output shape.
func TestUpsample2D_ForwardShape(t *testing.T) {
	backend := cpu.New()

	up := NewUpsample2D(2, backend)

	// Input: [2, 64, 8, 8]
	input := tensor.Zeros[float32](tensor.Shape{2, 64, 8, 8}, backend)

	output := up.Forward(input)

	expectedShape := tensor.Shape{2, 64, 16, 16}
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("Output shape: expected %v, got %v", expectedShape, output.Shape())
	}
}

// TestUpsample2D_ForwardValues tests nearest-neighbor replication.
func TestUpsample2D_ForwardValues(t *testing.T) {
	backend := cpu.New()

	up := NewUpsample2D(2, backend)

	input, err := tensor.FromSlice[float32](
		[]float32{1, 2, 3, 4},
		tensor.Shape{1, 1, 2, 2},
		backend,
	)
	if err != nil {
		t.Fatalf("Failed to create input tensor: %v", err)
	}

	output := up.Forward(input)

	// Each source pixel becomes a 2x2 block
	expected := []float32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}
	outputData := output.Data()

	for i, exp := range expected {
		if outputData[i] != exp {
			t.Errorf("output[%d] = %f, want %f", i, outputData[i], exp)
		}
	}
}

// TestUpsample2D_IntegrationWithAutodiff tests gradient flow through upsampling.
func TestUpsample2D_IntegrationWithAutodiff(t *testing.T) {
	backend := autodiff.New(cpu.New())

	backend.Tape().StartRecording()

	up := NewUpsample2D(2, backend)

	input := tensor.Randn[float32](tensor.Shape{1, 2, 3, 3}, backend)

	output := up.Forward(input)

	expectedShape := tensor.Shape{1, 2, 6, 6}
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("Output shape: expected %v, got %v", expectedShape, output.Shape())
	}

	// Backward with all-ones output gradient
	outputGrad, _ := tensor.NewRaw(output.Shape(), tensor.Float32, backend.Device())
	outputGradData := outputGrad.AsFloat32()
	for i := range outputGradData {
		outputGradData[i] = 1.0
	}

	grads := backend.Tape().Backward(outputGrad, backend)

	inputGrad, hasInputGrad := grads[input.Raw()]
	if !hasInputGrad {
		t.Fatal("No gradient for input!")
	}

	if !inputGrad.Shape().Equal(input.Shape()) {
		t.Errorf("Input gradient shape: expected %v, got %v", input.Shape(), inputGrad.Shape())
	}

	// Each source pixel fans out to scale² = 4 replicas
	for i, g := range inputGrad.AsFloat32() {
		if g != 4.0 {
			t.Errorf("input grad[%d] = %f, want 4", i, g)
		}
	}

	t.Log("SUCCESS: Upsample2D integrates correctly with autodiff")
}

// TestUpsample2D_PairsWithAvgPool tests the decoder/encoder inverse pair.
func TestUpsample2D_PairsWithAvgPool(t *testing.T) {
	backend := cpu.New()

	up := NewUpsample2D(2, backend)
	pool := NewAvgPool2D(2, 2, backend)

	input, _ := tensor.FromSlice[float32](
		[]float32{1, 2, 3, 4},
		tensor.Shape{1, 1, 2, 2},
		backend,
	)

	// Upsample then pool recovers the original exactly: each window holds
	// four copies of one source value
	roundTrip := pool.Forward(up.Forward(input))

	if !roundTrip.Shape().Equal(input.Shape()) {
		t.Fatalf("Round trip shape %v != input shape %v", roundTrip.Shape(), input.Shape())
	}
	for i, v := range input.Data() {
		if roundTrip.Data()[i] != v {
			t.Errorf("roundTrip[%d] = %f, want %f", i, roundTrip.Data()[i], v)
		}
	}
}

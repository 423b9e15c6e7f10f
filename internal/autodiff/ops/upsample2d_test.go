package ops

import (
	"testing"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// TestUpsample2DOp_BackwardGradients tests Upsample2D backward pass gradients.
func TestUpsample2DOp_BackwardGradients(t *testing.T) {
	backend := tensor.NewMockBackend()

	// Input: [1, 1, 2, 2]
	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	copy(input.AsFloat32(), []float32{1, 2, 3, 4})

	// Forward with scale=2 -> [1, 1, 4, 4]
	output := backend.Upsample2D(input, 2)

	// Create operation
	op := NewUpsample2DOp(input, output, 2)

	// Output gradient: sequential values
	outputGrad, _ := tensor.NewRaw(output.Shape(), tensor.Float32, tensor.CPU)
	outputGradData := outputGrad.AsFloat32()
	for i := 0; i < 16; i++ {
		outputGradData[i] = float32(i + 1)
	}

	// Backward
	grads := op.Backward(outputGrad, backend)

	// Check we got 1 gradient (input only, no learnable parameters)
	if len(grads) != 1 {
		t.Fatalf("Expected 1 gradient, got %d", len(grads))
	}

	inputGrad := grads[0]

	// Verify shape
	if !inputGrad.Shape().Equal(input.Shape()) {
		t.Errorf("inputGrad shape %v != input shape %v", inputGrad.Shape(), input.Shape())
	}

	// Each input position receives the sum over its 2x2 replica block:
	// grad [[1,2,3,4],        top-left:     1+2+5+6   = 14
	//       [5,6,7,8],        top-right:    3+4+7+8   = 22
	//       [9,10,11,12],     bottom-left:  9+10+13+14 = 46
	//       [13,14,15,16]]    bottom-right: 11+12+15+16 = 54
	expected := []float32{14, 22, 46, 54}

	inputGradData := inputGrad.AsFloat32()
	for i, want := range expected {
		if inputGradData[i] != want {
			t.Errorf("inputGrad[%d]: expected %.1f, got %.1f", i, want, inputGradData[i])
		}
	}

	t.Log("SUCCESS: Upsample2D gradients summed over replica blocks")
}

// TestUpsample2DOp_MultiChannel tests Upsample2D backward with multiple channels.
func TestUpsample2DOp_MultiChannel(t *testing.T) {
	backend := tensor.NewMockBackend()

	// Input: [1, 2, 1, 1]
	input, _ := tensor.NewRaw(tensor.Shape{1, 2, 1, 1}, tensor.Float32, tensor.CPU)
	copy(input.AsFloat32(), []float32{5, 7})

	// Forward with scale=2 -> [1, 2, 2, 2]
	output := backend.Upsample2D(input, 2)

	op := NewUpsample2DOp(input, output, 2)

	// Per-channel output gradients
	outputGrad, _ := tensor.NewRaw(output.Shape(), tensor.Float32, tensor.CPU)
	copy(outputGrad.AsFloat32(), []float32{
		1, 1, 1, 1, // channel 0
		2, 2, 2, 2, // channel 1
	})

	grads := op.Backward(outputGrad, backend)
	inputGrad := grads[0].AsFloat32()

	// Channel 0 sums to 4, channel 1 sums to 8
	if inputGrad[0] != 4.0 {
		t.Errorf("inputGrad[0]: expected 4.0, got %.1f", inputGrad[0])
	}
	if inputGrad[1] != 8.0 {
		t.Errorf("inputGrad[1]: expected 8.0, got %.1f", inputGrad[1])
	}
}

// TestUpsample2DOp_Float64 tests Upsample2D backward with float64.
func TestUpsample2DOp_Float64(t *testing.T) {
	backend := tensor.NewMockBackend()

	// Input: [1, 1, 1, 1], scale=3 -> nine replicas
	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 1, 1}, tensor.Float64, tensor.CPU)
	input.AsFloat64()[0] = 1.0

	output := backend.Upsample2D(input, 3)
	op := NewUpsample2DOp(input, output, 3)

	outputGrad, _ := tensor.NewRaw(output.Shape(), tensor.Float64, tensor.CPU)
	outputGradData := outputGrad.AsFloat64()
	for i := range outputGradData {
		outputGradData[i] = 0.5
	}

	grads := op.Backward(outputGrad, backend)

	// Nine replicas of 0.5 sum to 4.5
	if got := grads[0].AsFloat64()[0]; got != 4.5 {
		t.Errorf("inputGrad[0]: expected 4.5, got %v", got)
	}
}

// TestUpsample2DOp_InputsOutput tests the Operation interface accessors.
func TestUpsample2DOp_InputsOutput(t *testing.T) {
	backend := tensor.NewMockBackend()

	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	output := backend.Upsample2D(input, 2)

	op := NewUpsample2DOp(input, output, 2)

	if len(op.Inputs()) != 1 || op.Inputs()[0] != input {
		t.Error("Inputs() should return [input]")
	}
	if op.Output() != output {
		t.Error("Output() should return the upsampled tensor")
	}
}

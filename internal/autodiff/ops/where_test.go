package ops

import (
	"testing"

	"github.com/retouch-ml/retouch/internal/backend/cpu"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// TestWhereOp_Backward tests that gradients route by condition.
func TestWhereOp_Backward(t *testing.T) {
	backend := cpu.New()

	condition, _ := tensor.NewRaw(tensor.Shape{4}, tensor.Bool, backend.Device())
	condData := condition.AsBool()
	condData[0] = true
	condData[1] = false
	condData[2] = true
	condData[3] = false

	x, _ := tensor.NewRaw(tensor.Shape{4}, tensor.Float32, backend.Device())
	copy(x.AsFloat32(), []float32{1, 2, 3, 4})

	y, _ := tensor.NewRaw(tensor.Shape{4}, tensor.Float32, backend.Device())
	copy(y.AsFloat32(), []float32{10, 20, 30, 40})

	output := backend.Where(condition, x, y)

	// Forward sanity: [1, 20, 3, 40]
	expectedOut := []float32{1, 20, 3, 40}
	outData := output.AsFloat32()
	for i, want := range expectedOut {
		if outData[i] != want {
			t.Fatalf("output[%d]: expected %v, got %v", i, want, outData[i])
		}
	}

	op := NewWhereOp(condition, x, y, output)

	outputGrad, _ := tensor.NewRaw(tensor.Shape{4}, tensor.Float32, backend.Device())
	copy(outputGrad.AsFloat32(), []float32{1, 2, 3, 4})

	grads := op.Backward(outputGrad, backend)

	if len(grads) != 2 {
		t.Fatalf("Expected 2 gradients (x and y), got %d", len(grads))
	}

	// Gradient flows to x where condition is true, to y where false
	expectedGradX := []float32{1, 0, 3, 0}
	expectedGradY := []float32{0, 2, 0, 4}

	gradXData := grads[0].AsFloat32()
	gradYData := grads[1].AsFloat32()
	for i := range expectedGradX {
		if gradXData[i] != expectedGradX[i] {
			t.Errorf("grad_x[%d]: expected %v, got %v", i, expectedGradX[i], gradXData[i])
		}
		if gradYData[i] != expectedGradY[i] {
			t.Errorf("grad_y[%d]: expected %v, got %v", i, expectedGradY[i], gradYData[i])
		}
	}
}

// TestWhereOp_Inputs tests that the boolean condition carries no gradient.
func TestWhereOp_Inputs(t *testing.T) {
	condition, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Bool, tensor.CPU)
	x, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, tensor.CPU)
	y, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, tensor.CPU)
	output, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, tensor.CPU)

	op := NewWhereOp(condition, x, y, output)

	inputs := op.Inputs()
	if len(inputs) != 2 {
		t.Fatalf("Expected 2 differentiable inputs, got %d", len(inputs))
	}
	if inputs[0] != x || inputs[1] != y {
		t.Error("Inputs() should return [x, y]")
	}
	if op.Output() != output {
		t.Error("Output() should return the selected tensor")
	}
}

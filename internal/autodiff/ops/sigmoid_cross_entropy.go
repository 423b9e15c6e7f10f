package ops

import (
	"math"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// SigmoidCrossEntropyOp records a fused sigmoid cross-entropy loss
// (binary cross-entropy on logits), mean-reduced to a scalar.
//
// Forward (per element, computed by the backend):
//
//	loss_i = max(x_i, 0) - x_i*z_i + log(1 + exp(-|x_i|))
//	output = mean(loss_i)
//
// This is the numerically stable form: it never exponentiates a positive
// argument, so large logits of either sign cannot overflow.
//
// Fusing the sigmoid into the loss also gives a well-conditioned gradient:
//
//	∂L/∂x_i = (sigmoid(x_i) - z_i) / N
//
// computed directly from the logits instead of backpropagating through a
// saturated sigmoid output.
//
// Shape requirements:
//   - Logits and targets: same shape
//   - Output: scalar (mean over all elements)
type SigmoidCrossEntropyOp struct {
	logits  *tensor.RawTensor // Raw scores (pre-sigmoid)
	targets *tensor.RawTensor // Labels in [0, 1], same shape as logits
	output  *tensor.RawTensor // Scalar loss output
}

// NewSigmoidCrossEntropyOp creates a new sigmoid cross-entropy operation.
func NewSigmoidCrossEntropyOp(logits, targets, output *tensor.RawTensor) *SigmoidCrossEntropyOp {
	return &SigmoidCrossEntropyOp{
		logits:  logits,
		targets: targets,
		output:  output,
	}
}

// Inputs returns the input tensors.
//
// Targets are labels, not parameters, so only logits receive gradient.
func (op *SigmoidCrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

// Output returns the output tensor.
func (op *SigmoidCrossEntropyOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the gradient with respect to logits.
//
// Gradient formula:
//
//	∂L/∂x_i = (sigmoid(x_i) - z_i) / N
//
// The division by N reflects the mean reduction in the forward pass.
func (op *SigmoidCrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	logitsGrad, err := tensor.NewRaw(op.logits.Shape(), op.logits.DType(), op.logits.Device())
	if err != nil {
		panic(err)
	}

	n := op.logits.NumElements()

	switch op.logits.DType() {
	case tensor.Float32:
		computeSigmoidCrossEntropyGradFloat32(
			op.logits.AsFloat32(),
			op.targets.AsFloat32(),
			outputGrad.AsFloat32(),
			logitsGrad.AsFloat32(),
			n,
		)

	case tensor.Float64:
		computeSigmoidCrossEntropyGradFloat64(
			op.logits.AsFloat64(),
			op.targets.AsFloat64(),
			outputGrad.AsFloat64(),
			logitsGrad.AsFloat64(),
			n,
		)

	default:
		panic("SigmoidCrossEntropyOp: backward only supports float32 and float64")
	}

	return []*tensor.RawTensor{logitsGrad}
}

// computeSigmoidCrossEntropyGradFloat32 computes gradients for float32 logits.
func computeSigmoidCrossEntropyGradFloat32(
	logitsData, targetsData, outGradData, gradData []float32,
	n int,
) {
	gradScale := outGradData[0] / float32(n)

	for i, x := range logitsData {
		sig := float32(1.0 / (1.0 + math.Exp(float64(-x))))
		gradData[i] = (sig - targetsData[i]) * gradScale
	}
}

// computeSigmoidCrossEntropyGradFloat64 computes gradients for float64 logits.
func computeSigmoidCrossEntropyGradFloat64(
	logitsData, targetsData, outGradData, gradData []float64,
	n int,
) {
	gradScale := outGradData[0] / float64(n)

	for i, x := range logitsData {
		sig := 1.0 / (1.0 + math.Exp(-x))
		gradData[i] = (sig - targetsData[i]) * gradScale
	}
}

package autodiff

import (
	"fmt"
	"math"

	"github.com/retouch-ml/retouch/internal/autodiff/ops"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Activation functions and fused losses are capability methods: they are not
// part of tensor.Backend, and the nn package discovers them by type
// assertion. They are computed here directly rather than delegated, so plain
// compute backends stay small.

// ReLU applies ReLU activation and records the operation.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	// Forward pass: max(0, x)
	result, err := tensor.NewRaw(x.Shape(), x.DType(), b.Device())
	if err != nil {
		panic(err)
	}

	switch x.DType() {
	case tensor.Float32:
		xData := x.AsFloat32()
		resData := result.AsFloat32()
		for i, val := range xData {
			if val > 0 {
				resData[i] = val
			} else {
				resData[i] = 0
			}
		}

	case tensor.Float64:
		xData := x.AsFloat64()
		resData := result.AsFloat64()
		for i, val := range xData {
			if val > 0 {
				resData[i] = val
			} else {
				resData[i] = 0
			}
		}

	default:
		panic(fmt.Sprintf("ReLU: unsupported dtype %s", x.DType()))
	}

	if b.tape.IsRecording() {
		op := ops.NewReLUOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// LeakyReLU applies leaky ReLU activation and records the operation.
//
// Forward:
//
//	f(x) = x         if x > 0
//	f(x) = alpha * x otherwise
//
// Discriminators use this in place of ReLU so that gradients keep flowing
// through inactive units.
func (b *AutodiffBackend[B]) LeakyReLU(x *tensor.RawTensor, alpha float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), b.Device())
	if err != nil {
		panic(err)
	}

	switch x.DType() {
	case tensor.Float32:
		xData := x.AsFloat32()
		resData := result.AsFloat32()
		a := float32(alpha)
		for i, val := range xData {
			if val > 0 {
				resData[i] = val
			} else {
				resData[i] = a * val
			}
		}

	case tensor.Float64:
		xData := x.AsFloat64()
		resData := result.AsFloat64()
		for i, val := range xData {
			if val > 0 {
				resData[i] = val
			} else {
				resData[i] = alpha * val
			}
		}

	default:
		panic(fmt.Sprintf("LeakyReLU: unsupported dtype %s", x.DType()))
	}

	if b.tape.IsRecording() {
		op := ops.NewLeakyReLUOp(x, result, alpha)
		b.tape.Record(op)
	}

	return result
}

// Sigmoid applies sigmoid activation: σ(x) = 1 / (1 + exp(-x)).
func (b *AutodiffBackend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), b.Device())
	if err != nil {
		panic(err)
	}

	switch x.DType() {
	case tensor.Float32:
		xData := x.AsFloat32()
		resData := result.AsFloat32()
		for i, val := range xData {
			resData[i] = float32(1.0 / (1.0 + math.Exp(float64(-val))))
		}

	case tensor.Float64:
		xData := x.AsFloat64()
		resData := result.AsFloat64()
		for i, val := range xData {
			resData[i] = 1.0 / (1.0 + math.Exp(-val))
		}

	default:
		panic(fmt.Sprintf("Sigmoid: unsupported dtype %s", x.DType()))
	}

	if b.tape.IsRecording() {
		op := ops.NewSigmoidOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// Tanh applies hyperbolic tangent activation.
func (b *AutodiffBackend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), b.Device())
	if err != nil {
		panic(err)
	}

	switch x.DType() {
	case tensor.Float32:
		xData := x.AsFloat32()
		resData := result.AsFloat32()
		for i, val := range xData {
			resData[i] = float32(math.Tanh(float64(val)))
		}

	case tensor.Float64:
		xData := x.AsFloat64()
		resData := result.AsFloat64()
		for i, val := range xData {
			resData[i] = math.Tanh(val)
		}

	default:
		panic(fmt.Sprintf("Tanh: unsupported dtype %s", x.DType()))
	}

	if b.tape.IsRecording() {
		op := ops.NewTanhOp(x, result)
		b.tape.Record(op)
	}

	return result
}

// SigmoidCrossEntropy computes the fused sigmoid cross-entropy loss
// (binary cross-entropy on logits), mean-reduced to a scalar.
//
// Forward (per element):
//
//	loss_i = max(x_i, 0) - x_i*z_i + log(1 + exp(-|x_i|))
//
// This form never exponentiates a positive argument, so it is stable for
// logits of any magnitude. Both GAN losses go through here: the
// discriminator loss with real/fake labels and the generator's adversarial
// loss with the labels flipped.
//
// Parameters:
//   - logits: raw scores (pre-sigmoid), any shape
//   - targets: labels in [0, 1], same shape and dtype as logits
//
// Returns a scalar loss (mean over all elements).
func (b *AutodiffBackend[B]) SigmoidCrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	if !logits.Shape().Equal(targets.Shape()) {
		panic(fmt.Sprintf("SigmoidCrossEntropy: logits shape %v != targets shape %v",
			logits.Shape(), targets.Shape()))
	}
	defer logits.ForceNonUnique()()
	// Note: targets doesn't need ForceNonUnique() as it's not differentiated

	result, err := tensor.NewRaw(tensor.Shape{}, logits.DType(), b.Device())
	if err != nil {
		panic(err)
	}

	switch logits.DType() {
	case tensor.Float32:
		xData := logits.AsFloat32()
		zData := targets.AsFloat32()
		var sum float64
		for i, x := range xData {
			sum += stableBCE(float64(x), float64(zData[i]))
		}
		result.AsFloat32()[0] = float32(sum / float64(len(xData)))

	case tensor.Float64:
		xData := logits.AsFloat64()
		zData := targets.AsFloat64()
		var sum float64
		for i, x := range xData {
			sum += stableBCE(x, zData[i])
		}
		result.AsFloat64()[0] = sum / float64(len(xData))

	default:
		panic(fmt.Sprintf("SigmoidCrossEntropy: unsupported dtype %s", logits.DType()))
	}

	if b.tape.IsRecording() {
		op := ops.NewSigmoidCrossEntropyOp(logits, targets, result)
		b.tape.Record(op)
	}

	return result
}

// stableBCE computes max(x, 0) - x*z + log(1 + exp(-|x|)).
func stableBCE(x, z float64) float64 {
	loss := -x * z
	if x > 0 {
		loss += x
	}
	return loss + math.Log1p(math.Exp(-math.Abs(x)))
}

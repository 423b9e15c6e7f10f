package nn

import (
	"fmt"
	"math"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// BatchNorm2d applies batch normalization over a 4D input [N, C, H, W].
//
// Formula: Y = gamma * (X - mean) / sqrt(var + eps) + beta
//
// In training mode, mean and variance are computed per channel over the
// batch and spatial dimensions {N, H, W}, and the layer keeps exponential
// moving averages of them. In eval mode, those running statistics are used
// instead, so single images normalize the same way regardless of what else
// is in the batch.
//
// The batch statistics are composed from differentiable tensor ops, so
// gradients flow through the normalization itself. The running statistics
// are updated from raw values outside the gradient tape.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	bn := nn.NewBatchNorm2d[AutodiffBackend](24, 1e-5, 0.1, backend)
//	output := bn.Forward(features) // [N, 24, H, W] -> [N, 24, H, W]
type BatchNorm2d[B tensor.Backend] struct {
	Gamma    *Parameter[B] // learnable scale [C]
	Beta     *Parameter[B] // learnable shift [C]
	Epsilon  float32       // numerical stability constant
	Momentum float32       // running statistics update rate

	runningMean *tensor.Tensor[float32, B] // [C], tracked outside the tape
	runningVar  *tensor.Tensor[float32, B] // [C], tracked outside the tape

	numFeatures int
	training    bool
	backend     B
}

// NewBatchNorm2d creates a new BatchNorm2d layer.
//
// Parameters:
//   - numFeatures: number of channels C
//   - epsilon: small constant for numerical stability (typically 1e-5)
//   - momentum: running statistics update rate (typically 0.1)
//   - backend: computation backend
//
// Gamma is initialized to ones, beta to zeros, running mean to zeros and
// running variance to ones. The layer starts in training mode.
func NewBatchNorm2d[B tensor.Backend](numFeatures int, epsilon, momentum float32, backend B) *BatchNorm2d[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("batchnorm2d: invalid feature count %d", numFeatures))
	}

	gamma := tensor.Ones[float32](tensor.Shape{numFeatures}, backend)
	beta := tensor.Zeros[float32](tensor.Shape{numFeatures}, backend)

	return &BatchNorm2d[B]{
		Gamma:       NewParameter("gamma", gamma),
		Beta:        NewParameter("beta", beta),
		Epsilon:     epsilon,
		Momentum:    momentum,
		runningMean: tensor.Zeros[float32](tensor.Shape{numFeatures}, backend),
		runningVar:  tensor.Ones[float32](tensor.Shape{numFeatures}, backend),
		numFeatures: numFeatures,
		training:    true,
		backend:     backend,
	}
}

// SetTraining switches between training mode (batch statistics) and eval
// mode (running statistics).
func (b *BatchNorm2d[B]) SetTraining(training bool) {
	b.training = training
}

// Training reports whether the layer is in training mode.
func (b *BatchNorm2d[B]) Training() bool {
	return b.training
}

// NumFeatures returns the number of channels.
func (b *BatchNorm2d[B]) NumFeatures() int {
	return b.numFeatures
}

// Forward applies batch normalization to a [N, C, H, W] input.
func (b *BatchNorm2d[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := x.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("batchnorm2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if inputShape[1] != b.numFeatures {
		panic(fmt.Sprintf("batchnorm2d: input channels %d != expected %d", inputShape[1], b.numFeatures))
	}

	if b.training {
		return b.forwardTrain(x)
	}
	return b.forwardEval(x)
}

// forwardTrain normalizes with batch statistics and updates running stats.
func (b *BatchNorm2d[B]) forwardTrain(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// Per-channel mean over {N, H, W}, kept at [1, C, 1, 1] for broadcasting
	mean := x.MeanDim(0, true).MeanDim(2, true).MeanDim(3, true)

	// Center: x - mean
	xCentered := x.Sub(mean)

	// Per-channel variance: mean((x - mean)²) over {N, H, W}
	variance := xCentered.Mul(xCentered).MeanDim(0, true).MeanDim(2, true).MeanDim(3, true)

	// Track running statistics from the raw batch values, outside the tape
	b.updateRunningStats(mean.Raw().AsFloat32(), variance.Raw().AsFloat32())

	// Normalize: (x - mean) * rsqrt(var + eps)
	epsTensor := tensor.Full[float32](variance.Shape(), b.Epsilon, b.backend)
	xNorm := xCentered.Mul(variance.Add(epsTensor).Rsqrt())

	return b.scaleShift(xNorm)
}

// forwardEval normalizes with the running statistics.
//
// The per-channel inverse stddev is computed directly from the stored raw
// values, so nothing here feeds back into the running buffers.
func (b *BatchNorm2d[B]) forwardEval(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := tensor.Shape{1, b.numFeatures, 1, 1}

	meanRaw, err := tensor.NewRaw(shape, tensor.Float32, b.backend.Device())
	if err != nil {
		panic(err)
	}
	copy(meanRaw.AsFloat32(), b.runningMean.Data())

	invStdRaw, err := tensor.NewRaw(shape, tensor.Float32, b.backend.Device())
	if err != nil {
		panic(err)
	}
	invStd := invStdRaw.AsFloat32()
	for i, v := range b.runningVar.Data() {
		invStd[i] = float32(1.0 / math.Sqrt(float64(v)+float64(b.Epsilon)))
	}

	mean := tensor.New[float32, B](meanRaw, b.backend)
	xNorm := x.Sub(mean).Mul(tensor.New[float32, B](invStdRaw, b.backend))

	return b.scaleShift(xNorm)
}

// scaleShift applies gamma * xNorm + beta with [1, C, 1, 1] broadcasting.
func (b *BatchNorm2d[B]) scaleShift(xNorm *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	gamma := b.Gamma.Tensor().Reshape(1, b.numFeatures, 1, 1)
	beta := b.Beta.Tensor().Reshape(1, b.numFeatures, 1, 1)

	return xNorm.Mul(gamma).Add(beta)
}

// updateRunningStats folds the batch statistics into the running averages:
// running = (1 - momentum) * running + momentum * batch.
func (b *BatchNorm2d[B]) updateRunningStats(batchMean, batchVar []float32) {
	rm := b.runningMean.Data()
	rv := b.runningVar.Data()
	for i := range rm {
		rm[i] = (1-b.Momentum)*rm[i] + b.Momentum*batchMean[i]
		rv[i] = (1-b.Momentum)*rv[i] + b.Momentum*batchVar[i]
	}
}

// RunningMean returns the running per-channel mean.
func (b *BatchNorm2d[B]) RunningMean() *tensor.Tensor[float32, B] {
	return b.runningMean
}

// RunningVar returns the running per-channel variance.
func (b *BatchNorm2d[B]) RunningVar() *tensor.Tensor[float32, B] {
	return b.runningVar
}

// Parameters returns the learnable parameters (gamma and beta).
//
// The running statistics are not parameters: they are tracked, not trained.
func (b *BatchNorm2d[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{b.Gamma, b.Beta}
}

// StateDict returns gamma, beta and the running statistics.
func (b *BatchNorm2d[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"gamma":        b.Gamma.Tensor().Raw(),
		"beta":         b.Beta.Tensor().Raw(),
		"running_mean": b.runningMean.Raw(),
		"running_var":  b.runningVar.Raw(),
	}
}

// LoadStateDict loads gamma, beta and the running statistics.
func (b *BatchNorm2d[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	expected := tensor.Shape{b.numFeatures}

	load := func(name string, dst []float32) error {
		raw, ok := stateDict[name]
		if !ok {
			return fmt.Errorf("missing %s in state dict", name)
		}
		if !raw.Shape().Equal(expected) {
			return fmt.Errorf("%s shape mismatch: expected %v, got %v", name, expected, raw.Shape())
		}
		if raw.DType() != tensor.Float32 {
			return fmt.Errorf("%s dtype mismatch: expected float32, got %v", name, raw.DType())
		}
		copy(dst, raw.AsFloat32())
		return nil
	}

	if err := load("gamma", b.Gamma.Tensor().Data()); err != nil {
		return err
	}
	if err := load("beta", b.Beta.Tensor().Data()); err != nil {
		return err
	}
	if err := load("running_mean", b.runningMean.Data()); err != nil {
		return err
	}
	return load("running_var", b.runningVar.Data())
}

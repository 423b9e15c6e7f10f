package model

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// InstanceNoise samples noise to add to both discriminator inputs.
//
// Blurring real and fake images with the same noise distribution keeps the
// two distributions overlapping early in training, when the discriminator
// would otherwise separate them perfectly and stop providing a gradient.
// See http://www.inference.vc/instance-noise-a-trick-for-stabilising-gan-training/
//
// Values are drawn from a truncated normal (samples beyond two standard
// deviations are redrawn) with mean 0 and stddev 0.2*annealing, so the
// noise fades out as training progresses. At annealing 0 the result is all
// zeros. The returned tensor is a constant: it is created off the tape and
// carries no gradient.
func InstanceNoise[B tensor.Backend](shape tensor.Shape, annealing float64, backend B) *tensor.Tensor[float32, B] {
	stddev := 0.2 * annealing
	if stddev <= 0 {
		return tensor.Zeros[float32](shape, backend)
	}

	dist := distuv.Normal{Mu: 0, Sigma: stddev}

	raw, err := tensor.NewRaw(shape, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}

	data := raw.AsFloat32()
	for i := range data {
		v := dist.Rand()
		for math.Abs(v) > 2*stddev {
			v = dist.Rand()
		}
		data[i] = float32(v)
	}

	return tensor.New[float32, B](raw, backend)
}

package model

import (
	"github.com/retouch-ml/retouch/internal/nn"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// BlendFactor returns the pixel-loss blend for the given annealing factor:
// PixelLossMin + (PixelLossMax-PixelLossMin)*annealing.
//
// At annealing 1.0 (training start) the blend sits at PixelLossMax, so the
// generator is guided mostly by the pixel term while the discriminator is
// still uninformed; as annealing decays the adversarial term takes over.
func BlendFactor(cfg Config, annealing float64) float64 {
	return cfg.PixelLossMin + (cfg.PixelLossMax-cfg.PixelLossMin)*annealing
}

// LearningRate returns the annealed Adam learning rate,
// max(LearningRateStart*annealing, LearningRateFloor).
func LearningRate(cfg Config, annealing float64) float32 {
	lr := cfg.LearningRateStart * annealing
	if lr < LearningRateFloor {
		lr = LearningRateFloor
	}
	return float32(lr)
}

// GeneratorLoss scores the generator output.
//
// The adversarial term asks whether the discriminator was fooled: sigmoid
// cross-entropy of the fake logits against all-ones targets. The pixel
// term asks whether the output still resembles the source: both images are
// box-downscaled by cfg.DownscaleFactor and compared with mean absolute
// difference, so identity is enforced at coarse scale while fine detail is
// left to the adversarial game.
//
// The two terms are blended with p = BlendFactor(cfg, annealing):
//
//	loss = (1-p)*adversarial + p*pixel
//
// Returns the combined loss plus both components for logging. All three
// are scalar tensors on the same tape as the inputs.
func GeneratorLoss[B tensor.Backend](
	source, geneOutput *tensor.Tensor[float32, B],
	discFakeLogits *tensor.Tensor[float32, B],
	annealing float64,
	cfg Config,
) (loss, adversarial, pixel *tensor.Tensor[float32, B]) {
	backend := geneOutput.Backend()
	bce := nn.NewBCEWithLogitsLoss[B]()

	// Did we fool the discriminator?
	ones := tensor.Ones[float32](discFakeLogits.Shape(), backend)
	adversarial = bce.Forward(discFakeLogits, ones)

	// Does the result still look like the source?
	downOut := Downscale(geneOutput, cfg.DownscaleFactor)
	downSrc := Downscale(source, cfg.DownscaleFactor)
	pixel = downOut.Sub(downSrc).Abs().Mean()

	p := float32(BlendFactor(cfg, annealing))
	loss = adversarial.MulScalar(1 - p).Add(pixel.MulScalar(p))

	return loss, adversarial, pixel
}

// DiscriminatorLoss scores the discriminator.
//
// Real logits are pushed toward 1 and fake logits toward 0 with sigmoid
// cross-entropy. Returns the summed loss plus both components for logging.
func DiscriminatorLoss[B tensor.Backend](
	discRealLogits, discFakeLogits *tensor.Tensor[float32, B],
) (loss, realLoss, fakeLoss *tensor.Tensor[float32, B]) {
	backend := discRealLogits.Backend()
	bce := nn.NewBCEWithLogitsLoss[B]()

	ones := tensor.Ones[float32](discRealLogits.Shape(), backend)
	zeros := tensor.Zeros[float32](discFakeLogits.Shape(), backend)

	realLoss = bce.Forward(discRealLogits, ones)
	fakeLoss = bce.Forward(discFakeLogits, zeros)
	loss = realLoss.Add(fakeLoss)

	return loss, realLoss, fakeLoss
}

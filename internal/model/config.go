package model

import (
	"fmt"
)

// LearningRateFloor is the lower bound on the annealed learning rate.
//
// The schedule multiplies the starting rate by the annealing factor, which
// decays toward zero over training. The floor keeps late-stage updates from
// vanishing entirely.
const LearningRateFloor = 1e-7

// Config holds the model hyperparameters.
//
// The zero value is not usable; start from DefaultConfig and override
// fields as needed:
//
//	cfg := model.DefaultConfig()
//	cfg.DownscaleFactor = 8
//	if err := cfg.Validate(); err != nil { ... }
type Config struct {
	// DownscaleFactor is the box-average factor K applied to both the
	// generator output and the source image before the pixel loss.
	// Comparing at reduced resolution keeps the pixel term from fighting
	// the adversarial term over fine detail. Must be 2, 4, 8 or 16.
	DownscaleFactor int

	// PixelLossMin and PixelLossMax bound the pixel-loss blend factor.
	// The blend is PixelLossMin + (PixelLossMax-PixelLossMin)*annealing,
	// so training starts pixel-dominated and shifts adversarial as the
	// annealing factor decays.
	PixelLossMin float64
	PixelLossMax float64

	// LearningRateStart is the Adam learning rate at annealing 1.0.
	LearningRateStart float64
}

// DefaultConfig returns the standard training configuration.
func DefaultConfig() Config {
	return Config{
		DownscaleFactor:   4,
		PixelLossMin:      0.25,
		PixelLossMax:      0.90,
		LearningRateStart: 2e-4,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if !ValidDownscaleFactor(c.DownscaleFactor) {
		return fmt.Errorf("model: downscale factor must be 2, 4, 8 or 16, got %d", c.DownscaleFactor)
	}
	if c.PixelLossMin < 0 || c.PixelLossMax > 1 {
		return fmt.Errorf("model: pixel loss blend must stay within [0, 1], got min %g max %g",
			c.PixelLossMin, c.PixelLossMax)
	}
	if c.PixelLossMin > c.PixelLossMax {
		return fmt.Errorf("model: pixel loss min %g exceeds max %g", c.PixelLossMin, c.PixelLossMax)
	}
	if c.LearningRateStart <= 0 {
		return fmt.Errorf("model: learning rate start must be positive, got %g", c.LearningRateStart)
	}
	return nil
}

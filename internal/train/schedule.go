package train

import "math"

// Annealing returns the training progress factor for a step.
//
// The factor starts at 1 and halves every halfLife steps:
//
//	annealing = 0.5^(step/halfLife)
//
// Everything that fades over training hangs off this one scalar: the
// instance-noise stddev, the learning rate and the pixel-loss blend all
// consume it. A halfLife of zero or less disables the decay.
func Annealing(step int, halfLife float64) float64 {
	if halfLife <= 0 {
		return 1
	}
	return math.Pow(0.5, float64(step)/halfLife)
}

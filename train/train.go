// Copyright 2026 Retouch ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train drives adversarial training of the enhancement networks.
//
// A Trainer owns the gradient-tape lifecycle of each step: it runs one
// forward pass, differentiates both losses from it, steps each network's
// Adam optimizer with that network's gradients, and clears the tape.
// Annealing decays from 1 toward 0 over the run and scales the instance
// noise, the pixel-loss blend and the learning rate.
//
// # Basic Usage
//
//	backend := autodiff.New(cpu.New())
//	trainer, err := train.New(train.DefaultConfig(), backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = trainer.Run(batcher.Next)
package train

import (
	"github.com/retouch-ml/retouch/internal/autodiff"
	"github.com/retouch-ml/retouch/internal/tensor"
	"github.com/retouch-ml/retouch/internal/train"
)

// Config holds the run-level training options.
type Config = train.Config

// DefaultConfig returns the default training options.
func DefaultConfig() Config {
	return train.DefaultConfig()
}

// Stats reports the loss components and metrics of one training step.
type Stats = train.Stats

// NextBatch supplies the next source/target batch pair.
type NextBatch[B tensor.Backend] = train.NextBatch[B]

// Trainer runs the adversarial training loop.
type Trainer[B tensor.Backend] = train.Trainer[B]

// New creates a trainer on the given autodiff backend.
func New[B tensor.Backend](cfg Config, backend *autodiff.AutodiffBackend[B]) (*Trainer[B], error) {
	return train.New(cfg, backend)
}

// Annealing returns the half-life decay factor at the given step, starting
// at 1 and halving every halfLife steps. A non-positive halfLife disables
// the decay and holds the factor at 1.
func Annealing(step int, halfLife float64) float64 {
	return train.Annealing(step, halfLife)
}

// DiscriminatorAccuracy is the fraction of real and fake logits the
// discriminator classifies correctly by sign.
func DiscriminatorAccuracy[B tensor.Backend](realLogits, fakeLogits *tensor.Tensor[float32, B]) float64 {
	return train.DiscriminatorAccuracy(realLogits, fakeLogits)
}

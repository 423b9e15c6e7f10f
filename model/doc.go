// Copyright 2026 Retouch ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model assembles the adversarial face-enhancement networks.
//
// The generator upsamples and retouches a source face; the discriminator
// scores images as real or generated. Both are built from residual blocks
// over a forward-trace Net builder, and Build wires them together with
// instance noise, the annealed loss blend and one Adam optimizer per
// network.
//
// # Basic Usage
//
//	backend := autodiff.New(cpu.New())
//	cfg := model.DefaultConfig()
//
//	m, err := model.Build(cfg, backend, source, target, 1.0, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// One training step: losses are already assembled
//	grads := autodiff.Backward(m.GeneLoss, backend)
//	m.GeneOptimizer.Step(grads)
//
// For inference, pass a nil target and read m.GeneOutput.
package model

// Copyright 2026 Retouch ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Conv2D, MaxPool2D, AvgPool2D, Upsample2D, BatchNorm2d, LayerNorm
//   - Activations: ReLU, LeakyReLU, Sigmoid, Tanh
//   - Loss functions: MSELoss, L1Loss, BCEWithLogitsLoss
//   - Utilities: Sequential, Module interface, Parameter, checkpointing
//   - Initialization: Xavier, XavierConv, Zeros, Ones, Randn
//
// # Basic Usage
//
//	import (
//	    "github.com/retouch-ml/retouch/nn"
//	    "github.com/retouch-ml/retouch/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Build a small convolutional stack
//	    model := nn.NewSequential(
//	        nn.NewConv2D(3, 24, 3, 3, 1, 1, true, backend),
//	        nn.NewLeakyReLU[Backend](0.2),
//	        nn.NewAvgPool2D(2, 2, backend),
//	    )
//
//	    // Forward pass
//	    output := model.Forward(input)
//	}
//
// # Layers
//
// Conv2D: 2D convolutional layer with im2col algorithm
//
//	conv := nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
//
// NewConv2DScaled draws weights from a truncated normal whose variance is
// scaled by a factor; residual branches use a tiny factor so they start
// near the identity:
//
//	conv := nn.NewConv2DScaled(64, 64, 3, 1, 1, true, 1e-3, backend)
//
// AvgPool2D and Upsample2D move feature maps down and up the resolution
// pyramid:
//
//	down := nn.NewAvgPool2D(2, 2, backend)
//	up := nn.NewUpsample2D(2, backend)
//
// BatchNorm2d normalizes NCHW maps per channel with running statistics for
// evaluation mode:
//
//	bn := nn.NewBatchNorm2d(24, 1e-5, 0.1, backend)
//
// # Loss Functions
//
// BCEWithLogitsLoss: adversarial real/fake objectives on raw logits
// (numerically stable fused form)
//
//	criterion := nn.NewBCEWithLogitsLoss[Backend]()
//	loss := criterion.Forward(logits, targets)
//
// L1Loss: mean absolute difference, used for pixel losses
//
//	criterion := nn.NewL1Loss[Backend]()
//	loss := criterion.Forward(prediction, reference)
//
// MSELoss: For regression tasks
//
//	criterion := nn.NewMSELoss[Backend]()
//	loss := criterion.Forward(predictions, targets)
//
// # Sequential Models
//
// Build models by composing layers:
//
//	model := nn.NewSequential(
//	    nn.NewConv2D(3, 32, 3, 3, 1, 1, true, backend),
//	    nn.NewReLU[Backend](),
//	    nn.NewConv2D(32, 3, 1, 1, 1, 0, true, backend),
//	)
//
// # Parameter Management
//
// Access model parameters for optimization:
//
//	params := model.Parameters()
//	for _, param := range params {
//	    fmt.Println(param.Name(), param.Tensor().Shape())
//	}
//
// # Checkpointing
//
// SaveCheckpoint and LoadCheckpoint persist a module together with its
// optimizer state, so training runs can resume where they stopped:
//
//	err := nn.SaveCheckpoint("run.retouch", model, optimizer, epoch)
//	ckpt, err := nn.LoadCheckpoint("run.retouch", backend, model, optimizer)
package nn

// Copyright 2026 Retouch ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/retouch-ml/retouch/internal/nn"
	"github.com/retouch-ml/retouch/internal/serialization"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//   - StateDict: Export parameters for serialization
//   - LoadStateDict: Import parameters from serialization
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential(
//	    nn.NewConv2D(3, 24, 3, 3, 1, 1, true, backend),
//	    nn.NewReLU[Backend](),
//	    nn.NewAvgPool2D(2, 2, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] = nn.Module[B]

// Save saves a module to a .retouch file.
//
// This is a convenience function that exports the module's state dictionary
// and writes it to a file using the Retouch native format.
//
// Example:
//
//	backend := cpu.New()
//	model := nn.NewConv2D(3, 24, 3, 3, 1, 1, true, backend)
//	err := nn.Save(model, "model.retouch", "Conv2D", nil)
func Save[B tensor.Backend](module Module[B], path, modelType string, metadata map[string]string) error {
	return nn.Save(module, path, modelType, metadata)
}

// Load loads a module from a .retouch file.
//
// The module must already have the right layer structure; Load fills in the
// weights from the file's state dictionary and returns the file header.
//
// Example:
//
//	backend := cpu.New()
//	model := nn.NewConv2D(3, 24, 3, 3, 1, 1, true, backend)
//	header, err := nn.Load("model.retouch", backend, model)
func Load[B tensor.Backend](path string, backend B, module Module[B]) (serialization.Header, error) {
	return nn.Load(path, backend, module)
}

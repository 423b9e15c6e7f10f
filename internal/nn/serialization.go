package nn

import (
	"github.com/retouch-ml/retouch/internal/serialization"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Save saves a module to a .retouch file.
//
// This is a convenience function that exports the module's state dictionary
// and writes it to a file using the native format.
//
// Parameters:
//   - module: The module to save
//   - path: File path to write to
//   - modelType: Type name of the model (e.g., "Sequential", "Generator")
//   - metadata: Optional metadata (can be nil)
//
// Returns an error if saving fails.
//
// Example:
//
//	backend := cpu.New()
//	model := nn.NewLinear(784, 10, backend)
//	err := nn.Save(model, "model.retouch", "Linear", nil)
func Save[B tensor.Backend](module Module[B], path, modelType string, metadata map[string]string) error {
	stateDict := module.StateDict()

	writer, err := serialization.NewRetouchWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = writer.Close()
	}()

	return writer.WriteStateDict(stateDict, modelType, metadata)
}

// Load loads a module from a .retouch file.
//
// This is a convenience function that reads a state dictionary from a file
// and loads it into the provided module.
//
// Parameters:
//   - path: File path to read from
//   - backend: Backend to use for tensors
//   - module: The module to load into (will be modified)
//
// Returns the header and an error if loading fails.
//
// Example:
//
//	backend := cpu.New()
//	model := nn.NewLinear(784, 10, backend)
//	header, err := nn.Load("model.retouch", backend, model)
func Load[B tensor.Backend](path string, backend B, module Module[B]) (serialization.Header, error) {
	reader, err := serialization.NewRetouchReader(path)
	if err != nil {
		return serialization.Header{}, err
	}
	defer func() {
		_ = reader.Close()
	}()

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return serialization.Header{}, err
	}

	if err := module.LoadStateDict(stateDict); err != nil {
		return serialization.Header{}, err
	}

	return reader.Header(), nil
}

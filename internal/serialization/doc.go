// Package serialization provides native .retouch format for saving and loading Retouch models.
//
// The .retouch format is a simple, efficient binary format designed for the
// enhancement networks and their training state:
//
//	Format Structure (v1):
//	  [4 bytes: Magic "RTCH"]
//	  [4 bytes: Version (uint32 LE)]
//	  [4 bytes: Flags (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON metadata]
//	  [Tensor data: raw bytes, 64-byte aligned]
//
//	Format Structure (v2):
//	  [64 bytes: fixed header with SHA-256 checksum at offset 0x20]
//	  [Header: JSON metadata]
//	  [Tensor data: raw bytes, 64-byte aligned]
//
// The format supports:
//   - Multiple data types (float32, float64, int32, int64, uint8, bool)
//   - Optional half-precision storage of float32 tensors (float16 on disk)
//   - Arbitrary tensor shapes
//   - Checkpoint metadata (run ID, step, annealing factor, optimizer state)
//   - Fast loading with memory mapping (MmapReader)
//   - SafeTensors export for interop with other toolchains
//
// Example usage:
//
//	// Save a model
//	writer, err := serialization.NewRetouchWriter("generator.retouch")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := writer.WriteStateDictV2(model.StateDict(), "Generator", nil); err != nil {
//	    log.Fatal(err)
//	}
//	writer.Close()
//
//	// Load a model
//	reader, err := serialization.NewRetouchReader("generator.retouch")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stateDict, err := reader.ReadStateDict(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model.LoadStateDict(stateDict)
//	reader.Close()
package serialization

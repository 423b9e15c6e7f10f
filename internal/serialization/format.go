package serialization

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/x448/float16"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// Format constants.
const (
	MagicBytes        = "RTCH"
	FormatVersion     = 1    // v1: Basic format without checksum
	FormatVersionV2   = 2    // v2: With SHA-256 checksum
	HeaderAlignment   = 64   // Align tensor data to 64 bytes for optimal performance
	FixedHeaderSizeV2 = 64   // v2 fixed header size (0x40 bytes)
	ChecksumSize      = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffsetV2  = 0x20 // Checksum offset in v2 fixed header
)

// Data type string constants for serialization.
//
// DTypeFloat16 only appears on disk: in-memory tensors are float32 and
// the reader widens half-precision payloads back on load.
const (
	DTypeFloat32 = "float32"
	DTypeFloat16 = "float16"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
	DTypeUint8   = "uint8"
	DTypeBool    = "bool"
)

// Flags for the .retouch format.
const (
	FlagCompressed    uint32 = 1 << 0 // bit 0: gzip compression
	FlagHasOptimizer  uint32 = 1 << 1 // bit 1: optimizer state included
	FlagHasMetadata   uint32 = 1 << 2 // bit 2: custom metadata included
	FlagHalfPrecision uint32 = 1 << 3 // bit 3: float32 tensors stored as float16
)

// Header represents the JSON header in a .retouch file.
type Header struct {
	FormatVersion  int               `json:"format_version"`       // Version of the .retouch format
	RetouchVersion string            `json:"retouch_version"`      // Version of Retouch that created this file
	ModelType      string            `json:"model_type"`           // Type of model (e.g., "Generator", "Discriminator")
	CreatedAt      time.Time         `json:"created_at"`           // When the file was created
	Tensors        []TensorMeta      `json:"tensors"`              // Tensor metadata
	Metadata       map[string]string `json:"metadata"`             // Custom metadata
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"` // Checkpoint metadata (optional)
}

// CheckpointMeta contains training state information for checkpoints.
//
// RunID and Annealing restore the progress-dependent pieces of an
// adversarial run: the noise level, the pixel/adversarial loss mix and
// the learning rate all derive from the annealing factor.
type CheckpointMeta struct {
	IsCheckpoint    bool           `json:"is_checkpoint"`       // Whether this is a checkpoint file
	RunID           string         `json:"run_id,omitempty"`    // Unique identifier of the training run
	Epoch           int            `json:"epoch"`               // Training epoch number
	Step            int64          `json:"step"`                // Training step number
	Annealing       float64        `json:"annealing,omitempty"` // Annealing factor at checkpoint time
	Loss            float64        `json:"loss"`                // Loss value at checkpoint
	OptimizerType   string         `json:"optimizer_type"`      // Optimizer type ("SGD", "Adam", etc.)
	OptimizerConfig map[string]any `json:"optimizer_config"`    // Optimizer hyperparameters
	TrainingMeta    map[string]any `json:"training_meta"`       // Additional training metadata
}

// TensorMeta describes a tensor in the .retouch file.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "encoder.0.weight")
	DType  string `json:"dtype"`  // Data type as stored on disk (e.g., "float32", "float16")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section (bytes from start of tensor data)
	Size   int64  `json:"size"`   // Size in bytes
}

// dtypeToString converts tensor.DataType to string representation.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Int32:
		return DTypeInt32
	case tensor.Int64:
		return DTypeInt64
	case tensor.Uint8:
		return DTypeUint8
	case tensor.Bool:
		return DTypeBool
	default:
		return "unknown"
	}
}

// stringToDtype converts string representation to tensor.DataType.
//
// DTypeFloat16 is absent here on purpose: it has no in-memory
// counterpart and readers must widen it via decodeFloat16.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeInt32:
		return tensor.Int32, true
	case DTypeInt64:
		return tensor.Int64, true
	case DTypeUint8:
		return tensor.Uint8, true
	case DTypeBool:
		return tensor.Bool, true
	default:
		return 0, false
	}
}

// encodeFloat16 narrows float32 values to an IEEE 754 half-precision payload.
func encodeFloat16(src []float32) []byte {
	buf := make([]byte, len(src)*2)
	for i, v := range src {
		binary.LittleEndian.PutUint16(buf[i*2:], float16.Fromfloat32(v).Bits())
	}
	return buf
}

// decodeFloat16 widens a half-precision payload into float32 values.
func decodeFloat16(data []byte, dst []float32) error {
	if len(data) != len(dst)*2 {
		return fmt.Errorf("float16 payload size mismatch: %d bytes for %d elements", len(data), len(dst))
	}
	for i := range dst {
		bits := binary.LittleEndian.Uint16(data[i*2:])
		dst[i] = float16.Frombits(bits).Float32()
	}
	return nil
}

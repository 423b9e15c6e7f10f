package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// SafeTensorsDType represents supported SafeTensors data types.
type SafeTensorsDType string

// Supported SafeTensors dtypes.
const (
	SafeTensorsF16  SafeTensorsDType = "F16"
	SafeTensorsF32  SafeTensorsDType = "F32"
	SafeTensorsF64  SafeTensorsDType = "F64"
	SafeTensorsBF16 SafeTensorsDType = "BF16"
	SafeTensorsI32  SafeTensorsDType = "I32"
	SafeTensorsI64  SafeTensorsDType = "I64"
	SafeTensorsU8   SafeTensorsDType = "U8"
	SafeTensorsBool SafeTensorsDType = "BOOL"
)

// SafeTensorInfo describes a tensor in SafeTensors format.
type SafeTensorInfo struct {
	DType       SafeTensorsDType `json:"dtype"`
	Shape       []int            `json:"shape"`
	DataOffsets [2]int64         `json:"data_offsets"` // [start, end]
}

// SafeTensorsFileHeader is the JSON header in a SafeTensors file.
//
// The header maps tensor names directly to their info, with the
// reserved __metadata__ key holding string metadata, so unmarshaling
// needs a custom split.
type SafeTensorsFileHeader struct {
	Metadata map[string]string         `json:"__metadata__"`
	Tensors  map[string]SafeTensorInfo `json:"-"`
}

// UnmarshalJSON implements custom JSON unmarshaling for SafeTensorsFileHeader.
func (h *SafeTensorsFileHeader) UnmarshalJSON(data []byte) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return err
	}

	if metadataRaw, ok := rawMap["__metadata__"]; ok {
		if err := json.Unmarshal(metadataRaw, &h.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	h.Tensors = make(map[string]SafeTensorInfo)
	for key, value := range rawMap {
		if key == "__metadata__" {
			continue
		}
		var info SafeTensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		h.Tensors[key] = info
	}

	return nil
}

// SafeTensorsReader reads SafeTensors format files.
type SafeTensorsReader struct {
	file       *os.File
	header     SafeTensorsFileHeader
	headerSize uint64
	dataOffset int64 // Offset where tensor data starts
}

// NewSafeTensorsReader creates a new SafeTensors reader.
func NewSafeTensorsReader(path string) (*SafeTensorsReader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	// Read header size (8 bytes, little-endian uint64)
	var headerSize uint64
	if err := binary.Read(file, binary.LittleEndian, &headerSize); err != nil {
		_ = file.Close() // Best effort close on error
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}

	if headerSize > MaxHeaderSize {
		_ = file.Close()
		return nil, ErrHeaderTooLarge
	}

	// Read header JSON
	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(file, headerBytes); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var header SafeTensorsFileHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	dataOffset := int64(8 + headerSize) //nolint:gosec // G115: File offset conversion safe - file size within int64 range.

	return &SafeTensorsReader{
		file:       file,
		header:     header,
		headerSize: headerSize,
		dataOffset: dataOffset,
	}, nil
}

// Close closes the SafeTensors file.
func (r *SafeTensorsReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Metadata returns the metadata map from the header.
func (r *SafeTensorsReader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns a list of all tensor names in the file.
func (r *SafeTensorsReader) TensorNames() []string {
	names := make([]string, 0, len(r.header.Tensors))
	for name := range r.header.Tensors {
		names = append(names, name)
	}
	return names
}

// TensorInfo returns information about a specific tensor.
func (r *SafeTensorsReader) TensorInfo(name string) (*SafeTensorInfo, error) {
	info, ok := r.header.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("tensor %s not found", name)
	}
	return &info, nil
}

// ReadTensorData reads raw tensor data for a given tensor name.
func (r *SafeTensorsReader) ReadTensorData(name string) ([]byte, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	// Calculate absolute offsets
	start := r.dataOffset + info.DataOffsets[0]
	end := r.dataOffset + info.DataOffsets[1]
	size := end - start

	if size < 0 {
		return nil, fmt.Errorf("invalid data offsets for tensor %s: [%d, %d]",
			name, info.DataOffsets[0], info.DataOffsets[1])
	}

	if _, err := r.file.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to tensor data: %w", err)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r.file, data); err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	return data, nil
}

// safeTensorsDTypeToDataType converts a SafeTensors dtype to the in-memory DataType.
func safeTensorsDTypeToDataType(dtype SafeTensorsDType) (tensor.DataType, error) {
	switch dtype {
	case SafeTensorsF32:
		return tensor.Float32, nil
	case SafeTensorsF64:
		return tensor.Float64, nil
	case SafeTensorsI32:
		return tensor.Int32, nil
	case SafeTensorsI64:
		return tensor.Int64, nil
	case SafeTensorsU8:
		return tensor.Uint8, nil
	case SafeTensorsBool:
		return tensor.Bool, nil
	case SafeTensorsF16:
		// Widened to float32 on load
		return tensor.Float32, nil
	case SafeTensorsBF16:
		return 0, fmt.Errorf("dtype %s requires conversion (not directly supported)", dtype)
	default:
		return 0, fmt.Errorf("unsupported dtype: %s", dtype)
	}
}

// LoadTensor loads a tensor from a SafeTensors file.
//
// F16 payloads are widened to float32. BF16 returns an error; callers
// needing it must use ReadTensorData and convert themselves.
func (r *SafeTensorsReader) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	dtype, err := safeTensorsDTypeToDataType(info.DType)
	if err != nil {
		return nil, fmt.Errorf("failed to convert dtype for tensor %s: %w", name, err)
	}

	shape := tensor.Shape(info.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape for tensor %s: %w", name, err)
	}

	data, err := r.ReadTensorData(name)
	if err != nil {
		return nil, err
	}

	raw, err := tensor.NewRaw(shape, dtype, backend.Device())
	if err != nil {
		return nil, fmt.Errorf("failed to create tensor: %w", err)
	}

	if info.DType == SafeTensorsF16 {
		if err := decodeFloat16(data, raw.AsFloat32()); err != nil {
			return nil, fmt.Errorf("failed to decode tensor %s: %w", name, err)
		}
		return raw, nil
	}

	copy(raw.Data(), data)

	return raw, nil
}

// ReadSafeTensors loads every tensor from a SafeTensors file into a state dict.
func ReadSafeTensors(path string, backend tensor.Backend) (map[string]*tensor.RawTensor, map[string]string, error) {
	reader, err := NewSafeTensorsReader(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = reader.Close() // Best effort close
	}()

	stateDict := make(map[string]*tensor.RawTensor)
	for name := range reader.header.Tensors {
		raw, err := reader.LoadTensor(name, backend)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load tensor %s: %w", name, err)
		}
		stateDict[name] = raw
	}

	return stateDict, reader.Metadata(), nil
}

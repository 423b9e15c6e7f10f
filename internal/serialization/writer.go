package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/retouch-ml/retouch/internal/tensor"
)

const retouchVersion = "0.1.0" // Current Retouch version

// RetouchWriter writes models in .retouch format.
type RetouchWriter struct {
	file   *os.File
	half   bool
	closed bool
}

// NewRetouchWriter creates a new .retouch file writer.
func NewRetouchWriter(path string) (*RetouchWriter, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &RetouchWriter{
		file:   file,
		closed: false,
	}, nil
}

// SetHalfPrecision controls on-disk narrowing of float32 tensors.
//
// When enabled, subsequent writes store float32 payloads as IEEE 754
// half-precision, roughly halving checkpoint size. Readers widen them
// back to float32 on load. The narrowing is lossy; keep it off for
// checkpoints you intend to resume training from at full fidelity.
func (w *RetouchWriter) SetHalfPrecision(enabled bool) {
	w.half = enabled
}

// layout is the computed on-disk arrangement of a state dict.
type layout struct {
	order []string
	metas []TensorMeta
	blobs [][]byte
}

// buildLayout assigns offsets and encodes payloads for every tensor.
//
// Iteration order follows Go's map order; metas and blobs stay aligned
// with each other so a single write pass lays the file out correctly.
func buildLayout(stateDict map[string]*tensor.RawTensor, half bool) layout {
	var l layout
	var offset int64

	l.order = make([]string, 0, len(stateDict))
	l.metas = make([]TensorMeta, 0, len(stateDict))
	l.blobs = make([][]byte, 0, len(stateDict))

	for name, raw := range stateDict {
		dtype, data := encodePayload(raw, half)
		size := int64(len(data))

		l.order = append(l.order, name)
		l.blobs = append(l.blobs, data)
		l.metas = append(l.metas, TensorMeta{
			Name:   name,
			DType:  dtype,
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})

		offset += size
	}

	return l
}

// encodePayload serializes one tensor's bytes for the data section.
func encodePayload(raw *tensor.RawTensor, half bool) (string, []byte) {
	if half && raw.DType() == tensor.Float32 {
		return DTypeFloat16, encodeFloat16(raw.AsFloat32())
	}
	return dtypeToString(raw.DType()), raw.Data()
}

// finalizeHeader stamps version fields and tensor metadata, then marshals.
func finalizeHeader(header *Header, formatVersion int, l layout) ([]byte, error) {
	header.FormatVersion = formatVersion
	header.RetouchVersion = retouchVersion
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	header.Tensors = l.metas
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}
	return headerJSON, nil
}

// headerFlags derives the flags bitfield from header content.
func headerFlags(header *Header, half bool) uint32 {
	var flags uint32
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.CheckpointMeta != nil && header.CheckpointMeta.IsCheckpoint {
		flags |= FlagHasOptimizer
	}
	if half {
		flags |= FlagHalfPrecision
	}
	return flags
}

// writeFrameV1 emits the v1 frame: magic, version, flags, header size,
// header JSON, alignment padding, then the tensor data section.
func writeFrameV1(dst io.Writer, flags uint32, headerJSON []byte, l layout) error {
	if _, err := dst.Write([]byte(MagicBytes)); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(dst, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	if err := binary.Write(dst, binary.LittleEndian, flags); err != nil {
		return fmt.Errorf("failed to write flags: %w", err)
	}

	headerSize := uint64(len(headerJSON))
	if err := binary.Write(dst, binary.LittleEndian, headerSize); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := dst.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// Align tensor data to HeaderAlignment
	//nolint:gosec // G115: headerSize is small (< 100MB max), conversion is safe
	currentPos := int64(4+4+4+8) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	if padding > 0 {
		if _, err := dst.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	for i, blob := range l.blobs {
		if _, err := dst.Write(blob); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", l.order[i], err)
		}
	}

	return nil
}

// writeFrameV2 emits the v2 frame: 64-byte fixed header carrying a
// SHA-256 checksum of the data section, header JSON, alignment padding,
// then the tensor data section.
func writeFrameV2(dst io.Writer, flags uint32, headerJSON []byte, l layout) error {
	var dataSize int64
	for _, blob := range l.blobs {
		dataSize += int64(len(blob))
	}

	tensorData := make([]byte, 0, dataSize)
	for _, blob := range l.blobs {
		tensorData = append(tensorData, blob...)
	}
	checksum := ComputeChecksum(tensorData)

	headerSize := uint64(len(headerJSON))

	fixedHeader := make([]byte, FixedHeaderSizeV2)
	// 0x00-0x03: magic
	copy(fixedHeader[0:4], MagicBytes)
	// 0x04-0x07: version
	binary.LittleEndian.PutUint32(fixedHeader[4:8], uint32(FormatVersionV2))
	// 0x08-0x0B: flags
	binary.LittleEndian.PutUint32(fixedHeader[8:12], flags)
	// 0x0C-0x0F: reserved, zero from make()
	// 0x10-0x17: header size
	binary.LittleEndian.PutUint64(fixedHeader[16:24], headerSize)
	// 0x18-0x1F: data size
	binary.LittleEndian.PutUint64(fixedHeader[24:32], uint64(dataSize))
	// 0x20-0x3F: SHA-256 checksum
	copy(fixedHeader[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize], checksum[:])

	if _, err := dst.Write(fixedHeader); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := dst.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	// Align tensor data to HeaderAlignment
	//nolint:gosec // G115: headerSize is small (< 100MB max), conversion is safe
	currentPos := int64(FixedHeaderSizeV2) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	if padding > 0 {
		if _, err := dst.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := dst.Write(tensorData); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	return nil
}

// WriteStateDict writes a state dictionary to the .retouch file.
//
// The state dictionary is a map from parameter names to tensors.
// All tensors must be on the same device.
func (w *RetouchWriter) WriteStateDict(stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	header := Header{
		ModelType: modelType,
		Metadata:  metadata,
	}
	return w.WriteStateDictWithHeader(stateDict, header)
}

// WriteStateDictWithHeader writes a state dictionary with custom header to the .retouch file.
//
// This allows setting CheckpointMeta and other custom header fields.
func (w *RetouchWriter) WriteStateDictWithHeader(stateDict map[string]*tensor.RawTensor, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	l := buildLayout(stateDict, w.half)
	headerJSON, err := finalizeHeader(&header, FormatVersion, l)
	if err != nil {
		return err
	}

	return writeFrameV1(w.file, headerFlags(&header, w.half), headerJSON, l)
}

// WriteStateDictV2 writes a state dictionary to the .retouch file using format v2 with SHA-256 checksum.
//
// Format v2 includes:
// - 64-byte fixed header with SHA-256 checksum at offset 0x20
// - Backward compatible: v1 readers will reject, but v2 readers can read v1.
func (w *RetouchWriter) WriteStateDictV2(stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	header := Header{
		ModelType: modelType,
		Metadata:  metadata,
	}
	return w.WriteStateDictWithHeaderV2(stateDict, header)
}

// WriteStateDictWithHeaderV2 writes a state dictionary with custom header to the .retouch file using format v2.
//
// This allows setting CheckpointMeta and other custom header fields.
func (w *RetouchWriter) WriteStateDictWithHeaderV2(stateDict map[string]*tensor.RawTensor, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	l := buildLayout(stateDict, w.half)
	headerJSON, err := finalizeHeader(&header, FormatVersionV2, l)
	if err != nil {
		return err
	}

	return writeFrameV2(w.file, headerFlags(&header, w.half), headerJSON, l)
}

// Close closes the writer and the underlying file.
func (w *RetouchWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteTo writes the state dictionary to an io.Writer.
// This is useful for writing to buffers or network connections.
// Always writes full-precision v1 frames.
func WriteTo(writer io.Writer, stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	header := Header{
		ModelType: modelType,
		Metadata:  metadata,
	}

	l := buildLayout(stateDict, false)
	headerJSON, err := finalizeHeader(&header, FormatVersion, l)
	if err != nil {
		return err
	}

	return writeFrameV1(writer, headerFlags(&header, false), headerJSON, l)
}

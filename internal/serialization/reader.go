package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/born-ml/archbuild/internal/tensor"
)

// SafeTensorsReader provides memory-mapped access to SafeTensors files.
// Only the header is parsed when the file is opened; tensor data is read
// on demand through the OS page cache.
type SafeTensorsReader struct {
	file       *os.File
	data       []byte // mmap'd region (read-only)
	size       int64
	header     Header
	index      map[string]int
	dataOffset int64
	closed     bool
}

// ReaderOptions configures the behavior of SafeTensorsReader.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// ReadSafeTensors loads every tensor of a SafeTensors file as float32.
func ReadSafeTensors(path string) (map[string]*tensor.RawTensor, error) {
	r, err := OpenSafeTensors(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close() // Read-only, nothing to flush
	}()

	return r.ReadStateDict()
}

// OpenSafeTensors opens a SafeTensors file with strict validation.
//
// Important: Always call Close() when done to unmap the file (use defer).
func OpenSafeTensors(path string) (*SafeTensorsReader, error) {
	return OpenSafeTensorsWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// OpenSafeTensorsWithOptions opens a SafeTensors file with custom options.
func OpenSafeTensorsWithOptions(path string, opts ReaderOptions) (*SafeTensorsReader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	data, err := mmapFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	r := &SafeTensorsReader{
		file: file,
		data: data,
		size: stat.Size(),
	}

	if err := r.parseHeader(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if err := ValidateHeader(&r.header, r.size-r.dataOffset, opts.ValidationLevel); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("header validation failed: %w", err)
	}

	if stored, ok := r.header.Metadata[ChecksumKey]; ok && !opts.SkipChecksumValidation {
		if err := ValidateChecksum(r.data[r.dataOffset:], stored); err != nil {
			_ = r.Close()
			return nil, err
		}
	}

	return r, nil
}

// parseHeader reads and parses the JSON header from the mmap'd region.
func (r *SafeTensorsReader) parseHeader() error {
	if r.size < HeaderSizeBytes {
		return fmt.Errorf("%w: file too small: %d bytes", ErrInvalidHeaderSize, r.size)
	}

	headerSize := binary.LittleEndian.Uint64(r.data[:HeaderSizeBytes])
	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	headerEnd := HeaderSizeBytes + int64(headerSize) //nolint:gosec // G115: bounded by MaxHeaderSize
	if headerEnd > r.size {
		return fmt.Errorf("%w: header extends beyond file: header_end=%d, file_size=%d",
			ErrInvalidHeaderSize, headerEnd, r.size)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(r.data[HeaderSizeBytes:headerEnd], &entries); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}

	r.header = Header{Metadata: map[string]string{}}
	for name, raw := range entries {
		if name == MetadataKey {
			if err := json.Unmarshal(raw, &r.header.Metadata); err != nil {
				return fmt.Errorf("failed to parse metadata: %w", err)
			}
			continue
		}

		var entry headerEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("failed to parse tensor %q: %w", name, err)
		}
		shape := make([]int, len(entry.Shape))
		for i, dim := range entry.Shape {
			shape[i] = int(dim)
		}
		r.header.Tensors = append(r.header.Tensors, TensorMeta{
			Name:   name,
			DType:  entry.DType,
			Shape:  shape,
			Offset: entry.DataOffsets[0],
			Size:   entry.DataOffsets[1] - entry.DataOffsets[0],
		})
	}

	sort.Slice(r.header.Tensors, func(i, j int) bool {
		return r.header.Tensors[i].Name < r.header.Tensors[j].Name
	})
	r.index = make(map[string]int, len(r.header.Tensors))
	for i, t := range r.header.Tensors {
		r.index[t.Name] = i
	}

	r.dataOffset = headerEnd
	return nil
}

// Close unmaps and closes the file.
func (r *SafeTensorsReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.data != nil {
		err = munmapFile(r.data)
		r.data = nil
	}

	if closeErr := r.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	return err
}

// Header returns the parsed header.
func (r *SafeTensorsReader) Header() Header {
	return r.header
}

// Metadata returns the "__metadata__" entries of the file.
func (r *SafeTensorsReader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns the tensor names in sorted order.
func (r *SafeTensorsReader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, t := range r.header.Tensors {
		names[i] = t.Name
	}
	return names
}

// TensorInfo returns metadata about a specific tensor.
func (r *SafeTensorsReader) TensorInfo(name string) (*TensorMeta, error) {
	i, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTensorNotFound, name)
	}
	return &r.header.Tensors[i], nil
}

// TensorData returns a zero-copy slice to tensor data.
// The returned slice is valid only while the reader is open and must not
// be modified.
func (r *SafeTensorsReader) TensorData(name string) ([]byte, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}

	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	start := r.dataOffset + meta.Offset
	end := start + meta.Size
	if end > r.size {
		return nil, fmt.Errorf("%w: tensor %q: offset %d + size %d > file_size %d",
			ErrOutOfBounds, name, start, meta.Size, r.size)
	}

	return r.data[start:end], nil
}

// LoadTensor copies a tensor out of the file, converting it to float32.
func (r *SafeTensorsReader) LoadTensor(name string) (*tensor.RawTensor, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}

	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	elemSize, ok := dtypeSize(meta.DType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, meta.DType)
	}

	shape := tensor.Shape(meta.Shape)
	if int64(shape.NumElements()*elemSize) != meta.Size {
		return nil, &ValidationError{
			Type:    "size_mismatch",
			Tensor:  name,
			Details: fmt.Sprintf("shape %v of %s needs %d bytes, header says %d", shape, meta.DType, shape.NumElements()*elemSize, meta.Size),
		}
	}

	raw, err := tensor.NewRaw(shape, tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("failed to create tensor: %w", err)
	}

	data, err := r.TensorData(name)
	if err != nil {
		return nil, err
	}
	if err := decodeFloat32(raw.Data(), data, meta.DType); err != nil {
		return nil, err
	}

	return raw, nil
}

// ReadStateDict reads all tensors into a state dictionary.
func (r *SafeTensorsReader) ReadStateDict() (map[string]*tensor.RawTensor, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}

	stateDict := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		raw, err := r.LoadTensor(meta.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to load tensor %s: %w", meta.Name, err)
		}
		stateDict[meta.Name] = raw
	}

	return stateDict, nil
}

package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/bbsga/internal/tensor"
)

// File is a fully decoded SafeTensors file.
type File struct {
	Metadata map[string]string
	Tensors  map[string]*tensor.Tensor
}

// Names returns the tensor names in alphabetical order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Tensors))
	for name := range f.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tensor returns the named tensor or ErrTensorNotFound.
func (f *File) Tensor(name string) (*tensor.Tensor, error) {
	t, ok := f.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	return t, nil
}

// ReadFile reads and decodes the SafeTensors file at path.
func ReadFile(path string) (*File, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close() // Read-only; close errors carry no information
	}()

	f, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Read decodes a SafeTensors stream. Values of every supported dtype are
// converted to float64.
func Read(r io.Reader) (*File, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if err := ValidateHeader(&header, int64(len(data))); err != nil {
		return nil, err
	}

	f := &File{Metadata: header.Metadata, Tensors: make(map[string]*tensor.Tensor, len(header.Tensors))}
	if f.Metadata == nil {
		f.Metadata = map[string]string{}
	}
	for name, info := range header.Tensors {
		values, err := decode(data[info.DataOffsets[0]:info.DataOffsets[1]], info.DType)
		if err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		t, err := tensor.FromSlice(values, tensor.Shape(info.Shape))
		if err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		f.Tensors[name] = t
	}
	return f, nil
}

package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/bbsga/internal/tensor"
)

// WriteFile writes tensors to path, replacing any existing file.
func WriteFile(path string, tensors map[string]*tensor.Tensor, dtype DType, metadata map[string]string) error {
	//nolint:gosec // G304: output path is chosen by the caller
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	w := bufio.NewWriter(file)
	if err := Write(w, tensors, dtype, metadata); err != nil {
		_ = file.Close() // Best effort close on error
		return err
	}
	if err := w.Flush(); err != nil {
		_ = file.Close() // Best effort close on error
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return file.Close()
}

// Write encodes tensors as a SafeTensors stream. Every tensor is stored
// with the same dtype; tensors are laid out in alphabetical order.
func Write(w io.Writer, tensors map[string]*tensor.Tensor, dtype DType, metadata map[string]string) error {
	size, err := dtype.Size()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{Metadata: metadata, Tensors: make(map[string]TensorInfo, len(names))}
	var offset int64
	for _, name := range names {
		t := tensors[name]
		n := int64(t.NumElements() * size)
		header.Tensors[name] = TensorInfo{
			DType:       dtype,
			Shape:       t.Shape().Clone(),
			DataOffsets: [2]int64{offset, offset + n},
		}
		offset += n
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, name := range names {
		data, err := encode(tensors[name].Data(), dtype)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}
	return nil
}

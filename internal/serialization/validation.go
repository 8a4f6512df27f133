package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits for security and resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 4096              // Maximum tensor name length
)

// TensorMeta locates one tensor inside the data section.
type TensorMeta struct {
	Name   string
	Offset int64
	Size   int64
}

// ValidateTensorOffsets checks for overlapping tensor offsets and out-of-bounds access.
// This is critical for security - malformed files could cause memory corruption or data leakage.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	// Sort tensors by offset for efficient overlap detection.
	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		// Check for negative values (potential integer overflow attacks).
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d (negative values not allowed)", t.Offset, t.Size),
			}
		}

		// Check bounds - prevent reading beyond file.
		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
			}
		}

		// Check for overlap with next tensor (data leakage prevention).
		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}

	return nil
}

// ValidateTensorName checks tensor names for path traversal attacks and malicious patterns.
func ValidateTensorName(name string) error {
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}

	// Path traversal prevention - critical for security.
	if strings.Contains(name, "..") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "contains '..' (path traversal attempt)",
		}
	}

	// Prevent absolute paths and directory separators.
	if strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "contains path separator (/ or \\)",
		}
	}

	// Prevent null bytes (can bypass length checks in some contexts).
	if strings.Contains(name, "\x00") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "contains null byte",
		}
	}

	return nil
}

// ValidateHeader checks names, dtypes, shapes and offsets of every tensor
// in h against a data section of dataSize bytes.
func ValidateHeader(h *Header, dataSize int64) error {
	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
		}
	}

	metas := make([]TensorMeta, 0, len(h.Tensors))
	for name, info := range h.Tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		size, err := info.DType.Size()
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}
		elements := int64(1)
		for _, dim := range info.Shape {
			if dim <= 0 {
				return &ValidationError{
					Type:    "invalid_shape",
					Tensor:  name,
					Details: fmt.Sprintf("shape %v", info.Shape),
				}
			}
			elements *= int64(dim)
		}
		meta := TensorMeta{Name: name, Offset: info.DataOffsets[0], Size: info.DataOffsets[1] - info.DataOffsets[0]}
		if meta.Size >= 0 && meta.Size != elements*int64(size) {
			return &ValidationError{
				Type:    "size_mismatch",
				Tensor:  name,
				Details: fmt.Sprintf("shape %v of %s needs %d bytes, offsets span %d", info.Shape, info.DType, elements*int64(size), meta.Size),
			}
		}
		metas = append(metas, meta)
	}

	return ValidateTensorOffsets(metas, dataSize)
}

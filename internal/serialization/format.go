package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// DType is a SafeTensors element type.
type DType string

// Supported dtypes.
const (
	F32 DType = "F32"
	F64 DType = "F64"
	U8  DType = "U8"
)

// Size returns the element size in bytes.
func (d DType) Size() (int, error) {
	switch d {
	case F32:
		return 4, nil
	case F64:
		return 8, nil
	case U8:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDType, string(d))
	}
}

const metadataKey = "__metadata__"

// TensorInfo describes a tensor entry in the header.
type TensorInfo struct {
	DType       DType    `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end) relative to the data section
}

// Header is the JSON header of a SafeTensors file.
type Header struct {
	Metadata map[string]string
	Tensors  map[string]TensorInfo
}

// MarshalJSON implements json.Marshaler.
func (h Header) MarshalJSON() ([]byte, error) {
	raw := make(map[string]any, len(h.Tensors)+1)
	if len(h.Metadata) > 0 {
		raw[metadataKey] = h.Metadata
	}
	for name, info := range h.Tensors {
		raw[name] = info
	}
	return json.Marshal(raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *Header) UnmarshalJSON(data []byte) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return err
	}

	if metadataRaw, ok := rawMap[metadataKey]; ok {
		if err := json.Unmarshal(metadataRaw, &h.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	h.Tensors = make(map[string]TensorInfo, len(rawMap))
	for key, value := range rawMap {
		if key == metadataKey {
			continue
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		h.Tensors[key] = info
	}
	return nil
}

// encode converts values to little-endian bytes of the given dtype.
func encode(values []float64, dtype DType) ([]byte, error) {
	size, err := dtype.Size()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, len(values)*size)
	for i, v := range values {
		switch dtype {
		case F32:
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
		case F64:
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		case U8:
			buf[i] = uint8(math.Max(0, math.Min(255, math.Round(v))))
		}
	}
	return buf, nil
}

// decode converts little-endian bytes of the given dtype to float64.
func decode(buf []byte, dtype DType) ([]float64, error) {
	size, err := dtype.Size()
	if err != nil {
		return nil, err
	}
	if len(buf)%size != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of %s size %d", len(buf), dtype, size)
	}
	values := make([]float64, len(buf)/size)
	for i := range values {
		switch dtype {
		case F32:
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])))
		case F64:
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
		case U8:
			values[i] = float64(buf[i])
		}
	}
	return values, nil
}

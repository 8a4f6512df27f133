package serialization

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bbsga/internal/tensor"
)

func mustTensor(t *testing.T, data []float64, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return x
}

func TestWriteRead_F64(t *testing.T) {
	tensors := map[string]*tensor.Tensor{
		"b.weight": mustTensor(t, []float64{1.5, -2.25, 3, 1e-300}, tensor.Shape{2, 2}),
		"a.bias":   mustTensor(t, []float64{0.1}, tensor.Shape{1}),
	}
	meta := map[string]string{"step": "42", "lambda": "0.01"}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tensors, F64, meta))

	f, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, meta, f.Metadata)
	assert.Equal(t, []string{"a.bias", "b.weight"}, f.Names())
	for name, want := range tensors {
		got, err := f.Tensor(name)
		require.NoError(t, err)
		assert.Equal(t, want.Shape(), got.Shape())
		if diff := cmp.Diff(want.Data(), got.Data()); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestWriteRead_F32File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.safetensors")
	x := mustTensor(t, []float64{0.1, 0.2, 0.3}, tensor.Shape{3})

	require.NoError(t, WriteFile(path, map[string]*tensor.Tensor{"x": x}, F32, nil))
	f, err := ReadFile(path)
	require.NoError(t, err)

	got := f.Tensors["x"].Data()
	for i, v := range x.Data() {
		assert.InDelta(t, v, got[i], 1e-7)
	}
	assert.Empty(t, f.Metadata)
}

func TestWriteRead_U8(t *testing.T) {
	x := mustTensor(t, []float64{0, 12.4, 255, 300, -3}, tensor.Shape{5})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, map[string]*tensor.Tensor{"images": x}, U8, nil))

	f, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 12, 255, 255, 0}, f.Tensors["images"].Data())
}

func TestWrite_Deterministic(t *testing.T) {
	tensors := map[string]*tensor.Tensor{
		"z": mustTensor(t, []float64{1}, tensor.Shape{1}),
		"y": mustTensor(t, []float64{2}, tensor.Shape{1}),
		"x": mustTensor(t, []float64{3}, tensor.Shape{1}),
	}
	var a, b bytes.Buffer
	require.NoError(t, Write(&a, tensors, F32, map[string]string{"k": "v"}))
	require.NoError(t, Write(&b, tensors, F32, map[string]string{"k": "v"}))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestWrite_RejectsBadNames(t *testing.T) {
	x := mustTensor(t, []float64{1}, tensor.Shape{1})
	for _, name := range []string{"../escape", "a/b", "nul\x00"} {
		err := Write(&bytes.Buffer{}, map[string]*tensor.Tensor{name: x}, F32, nil)
		var verr *ValidationError
		assert.Truef(t, errors.As(err, &verr), "name %q: got %v", name, err)
	}
}

func TestRead_Errors(t *testing.T) {
	raw := func(header string, data []byte) *bytes.Reader {
		var buf bytes.Buffer
		_ = binary.Write(&buf, binary.LittleEndian, uint64(len(header)))
		buf.WriteString(header)
		buf.Write(data)
		return bytes.NewReader(buf.Bytes())
	}

	tests := []struct {
		name   string
		input  *bytes.Reader
		target error
	}{
		{"truncated size", bytes.NewReader([]byte{1, 2}), nil},
		{"huge header", func() *bytes.Reader {
			var buf bytes.Buffer
			_ = binary.Write(&buf, binary.LittleEndian, uint64(MaxHeaderSize+1))
			return bytes.NewReader(buf.Bytes())
		}(), ErrHeaderTooLarge},
		{"bad json", raw("{not json", nil), nil},
		{"unknown dtype", raw(`{"x":{"dtype":"C64","shape":[1],"data_offsets":[0,8]}}`, make([]byte, 8)), ErrUnsupportedDType},
		{"out of bounds", raw(`{"x":{"dtype":"F32","shape":[4],"data_offsets":[0,16]}}`, make([]byte, 8)), nil},
		{"size mismatch", raw(`{"x":{"dtype":"F32","shape":[3],"data_offsets":[0,8]}}`, make([]byte, 8)), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.input)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestFile_TensorNotFound(t *testing.T) {
	f := &File{Tensors: map[string]*tensor.Tensor{}}
	_, err := f.Tensor("missing")
	assert.ErrorIs(t, err, ErrTensorNotFound)
}

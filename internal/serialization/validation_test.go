package serialization

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		wantType string
	}{
		{
			name: "contiguous",
			tensors: []TensorMeta{
				{Name: "tensor1", Offset: 0, Size: 100},
				{Name: "tensor2", Offset: 100, Size: 200},
			},
			dataSize: 300,
		},
		{
			name: "overlap",
			tensors: []TensorMeta{
				{Name: "tensor1", Offset: 0, Size: 100},
				{Name: "tensor2", Offset: 99, Size: 100},
			},
			dataSize: 200,
			wantType: "offset_overlap",
		},
		{
			name:     "out of bounds",
			tensors:  []TensorMeta{{Name: "tensor1", Offset: 50, Size: 100}},
			dataSize: 120,
			wantType: "out_of_bounds",
		},
		{
			name:     "negative",
			tensors:  []TensorMeta{{Name: "tensor1", Offset: 10, Size: -5}},
			dataSize: 120,
			wantType: "negative_offset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			if tt.wantType == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T (%v)", err, err)
			}
			if verr.Type != tt.wantType {
				t.Errorf("got type %s, want %s", verr.Type, tt.wantType)
			}
		})
	}
}

func TestValidateTensorName(t *testing.T) {
	valid := []string{"analysis.0.kernel", "prior.matrix.3", "images"}
	for _, name := range valid {
		if err := ValidateTensorName(name); err != nil {
			t.Errorf("ValidateTensorName(%q) = %v", name, err)
		}
	}

	invalid := []string{"../etc/passwd", "a/b", `a\b`, "x\x00y", strings.Repeat("a", MaxTensorNameLen+1)}
	for _, name := range invalid {
		if err := ValidateTensorName(name); err == nil {
			t.Errorf("ValidateTensorName(%.20q) accepted an invalid name", name)
		}
	}
}

// Package tensor provides the dense float64 tensors used by the refinement
// engine.
//
// Image batches and latents are stored in NHWC layout (batch, height, width,
// channels) in row-major order. All functions in this package are pure: they
// never modify their inputs and always allocate a fresh result, which is what
// allows the gradient tape to key gradients by tensor identity.
package tensor

import (
	"fmt"
)

// Tensor is a dense, row-major float64 tensor.
//
// Example:
//
//	t, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
//	sum := tensor.Sum(t) // 10
type Tensor struct {
	shape Shape
	data  []float64
}

// New creates a zero-filled tensor with the given shape.
func New(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(err) // Callers derive shapes from existing tensors
	}
	return &Tensor{
		shape: shape.Clone(),
		data:  make([]float64, shape.NumElements()),
	}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t := New(shape)
	copy(t.data, data)
	return t, nil
}

// Shape returns the tensor's shape.
//
// The returned slice must not be modified.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Data returns the underlying storage.
//
// Writes through the returned slice are visible to every holder of t; code
// that builds new values should Clone first.
func (t *Tensor) Data() []float64 {
	return t.data
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Item returns the single value of a one-element tensor.
func (t *Tensor) Item() float64 {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("tensor.Item: tensor of shape %v has %d elements", t.shape, len(t.data)))
	}
	return t.data[0]
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{shape: t.shape.Clone(), data: make([]float64, len(t.data))}
	copy(out.data, t.data)
	return out
}

// Reshape returns a copy of t with a new shape holding the same number of
// elements.
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(t.data) {
		return nil, fmt.Errorf("cannot reshape %v into %v", t.shape, shape)
	}
	return FromSlice(t.data, shape)
}

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	const maxShown = 8
	if len(t.data) <= maxShown {
		return fmt.Sprintf("Tensor%v%v", []int(t.shape), t.data)
	}
	return fmt.Sprintf("Tensor%v%v...", []int(t.shape), t.data[:maxShown])
}

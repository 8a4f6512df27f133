// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/bbsga/internal/tensor"
)

// Type aliases for public API

// Tensor is a dense, row-major float64 tensor.
type Tensor = tensor.Tensor

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// New creates a zero-filled tensor with the given shape.
func New(shape Shape) *Tensor {
	return tensor.New(shape)
}

// FromSlice creates a tensor from a copy of data.
//
// Example:
//
//	t, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float64) *Tensor {
	return tensor.Full(shape, value)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Round rounds every element to the nearest integer, halves to even.
func Round(t *Tensor) *Tensor {
	return tensor.Round(t)
}

// Clip limits every element to [lo, hi].
func Clip(t *Tensor, lo, hi float64) *Tensor {
	return tensor.Clip(t, lo, hi)
}

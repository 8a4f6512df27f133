// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation over
// bbsga tensors.
//
// Example:
//
//	import (
//	    "github.com/born-ml/bbsga/autodiff"
//	    "github.com/born-ml/bbsga/tensor"
//	)
//
//	func main() {
//	    b := autodiff.New()
//	    b.Tape().StartRecording()
//
//	    x := tensor.Full(tensor.Shape{3}, 2)
//	    loss := b.Sum(b.Square(x)) // Operations recorded on tape
//
//	    grads := b.Gradients(loss)
//	    dx := autodiff.Grad(grads, x) // [4 4 4]
//	}
package autodiff

import (
	"github.com/born-ml/bbsga/internal/autodiff"
	"github.com/born-ml/bbsga/internal/tensor"
)

// Backend computes tensor operations and records them on a tape.
type Backend = autodiff.Backend

// New creates a new backend with an idle tape.
func New() *Backend {
	return autodiff.New()
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// Grad returns the gradient of t, or zeros when t did not participate.
func Grad(grads map[*tensor.Tensor]*tensor.Tensor, t *tensor.Tensor) *tensor.Tensor {
	return autodiff.Grad(grads, t)
}

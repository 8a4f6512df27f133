// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense float64 tensors used by bbsga.
//
// # Overview
//
// Image batches and latents are stored in NHWC layout (batch, height,
// width, channels), row-major. Every function returns a fresh tensor and
// leaves its inputs untouched.
//
// # Basic Usage
//
//	import "github.com/born-ml/bbsga/tensor"
//
//	func main() {
//	    x := tensor.Full(tensor.Shape{1, 8, 8, 3}, 0.5)
//	    y, _ := tensor.FromSlice([]float64{0.4, 1.6}, tensor.Shape{2})
//
//	    z := tensor.Round(y)   // [0 2]
//	    n, h, w, c := x.Dims4() // 1 8 8 3
//	}
package tensor

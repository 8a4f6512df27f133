// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/bbsga/autodiff"
	"github.com/born-ml/bbsga/tensor"
)

func TestPublicAPI(t *testing.T) {
	b := autodiff.New()
	b.Tape().StartRecording()

	x := tensor.Full(tensor.Shape{3}, 2)
	unused := tensor.Full(tensor.Shape{2}, 1)
	grads := b.Gradients(b.Sum(b.Square(x)))

	assert.Equal(t, []float64{4, 4, 4}, autodiff.Grad(grads, x).Data())
	assert.Equal(t, []float64{0, 0}, autodiff.Grad(grads, unused).Data())
}

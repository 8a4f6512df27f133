package rng

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bbsga/internal/tensor"
)

func TestReseed_ReproducesStream(t *testing.T) {
	r := New(7)
	first := r.Normal(tensor.Shape{16}).Data()
	_ = r.Gumbel(tensor.Shape{8})

	r.Reseed(7)
	again := r.Normal(tensor.Shape{16}).Data()
	assert.Equal(t, first, again)
	assert.Equal(t, uint64(7), r.Seed())
}

func TestDerive_Independent(t *testing.T) {
	a := Derive(0, 0).Normal(tensor.Shape{4}).Data()
	b := Derive(0, 1).Normal(tensor.Shape{4}).Data()
	c := Derive(0, 0).Normal(tensor.Shape{4}).Data()
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
}

func TestGumbel_Moments(t *testing.T) {
	const n = 20000
	g := New(1).Gumbel(tensor.Shape{n}).Data()
	mean := 0.0
	for _, v := range g {
		require.False(t, math.IsInf(v, 0) || math.IsNaN(v))
		mean += v
	}
	mean /= n
	// Mean of the standard Gumbel distribution is the Euler–Mascheroni constant.
	assert.InDelta(t, 0.5772, mean, 0.03)
}

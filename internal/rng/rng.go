// Package rng provides the explicit random generator threaded through the
// refinement loop.
//
// Every stochastic quantity (Gumbel noise for relaxed rounding, Gaussian
// noise for the side-latent reparameterization) is drawn from an *RNG that
// the caller owns. Reseeding is an explicit call at a defined point, which
// is what makes Phase 2 trajectories reproducible.
package rng

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/born-ml/bbsga/internal/tensor"
)

// gumbel is the standard (location 0, scale 1) Gumbel distribution.
var gumbel = distuv.GumbelRight{Mu: 0, Beta: 1}

// RNG is a re-seedable PCG stream.
type RNG struct {
	src  *rand.PCG
	rand *rand.Rand
	seed uint64
}

// New creates a generator seeded with seed.
func New(seed uint64) *RNG {
	src := rand.NewPCG(seed, seedStream)
	return &RNG{src: src, rand: rand.New(src), seed: seed}
}

// seedStream selects the PCG increment; fixed so that a seed alone defines
// the stream.
const seedStream = 0x9e3779b97f4a7c15

// Reseed restarts the stream as if freshly created with New(seed).
func (r *RNG) Reseed(seed uint64) {
	r.src.Seed(seed, seedStream)
	r.seed = seed
}

// Seed returns the seed of the current stream.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// OpenUniform returns a sample from the open interval (0, 1).
func (r *RNG) OpenUniform() float64 {
	for {
		if u := r.rand.Float64(); u > 0 {
			return u
		}
	}
}

// Normal returns a tensor of independent standard normal samples.
func (r *RNG) Normal(shape tensor.Shape) *tensor.Tensor {
	t := tensor.New(shape)
	data := t.Data()
	for i := range data {
		data[i] = r.rand.NormFloat64()
	}
	return t
}

// Gumbel returns a tensor of independent standard Gumbel samples,
// -log(-log(u)) for u ~ U(0, 1).
func (r *RNG) Gumbel(shape tensor.Shape) *tensor.Tensor {
	t := tensor.New(shape)
	data := t.Data()
	for i := range data {
		data[i] = gumbel.Quantile(r.OpenUniform())
	}
	return t
}

// Uniform returns a tensor of samples from [lo, hi).
func (r *RNG) Uniform(shape tensor.Shape, lo, hi float64) *tensor.Tensor {
	t := tensor.New(shape)
	data := t.Data()
	for i := range data {
		data[i] = lo + (hi-lo)*r.rand.Float64()
	}
	return t
}

// Derive returns an independent generator for a sub-task (for example one
// image batch), deterministically derived from seed and index.
func Derive(seed uint64, index int) *RNG {
	return New(splitmix(seed ^ splitmix(uint64(index)+1)))
}

// splitmix is the SplitMix64 finalizer, used to decorrelate derived seeds.
func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

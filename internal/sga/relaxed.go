// Package sga implements Stochastic Gumbel Annealing: a differentiable,
// temperature-controlled relaxation of rounding to the nearest integer.
//
// Each element y is rounded either down to floor(y) or up to ceil(y). The
// choice is a two-outcome relaxed categorical (Gumbel-softmax) variable R
// whose logits penalise the distance to each candidate:
//
//	e_down = atanh(clip(y - floor(y), -1+ε, 1-ε))
//	e_up   = atanh(clip(ceil(y) - y,  -1+ε, 1-ε))
//	logits = (-e_down/T, -e_up/T)
//	R      = softmax((logits + g) / T),  g ~ Gumbel(0, 1)²
//	ŷ      = R[0]·floor(y) + R[1]·ceil(y)
//
// As T → 0, ŷ → round(y); as T → ∞, ŷ blends both candidates evenly. The
// same T scales the logits and sharpens the relaxation.
package sga

import (
	"math"

	"github.com/born-ml/bbsga/internal/autodiff"
	"github.com/born-ml/bbsga/internal/rng"
	"github.com/born-ml/bbsga/internal/tensor"
)

// Epsilon keeps the atanh arguments away from ±1.
const Epsilon = 1e-5

// minTemperature is the float64 machine epsilon; smaller temperatures are
// clamped to it.
const minTemperature = 2.220446049250313e-16

// RelaxedRound draws a soft-rounded sample of y at temperature T.
//
// Fresh Gumbel noise is drawn from r on every call. Gradients flow to y
// through the rounding probabilities only; floor(y) and ceil(y) are
// constants.
func RelaxedRound(b *autodiff.Backend, y *tensor.Tensor, temperature float64, r *rng.RNG) *tensor.Tensor {
	t := clampTemperature(temperature)
	floor, ceil := tensor.Floor(y), tensor.Ceil(y)
	eDown, eUp := energies(b, y, floor, ceil)

	gDown := r.Gumbel(y.Shape())
	gUp := r.Gumbel(y.Shape())

	// With two classes the softmax reduces to a sigmoid of the logit gap:
	// R[1] = σ(((l_up + g_up) - (l_down + g_down)) / T)
	//      = σ((e_down - e_up)/T² + (g_up - g_down)/T)
	noise := tensor.Scale(tensor.Sub(gUp, gDown), 1/t)
	gap := b.Add(b.Scale(b.Sub(eDown, eUp), 1/(t*t)), noise)
	up := b.Sigmoid(gap)

	return b.Add(floor, b.Mul(up, tensor.Sub(ceil, floor)))
}

// energies computes the clipped atanh distances to both candidates.
func energies(b *autodiff.Backend, y, floor, ceil *tensor.Tensor) (down, up *tensor.Tensor) {
	down = b.Atanh(b.Clip(b.Sub(y, floor), -1+Epsilon, 1-Epsilon))
	up = b.Atanh(b.Clip(b.Sub(ceil, y), -1+Epsilon, 1-Epsilon))
	return down, up
}

func clampTemperature(t float64) float64 {
	return math.Max(t, minTemperature)
}

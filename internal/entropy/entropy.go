// Package entropy implements the density models used to estimate bit costs:
// the conditional Gaussian model for the main latent, the factorized
// hyperprior for the side latent and the Gaussian posterior whose
// log-density is recovered through bits-back coding.
//
// Every likelihood returned here is lower-bounded by LikelihoodBound so that
// its logarithm is finite.
package entropy

import (
	"math"

	"github.com/born-ml/bbsga/internal/autodiff"
	"github.com/born-ml/bbsga/internal/tensor"
)

// Scale table parameters.
const (
	ScalesMin    = 0.11
	ScalesMax    = 256
	ScalesLevels = 64
)

// LikelihoodBound is the minimum likelihood returned by any density.
const LikelihoodBound = 1e-9

// scaleTable is exp(linspace(log(ScalesMin), log(ScalesMax), ScalesLevels)).
var scaleTable = func() []float64 {
	table := tensor.Linspace(math.Log(ScalesMin), math.Log(ScalesMax), ScalesLevels).Data()
	for i, v := range table {
		table[i] = math.Exp(v)
	}
	table[0], table[len(table)-1] = ScalesMin, ScalesMax
	return table
}()

// ScaleTable returns a copy of the geometric scale table.
func ScaleTable() []float64 {
	out := make([]float64, len(scaleTable))
	copy(out, scaleTable)
	return out
}

// ScaleBound is the smallest representable scale.
func ScaleBound() float64 {
	return scaleTable[0]
}

// GaussianConditional returns p(y | μ, σ): the mass of N(μ, σ²) on the
// unit bin around y. σ is lower-bounded by ScaleBound and the likelihood by
// LikelihoodBound.
func GaussianConditional(b *autodiff.Backend, y, mu, sigma *tensor.Tensor) *tensor.Tensor {
	sigma = b.LowerBound(sigma, ScaleBound())
	return b.LowerBound(b.GaussianConditional(y, mu, sigma), LikelihoodBound)
}

// LogNormalPDF returns the element-wise log-density of z under
// N(mean, exp(logvar)):
//
//	-½ ((z - mean)² · exp(-logvar) + logvar + log 2π)
func LogNormalPDF(b *autodiff.Backend, z, mean, logvar *tensor.Tensor) *tensor.Tensor {
	diff := b.Sub(z, mean)
	quad := b.Mul(b.Square(diff), b.Exp(b.Scale(logvar, -1)))
	return b.Scale(b.AddScalar(b.Add(quad, logvar), math.Log(2*math.Pi)), -0.5)
}

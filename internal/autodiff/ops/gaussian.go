package ops

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/born-ml/bbsga/internal/tensor"
)

// GaussianBinLikelihood returns the probability mass that N(μ, σ²) assigns
// to the unit-width bin centred on y, given v = y - μ:
//
//	Φ((0.5 - |v|) / σ) - Φ((-0.5 - |v|) / σ)
//
// Working with |v| keeps both CDF arguments on the side of the distribution
// where Φ is evaluated without cancellation.
func GaussianBinLikelihood(v, sigma float64) float64 {
	a := math.Abs(v)
	return distuv.UnitNormal.CDF((0.5-a)/sigma) - distuv.UnitNormal.CDF((-0.5-a)/sigma)
}

// GaussianConditionalOp computes the likelihood of y under a Gaussian
// convolved with a unit-width uniform: the quantization-bin mass used as the
// conditional entropy model p(ŷ | z̃).
//
// Forward (a = |y - μ|, u = (0.5 - a)/σ, l = (-0.5 - a)/σ):
//
//	output = Φ(u) - Φ(l)
//
// Backward (φ is the standard normal density):
//
//	∂output/∂a = -(φ(u) - φ(l)) / σ
//	∂output/∂y = ∂output/∂a * sign(y - μ)
//	∂output/∂μ = -∂output/∂y
//	∂output/∂σ = -(φ(u)·u - φ(l)·l) / σ
type GaussianConditionalOp struct {
	inputs []*tensor.Tensor // y, mu, sigma
	output *tensor.Tensor
}

// NewGaussianConditionalOp creates a new Gaussian conditional likelihood op.
func NewGaussianConditionalOp(y, mu, sigma, output *tensor.Tensor) *GaussianConditionalOp {
	return &GaussianConditionalOp{
		inputs: []*tensor.Tensor{y, mu, sigma},
		output: output,
	}
}

// Inputs returns the input tensors.
func (op *GaussianConditionalOp) Inputs() []*tensor.Tensor {
	return op.inputs
}

// Output returns the output tensor.
func (op *GaussianConditionalOp) Output() *tensor.Tensor {
	return op.output
}

// Backward computes gradients for y, μ and σ.
func (op *GaussianConditionalOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	y, mu, sigma := op.inputs[0].Data(), op.inputs[1].Data(), op.inputs[2].Data()
	g := outputGrad.Data()

	gradY := tensor.ZerosLike(op.inputs[0])
	gradMu := tensor.ZerosLike(op.inputs[1])
	gradSigma := tensor.ZerosLike(op.inputs[2])
	gy, gmu, gs := gradY.Data(), gradMu.Data(), gradSigma.Data()

	for i := range g {
		v := y[i] - mu[i]
		a := math.Abs(v)
		s := sigma[i]
		u := (0.5 - a) / s
		l := (-0.5 - a) / s
		pu := distuv.UnitNormal.Prob(u)
		pl := distuv.UnitNormal.Prob(l)

		dA := -(pu - pl) / s
		dV := dA * sign(v)
		gy[i] = g[i] * dV
		gmu[i] = -g[i] * dV
		gs[i] = -g[i] * (pu*u - pl*l) / s
	}
	return []*tensor.Tensor{gradY, gradMu, gradSigma}
}

// Package refine implements compression-time refinement of latents:
// Stochastic Gumbel Annealing of the main latent y, followed by rate-only
// optimization of the bits-back posterior over the side latent z.
//
// Rates are estimated in bits per pixel and kept per image:
//
//	y_bpp    = −Σ log2 p(ŷ | z̃)        / pixels
//	z_bpp    = −Σ log2 p(z̃)            / pixels
//	bpp_back = −Σ log2 q(z̃ | ŷ)        / pixels
//	eval_bpp = y_bpp + z_bpp − bpp_back
//
// where z̃ = z_mean + exp(z_logvar / 2)·ε is drawn fresh on every
// evaluation.
package refine

import (
	"fmt"
	"math"

	"github.com/born-ml/bbsga/internal/autodiff"
	"github.com/born-ml/bbsga/internal/config"
	"github.com/born-ml/bbsga/internal/entropy"
	"github.com/born-ml/bbsga/internal/model"
	"github.com/born-ml/bbsga/internal/rng"
	"github.com/born-ml/bbsga/internal/tensor"
)

// Objective evaluates the rate-distortion loss of a set of latents.
type Objective struct {
	Model  *model.Model
	Lambda float64 // Distortion weight; 0 means rate only
}

// Evaluation holds the tensors of one forward pass. Rate vectors have shape
// (N); TrainBPP, TrainMSE and Loss are scalars. XTilde and TrainMSE are nil
// for rate-only evaluations.
type Evaluation struct {
	ZTilde   *tensor.Tensor
	XTilde   *tensor.Tensor // Reconstruction cropped to the input size
	YBPP     *tensor.Tensor
	ZBPP     *tensor.Tensor
	BPPBack  *tensor.Tensor
	EvalBPP  *tensor.Tensor
	TrainBPP *tensor.Tensor
	TrainMSE *tensor.Tensor // Mean squared error on the [0, 255] scale
	Loss     *tensor.Tensor
}

// Forward evaluates the full objective for image batch x (values in
// [0, 1]) and soft- or hard-rounded main latent yTilde:
//
//	loss = λ·train_mse + train_bpp   (λ > 0)
//	loss = train_bpp                 (λ = 0)
func (o Objective) Forward(b *autodiff.Backend, x, yTilde, zMean, zLogvar *tensor.Tensor, r *rng.RNG) (*Evaluation, error) {
	if o.Lambda < 0 {
		return nil, fmt.Errorf("%w: %g", config.ErrInvalidLambda, o.Lambda)
	}
	_, h, w, _ := x.Dims4()
	ev := o.rate(b, yTilde, zMean, zLogvar, h*w, r)

	ev.XTilde = b.CropSpatial(o.Model.Synthesis.Forward(b, yTilde), h, w)
	ev.TrainMSE = b.Scale(b.Mean(b.Square(b.Sub(x, ev.XTilde))), 255*255)

	if o.Lambda > 0 {
		ev.Loss = b.Add(b.Scale(ev.TrainMSE, o.Lambda), ev.TrainBPP)
	} else {
		ev.Loss = ev.TrainBPP
	}
	return ev, nil
}

// Rate evaluates the rate terms only; Loss is TrainBPP. numPixels is the
// pixel count (H·W) of one image.
func (o Objective) Rate(b *autodiff.Backend, yTilde, zMean, zLogvar *tensor.Tensor, numPixels int, r *rng.RNG) *Evaluation {
	ev := o.rate(b, yTilde, zMean, zLogvar, numPixels, r)
	ev.Loss = ev.TrainBPP
	return ev
}

func (o Objective) rate(b *autodiff.Backend, yTilde, zMean, zLogvar *tensor.Tensor, numPixels int, r *rng.RNG) *Evaluation {
	eps := r.Normal(zMean.Shape())
	zTilde := b.Add(b.Mul(eps, b.Exp(b.Scale(zLogvar, 0.5))), zMean)

	logQ := entropy.LogNormalPDF(b, zTilde, zMean, zLogvar)
	zLikelihood := b.LowerBound(o.Model.Prior.Likelihood(b, zTilde), entropy.LikelihoodBound)

	mu, logSigma := b.SplitChannels(o.Model.HyperSynthesis.Forward(b, zTilde))
	_, h, w, _ := yTilde.Dims4()
	mu = b.CropSpatial(mu, h, w)
	sigma := b.Exp(b.CropSpatial(logSigma, h, w))
	yLikelihood := entropy.GaussianConditional(b, yTilde, mu, sigma)

	toBPP := -1 / (math.Ln2 * float64(numPixels))
	ev := &Evaluation{
		ZTilde:  zTilde,
		YBPP:    b.Scale(b.SumPerBatch(b.Log(yLikelihood)), toBPP),
		ZBPP:    b.Scale(b.SumPerBatch(b.Log(zLikelihood)), toBPP),
		BPPBack: b.Scale(b.SumPerBatch(logQ), toBPP),
	}
	ev.EvalBPP = b.Sub(b.Add(ev.YBPP, ev.ZBPP), ev.BPPBack)
	ev.TrainBPP = b.Mean(ev.EvalBPP)
	return ev
}

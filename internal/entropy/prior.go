package entropy

import (
	"fmt"
	"math"

	"github.com/born-ml/bbsga/internal/autodiff"
	"github.com/born-ml/bbsga/internal/autodiff/ops"
	"github.com/born-ml/bbsga/internal/rng"
	"github.com/born-ml/bbsga/internal/tensor"
)

// FactorizedPrior is a learned, per-channel univariate density for the
// side latent. Each channel owns a small monotone network computing
// cumulative logits c(x); the likelihood of z is the mass of the unit bin
//
//	p(z) = |σ(s·c(z+½)) − σ(s·c(z−½))|,  s = −sign(c(z−½) + c(z+½))
//
// where the sign flip keeps the subtraction in the accurate tail.
//
// Layer i maps f_i → f_{i+1} units: v ← softplus(M_i)·v + b_i, followed
// (except for the last layer) by v ← v + tanh(F_i) ⊙ tanh(v).
type FactorizedPrior struct {
	channels int
	dims     []int            // 1, filters..., 1
	matrices []*tensor.Tensor // (C, f_{i+1}, f_i)
	biases   []*tensor.Tensor // (C, f_{i+1})
	factors  []*tensor.Tensor // (C, f_{i+1}), one fewer than matrices
}

// NewFactorizedPrior creates a prior with the standard initialization:
// matrices set so the initial density has width ≈ initScale, biases
// uniform in [-½, ½), factors zero.
func NewFactorizedPrior(channels int, filters []int, initScale float64, r *rng.RNG) *FactorizedPrior {
	dims := append(append([]int{1}, filters...), 1)
	layers := len(filters) + 1
	scale := math.Pow(initScale, 1/float64(layers))

	p := &FactorizedPrior{channels: channels, dims: dims}
	for i := 0; i < layers; i++ {
		init := math.Log(math.Expm1(1 / scale / float64(dims[i+1])))
		p.matrices = append(p.matrices, tensor.Full(tensor.Shape{channels, dims[i+1], dims[i]}, init))
		p.biases = append(p.biases, r.Uniform(tensor.Shape{channels, dims[i+1]}, -0.5, 0.5))
		if i < len(filters) {
			p.factors = append(p.factors, tensor.Zeros(tensor.Shape{channels, dims[i+1]}))
		}
	}
	return p
}

// Channels returns the number of side-latent channels.
func (p *FactorizedPrior) Channels() int {
	return p.channels
}

// Filters returns the hidden layer widths.
func (p *FactorizedPrior) Filters() []int {
	return append([]int(nil), p.dims[1:len(p.dims)-1]...)
}

// StateDict returns the prior's tensors keyed by name.
func (p *FactorizedPrior) StateDict() map[string]*tensor.Tensor {
	params := make(map[string]*tensor.Tensor)
	for i := range p.matrices {
		params[fmt.Sprintf("matrix.%d", i)] = p.matrices[i]
		params[fmt.Sprintf("bias.%d", i)] = p.biases[i]
		if i < len(p.factors) {
			params[fmt.Sprintf("factor.%d", i)] = p.factors[i]
		}
	}
	return params
}

// LoadStateDict copies same-shaped tensors from stateDict into the prior.
func (p *FactorizedPrior) LoadStateDict(stateDict map[string]*tensor.Tensor) error {
	for name, dst := range p.StateDict() {
		src, ok := stateDict[name]
		if !ok {
			return fmt.Errorf("missing prior parameter %q", name)
		}
		if !src.Shape().Equal(dst.Shape()) {
			return fmt.Errorf("prior parameter %q: shape %v, want %v", name, src.Shape(), dst.Shape())
		}
		copy(dst.Data(), src.Data())
	}
	return nil
}

// Likelihood returns p(z) for an NHWC side latent whose last axis has
// Channels() entries, lower-bounded by LikelihoodBound.
func (p *FactorizedPrior) Likelihood(b *autodiff.Backend, z *tensor.Tensor) *tensor.Tensor {
	shape := z.Shape()
	if shape[len(shape)-1] != p.channels {
		panic(fmt.Sprintf("entropy.FactorizedPrior: latent %v has %d channels, prior has %d",
			shape, shape[len(shape)-1], p.channels))
	}
	net := p.compile()
	result := tensor.New(shape)
	deriv := tensor.New(shape)
	out, d, zd := result.Data(), deriv.Data(), z.Data()
	for i, v := range zd {
		out[i], d[i] = net.binMass(i%p.channels, v)
	}
	b.Tape().Record(newPriorOp(z, result, deriv))
	return b.LowerBound(result, LikelihoodBound)
}

// compiled caches softplus(M) and tanh(F) for one evaluation.
type compiled struct {
	dims     []int
	matrices [][]float64
	biases   [][]float64
	factors  [][]float64
}

func (p *FactorizedPrior) compile() *compiled {
	c := &compiled{dims: p.dims}
	for i, m := range p.matrices {
		c.matrices = append(c.matrices, tensor.Map(m, ops.Softplus).Data())
		c.biases = append(c.biases, p.biases[i].Data())
	}
	for _, f := range p.factors {
		c.factors = append(c.factors, tensor.Map(f, math.Tanh).Data())
	}
	return c
}

// logits evaluates the cumulative logits of channel ch at x together with
// their derivative with respect to x (forward-mode).
func (c *compiled) logits(ch int, x float64) (value, slope float64) {
	v, dv := []float64{x}, []float64{1}
	for i := 0; i < len(c.dims)-1; i++ {
		in, out := c.dims[i], c.dims[i+1]
		m := c.matrices[i][ch*out*in : (ch+1)*out*in]
		bias := c.biases[i][ch*out : (ch+1)*out]
		nv, ndv := make([]float64, out), make([]float64, out)
		for j := 0; j < out; j++ {
			sum, dsum := bias[j], 0.0
			for k := 0; k < in; k++ {
				sum += m[j*in+k] * v[k]
				dsum += m[j*in+k] * dv[k]
			}
			if i < len(c.factors) {
				f := c.factors[i][ch*out+j]
				th := math.Tanh(sum)
				dsum += f * (1 - th*th) * dsum
				sum += f * th
			}
			nv[j], ndv[j] = sum, dsum
		}
		v, dv = nv, ndv
	}
	return v[0], dv[0]
}

// binMass returns the unit-bin probability at z and its derivative.
func (c *compiled) binMass(ch int, z float64) (mass, slope float64) {
	lower, dLower := c.logits(ch, z-0.5)
	upper, dUpper := c.logits(ch, z+0.5)
	s := -sign(lower + upper)
	if s == 0 {
		s = -1
	}
	su, sl := ops.Sigmoid(s*upper), ops.Sigmoid(s*lower)
	diff := su - sl
	ds := s * (su*(1-su)*dUpper - sl*(1-sl)*dLower)
	if diff < 0 {
		return -diff, -ds
	}
	return diff, ds
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// priorOp records the prior likelihood on the tape. The element-wise
// derivative is computed during the forward pass.
//
// Backward:
//
//	∂L/∂z = ∂L/∂output · p'(z)
type priorOp struct {
	input, output, slope *tensor.Tensor
}

func newPriorOp(input, output, slope *tensor.Tensor) *priorOp {
	return &priorOp{input: input, output: output, slope: slope}
}

func (op *priorOp) Inputs() []*tensor.Tensor { return []*tensor.Tensor{op.input} }

func (op *priorOp) Output() *tensor.Tensor { return op.output }

func (op *priorOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	return []*tensor.Tensor{tensor.Mul(outputGrad, op.slope)}
}

package ops

import (
	"math"

	"github.com/born-ml/bbsga/internal/tensor"
)

// unary holds the bookkeeping shared by single-input element-wise ops.
type unary struct {
	input  *tensor.Tensor
	output *tensor.Tensor
}

// Inputs returns the input tensors.
func (u unary) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{u.input}
}

// Output returns the output tensor.
func (u unary) Output() *tensor.Tensor {
	return u.output
}

// ExpOp represents element-wise exponential: output = exp(input).
//
// Backward:
//
//	∂L/∂input = ∂L/∂output * output
type ExpOp struct{ unary }

// NewExpOp creates a new exp operation.
func NewExpOp(input, output *tensor.Tensor) *ExpOp {
	return &ExpOp{unary{input, output}}
}

// Backward reuses the forward output as the derivative.
func (op *ExpOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	out := op.output.Data()
	return []*tensor.Tensor{unaryGrad(op.input, outputGrad, func(i int) float64 { return out[i] })}
}

// LogOp represents element-wise natural logarithm: output = log(input).
//
// Backward:
//
//	∂L/∂input = ∂L/∂output / input
//
// Inputs are expected to be strictly positive; callers lower-bound
// likelihoods before taking the logarithm.
type LogOp struct{ unary }

// NewLogOp creates a new log operation.
func NewLogOp(input, output *tensor.Tensor) *LogOp {
	return &LogOp{unary{input, output}}
}

// Backward computes the reciprocal-scaled gradient.
func (op *LogOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	in := op.input.Data()
	return []*tensor.Tensor{unaryGrad(op.input, outputGrad, func(i int) float64 { return 1 / in[i] })}
}

// TanhOp represents the hyperbolic tangent activation.
//
// Backward:
//
//	∂L/∂input = ∂L/∂output * (1 - output²)
type TanhOp struct{ unary }

// NewTanhOp creates a new tanh operation.
func NewTanhOp(input, output *tensor.Tensor) *TanhOp {
	return &TanhOp{unary{input, output}}
}

// Backward computes the gradient for tanh from the cached output.
func (op *TanhOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	out := op.output.Data()
	return []*tensor.Tensor{unaryGrad(op.input, outputGrad, func(i int) float64 { return 1 - out[i]*out[i] })}
}

// SigmoidOp represents the logistic function σ(x) = 1 / (1 + exp(-x)).
//
// Backward:
//
//	∂L/∂input = ∂L/∂output * σ(x) * (1 - σ(x))
type SigmoidOp struct{ unary }

// NewSigmoidOp creates a new sigmoid operation.
func NewSigmoidOp(input, output *tensor.Tensor) *SigmoidOp {
	return &SigmoidOp{unary{input, output}}
}

// Backward computes the gradient for sigmoid from the cached output.
func (op *SigmoidOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	out := op.output.Data()
	return []*tensor.Tensor{unaryGrad(op.input, outputGrad, func(i int) float64 { return out[i] * (1 - out[i]) })}
}

// Sigmoid is a numerically stable logistic function.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// SoftplusOp represents softplus(x) = log(1 + exp(x)).
//
// Backward:
//
//	∂L/∂input = ∂L/∂output * σ(x)
type SoftplusOp struct{ unary }

// NewSoftplusOp creates a new softplus operation.
func NewSoftplusOp(input, output *tensor.Tensor) *SoftplusOp {
	return &SoftplusOp{unary{input, output}}
}

// Backward computes the gradient for softplus.
func (op *SoftplusOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	in := op.input.Data()
	return []*tensor.Tensor{unaryGrad(op.input, outputGrad, func(i int) float64 { return Sigmoid(in[i]) })}
}

// Softplus is a numerically stable log(1 + exp(x)).
func Softplus(x float64) float64 {
	if x > 30 {
		return x
	}
	return math.Log1p(math.Exp(x))
}

// AtanhOp represents the inverse hyperbolic tangent.
//
// Backward:
//
//	∂L/∂input = ∂L/∂output / (1 - input²)
//
// Inputs must lie strictly inside (-1, 1); see ClipOp.
type AtanhOp struct{ unary }

// NewAtanhOp creates a new atanh operation.
func NewAtanhOp(input, output *tensor.Tensor) *AtanhOp {
	return &AtanhOp{unary{input, output}}
}

// Backward computes the gradient for atanh.
func (op *AtanhOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	in := op.input.Data()
	return []*tensor.Tensor{unaryGrad(op.input, outputGrad, func(i int) float64 { return 1 / (1 - in[i]*in[i]) })}
}

// AbsOp represents |x|. The subgradient at zero is zero.
type AbsOp struct{ unary }

// NewAbsOp creates a new abs operation.
func NewAbsOp(input, output *tensor.Tensor) *AbsOp {
	return &AbsOp{unary{input, output}}
}

// Backward computes sign(x) * ∂L/∂output.
func (op *AbsOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	in := op.input.Data()
	return []*tensor.Tensor{unaryGrad(op.input, outputGrad, func(i int) float64 { return sign(in[i]) })}
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

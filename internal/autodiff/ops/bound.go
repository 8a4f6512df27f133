package ops

import "github.com/born-ml/bbsga/internal/tensor"

// ClipOp represents clip(x, lo, hi).
//
// Backward:
//
//	∂L/∂input = ∂L/∂output  if lo <= x <= hi
//	          = 0           otherwise
type ClipOp struct {
	unary
	lo, hi float64
}

// NewClipOp creates a new clip operation.
func NewClipOp(input, output *tensor.Tensor, lo, hi float64) *ClipOp {
	return &ClipOp{unary: unary{input, output}, lo: lo, hi: hi}
}

// Backward masks the gradient outside the clipping range.
func (op *ClipOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	in := op.input.Data()
	return []*tensor.Tensor{unaryGrad(op.input, outputGrad, func(i int) float64 {
		if in[i] < op.lo || in[i] > op.hi {
			return 0
		}
		return 1
	})}
}

// LowerBoundOp represents max(x, bound) with an "identity if towards"
// gradient: the gradient passes when x >= bound, or when a descent step
// (which moves x by -gradient) would push x up towards the bound.
//
// Backward:
//
//	∂L/∂input = ∂L/∂output  if x >= bound or ∂L/∂output < 0
//	          = 0           otherwise
type LowerBoundOp struct {
	unary
	bound float64
}

// NewLowerBoundOp creates a new lower-bound operation.
func NewLowerBoundOp(input, output *tensor.Tensor, bound float64) *LowerBoundOp {
	return &LowerBoundOp{unary: unary{input, output}, bound: bound}
}

// Backward applies the pass-through rule.
func (op *LowerBoundOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	in := op.input.Data()
	g := outputGrad.Data()
	return []*tensor.Tensor{unaryGrad(op.input, outputGrad, func(i int) float64 {
		if in[i] >= op.bound || g[i] < 0 {
			return 1
		}
		return 0
	})}
}

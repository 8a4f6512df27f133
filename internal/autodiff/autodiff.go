// Package autodiff implements reverse-mode automatic differentiation over
// float64 tensors.
//
// Backend computes every operation eagerly and, while its GradientTape is
// recording, appends the corresponding ops.Operation so that gradients can be
// obtained afterwards with Backend.Gradients.
//
// Architecture:
//   - Backend: eager forward computation + recording
//   - GradientTape: ordered operation log, reverse walk with accumulation
//   - ops.Operation: each op implements its own backward pass
//
// Usage:
//
//	b := autodiff.New()
//	b.Tape().StartRecording()
//	loss := b.Sum(b.Mul(x, x)) // loss = Σ x²
//	grads := b.Gradients(loss)
//	dx := autodiff.Grad(grads, x) // 2x
package autodiff

import (
	"fmt"
	"math"

	"github.com/born-ml/bbsga/internal/autodiff/ops"
	"github.com/born-ml/bbsga/internal/tensor"
)

// Backend computes tensor operations and records them on a GradientTape.
//
// Tensors created outside the backend (inputs, variables) act as leaves;
// their gradients are looked up by identity after Gradients.
type Backend struct {
	tape *GradientTape
}

// New creates a new Backend with an idle tape.
func New() *Backend {
	return &Backend{tape: NewGradientTape()}
}

// Tape returns the gradient tape for manual control.
// Useful for:
//   - Starting/stopping recording
//   - Clearing tape between iterations
//   - Inspecting recorded operations
func (b *Backend) Tape() *GradientTape {
	return b.tape
}

// Gradients runs the backward pass from output.
func (b *Backend) Gradients(output *tensor.Tensor) map[*tensor.Tensor]*tensor.Tensor {
	return b.tape.Backward(output)
}

// Grad returns the gradient for t, or zeros when t did not influence the
// differentiated output.
func Grad(grads map[*tensor.Tensor]*tensor.Tensor, t *tensor.Tensor) *tensor.Tensor {
	if g, ok := grads[t]; ok {
		return g
	}
	return tensor.ZerosLike(t)
}

// Add performs element-wise addition and records the operation.
func (b *Backend) Add(x, y *tensor.Tensor) *tensor.Tensor {
	result := tensor.Add(x, y)
	b.tape.Record(ops.NewAddOp(x, y, result))
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *Backend) Sub(x, y *tensor.Tensor) *tensor.Tensor {
	result := tensor.Sub(x, y)
	b.tape.Record(ops.NewSubOp(x, y, result))
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *Backend) Mul(x, y *tensor.Tensor) *tensor.Tensor {
	result := tensor.Mul(x, y)
	b.tape.Record(ops.NewMulOp(x, y, result))
	return result
}

// Scale multiplies by a constant.
func (b *Backend) Scale(x *tensor.Tensor, c float64) *tensor.Tensor {
	result := tensor.Scale(x, c)
	b.tape.Record(ops.NewScaleOp(x, result, c))
	return result
}

// AddScalar adds a constant.
func (b *Backend) AddScalar(x *tensor.Tensor, c float64) *tensor.Tensor {
	result := tensor.AddScalar(x, c)
	b.tape.Record(ops.NewShiftOp(x, result))
	return result
}

// Square returns x².
func (b *Backend) Square(x *tensor.Tensor) *tensor.Tensor {
	return b.Mul(x, x)
}

// Exp computes the element-wise exponential.
func (b *Backend) Exp(x *tensor.Tensor) *tensor.Tensor {
	result := tensor.Map(x, math.Exp)
	b.tape.Record(ops.NewExpOp(x, result))
	return result
}

// Log computes the element-wise natural logarithm.
func (b *Backend) Log(x *tensor.Tensor) *tensor.Tensor {
	result := tensor.Map(x, math.Log)
	b.tape.Record(ops.NewLogOp(x, result))
	return result
}

// Tanh computes the element-wise hyperbolic tangent.
func (b *Backend) Tanh(x *tensor.Tensor) *tensor.Tensor {
	result := tensor.Map(x, math.Tanh)
	b.tape.Record(ops.NewTanhOp(x, result))
	return result
}

// Sigmoid computes the element-wise logistic function.
func (b *Backend) Sigmoid(x *tensor.Tensor) *tensor.Tensor {
	result := tensor.Map(x, ops.Sigmoid)
	b.tape.Record(ops.NewSigmoidOp(x, result))
	return result
}

// Softplus computes log(1 + exp(x)) element-wise.
func (b *Backend) Softplus(x *tensor.Tensor) *tensor.Tensor {
	result := tensor.Map(x, ops.Softplus)
	b.tape.Record(ops.NewSoftplusOp(x, result))
	return result
}

// Atanh computes the element-wise inverse hyperbolic tangent.
func (b *Backend) Atanh(x *tensor.Tensor) *tensor.Tensor {
	result := tensor.Map(x, math.Atanh)
	b.tape.Record(ops.NewAtanhOp(x, result))
	return result
}

// Abs computes |x| element-wise.
func (b *Backend) Abs(x *tensor.Tensor) *tensor.Tensor {
	result := tensor.Map(x, math.Abs)
	b.tape.Record(ops.NewAbsOp(x, result))
	return result
}

// Clip limits x to [lo, hi]; gradients vanish outside the range.
func (b *Backend) Clip(x *tensor.Tensor, lo, hi float64) *tensor.Tensor {
	result := tensor.Clip(x, lo, hi)
	b.tape.Record(ops.NewClipOp(x, result, lo, hi))
	return result
}

// LowerBound computes max(x, bound) with a gradient that still flows when
// it would move x towards the bound.
func (b *Backend) LowerBound(x *tensor.Tensor, bound float64) *tensor.Tensor {
	result := tensor.Map(x, func(v float64) float64 { return math.Max(v, bound) })
	b.tape.Record(ops.NewLowerBoundOp(x, result, bound))
	return result
}

// Sum reduces all elements to a scalar.
func (b *Backend) Sum(x *tensor.Tensor) *tensor.Tensor {
	result := tensor.Scalar(tensor.Sum(x))
	b.tape.Record(ops.NewSumOp(x, result))
	return result
}

// Mean reduces all elements to their mean.
func (b *Backend) Mean(x *tensor.Tensor) *tensor.Tensor {
	result := tensor.Scalar(tensor.Mean(x))
	b.tape.Record(ops.NewMeanOp(x, result))
	return result
}

// SumPerBatch reduces all non-batch axes: (N, ...) → (N).
func (b *Backend) SumPerBatch(x *tensor.Tensor) *tensor.Tensor {
	result := tensor.SumPerBatch(x)
	b.tape.Record(ops.NewSumPerBatchOp(x, result))
	return result
}

// SliceChannels selects channels [from, to) of the last axis.
func (b *Backend) SliceChannels(x *tensor.Tensor, from, to int) *tensor.Tensor {
	result := tensor.SliceChannels(x, from, to)
	b.tape.Record(ops.NewSliceChannelsOp(x, result, from, to))
	return result
}

// SplitChannels splits the last axis into two equal halves.
func (b *Backend) SplitChannels(x *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor) {
	shape := x.Shape()
	half := shape[len(shape)-1] / 2
	return b.SliceChannels(x, 0, half), b.SliceChannels(x, half, 2*half)
}

// CropSpatial keeps the top-left h×w window of an NHWC tensor. It is a
// no-op (and records nothing) when x already has that size.
func (b *Backend) CropSpatial(x *tensor.Tensor, h, w int) *tensor.Tensor {
	if _, xh, xw, _ := x.Dims4(); xh == h && xw == w {
		return x
	}
	result := tensor.CropSpatial(x, h, w)
	b.tape.Record(ops.NewCropOp(x, result))
	return result
}

// PadSpatial zero-pads an NHWC tensor to h×w. It is a no-op when x already
// has that size.
func (b *Backend) PadSpatial(x *tensor.Tensor, h, w int) *tensor.Tensor {
	if _, xh, xw, _ := x.Dims4(); xh == h && xw == w {
		return x
	}
	result := tensor.PadSpatial(x, h, w)
	b.tape.Record(ops.NewPadOp(x, result))
	return result
}

// SpaceToDepth folds s×s spatial blocks into channels.
func (b *Backend) SpaceToDepth(x *tensor.Tensor, s int) *tensor.Tensor {
	result := tensor.SpaceToDepth(x, s)
	b.tape.Record(ops.NewSpaceToDepthOp(x, result, s))
	return result
}

// DepthToSpace unfolds channels into s×s spatial blocks.
func (b *Backend) DepthToSpace(x *tensor.Tensor, s int) *tensor.Tensor {
	result := tensor.DepthToSpace(x, s)
	b.tape.Record(ops.NewDepthToSpaceOp(x, result, s))
	return result
}

// Dense computes x·W + b over the last axis.
func (b *Backend) Dense(x, kernel, bias *tensor.Tensor) *tensor.Tensor {
	result := tensor.Dense(x, kernel, bias)
	b.tape.Record(ops.NewDenseOp(x, kernel, bias, result))
	return result
}

// GaussianConditional computes the unit-bin likelihood of y under N(mu, sigma²).
func (b *Backend) GaussianConditional(y, mu, sigma *tensor.Tensor) *tensor.Tensor {
	if !y.Shape().Equal(mu.Shape()) || !y.Shape().Equal(sigma.Shape()) {
		panic(fmt.Sprintf("autodiff.GaussianConditional: shape mismatch %v, %v, %v", y.Shape(), mu.Shape(), sigma.Shape()))
	}
	result := tensor.New(y.Shape())
	out, yd, md, sd := result.Data(), y.Data(), mu.Data(), sigma.Data()
	for i := range out {
		out[i] = ops.GaussianBinLikelihood(yd[i]-md[i], sd[i])
	}
	b.tape.Record(ops.NewGaussianConditionalOp(y, mu, sigma, result))
	return result
}

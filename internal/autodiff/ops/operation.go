// Package ops defines operation interfaces and implementations for automatic differentiation.
//
// Each operation implements the Operation interface, which provides:
//   - Forward pass: computed by the recording backend
//   - Backward pass: computes gradients for inputs given output gradient
//
// Supported operations:
//   - AddOp, SubOp, MulOp, ScaleOp: element-wise arithmetic
//   - ExpOp, LogOp, TanhOp, SigmoidOp, SoftplusOp, AtanhOp, AbsOp: element-wise functions
//   - ClipOp, LowerBoundOp: bounded identities with masked gradients
//   - SumOp, MeanOp, SumPerBatchOp: reductions
//   - SliceChannelsOp, CropOp, PadOp, SpaceToDepthOp, DepthToSpaceOp: layout
//   - DenseOp: x·W + b over the last axis (d/dx = grad·Wᵀ)
//   - GaussianConditionalOp: likelihood of a unit bin under N(μ, σ²)
package ops

import "github.com/born-ml/bbsga/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor.
	// A nil entry means no gradient flows to that input.
	//
	// Example for AddOp:
	//   inputs: [a, b]
	//   outputGrad: dL/d(a+b)
	//   returns: [dL/d(a+b), dL/d(a+b)] (gradient flows equally to both inputs)
	Backward(outputGrad *tensor.Tensor) []*tensor.Tensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.Tensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.Tensor
}

// unaryGrad builds grad_input[i] = grad_output[i] * d(i).
func unaryGrad(input, outputGrad *tensor.Tensor, d func(i int) float64) *tensor.Tensor {
	grad := tensor.ZerosLike(input)
	gradData := grad.Data()
	outGradData := outputGrad.Data()
	for i := range gradData {
		gradData[i] = outGradData[i] * d(i)
	}
	return grad
}

package ops

import "github.com/born-ml/bbsga/internal/tensor"

// SubOp represents element-wise subtraction: output = a - b.
//
// Backward:
//
//	∂L/∂a = ∂L/∂output
//	∂L/∂b = -∂L/∂output
type SubOp struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
}

// NewSubOp creates a new subtraction operation.
func NewSubOp(a, b, output *tensor.Tensor) *SubOp {
	return &SubOp{
		inputs: []*tensor.Tensor{a, b},
		output: output,
	}
}

// Inputs returns the input tensors.
func (op *SubOp) Inputs() []*tensor.Tensor {
	return op.inputs
}

// Output returns the output tensor.
func (op *SubOp) Output() *tensor.Tensor {
	return op.output
}

// Backward computes gradients for both operands.
func (op *SubOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	return []*tensor.Tensor{outputGrad.Clone(), tensor.Scale(outputGrad, -1)}
}

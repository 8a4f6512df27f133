package ops

import "github.com/born-ml/bbsga/internal/tensor"

// AddOp represents element-wise addition: output = a + b.
//
// Backward:
//
//	∂L/∂a = ∂L/∂output
//	∂L/∂b = ∂L/∂output
type AddOp struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
}

// NewAddOp creates a new add operation.
func NewAddOp(a, b, output *tensor.Tensor) *AddOp {
	return &AddOp{
		inputs: []*tensor.Tensor{a, b},
		output: output,
	}
}

// Inputs returns the input tensors.
func (op *AddOp) Inputs() []*tensor.Tensor {
	return op.inputs
}

// Output returns the output tensor.
func (op *AddOp) Output() *tensor.Tensor {
	return op.output
}

// Backward passes the output gradient through to both inputs unchanged.
func (op *AddOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	return []*tensor.Tensor{outputGrad.Clone(), outputGrad.Clone()}
}

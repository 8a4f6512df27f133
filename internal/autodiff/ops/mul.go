package ops

import "github.com/born-ml/bbsga/internal/tensor"

// MulOp represents element-wise multiplication: output = a * b.
//
// Backward:
//
//	∂L/∂a = ∂L/∂output * b
//	∂L/∂b = ∂L/∂output * a
//
// Mul(x, x) is valid: the tape accumulates both contributions into x.
type MulOp struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
}

// NewMulOp creates a new multiplication operation.
func NewMulOp(a, b, output *tensor.Tensor) *MulOp {
	return &MulOp{
		inputs: []*tensor.Tensor{a, b},
		output: output,
	}
}

// Inputs returns the input tensors.
func (op *MulOp) Inputs() []*tensor.Tensor {
	return op.inputs
}

// Output returns the output tensor.
func (op *MulOp) Output() *tensor.Tensor {
	return op.output
}

// Backward computes gradients for both factors.
func (op *MulOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.Tensor{tensor.Mul(outputGrad, b), tensor.Mul(outputGrad, a)}
}

// ScaleOp represents multiplication by a constant: output = c * input.
type ScaleOp struct {
	input  *tensor.Tensor
	output *tensor.Tensor
	factor float64
}

// NewScaleOp creates a new scale operation.
func NewScaleOp(input, output *tensor.Tensor, factor float64) *ScaleOp {
	return &ScaleOp{input: input, output: output, factor: factor}
}

// Inputs returns the input tensors.
func (op *ScaleOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.input}
}

// Output returns the output tensor.
func (op *ScaleOp) Output() *tensor.Tensor {
	return op.output
}

// Backward computes ∂L/∂input = c * ∂L/∂output.
func (op *ScaleOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	return []*tensor.Tensor{tensor.Scale(outputGrad, op.factor)}
}

// ShiftOp represents addition of a constant: output = input + c.
// The constant does not affect the gradient.
type ShiftOp struct {
	input  *tensor.Tensor
	output *tensor.Tensor
}

// NewShiftOp creates a new shift operation.
func NewShiftOp(input, output *tensor.Tensor) *ShiftOp {
	return &ShiftOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *ShiftOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.input}
}

// Output returns the output tensor.
func (op *ShiftOp) Output() *tensor.Tensor {
	return op.output
}

// Backward passes the gradient through unchanged.
func (op *ShiftOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	return []*tensor.Tensor{outputGrad.Clone()}
}

package ops

import (
	"github.com/born-ml/bbsga/internal/tensor"
)

// DenseOp represents an affine map over the last axis: output = x·W + b.
//
// Backward (X viewed as rows×in, G = ∂L/∂output as rows×out):
//
//	∂L/∂x = G·Wᵀ
//	∂L/∂W = Xᵀ·G
//	∂L/∂b = Σ_rows G
type DenseOp struct {
	inputs []*tensor.Tensor // x, kernel, bias
	output *tensor.Tensor
}

// NewDenseOp creates a new dense operation.
func NewDenseOp(x, kernel, bias, output *tensor.Tensor) *DenseOp {
	return &DenseOp{
		inputs: []*tensor.Tensor{x, kernel, bias},
		output: output,
	}
}

// Inputs returns the input tensors.
func (op *DenseOp) Inputs() []*tensor.Tensor {
	return op.inputs
}

// Output returns the output tensor.
func (op *DenseOp) Output() *tensor.Tensor {
	return op.output
}

// Backward computes gradients for input, kernel and bias.
func (op *DenseOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	x, kernel, bias := op.inputs[0], op.inputs[1], op.inputs[2]
	g := tensor.AsMatrix(outputGrad)

	gradX := tensor.ZerosLike(x)
	tensor.AsMatrix(gradX).Mul(g, tensor.AsMatrix(kernel).T())

	gradW := tensor.ZerosLike(kernel)
	tensor.AsMatrix(gradW).Mul(tensor.AsMatrix(x).T(), g)

	var gradB *tensor.Tensor
	if bias != nil {
		gradB = tensor.ZerosLike(bias)
		b := gradB.Data()
		rows, _ := g.Dims()
		for r := 0; r < rows; r++ {
			for j := range b {
				b[j] += g.At(r, j)
			}
		}
	}
	return []*tensor.Tensor{gradX, gradW, gradB}
}

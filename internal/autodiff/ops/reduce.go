package ops

import "github.com/born-ml/bbsga/internal/tensor"

// SumOp reduces all elements to a scalar: output = Σ input.
//
// Backward:
//
//	∂L/∂input[i] = ∂L/∂output
type SumOp struct{ unary }

// NewSumOp creates a new sum operation.
func NewSumOp(input, output *tensor.Tensor) *SumOp {
	return &SumOp{unary{input, output}}
}

// Backward broadcasts the scalar gradient.
func (op *SumOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	return []*tensor.Tensor{tensor.Full(op.input.Shape(), outputGrad.Item())}
}

// MeanOp reduces all elements to their mean.
//
// Backward:
//
//	∂L/∂input[i] = ∂L/∂output / n
type MeanOp struct{ unary }

// NewMeanOp creates a new mean operation.
func NewMeanOp(input, output *tensor.Tensor) *MeanOp {
	return &MeanOp{unary{input, output}}
}

// Backward broadcasts the scaled scalar gradient.
func (op *MeanOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	n := float64(op.input.NumElements())
	return []*tensor.Tensor{tensor.Full(op.input.Shape(), outputGrad.Item()/n)}
}

// SumPerBatchOp reduces every axis except the batch axis: (N, ...) → (N).
//
// Backward:
//
//	∂L/∂input[b, ...] = ∂L/∂output[b]
type SumPerBatchOp struct{ unary }

// NewSumPerBatchOp creates a new per-batch sum operation.
func NewSumPerBatchOp(input, output *tensor.Tensor) *SumPerBatchOp {
	return &SumPerBatchOp{unary{input, output}}
}

// Backward broadcasts each batch gradient over its elements.
func (op *SumPerBatchOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	grad := tensor.ZerosLike(op.input)
	data := grad.Data()
	g := outputGrad.Data()
	per := len(data) / len(g)
	for i := range data {
		data[i] = g[i/per]
	}
	return []*tensor.Tensor{grad}
}

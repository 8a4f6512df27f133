package ops

import "github.com/born-ml/bbsga/internal/tensor"

// SliceChannelsOp selects channels [from, to) of the last axis.
//
// Backward scatters the gradient into a zero tensor of the input's shape.
type SliceChannelsOp struct {
	unary
	from, to int
}

// NewSliceChannelsOp creates a new channel slice operation.
func NewSliceChannelsOp(input, output *tensor.Tensor, from, to int) *SliceChannelsOp {
	return &SliceChannelsOp{unary: unary{input, output}, from: from, to: to}
}

// Backward scatters the gradient back into the selected channels.
func (op *SliceChannelsOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	shape := op.input.Shape()
	c := shape[len(shape)-1]
	width := op.to - op.from
	grad := tensor.ZerosLike(op.input)
	data := grad.Data()
	g := outputGrad.Data()
	for r := 0; r < len(g)/width; r++ {
		copy(data[r*c+op.from:r*c+op.to], g[r*width:(r+1)*width])
	}
	return []*tensor.Tensor{grad}
}

// CropOp keeps the top-left window of an NHWC tensor; its gradient is the
// output gradient zero-padded back to the input size.
type CropOp struct{ unary }

// NewCropOp creates a new spatial crop operation.
func NewCropOp(input, output *tensor.Tensor) *CropOp {
	return &CropOp{unary{input, output}}
}

// Backward pads the gradient back to the input size.
func (op *CropOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	_, h, w, _ := op.input.Dims4()
	return []*tensor.Tensor{tensor.PadSpatial(outputGrad, h, w)}
}

// PadOp zero-pads an NHWC tensor at the bottom/right; its gradient is the
// output gradient cropped back to the input size.
type PadOp struct{ unary }

// NewPadOp creates a new spatial pad operation.
func NewPadOp(input, output *tensor.Tensor) *PadOp {
	return &PadOp{unary{input, output}}
}

// Backward crops the gradient back to the input size.
func (op *PadOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	_, h, w, _ := op.input.Dims4()
	return []*tensor.Tensor{tensor.CropSpatial(outputGrad, h, w)}
}

// SpaceToDepthOp folds s×s blocks into channels. It is a permutation, so the
// gradient is the inverse permutation (DepthToSpace).
type SpaceToDepthOp struct {
	unary
	block int
}

// NewSpaceToDepthOp creates a new space-to-depth operation.
func NewSpaceToDepthOp(input, output *tensor.Tensor, block int) *SpaceToDepthOp {
	return &SpaceToDepthOp{unary: unary{input, output}, block: block}
}

// Backward applies the inverse permutation.
func (op *SpaceToDepthOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	return []*tensor.Tensor{tensor.DepthToSpace(outputGrad, op.block)}
}

// DepthToSpaceOp unfolds channels into s×s blocks; the gradient is
// SpaceToDepth of the output gradient.
type DepthToSpaceOp struct {
	unary
	block int
}

// NewDepthToSpaceOp creates a new depth-to-space operation.
func NewDepthToSpaceOp(input, output *tensor.Tensor, block int) *DepthToSpaceOp {
	return &DepthToSpaceOp{unary: unary{input, output}, block: block}
}

// Backward applies the inverse permutation.
func (op *DepthToSpaceOp) Backward(outputGrad *tensor.Tensor) []*tensor.Tensor {
	return []*tensor.Tensor{tensor.SpaceToDepth(outputGrad, op.block)}
}

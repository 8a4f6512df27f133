package model

import (
	"fmt"
	"math"

	"github.com/born-ml/bbsga/internal/autodiff"
	"github.com/born-ml/bbsga/internal/rng"
	"github.com/born-ml/bbsga/internal/tensor"
)

// Layer is a Transform with (possibly empty) state.
type Layer interface {
	Transform
	Stateful
}

// Sequential applies layers in order.
//
// Example:
//
//	analysis := model.NewSequential(
//	    model.NewPad(4),
//	    model.NewSpaceToDepth(4),
//	    model.NewDense(48, 128, r),
//	    model.NewTanh(),
//	)
type Sequential struct {
	layers []Layer
}

// NewSequential creates a container holding layers.
func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{layers: layers}
}

// Forward passes x through every layer.
func (s *Sequential) Forward(b *autodiff.Backend, x *tensor.Tensor) *tensor.Tensor {
	for _, l := range s.layers {
		x = l.Forward(b, x)
	}
	return x
}

// Len returns the number of layers.
func (s *Sequential) Len() int {
	return len(s.layers)
}

// StateDict returns layer tensors prefixed with the layer index
// (e.g. "0.kernel", "2.bias").
func (s *Sequential) StateDict() map[string]*tensor.Tensor {
	stateDict := make(map[string]*tensor.Tensor)
	for i, l := range s.layers {
		for name, t := range l.StateDict() {
			stateDict[fmt.Sprintf("%d.%s", i, name)] = t
		}
	}
	return stateDict
}

// LoadStateDict loads tensors produced by StateDict.
func (s *Sequential) LoadStateDict(stateDict map[string]*tensor.Tensor) error {
	for i, l := range s.layers {
		if err := l.LoadStateDict(subDict(stateDict, fmt.Sprintf("%d.", i))); err != nil {
			return fmt.Errorf("failed to load layer %d: %w", i, err)
		}
	}
	return nil
}

// Dense is a fully connected layer applied to the channel axis:
// y = x·W + b with W of shape (in, out).
//
// Weights use Xavier/Glorot uniform initialization, biases start at zero.
type Dense struct {
	kernel *tensor.Tensor // (in, out)
	bias   *tensor.Tensor // (out)
}

// NewDense creates a Dense layer with weights drawn from r.
func NewDense(in, out int, r *rng.RNG) *Dense {
	bound := math.Sqrt(6.0 / float64(in+out))
	return &Dense{
		kernel: r.Uniform(tensor.Shape{in, out}, -bound, bound),
		bias:   tensor.Zeros(tensor.Shape{out}),
	}
}

// Forward computes x·W + b.
func (d *Dense) Forward(b *autodiff.Backend, x *tensor.Tensor) *tensor.Tensor {
	return b.Dense(x, d.kernel, d.bias)
}

// StateDict returns the kernel and bias.
func (d *Dense) StateDict() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{"kernel": d.kernel, "bias": d.bias}
}

// LoadStateDict replaces the kernel and bias, checking shapes.
func (d *Dense) LoadStateDict(stateDict map[string]*tensor.Tensor) error {
	for name, dst := range d.StateDict() {
		src, ok := stateDict[name]
		if !ok {
			return fmt.Errorf("missing %s in state dict", name)
		}
		if !src.Shape().Equal(dst.Shape()) {
			return fmt.Errorf("%s shape mismatch: expected %v, got %v", name, dst.Shape(), src.Shape())
		}
	}
	d.kernel = stateDict["kernel"].Clone()
	d.bias = stateDict["bias"].Clone()
	return nil
}

// stateless provides the empty state of parameter-free layers.
type stateless struct{}

func (stateless) StateDict() map[string]*tensor.Tensor { return map[string]*tensor.Tensor{} }

func (stateless) LoadStateDict(map[string]*tensor.Tensor) error { return nil }

// Tanh applies tanh element-wise.
type Tanh struct{ stateless }

// NewTanh creates a Tanh layer.
func NewTanh() *Tanh { return &Tanh{} }

// Forward applies tanh.
func (*Tanh) Forward(b *autodiff.Backend, x *tensor.Tensor) *tensor.Tensor {
	return b.Tanh(x)
}

// SpaceToDepth folds s×s patches into channels.
type SpaceToDepth struct {
	stateless
	block int
}

// NewSpaceToDepth creates a SpaceToDepth layer with block size s.
func NewSpaceToDepth(s int) *SpaceToDepth { return &SpaceToDepth{block: s} }

// Forward folds patches.
func (l *SpaceToDepth) Forward(b *autodiff.Backend, x *tensor.Tensor) *tensor.Tensor {
	return b.SpaceToDepth(x, l.block)
}

// DepthToSpace unfolds channels into s×s patches.
type DepthToSpace struct {
	stateless
	block int
}

// NewDepthToSpace creates a DepthToSpace layer with block size s.
func NewDepthToSpace(s int) *DepthToSpace { return &DepthToSpace{block: s} }

// Forward unfolds patches.
func (l *DepthToSpace) Forward(b *autodiff.Backend, x *tensor.Tensor) *tensor.Tensor {
	return b.DepthToSpace(x, l.block)
}

// Pad zero-pads height and width at the bottom/right up to a multiple of m,
// so images of any size can be folded into patches.
type Pad struct {
	stateless
	multiple int
}

// NewPad creates a Pad layer.
func NewPad(m int) *Pad { return &Pad{multiple: m} }

// Forward pads x.
func (l *Pad) Forward(b *autodiff.Backend, x *tensor.Tensor) *tensor.Tensor {
	_, h, w, _ := x.Dims4()
	return b.PadSpatial(x, roundUp(h, l.multiple), roundUp(w, l.multiple))
}

func roundUp(n, m int) int {
	return (n + m - 1) / m * m
}

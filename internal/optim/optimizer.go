// Package optim implements stateful first-order optimizers over lists of
// tensors.
//
// This package provides:
//   - Optimizer interface: Update a list of parameters from a list of gradients
//   - Adam: Adaptive Moment Estimation
//   - SGD: Stochastic Gradient Descent with momentum
//
// State is kept per list position, so the i-th parameter passed to Update
// must keep its shape across calls. Parameters of different positions may
// have unrelated shapes. Update never modifies its inputs; it returns fresh
// tensors, which become the leaves of the next forward pass.
//
// Example usage:
//
//	opt := optim.NewAdam(optim.AdamConfig{LR: 0.005})
//
//	for it := range iterations {
//	    b := autodiff.New()
//	    b.Tape().StartRecording()
//	    loss := objective(b, params)
//	    grads := b.Gradients(loss)
//
//	    params, err = opt.Update(params, gradsFor(grads, params))
//	}
package optim

import (
	"errors"
	"fmt"

	"github.com/born-ml/bbsga/internal/tensor"
)

// ErrShapeMismatch is returned when parameters and gradients disagree in
// count or shape, or when a position changes shape between calls.
var ErrShapeMismatch = errors.New("optim: shape mismatch")

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Update applies one step and returns the updated parameters, one per
	// input position.
	Update(params, grads []*tensor.Tensor) ([]*tensor.Tensor, error)

	// GetLR returns the current learning rate.
	GetLR() float64

	// SetLR updates the learning rate.
	SetLR(lr float64)

	// GetTimestep returns the number of successful Update calls.
	GetTimestep() int
}

// Kind selects an optimizer implementation.
type Kind string

// Supported optimizers.
const (
	KindAdam Kind = "adam"
	KindSGD  Kind = "sgd"
)

// New creates a fresh optimizer of the given kind with default
// hyperparameters and learning rate lr.
func New(kind Kind, lr float64) (Optimizer, error) {
	if lr <= 0 {
		return nil, fmt.Errorf("optim: learning rate must be positive, got %g", lr)
	}
	switch kind {
	case KindAdam, "":
		return NewAdam(AdamConfig{LR: lr}), nil
	case KindSGD:
		return NewSGD(SGDConfig{LR: lr, Momentum: 0.9}), nil
	default:
		return nil, fmt.Errorf("optim: unknown optimizer %q", kind)
	}
}

// checkInputs validates params and grads against each other and against the
// shapes recorded by previous calls. It returns the shapes to record.
func checkInputs(params, grads []*tensor.Tensor, known []tensor.Shape) ([]tensor.Shape, error) {
	if len(params) != len(grads) {
		return nil, fmt.Errorf("%w: %d parameters, %d gradients", ErrShapeMismatch, len(params), len(grads))
	}
	if known != nil && len(known) != len(params) {
		return nil, fmt.Errorf("%w: %d parameters, optimizer tracks %d", ErrShapeMismatch, len(params), len(known))
	}
	shapes := make([]tensor.Shape, len(params))
	for i, p := range params {
		if !p.Shape().Equal(grads[i].Shape()) {
			return nil, fmt.Errorf("%w: position %d parameter %v, gradient %v",
				ErrShapeMismatch, i, p.Shape(), grads[i].Shape())
		}
		if known != nil && !known[i].Equal(p.Shape()) {
			return nil, fmt.Errorf("%w: position %d changed shape from %v to %v",
				ErrShapeMismatch, i, known[i], p.Shape())
		}
		shapes[i] = p.Shape().Clone()
	}
	return shapes, nil
}

package optim

import (
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/bbsga/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD struct {
	lr         float64
	momentum   float64
	t          int
	shapes     []tensor.Shape
	velocities [][]float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{lr: config.LR, momentum: config.Momentum}
}

// Update performs a single optimization step.
func (s *SGD) Update(params, grads []*tensor.Tensor) ([]*tensor.Tensor, error) {
	shapes, err := checkInputs(params, grads, s.shapes)
	if err != nil {
		return nil, err
	}
	if s.shapes == nil {
		s.shapes = shapes
		s.velocities = make([][]float64, len(params))
		for i, p := range params {
			s.velocities[i] = make([]float64, p.NumElements())
		}
	}
	s.t++

	out := make([]*tensor.Tensor, len(params))
	for i, p := range params {
		step := grads[i].Data()
		if s.momentum != 0 {
			vel := s.velocities[i]
			floats.Scale(s.momentum, vel)
			floats.Add(vel, step)
			step = vel
		}
		out[i] = p.Clone()
		floats.AddScaled(out[i].Data(), -s.lr, step)
	}
	return out, nil
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}

// GetTimestep returns the number of steps taken.
func (s *SGD) GetTimestep() int {
	return s.t
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/bbsga/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Kind selects an optimizer implementation by name.
type Kind = optim.Kind

// Supported optimizer kinds.
const (
	KindAdam = optim.KindAdam
	KindSGD  = optim.KindSGD
)

// ErrShapeMismatch is returned when parameters and gradients disagree.
var ErrShapeMismatch = optim.ErrShapeMismatch

// New creates an optimizer of the given kind with default settings.
func New(kind Kind, lr float64) (Optimizer, error) {
	return optim.New(kind, lr)
}

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD(config SGDConfig) *SGD {
	return optim.NewSGD(config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.005,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
func NewAdam(config AdamConfig) *Adam {
	return optim.NewAdam(config)
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the optimizers used to refine latents.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// Optimizers keep state per parameter position and never modify their
// inputs: Update returns fresh tensors that become the leaves of the next
// forward pass.
//
// # Refinement Loop Pattern
//
//	opt := optim.NewAdam(optim.AdamConfig{LR: 0.005})
//
//	for it := range iterations {
//	    // 1. Forward pass on a fresh recording backend
//	    b := autodiff.New()
//	    b.Tape().StartRecording()
//	    loss := objective(b, params)
//
//	    // 2. Backward pass
//	    grads := b.Gradients(loss)
//
//	    // 3. Update parameters
//	    params, err = opt.Update(params, gradsFor(grads, params))
//	}
package optim

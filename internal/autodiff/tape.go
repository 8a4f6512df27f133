package autodiff

import (
	"github.com/born-ml/bbsga/internal/autodiff/ops"
	"github.com/born-ml/bbsga/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic differentiation.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... perform operations ...
//	gradients := tape.Backward(loss)
type GradientTape struct {
	operations []ops.Operation // Recorded operations (in execution order)
	recording  bool            // Whether tape is currently recording
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 64), // Pre-allocate for common case
		recording:  false,
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear resets the tape, removing all recorded operations.
// Recording state is preserved.
func (t *GradientTape) Clear() {
	clear(t.operations)
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward computes gradients of output with respect to every tensor that
// contributed to it, by walking the tape in reverse.
//
// Algorithm:
//  1. Seed ∂output/∂output with ones
//  2. Walk operations in reverse order
//  3. For each operation whose output has a gradient, compute input gradients
//  4. Accumulate gradients when the same tensor is used multiple times
//
// Returns a map from tensor to its accumulated gradient. Tensors that did not
// influence output have no entry.
func (t *GradientTape) Backward(output *tensor.Tensor) map[*tensor.Tensor]*tensor.Tensor {
	// Stop recording during backward pass to prevent recording gradient operations
	wasRecording := t.recording
	t.recording = false
	defer func() {
		t.recording = wasRecording
	}()

	grads := make(map[*tensor.Tensor]*tensor.Tensor)
	grads[output] = tensor.Ones(output.Shape())

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outputGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}
		t.accumulateGrads(op, op.Backward(outputGrad), grads)
	}

	return grads
}

// accumulateGrads accumulates gradients for each input tensor.
func (t *GradientTape) accumulateGrads(
	op ops.Operation,
	inputGrads []*tensor.Tensor,
	grads map[*tensor.Tensor]*tensor.Tensor,
) {
	for j, input := range op.Inputs() {
		if input == nil || j >= len(inputGrads) || inputGrads[j] == nil {
			continue
		}
		if existing, ok := grads[input]; ok {
			grads[input] = tensor.Add(existing, inputGrads[j])
		} else {
			grads[input] = inputGrads[j]
		}
	}
}

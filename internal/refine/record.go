package refine

import (
	"log/slog"
)

// Phase identifies the stage of the refinement loop.
type Phase string

// Refinement phases.
const (
	PhaseRD   Phase = "rd"   // Joint rate-distortion optimization with SGA
	PhaseRate Phase = "rate" // Rate-only optimization of the side latent
)

// Step is one optimizer iteration. Loss and its components are evaluated at
// the parameters before the update.
type Step struct {
	Phase       Phase
	Iteration   int
	Temperature float64 // Zero in the rate phase
	Loss        float64
	MSE         float64
	BPP         float64
	PSNR        float64 // Mean over the batch

	// AfterRounding is set on logged Phase 1 steps when verbose diagnostics
	// are enabled.
	AfterRounding *Rounded
}

// Rounded reports the objective at the updated latents with y hard-rounded.
type Rounded struct {
	Loss float64
	BPP  float64
	PSNR float64
}

// Record is an append-only log of steps.
type Record struct {
	Steps []Step
}

// Append adds a step.
func (r *Record) Append(s Step) {
	r.Steps = append(r.Steps, s)
}

// Phase returns the steps of phase p in order.
func (r *Record) Phase(p Phase) []Step {
	var out []Step
	for _, s := range r.Steps {
		if s.Phase == p {
			out = append(out, s)
		}
	}
	return out
}

// Losses returns the loss of every step of phase p.
func (r *Record) Losses(p Phase) []float64 {
	steps := r.Phase(p)
	out := make([]float64, len(steps))
	for i, s := range steps {
		out[i] = s.Loss
	}
	return out
}

// Observer receives logged steps. It must not retain or modify tensors;
// it only sees already-computed values.
type Observer func(batch int, s Step)

// LogObserver returns an Observer writing one line per step to logger.
func LogObserver(logger *slog.Logger) Observer {
	return func(batch int, s Step) {
		attrs := []any{"batch", batch, "phase", s.Phase, "it", s.Iteration}
		switch s.Phase {
		case PhaseRD:
			attrs = append(attrs,
				"T", s.Temperature,
				"rd_loss", s.Loss,
				"mse", s.MSE,
				"bpp", s.BPP,
				"psnr", s.PSNR,
			)
			if s.AfterRounding != nil {
				attrs = append(attrs, slog.Group("after_rounding",
					"rd_loss", s.AfterRounding.Loss,
					"bpp", s.AfterRounding.BPP,
					"psnr", s.AfterRounding.PSNR,
				))
			}
		default:
			attrs = append(attrs, "rate", s.Loss)
		}
		logger.Info("refine", attrs...)
	}
}

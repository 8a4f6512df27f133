package sga

import (
	"errors"
	"fmt"
	"math"
)

// Scheme names a temperature annealing curve.
type Scheme string

// Supported annealing schemes.
const (
	// SchemeExp decays as exp(-r·t).
	SchemeExp Scheme = "exp"
	// SchemeExp0 holds the upper bound for the first t0 iterations, then
	// decays as ub·exp(-r·(t - t0)).
	SchemeExp0 Scheme = "exp0"
	// SchemeLinear holds the upper bound for the first t0 iterations, then
	// cools linearly as ub - r·(t - t0).
	SchemeLinear Scheme = "linear"
)

// Schedule maps an iteration index to a temperature. Temperature is a pure
// function of the iteration and the schedule parameters.
type Schedule struct {
	Scheme     Scheme  // Annealing curve (default: exp0)
	Rate       float64 // Decay rate r (default: 1e-3)
	UpperBound float64 // Maximum / initial temperature (default: 0.5)
	LowerBound float64 // Minimum temperature, > 0 (default: 1e-8)
	Offset     float64 // Iteration t0 at which cooling starts (default: 700)
}

// DefaultSchedule returns the schedule used for Phase 1.
func DefaultSchedule() Schedule {
	return Schedule{
		Scheme:     SchemeExp0,
		Rate:       1e-3,
		UpperBound: 0.5,
		LowerBound: 1e-8,
		Offset:     700,
	}
}

// Validate checks the schedule parameters.
func (s Schedule) Validate() error {
	switch s.Scheme {
	case SchemeExp, SchemeExp0, SchemeLinear:
	default:
		return fmt.Errorf("unknown annealing scheme %q", s.Scheme)
	}
	if s.Rate < 0 {
		return fmt.Errorf("annealing rate must be non-negative, got %g", s.Rate)
	}
	if !(s.LowerBound > 0) {
		return errors.New("temperature lower bound must be positive")
	}
	if s.UpperBound < s.LowerBound {
		return fmt.Errorf("temperature upper bound %g is below lower bound %g", s.UpperBound, s.LowerBound)
	}
	return nil
}

// Temperature returns the annealed temperature at iteration it, clamped to
// [LowerBound, UpperBound].
func (s Schedule) Temperature(it int) float64 {
	t := float64(it)
	var tau float64
	switch s.Scheme {
	case SchemeExp:
		tau = math.Exp(-s.Rate * t)
	case SchemeExp0:
		tau = s.UpperBound * math.Exp(-s.Rate*(t-s.Offset))
	case SchemeLinear:
		tau = s.UpperBound - s.Rate*(t-s.Offset)
	default:
		tau = s.UpperBound
	}
	return math.Min(math.Max(tau, s.LowerBound), s.UpperBound)
}

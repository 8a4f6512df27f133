// Package config holds the run configuration of a refinement job.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/born-ml/bbsga/internal/optim"
	"github.com/born-ml/bbsga/internal/sga"
)

// ErrInvalidLambda is returned when the rate-distortion trade-off cannot be
// resolved to a non-negative value.
var ErrInvalidLambda = errors.New("invalid lambda")

// lambdaKey prefixes the training λ inside a run name, e.g.
// "bmshj2018-num_filters=192-lmbda=0.01-last_step=1000".
const lambdaKey = "lmbda="

// Config configures one refinement run.
type Config struct {
	RunName       string // Training run; names the checkpoint subdirectory
	CheckpointDir string
	ResultsDir    string
	InputFile     string

	// Lambda weighs distortion against rate. Negative means "use the value
	// the model was trained with", recovered from RunName.
	Lambda float64

	RDIterations   int     // Phase 1 (SGA) iterations
	RDLR           float64 // Phase 1 learning rate
	RateIterations int     // Phase 2 iterations
	RateLR         float64 // Phase 2 learning rate
	Optimizer      optim.Kind
	Schedule       sga.Schedule

	Seed        uint64
	LogInterval int
	Verbose     bool // Log after-rounding diagnostics during Phase 1
	BatchSize   int  // Images per batch; 0 picks a size from the image resolution
	Jobs        int  // Batches refined concurrently
}

// Default returns the configuration used when no flags are given.
func Default() Config {
	return Config{
		Lambda:         -1,
		RDIterations:   2000,
		RDLR:           0.005,
		RateIterations: 100,
		RateLR:         0.003,
		Optimizer:      optim.KindAdam,
		Schedule:       sga.DefaultSchedule(),
		Seed:           0,
		LogInterval:    100,
		Jobs:           1,
	}
}

// ResolveLambda returns lambda when it is non-negative. A negative lambda is
// a sentinel for the training value, parsed from the text following
// "lmbda=" in runName up to the next '-'.
func ResolveLambda(lambda float64, runName string) (float64, error) {
	if lambda >= 0 {
		return lambda, nil
	}
	_, rest, ok := strings.Cut(runName, lambdaKey)
	if !ok {
		return 0, fmt.Errorf("%w: negative value and run name %q has no %s", ErrInvalidLambda, runName, lambdaKey)
	}
	value, _, _ := strings.Cut(rest, "-")
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: run name %q: %v", ErrInvalidLambda, runName, err)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("%w: run name %q encodes %g", ErrInvalidLambda, runName, parsed)
	}
	return parsed, nil
}

// Validate checks the configuration before any optimization starts.
func (c Config) Validate() error {
	if c.Lambda < 0 {
		return fmt.Errorf("%w: %g (unresolved)", ErrInvalidLambda, c.Lambda)
	}
	if c.RDIterations < 0 || c.RateIterations < 0 {
		return fmt.Errorf("iteration counts must be non-negative, got %d and %d", c.RDIterations, c.RateIterations)
	}
	if c.RDLR <= 0 || c.RateLR <= 0 {
		return fmt.Errorf("learning rates must be positive, got %g and %g", c.RDLR, c.RateLR)
	}
	if c.LogInterval <= 0 {
		return fmt.Errorf("log interval must be positive, got %d", c.LogInterval)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch size must be non-negative, got %d", c.BatchSize)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	switch c.Optimizer {
	case optim.KindAdam, optim.KindSGD:
	default:
		return fmt.Errorf("unknown optimizer %q", c.Optimizer)
	}
	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("annealing schedule: %w", err)
	}
	return nil
}

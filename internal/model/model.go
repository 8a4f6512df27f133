// Package model defines the learned compression model the refinement engine
// works against.
//
// The engine only needs four transforms and a density:
//   - Analysis g_a: image → main latent y
//   - Synthesis g_s: y → reconstruction x̃
//   - HyperAnalysis h_a: y → (z_mean ‖ z_logvar)
//   - HyperSynthesis h_s: z → (μ ‖ log σ)
//   - Prior p(z): the factorized hyperprior
//
// All of them are frozen during refinement; gradients flow through them to
// the latents only.
package model

import (
	"errors"
	"fmt"

	"github.com/born-ml/bbsga/internal/autodiff"
	"github.com/born-ml/bbsga/internal/entropy"
	"github.com/born-ml/bbsga/internal/rng"
	"github.com/born-ml/bbsga/internal/tensor"
)

// Transform maps an NHWC tensor to another NHWC tensor, recording on b.
type Transform interface {
	Forward(b *autodiff.Backend, x *tensor.Tensor) *tensor.Tensor
}

// Density returns per-element likelihoods of an NHWC latent.
type Density interface {
	Likelihood(b *autodiff.Backend, z *tensor.Tensor) *tensor.Tensor
}

// Stateful components expose their tensors for checkpointing.
type Stateful interface {
	StateDict() map[string]*tensor.Tensor
	LoadStateDict(stateDict map[string]*tensor.Tensor) error
}

// Downsampling factors of the analysis and hyper-analysis transforms.
const (
	Stride      = 4
	HyperStride = 2
)

// Config describes the model architecture.
type Config struct {
	NumFilters   int     // Channels of y and of z
	Hidden       int     // Width of the hidden layer in every transform
	PriorFilters []int   // Hidden widths of the factorized prior
	InitScale    float64 // Initial width of the prior density
}

// DefaultConfig returns the architecture created by "bbsga init".
func DefaultConfig() Config {
	return Config{
		NumFilters:   192,
		Hidden:       192,
		PriorFilters: []int{3, 3, 3},
		InitScale:    10,
	}
}

// Validate checks that every dimension is positive.
func (c Config) Validate() error {
	if c.NumFilters <= 0 || c.Hidden <= 0 {
		return fmt.Errorf("model: filters and hidden width must be positive, got %d and %d", c.NumFilters, c.Hidden)
	}
	if len(c.PriorFilters) == 0 {
		return errors.New("model: prior needs at least one hidden layer")
	}
	for _, f := range c.PriorFilters {
		if f <= 0 {
			return fmt.Errorf("model: invalid prior filters %v", c.PriorFilters)
		}
	}
	if !(c.InitScale > 0) {
		return fmt.Errorf("model: init scale must be positive, got %g", c.InitScale)
	}
	return nil
}

// Model bundles the frozen collaborators of the refinement loop.
type Model struct {
	Config         Config
	Analysis       Transform
	Synthesis      Transform
	HyperAnalysis  Transform
	HyperSynthesis Transform
	Prior          Density
}

// NewRandom builds a randomly initialized model. All weights are drawn from
// a generator seeded with seed.
func NewRandom(cfg Config, seed uint64) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := rng.New(seed)
	m, h := cfg.NumFilters, cfg.Hidden
	patch := Stride * Stride * 3
	hyperPatch := HyperStride * HyperStride * m

	return &Model{
		Config: cfg,
		Analysis: NewSequential(
			NewPad(Stride),
			NewSpaceToDepth(Stride),
			NewDense(patch, h, r),
			NewTanh(),
			NewDense(h, m, r),
		),
		Synthesis: NewSequential(
			NewDense(m, h, r),
			NewTanh(),
			NewDense(h, patch, r),
			NewDepthToSpace(Stride),
		),
		HyperAnalysis: NewSequential(
			NewPad(HyperStride),
			NewSpaceToDepth(HyperStride),
			NewDense(hyperPatch, h, r),
			NewTanh(),
			NewDense(h, 2*m, r),
		),
		HyperSynthesis: NewSequential(
			NewDense(m, h, r),
			NewTanh(),
			NewDense(h, 2*hyperPatch, r),
			NewDepthToSpace(HyperStride),
		),
		Prior: entropy.NewFactorizedPrior(m, cfg.PriorFilters, cfg.InitScale, r),
	}, nil
}

// components lists the model's parts under their checkpoint prefixes.
func (m *Model) components() map[string]any {
	return map[string]any{
		"analysis":        m.Analysis,
		"synthesis":       m.Synthesis,
		"hyper_analysis":  m.HyperAnalysis,
		"hyper_synthesis": m.HyperSynthesis,
		"prior":           m.Prior,
	}
}

// StateDict returns every tensor of the model, prefixed by component name
// (e.g. "analysis.2.kernel", "prior.matrix.0").
func (m *Model) StateDict() (map[string]*tensor.Tensor, error) {
	stateDict := make(map[string]*tensor.Tensor)
	for prefix, c := range m.components() {
		s, ok := c.(Stateful)
		if !ok {
			return nil, fmt.Errorf("model: component %s (%T) cannot be saved", prefix, c)
		}
		for name, t := range s.StateDict() {
			stateDict[prefix+"."+name] = t
		}
	}
	return stateDict, nil
}

// LoadStateDict loads tensors produced by StateDict.
func (m *Model) LoadStateDict(stateDict map[string]*tensor.Tensor) error {
	for prefix, c := range m.components() {
		s, ok := c.(Stateful)
		if !ok {
			return fmt.Errorf("model: component %s (%T) cannot be loaded", prefix, c)
		}
		if err := s.LoadStateDict(subDict(stateDict, prefix+".")); err != nil {
			return fmt.Errorf("failed to load %s: %w", prefix, err)
		}
	}
	return nil
}

// subDict returns the entries of stateDict under prefix, with the prefix
// removed.
func subDict(stateDict map[string]*tensor.Tensor, prefix string) map[string]*tensor.Tensor {
	out := make(map[string]*tensor.Tensor)
	for key, t := range stateDict {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out[key[len(prefix):]] = t
		}
	}
	return out
}

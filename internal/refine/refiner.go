package refine

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/bbsga/internal/autodiff"
	"github.com/born-ml/bbsga/internal/config"
	"github.com/born-ml/bbsga/internal/metrics"
	"github.com/born-ml/bbsga/internal/optim"
	"github.com/born-ml/bbsga/internal/rng"
	"github.com/born-ml/bbsga/internal/sga"
	"github.com/born-ml/bbsga/internal/tensor"
)

// diagnosticStream offsets the seed of the generator used for after-rounding
// diagnostics, keeping it disjoint from the optimization stream.
const diagnosticStream = 0x5bd1e9955bd1e995

// Refiner runs the two-phase refinement of one image batch.
type Refiner struct {
	Objective Objective
	Config    config.Config
	Observer  Observer // Optional; receives every LogInterval-th step
}

// Result is the outcome of refining one batch.
type Result struct {
	Batch   int
	YHat    *tensor.Tensor // Hard-rounded main latent, the value to transmit
	ZMean   *tensor.Tensor
	ZLogvar *tensor.Tensor
	Report  metrics.Report
	Record  *Record
}

// latents are the tensors being optimized.
type latents struct {
	y, zMean, zLogvar *tensor.Tensor
}

// Refine optimizes the latents of image batch x (NHWC, values in [0, 1]).
//
// Phase 1 starts from the amortized inference g_a(x) and h_a(y) and
// minimizes the rate-distortion loss of the SGA-relaxed latent. Phase 2
// rounds y, re-initializes z from h_a(round(y)) after reseeding r with
// Config.Seed, and minimizes the rate with a fresh optimizer. The final
// report is evaluated once at the Phase 2 endpoint.
//
// Iterations run strictly sequentially; ctx is checked between iterations.
func (rf *Refiner) Refine(ctx context.Context, batch int, x *tensor.Tensor, r *rng.RNG) (*Result, error) {
	cfg := rf.Config
	if rf.Objective.Lambda < 0 {
		return nil, fmt.Errorf("%w: %g", config.ErrInvalidLambda, rf.Objective.Lambda)
	}
	record := &Record{}

	// Amortized inference; nothing is recorded on a fresh backend.
	eval := autodiff.New()
	m := rf.Objective.Model
	y := m.Analysis.Forward(eval, x)
	zMean, zLogvar := eval.SplitChannels(m.HyperAnalysis.Forward(eval, y))

	cur, err := rf.rdPhase(ctx, batch, x, latents{y, zMean, zLogvar}, r, record)
	if err != nil {
		return nil, fmt.Errorf("rd phase: %w", err)
	}

	yHat := tensor.Round(cur.y)
	r.Reseed(cfg.Seed)
	zMean, zLogvar = eval.SplitChannels(m.HyperAnalysis.Forward(eval, yHat))
	_, h, w, _ := x.Dims4()
	zMean, zLogvar, err = rf.ratePhase(ctx, batch, yHat, zMean, zLogvar, h*w, r, record)
	if err != nil {
		return nil, fmt.Errorf("rate phase: %w", err)
	}

	final, err := rf.Objective.Forward(eval, x, yHat, zMean, zLogvar, r)
	if err != nil {
		return nil, err
	}
	report := metrics.Evaluate(x, final.XTilde)
	report.BPP = final.EvalBPP.Clone().Data()
	report.YBPP = final.YBPP.Clone().Data()
	report.ZBPP = final.ZBPP.Clone().Data()
	report.BPPBack = final.BPPBack.Clone().Data()

	return &Result{
		Batch:   batch,
		YHat:    yHat,
		ZMean:   zMean,
		ZLogvar: zLogvar,
		Report:  report,
		Record:  record,
	}, nil
}

func (rf *Refiner) rdPhase(ctx context.Context, batch int, x *tensor.Tensor, cur latents, r *rng.RNG, record *Record) (latents, error) {
	cfg := rf.Config
	opt, err := optim.New(cfg.Optimizer, cfg.RDLR)
	if err != nil {
		return cur, err
	}
	var diag *rng.RNG
	if cfg.Verbose {
		diag = rng.New(cfg.Seed ^ diagnosticStream)
	}

	for it := 0; it < cfg.RDIterations; it++ {
		if err := ctx.Err(); err != nil {
			return cur, err
		}
		temperature := cfg.Schedule.Temperature(it)

		b := autodiff.New()
		b.Tape().StartRecording()
		yTilde := sga.RelaxedRound(b, cur.y, temperature, r)
		ev, err := rf.Objective.Forward(b, x, yTilde, cur.zMean, cur.zLogvar, r)
		if err != nil {
			return cur, err
		}
		grads := b.Gradients(ev.Loss)

		params := []*tensor.Tensor{cur.y, cur.zMean, cur.zLogvar}
		updated, err := opt.Update(params, gradients(grads, params))
		if err != nil {
			return cur, fmt.Errorf("iteration %d: %w", it, err)
		}

		step := Step{
			Phase:       PhaseRD,
			Iteration:   it,
			Temperature: temperature,
			Loss:        ev.Loss.Item(),
			MSE:         ev.TrainMSE.Item(),
			BPP:         ev.TrainBPP.Item(),
			PSNR:        meanPSNR(x, ev.XTilde),
		}
		cur = latents{updated[0], updated[1], updated[2]}

		if rf.logged(it, cfg.RDIterations) {
			if diag != nil {
				step.AfterRounding, err = rf.afterRounding(x, cur, diag)
				if err != nil {
					return cur, err
				}
			}
			rf.observe(batch, step)
		}
		record.Append(step)
	}
	return cur, nil
}

func (rf *Refiner) ratePhase(ctx context.Context, batch int, yHat, zMean, zLogvar *tensor.Tensor, numPixels int, r *rng.RNG, record *Record) (*tensor.Tensor, *tensor.Tensor, error) {
	cfg := rf.Config
	opt, err := optim.New(cfg.Optimizer, cfg.RateLR)
	if err != nil {
		return nil, nil, err
	}

	for it := 0; it < cfg.RateIterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		b := autodiff.New()
		b.Tape().StartRecording()
		ev := rf.Objective.Rate(b, yHat, zMean, zLogvar, numPixels, r)
		grads := b.Gradients(ev.Loss)

		params := []*tensor.Tensor{zMean, zLogvar}
		updated, err := opt.Update(params, gradients(grads, params))
		if err != nil {
			return nil, nil, fmt.Errorf("iteration %d: %w", it, err)
		}

		step := Step{Phase: PhaseRate, Iteration: it, Loss: ev.Loss.Item(), BPP: ev.TrainBPP.Item()}
		zMean, zLogvar = updated[0], updated[1]
		if rf.logged(it, cfg.RateIterations) {
			rf.observe(batch, step)
		}
		record.Append(step)
	}
	return zMean, zLogvar, nil
}

// afterRounding evaluates the objective at round(y) using the diagnostic
// generator, so the optimization stream is untouched.
func (rf *Refiner) afterRounding(x *tensor.Tensor, cur latents, diag *rng.RNG) (*Rounded, error) {
	ev, err := rf.Objective.Forward(autodiff.New(), x, tensor.Round(cur.y), cur.zMean, cur.zLogvar, diag)
	if err != nil {
		return nil, err
	}
	return &Rounded{
		Loss: ev.Loss.Item(),
		BPP:  ev.TrainBPP.Item(),
		PSNR: meanPSNR(x, ev.XTilde),
	}, nil
}

func (rf *Refiner) logged(it, total int) bool {
	interval := max(rf.Config.LogInterval, 1)
	return it%interval == 0 || it+1 == total
}

func (rf *Refiner) observe(batch int, s Step) {
	if rf.Observer != nil {
		rf.Observer(batch, s)
	}
}

// gradients looks up the gradient of every parameter, in order.
func gradients(grads map[*tensor.Tensor]*tensor.Tensor, params []*tensor.Tensor) []*tensor.Tensor {
	out := make([]*tensor.Tensor, len(params))
	for i, p := range params {
		out[i] = autodiff.Grad(grads, p)
	}
	return out
}

// meanPSNR returns the batch-mean PSNR of a reconstruction.
func meanPSNR(x, xTilde *tensor.Tensor) float64 {
	return stat.Mean(metrics.PSNR(metrics.Quantize(xTilde), tensor.Scale(x, metrics.MaxVal), metrics.MaxVal), nil)
}

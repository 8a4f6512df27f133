package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/born-ml/bbsga/internal/config"
	"github.com/born-ml/bbsga/internal/dataset"
	"github.com/born-ml/bbsga/internal/envconfig"
	"github.com/born-ml/bbsga/internal/model"
	"github.com/born-ml/bbsga/internal/optim"
	"github.com/born-ml/bbsga/internal/refine"
	"github.com/born-ml/bbsga/internal/results"
	"github.com/born-ml/bbsga/internal/sga"
)

func newCompressCmd() *cobra.Command {
	cfg := config.Default()
	var optimizer, scheme string

	cmd := &cobra.Command{
		Use:   "compress INPUT",
		Short: "Refine the latents of an image or image batch",
		Long: `Refine the latents of INPUT with Stochastic Gumbel Annealing and
bits-back rate optimization, then save per-image results.

INPUT is an image (png, jpeg, bmp, tiff, webp) or a .safetensors file
holding an "images" tensor of shape (N, H, W, 3) in [0, 255].`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.InputFile = args[0]
			cfg.Optimizer = optim.Kind(optimizer)
			cfg.Schedule.Scheme = sga.Scheme(scheme)
			return runCompress(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.RunName, "runname", "", "Training run to load; names the checkpoint subdirectory")
	f.StringVar(&cfg.CheckpointDir, "checkpoint-dir", envconfig.CheckpointDir(), "Root directory of training runs")
	f.StringVar(&cfg.ResultsDir, "results-dir", envconfig.ResultsDir(), "Directory for result files")
	f.Float64Var(&cfg.Lambda, "lambda", cfg.Lambda, "Rate-distortion trade-off; negative uses the training value from the run name")
	f.IntVar(&cfg.RDIterations, "sga-its", cfg.RDIterations, "Iterations of SGA rate-distortion optimization")
	f.Float64Var(&cfg.RDLR, "rd-lr", cfg.RDLR, "Learning rate of SGA optimization")
	f.IntVar(&cfg.RateIterations, "rate-its", cfg.RateIterations, "Iterations of rate optimization")
	f.Float64Var(&cfg.RateLR, "rate-lr", cfg.RateLR, "Learning rate of rate optimization")
	f.StringVar(&optimizer, "optimizer", string(cfg.Optimizer), "Optimizer (adam, sgd)")
	f.StringVar(&scheme, "annealing-scheme", string(cfg.Schedule.Scheme), "Temperature annealing scheme (exp, exp0, linear)")
	f.Float64Var(&cfg.Schedule.Rate, "annealing-rate", cfg.Schedule.Rate, "Temperature annealing rate")
	f.Float64Var(&cfg.Schedule.Offset, "t0", cfg.Schedule.Offset, "Iteration at which annealing starts")
	f.Float64Var(&cfg.Schedule.UpperBound, "t-ub", cfg.Schedule.UpperBound, "Initial temperature")
	f.Float64Var(&cfg.Schedule.LowerBound, "t-lb", cfg.Schedule.LowerBound, "Minimum temperature")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	f.IntVar(&cfg.LogInterval, "log-interval", cfg.LogInterval, "Iterations between progress logs")
	f.BoolVar(&cfg.Verbose, "verbose", false, "Log the objective after rounding during SGA")
	f.IntVar(&cfg.BatchSize, "batch-size", 0, "Images per batch (0 picks from the image size)")
	f.IntVar(&cfg.Jobs, "jobs", int(envconfig.Jobs()), "Batches refined concurrently")
	_ = cmd.MarkFlagRequired("runname")

	return cmd
}

func runCompress(cmd *cobra.Command, cfg config.Config) error {
	lambda, err := config.ResolveLambda(cfg.Lambda, cfg.RunName)
	if err != nil {
		return err
	}
	if cfg.Lambda < 0 {
		slog.Info("using lambda from run name", "lambda", lambda, "runname", cfg.RunName)
	}
	cfg.Lambda = lambda
	if err := cfg.Validate(); err != nil {
		return err
	}

	m, step, err := model.LoadLatest(filepath.Join(cfg.CheckpointDir, cfg.RunName))
	if err != nil {
		return fmt.Errorf("restore checkpoint: %w", err)
	}
	slog.Info("restored checkpoint", "runname", cfg.RunName, "step", step)

	images, err := dataset.Load(cfg.InputFile)
	if err != nil {
		return err
	}
	src, err := dataset.NewSliceSource(images, cfg.BatchSize)
	if err != nil {
		return err
	}
	n, h, w, _ := images.Dims4()
	slog.Info("loaded input", "file", cfg.InputFile, "images", n, "height", h, "width", w, "batch_size", src.BatchSize())

	runner := &refine.Runner{
		Refiner: &refine.Refiner{
			Objective: refine.Objective{Model: m, Lambda: cfg.Lambda},
			Config:    cfg,
			Observer:  refine.LogObserver(slog.Default()),
		},
		Jobs: cfg.Jobs,
		Seed: cfg.Seed,
	}
	batches, err := runner.Run(cmd.Context(), src)
	if err != nil {
		return err
	}

	record := results.NewRecord()
	for _, b := range batches {
		if err := record.Append(b.Report); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(cfg.ResultsDir, 0o750); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	path := filepath.Join(cfg.ResultsDir, results.FileName(cfg.RunName, cfg.InputFile, cfg.Lambda))
	if err := record.Save(path, results.NewMetadata(cfg.RunName, cfg.InputFile, cfg.Lambda)); err != nil {
		return err
	}
	slog.Info("saved results", "path", path)

	record.WriteSummary(cmd.OutOrStdout())
	return nil
}

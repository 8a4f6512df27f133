package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/born-ml/bbsga/internal/envconfig"
	"github.com/born-ml/bbsga/internal/model"
)

func newInitCmd() *cobra.Command {
	cfg := model.DefaultConfig()
	var (
		runName, checkpointDir string
		seed                   uint64
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a randomly initialized checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := model.NewRandom(cfg, seed)
			if err != nil {
				return err
			}
			path, err := model.SaveCheckpoint(filepath.Join(checkpointDir, runName), 0, m)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&runName, "runname", "", "Run name; names the checkpoint subdirectory")
	f.StringVar(&checkpointDir, "checkpoint-dir", envconfig.CheckpointDir(), "Root directory of training runs")
	f.IntVar(&cfg.NumFilters, "num-filters", cfg.NumFilters, "Latent channels")
	f.IntVar(&cfg.Hidden, "hidden", cfg.Hidden, "Hidden units of the transforms")
	f.Float64Var(&cfg.InitScale, "init-scale", cfg.InitScale, "Initial scale of the factorized prior")
	f.Uint64Var(&seed, "seed", 0, "Random seed")
	_ = cmd.MarkFlagRequired("runname")

	return cmd
}

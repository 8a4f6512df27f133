package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/bbsga/internal/envconfig"
)

// NewCLI creates the root command.
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "bbsga",
		Short:         "Latent refinement for learned image compression",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	compressCmd := newCompressCmd()
	initCmd := newInitCmd()
	envVars := envconfig.AsMap()
	appendEnvDocs(compressCmd, []envconfig.EnvVar{
		envVars["BBSGA_DEBUG"],
		envVars["BBSGA_CHECKPOINT_DIR"],
		envVars["BBSGA_RESULTS_DIR"],
		envVars["BBSGA_JOBS"],
	})
	appendEnvDocs(initCmd, []envconfig.EnvVar{envVars["BBSGA_CHECKPOINT_DIR"]})

	rootCmd.AddCommand(compressCmd, initCmd, newVersionCmd())
	return rootCmd
}

func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bbsga version %s\n", version)
		},
	}
}

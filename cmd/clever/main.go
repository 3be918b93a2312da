// Command clever seeds vertex candidates for detector events: it selects
// the causally related hits of each event and solves for candidate emission
// points.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/clever/internal/config"
	"github.com/banshee-data/clever/internal/monitoring"
	"github.com/banshee-data/clever/internal/version"
)

var (
	configPath string
	quiet      bool

	rootCmd = &cobra.Command{
		Use:           "clever",
		Short:         "Vertex seeding for Cherenkov detector events",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if quiet {
				monitoring.SetLogger(nil)
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Tuning config JSON (defaults built in)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress diagnostic logging")

	rootCmd.AddCommand(newGeometryCmd())
	rootCmd.AddCommand(newReconstructCmd())
	rootCmd.AddCommand(newMigrateCmd())
}

// loadConstants returns the constants from --config, or the built-in
// defaults when no file is given.
func loadConstants() (config.Constants, error) {
	if configPath == "" {
		return config.DefaultConstants(), nil
	}
	cfg, err := config.LoadTuningConfig(configPath)
	if err != nil {
		return config.Constants{}, err
	}
	return cfg.Constants(), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

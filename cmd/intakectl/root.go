package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rcm-webdev/insight-lens/internal/config"
	"github.com/rcm-webdev/insight-lens/internal/intake"
	"github.com/rcm-webdev/insight-lens/internal/models"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "intakectl",
		Short:   "InsightLens upload intake and catalog tool",
		Version: version,
		Long: `intakectl runs the InsightLens admission rules against local files
and lists the models the server would offer.

Policy and catalog settings are read from the server's XML configuration
when --config is given.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().String("config", "", "path to an insightlens.config file")

	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newModelsCmd())

	return cmd
}

// loadConfig reads the --config file, or returns nil when none was given.
// A missing file is an error; intakectl never writes configuration.
func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	return config.LoadConfig(path)
}

func basePolicy(cfg *config.AppConfig) models.UploadConfig {
	if cfg == nil {
		return intake.DefaultUploadConfig()
	}
	return cfg.UploadPolicy()
}

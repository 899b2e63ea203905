package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/boilerwatch/boilerwatch/internal/config"
	"github.com/boilerwatch/boilerwatch/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "boilerwatch",
	Short: "Boiler monitoring and notification relay",
	Long: `Boilerwatch polls a Vaillant boiler for water pressure and status,
raises alerts when thresholds are crossed, and serves a rate-limited
public trigger endpoint for on-demand data refreshes.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (optional)")
}

// setup loads configuration and builds the logger shared by all commands.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	return cfg, logger, nil
}

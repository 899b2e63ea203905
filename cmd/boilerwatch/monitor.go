package main

import (
	"fmt"
	"time"

	"github.com/boilerwatch/boilerwatch/internal/pressure"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Check water pressure and print a status report",
	Long: `Reads the current boiler snapshot and prints a plain-text pressure
report for each system. Exits non-zero when any system's pressure is
below the warning threshold or could not be read, so a scheduler can
alert on the exit code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}

		client, err := newVaillantClient(cfg)
		if err != nil {
			return err
		}

		systems, err := client.Systems(cmd.Context())
		if err != nil {
			return fmt.Errorf("read boiler data: %w", err)
		}
		if len(systems) == 0 {
			return fmt.Errorf("no system data retrieved")
		}

		thresholds := pressure.Thresholds{
			Warning:  cfg.Pressure.Warning,
			Critical: cfg.Pressure.Critical,
		}
		now := time.Now()

		var bad []pressure.Status
		for _, sys := range systems {
			status := pressure.Evaluate(sys.WaterPressure, thresholds)
			fmt.Fprintln(cmd.OutOrStdout(), pressure.Report(sys, status, thresholds, now))
			if status.NeedsAlert() {
				bad = append(bad, status)
			}
		}
		if len(bad) > 0 {
			return fmt.Errorf("pressure status %s", bad[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

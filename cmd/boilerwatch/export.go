package main

import (
	"fmt"
	"os"
	"time"

	"github.com/boilerwatch/boilerwatch/internal/export"
	"github.com/spf13/cobra"
)

var exportStdout bool

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump the full system snapshot as JSON",
	Long: `Writes the complete snapshot of every system to a timestamped JSON
file in the current directory, or to stdout with --stdout. Useful for
inspecting fields the readings log does not keep.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		client, err := newVaillantClient(cfg)
		if err != nil {
			return err
		}

		now := time.Now()
		if exportStdout {
			return export.Write(cmd.Context(), client, cmd.OutOrStdout(), now)
		}

		name := export.Filename(now)
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()

		if err := export.Write(cmd.Context(), client, f, now); err != nil {
			return err
		}
		logger.Info("export written", "file", name)
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "write the export to stdout instead of a file")
	rootCmd.AddCommand(exportCmd)
}

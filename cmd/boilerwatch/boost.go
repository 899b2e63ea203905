package main

import (
	"fmt"
	"time"

	"github.com/boilerwatch/boilerwatch/internal/vaillant"
	"github.com/spf13/cobra"
)

var boostCmd = &cobra.Command{
	Use:   "boost",
	Short: "Start a domestic hot water boost",
	Long: `Starts a hot water boost on the first system that has a DHW
cylinder. Does nothing when a boost is already running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		client, err := newVaillantClient(cfg)
		if err != nil {
			return err
		}

		systems, err := vaillant.FetchSystems(cmd.Context(), client, logger, time.Sleep)
		if err != nil {
			return fmt.Errorf("read boiler data: %w", err)
		}

		for _, sys := range systems {
			if len(sys.DHW) == 0 {
				continue
			}
			if sys.DHW[0].Boosting {
				logger.Info("boost already active, nothing to do",
					"system", sys.Name, "dhw_temp_c", deref(sys.DHW[0].CurrentTemp))
				return nil
			}
			if err := client.BoostDHW(cmd.Context(), sys.ID); err != nil {
				return fmt.Errorf("start boost: %w", err)
			}
			logger.Info("hot water boost started",
				"system", sys.Name, "dhw_temp_c", deref(sys.DHW[0].CurrentTemp))
			return nil
		}
		return fmt.Errorf("no system with a DHW cylinder found")
	},
}

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func init() {
	rootCmd.AddCommand(boostCmd)
}

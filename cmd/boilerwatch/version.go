package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of boilerwatch",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("boilerwatch version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version of the iarm command.
var Version = "0.2.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "iarm %v\n", Version)
	},
}

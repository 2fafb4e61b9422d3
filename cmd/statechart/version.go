package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/statechart"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of statechart",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "statechart version %s\n", strings.TrimSpace(statechart.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"fmt"

	"github.com/aretw0/statechart"
	"github.com/aretw0/statechart/internal/demo"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the chart for construction errors",
	Long:  `Builds the chart and reports every construction error: missing initial or final nodes, unreachable nodes, bad targets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := statechart.Validate(demo.Name, demo.Chart(demo.NewActivities(), demo.DefaultOptions())); err != nil {
			return fmt.Errorf("validation failed:\n%w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Chart is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/aretw0/statechart/internal/demo"
	"github.com/aretw0/statechart/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Describe every node of the chart",
	Long: `Prints a markdown table of the chart nodes with their transitions and declaration sites.
The table is rendered for the terminal unless --raw is given or stdout is not a terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")

		nodes, err := inspectChart()
		if err != nil {
			return err
		}
		table := tui.NodeTable(demo.Name, nodes)

		out := cmd.OutOrStdout()
		if f, ok := out.(*os.File); raw || !ok || !tui.IsTerminal(f) {
			fmt.Fprint(out, table)
			return nil
		}

		rendered, err := tui.NewRenderer()(table)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("raw", false, "Print the markdown source")
}

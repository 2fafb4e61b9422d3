package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/statechart"
	"github.com/aretw0/statechart/internal/demo"
	"github.com/aretw0/statechart/internal/presentation/graph"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the chart graph",
	Long:  `Outputs a Mermaid diagram (graph TD) with one subgraph per composite, or the node list as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		nodes, err := inspectChart()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch format {
		case "mermaid":
			fmt.Fprint(out, graph.GenerateMermaid(nodes, nil))
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(nodes)
		default:
			return fmt.Errorf("unknown format %q. Supported: mermaid, json", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid or json")
}

// inspectChart builds the demo chart without running it.
func inspectChart() ([]domain.Node, error) {
	engine, err := statechart.New(demo.Name, demo.Chart(demo.NewActivities(), demo.Options{}))
	if err != nil {
		return nil, err
	}
	return engine.Inspect(), nil
}

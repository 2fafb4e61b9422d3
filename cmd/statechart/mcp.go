package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/aretw0/statechart"
	"github.com/aretw0/statechart/internal/demo"
	"github.com/aretw0/statechart/pkg/adapters/mcp"
	"github.com/aretw0/statechart/pkg/runner"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Runs the battle-royale chart as an MCP Server.
This allows AI agents to trigger events and read the active configuration as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port := cfg.MCP.SSEPort
		if port != 0 && !cmd.Flags().Changed("transport") {
			transport = "sse"
		}
		if cmd.Flags().Changed("port") || port == 0 {
			port, _ = cmd.Flags().GetInt("port")
		}

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()
		ctx := sm.Context()

		a, err := newApp(ctx, demo.DefaultOptions())
		if err != nil {
			return err
		}
		defer a.close(cmd.Context())

		a.acts.AutoComplete(ctx, autoCompleteDelay, demo.ActivityConnect, demo.ActivityMatchmaking)
		if err := a.start(ctx); err != nil {
			return fmt.Errorf("failed to start chart: %w", err)
		}

		srv := mcp.NewServer(a.loop, strings.TrimSpace(statechart.Version), logger)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting statechart MCP Server (Stdio)...")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting statechart MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE, overrides mcp.sse_port)")
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/statechart/internal/presentation/graph"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/ports"
	"github.com/aretw0/statechart/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TriggerInput is the argument of the trigger_event tool.
type TriggerInput struct {
	Event string `json:"event" jsonschema:"required" jsonschema_description:"Name of the event to dispatch"`
}

// TriggerResult reports the configuration after an event was dispatched.
type TriggerResult struct {
	Event    string           `json:"event" jsonschema_description:"The dispatched event"`
	Snapshot *domain.Snapshot `json:"snapshot" jsonschema_description:"Active configuration after the event"`
	Leaves   []string         `json:"leaves" jsonschema_description:"IDs of the active leaves"`
}

// Resetter is implemented by engines that can start a fresh run (runner.Loop).
type Resetter interface {
	Reset(ctx context.Context) error
}

// Server wraps a running chart and exposes it as an MCP Server.
type Server struct {
	engine    ports.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Engine, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: engine,
		logger: logger,
		mcpServer: server.NewMCPServer("statechart-mcp", version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("trigger_event",
		mcp.WithDescription("Dispatch an event to the running statechart and return the resulting configuration."),
		mcp.WithString("event", mcp.Required(), mcp.Description("Event name")),
		mcp.WithOutputSchema[TriggerResult](),
	), s.handleTrigger)

	s.mcpServer.AddTool(mcp.NewTool("get_snapshot",
		mcp.WithDescription("Get the active configuration of the running statechart."),
	), s.handleSnapshot)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the full graph definition for introspection."),
	), s.handleGraph)

	s.mcpServer.AddTool(mcp.NewTool("get_mermaid",
		mcp.WithDescription("Render the chart as a Mermaid flowchart with the active configuration highlighted."),
	), s.handleMermaid)

	s.mcpServer.AddTool(mcp.NewTool("reset",
		mcp.WithDescription("Discard the active configuration and start a fresh run."),
	), s.handleReset)
}

func (s *Server) handleTrigger(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input TriggerInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid trigger arguments", err), nil
	}

	ev, err := runner.SanitizeEvent(input.Event)
	if err != nil {
		s.logger.Warn("MCP Trigger: event rejected", "err", err, "size", len(input.Event))
		return mcp.NewToolResultErrorFromErr("event rejected", err), nil
	}

	if err := s.engine.Trigger(ctx, ev); err != nil {
		var hookErr *domain.HookError
		if !errors.As(err, &hookErr) {
			s.logger.Error("MCP Trigger failed", "event", ev, "err", err)
		}
		return mcp.NewToolResultErrorFromErr("trigger failed", err), nil
	}

	snap := s.engine.Snapshot()
	if snap == nil {
		return mcp.NewToolResultError("engine unavailable"), nil
	}
	return mcp.NewToolResultStructuredOnly(TriggerResult{
		Event:    string(ev),
		Snapshot: snap,
		Leaves:   snap.LeafIDs(),
	}), nil
}

func (s *Server) handleSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.engine.Snapshot()
	if snap == nil {
		return mcp.NewToolResultError("engine unavailable"), nil
	}
	return jsonResult(snap)
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.Inspect())
}

func (s *Server) handleMermaid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	overlay := graph.OverlayFromSnapshot(s.engine.Snapshot())
	return mcp.NewToolResultText(graph.GenerateMermaid(s.engine.Inspect(), overlay)), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resetter, ok := s.engine.(Resetter)
	if !ok {
		return mcp.NewToolResultError("reset not supported by this engine"), nil
	}
	if err := resetter.Reset(ctx); err != nil {
		return mcp.NewToolResultErrorFromErr("reset failed", err), nil
	}
	return s.handleSnapshot(ctx, request)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("encode failed", err), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("statechart://graph", "Current Graph Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Inspect())
		if err != nil {
			return nil, fmt.Errorf("failed to encode graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "statechart://graph",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource("statechart://snapshot", "Active Configuration",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshot: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "statechart://snapshot",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/statechart/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	triggered []domain.Event
	err       error
	resets    int
}

func (f *fakeEngine) Trigger(ctx context.Context, ev domain.Event) error {
	f.triggered = append(f.triggered, ev)
	return f.err
}

func (f *fakeEngine) Snapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Chart:  "door",
		RunID:  "run-1",
		Status: domain.StatusActive,
		Leaves: []domain.Leaf{{NodeID: "open", Name: "open", Kind: domain.KindState, Activation: 3}},
		Root:   &domain.Frame{NodeID: "open", Name: "open", Kind: domain.KindState, Activation: 3},
	}
}

func (f *fakeEngine) Inspect() []domain.Node {
	return []domain.Node{
		{ID: "closed", Name: "closed", Kind: domain.KindState, Transitions: []domain.Transition{{Event: "open", ToNodeID: "open"}}},
		{ID: "open", Name: "open", Kind: domain.KindState},
	}
}

func (f *fakeEngine) Reset(ctx context.Context) error {
	f.resets++
	return nil
}

// newCallToolRequest builds a tool call request with arguments.
func newCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestNewServer(t *testing.T) {
	s := NewServer(&fakeEngine{}, "test", nil)
	require.NotNil(t, s.mcpServer)
}

func TestHandleTrigger(t *testing.T) {
	eng := &fakeEngine{}
	s := NewServer(eng, "test", nil)

	result, err := s.handleTrigger(context.Background(), newCallToolRequest("trigger_event", map[string]any{"event": " open\n"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, []domain.Event{"open"}, eng.triggered)

	structured, ok := result.StructuredContent.(TriggerResult)
	require.True(t, ok, "expected TriggerResult, got %T", result.StructuredContent)
	assert.Equal(t, "open", structured.Event)
	assert.Equal(t, []string{"open"}, structured.Leaves)
	assert.Equal(t, "run-1", structured.Snapshot.RunID)
}

func TestHandleTrigger_Errors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		err  error
	}{
		{"Missing Event", map[string]any{}, nil},
		{"Blank Event", map[string]any{"event": "   "}, nil},
		{"Engine Failure", map[string]any{"event": "open"}, errors.New("boom")},
		{"Not Running", map[string]any{"event": "open"}, domain.ErrNotRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(&fakeEngine{err: tt.err}, "test", nil)
			result, err := s.handleTrigger(context.Background(), newCallToolRequest("trigger_event", tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestReadTools(t *testing.T) {
	s := NewServer(&fakeEngine{}, "test", nil)
	ctx := context.Background()

	result, err := s.handleSnapshot(ctx, newCallToolRequest("get_snapshot", nil))
	require.NoError(t, err)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &snap))
	assert.Equal(t, []string{"open"}, snap.LeafIDs())

	result, err = s.handleGraph(ctx, newCallToolRequest("get_graph", nil))
	require.NoError(t, err)
	var nodes []domain.Node
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &nodes))
	assert.Len(t, nodes, 2)

	result, err = s.handleMermaid(ctx, newCallToolRequest("get_mermaid", nil))
	require.NoError(t, err)
	assert.Contains(t, textOf(t, result), "class open current;")
}

func TestHandleReset(t *testing.T) {
	eng := &fakeEngine{}
	s := NewServer(eng, "test", nil)

	result, err := s.handleReset(context.Background(), newCallToolRequest("reset", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, 1, eng.resets)
}

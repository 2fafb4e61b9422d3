package runner_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/statechart/pkg/dsl"
	"github.com/aretw0/statechart/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func door(f *dsl.Factory) {
	initial := f.Initial("init")
	final := f.Final("end")
	closed := f.State("closed")
	open := f.State("open")

	initial.Transition().Target(closed)
	closed.Event("open").Target(open)
	open.Event("close").Target(closed)
	open.Event("remove").Target(final)
}

func TestConsole_TriggersLines(t *testing.T) {
	loop := startLoop(t, "door", door)
	in := strings.NewReader("open\n\n?\nclose\nexit\nopen\n")
	var out bytes.Buffer

	require.NoError(t, runner.NewConsole(loop, in, &out).Run(context.Background()))
	assert.Equal(t, []string{"closed"}, loop.Snapshot().LeafIDs())
	assert.Equal(t, 2, strings.Count(out.String(), "↳ closed [state]"))
	assert.Equal(t, 2, strings.Count(out.String(), "↳ open [state]"))
}

func TestConsole_StopsWhenChartCompletes(t *testing.T) {
	loop := startLoop(t, "door", door)
	in := strings.NewReader("open\nremove\nclose\n")
	var out bytes.Buffer

	require.NoError(t, runner.NewConsole(loop, in, &out).Run(context.Background()))
	assert.Contains(t, out.String(), "door (completed)")
	assert.Equal(t, []string{"end"}, loop.Snapshot().LeafIDs())
}

func TestConsole_RejectsBadInput(t *testing.T) {
	loop := startLoop(t, "door", door)
	in := strings.NewReader("\x00\x01\n")
	var out bytes.Buffer

	require.NoError(t, runner.NewConsole(loop, in, &out).Run(context.Background()))
	assert.Contains(t, out.String(), "Error: event name is empty")
}

func TestConsole_CancelledContext(t *testing.T) {
	loop := startLoop(t, "door", door)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.NewConsole(loop, strings.NewReader(""), &bytes.Buffer{}).Run(ctx)
	assert.Error(t, err)
}

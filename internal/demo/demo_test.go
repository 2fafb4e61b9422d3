package demo_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/statechart"
	"github.com/aretw0/statechart/internal/config"
	"github.com/aretw0/statechart/internal/demo"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T) (*runner.Loop, *demo.Activities) {
	t.Helper()
	acts := demo.NewActivities()
	loop := runner.NewLoop()
	engine, err := statechart.New(demo.Name, demo.Chart(acts, demo.Options{}), statechart.WithScheduler(loop))
	require.NoError(t, err)
	require.NoError(t, loop.Start(context.Background(), engine))
	t.Cleanup(loop.Stop)
	return loop, acts
}

func TestChart_IsValid(t *testing.T) {
	assert.NoError(t, statechart.Validate(demo.Name, demo.Chart(demo.NewActivities(), demo.DefaultOptions())))
}

func TestPlay_DefaultScenario(t *testing.T) {
	loop, acts := start(t)

	sc := demo.DefaultScenario()
	assert.Equal(t, "default", sc.Name)
	require.NoError(t, demo.Play(context.Background(), loop, acts, sc, nil))

	assert.Equal(t, domain.StatusCompleted, loop.Snapshot().Status)
	assert.Empty(t, acts.Pending())
}

func TestPlay_ShutdownInterruptsEveryRegion(t *testing.T) {
	loop, acts := start(t)

	sc := &config.Scenario{Name: "shutdown", Steps: []config.Step{
		{Await: "game#0/connect"},
		{Trigger: "play"},
		{Await: "game#2/menu/matchmaking"},
		{Trigger: "shutdown"},
	}}
	require.NoError(t, demo.Play(context.Background(), loop, acts, sc, nil))

	snap := loop.Snapshot()
	assert.Equal(t, domain.StatusCompleted, snap.Status)
	assert.ElementsMatch(t, []string{demo.ActivityConnect, demo.ActivityMatchmaking}, acts.Pending())
}

func TestPlay_CancelMatchmaking(t *testing.T) {
	loop, acts := start(t)

	sc := &config.Scenario{Name: "cancel", Steps: []config.Step{
		{Complete: demo.ActivityConnect},
		{Trigger: "play"},
		{Await: "game#1/combat"},
		{Trigger: "cancel"},
	}}
	require.NoError(t, demo.Play(context.Background(), loop, acts, sc, nil))

	assert.Equal(t, []string{"game#0/online", "game#1/ambient", "game#2/menu/lobby"}, loop.Snapshot().LeafIDs())
}

func TestPlay_ReportsFailingStep(t *testing.T) {
	loop, acts := start(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	sc := &config.Scenario{Name: "stuck", Steps: []config.Step{
		{Sleep: time.Millisecond},
		{Await: "game#2/results"},
	}}
	err := demo.Play(ctx, loop, acts, sc, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestActivities_CompleteWaitsForRegistration(t *testing.T) {
	acts := demo.NewActivities()
	act := &fakeActivity{}

	go func() {
		time.Sleep(10 * time.Millisecond)
		acts.Register("connect")(act)
	}()

	n, err := acts.Complete(context.Background(), "connect")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, act.Completed())
}

func TestActivities_CompleteTimesOut(t *testing.T) {
	acts := demo.NewActivities()
	done := &fakeActivity{}
	done.Complete()
	acts.Register("done")(done)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := acts.Complete(ctx, "done")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, acts.Pending())
}

func TestActivities_AutoComplete(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	acts := demo.NewActivities()
	acts.AutoComplete(ctx, time.Millisecond, "connect")

	first, second := &fakeActivity{}, &fakeActivity{}
	acts.Register("connect")(first)
	require.Eventually(t, first.Completed, time.Second, 5*time.Millisecond)

	acts.Register("connect")(second)
	require.Eventually(t, second.Completed, time.Second, 5*time.Millisecond)
	assert.Empty(t, acts.Pending())
}

type fakeActivity struct{ done atomic.Bool }

func (a *fakeActivity) ID() string             { return "fake" }
func (a *fakeActivity) Complete()              { a.done.Store(true) }
func (a *fakeActivity) Split() domain.Activity { return &fakeActivity{} }
func (a *fakeActivity) Completed() bool        { return a.done.Load() }

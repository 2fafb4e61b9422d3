// Package demo holds the battle-royale chart driven by the CLI and its default scenario.
package demo

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/statechart/internal/logging"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/dsl"
)

// Name is the chart name used by the CLI.
const Name = "battle-royale"

// Activity names handed to the Activities registry.
const (
	ActivityConnect     = "connect"
	ActivityMatchmaking = "matchmaking"
)

// Options tunes the simulated tasks of the chart.
type Options struct {
	// Boot is how long the boot task takes.
	Boot time.Duration
	// Countdown is how long the pre-match countdown takes.
	Countdown time.Duration
	Logger    *slog.Logger
}

// DefaultOptions are the delays used by `statechart run`.
func DefaultOptions() Options {
	return Options{Boot: 300 * time.Millisecond, Countdown: 500 * time.Millisecond}
}

// Chart returns the setup of the battle-royale chart. Wait nodes register
// their activities in acts.
//
//	boot -> game(split: network | audio | core) -> end
//	core: menu(lobby -> matchmaking -> leave) -> match(countdown -> playing) -> results
func Chart(acts *Activities, opts Options) dsl.Setup {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	say := func(msg string, args ...any) domain.Action {
		return func(context.Context) error {
			logger.Info(msg, args...)
			return nil
		}
	}

	return func(f *dsl.Factory) {
		initial := f.Initial("init")
		final := f.Final("end")
		boot := f.TaskWait("boot")
		game := f.Split("game")

		initial.Transition().Target(boot)
		boot.OnEnter(say("booting"))
		boot.WaitingFor(delay(opts.Boot)).Target(game)

		game.Event("shutdown").Target(final)
		game.OnExit(say("game closed"))
		game.Split(network(acts, say), audio(say), core(acts, opts, say)).Target(final)
	}
}

func network(acts *Activities, say func(string, ...any) domain.Action) dsl.Setup {
	return func(f *dsl.Factory) {
		initial := f.Initial("init")
		final := f.Final("end")
		connect := f.Wait("connect")
		online := f.State("online")

		initial.Transition().Target(connect)
		connect.WaitingFor(acts.Register(ActivityConnect)).Target(online)
		online.OnEnter(say("connected"))
		online.Event("disconnect").Target(connect)
		online.Event("logout").Target(final)
	}
}

func audio(say func(string, ...any) domain.Action) dsl.Setup {
	return func(f *dsl.Factory) {
		initial := f.Initial("init")
		final := f.Final("end")
		ambient := f.State("ambient")
		combat := f.State("combat")

		initial.Transition().Target(ambient)
		ambient.OnEnter(say("playing track", "track", "ambient"))
		ambient.Event("play").Target(combat)
		ambient.Event("logout").Target(final)
		combat.OnEnter(say("playing track", "track", "combat"))
		combat.Event("cancel").Target(ambient)
		combat.Event("continue").Target(ambient)
	}
}

func core(acts *Activities, opts Options, say func(string, ...any) domain.Action) dsl.Setup {
	return func(f *dsl.Factory) {
		initial := f.Initial("init")
		final := f.Final("end")
		menu := f.Nest("menu")
		match := f.Nest("match")
		results := f.State("results")

		initial.Transition().Target(menu)

		menu.Nest(func(m *dsl.Factory) {
			mi := m.Initial("init")
			mf := m.Final("end")
			lobby := m.State("lobby")
			matchmaking := m.Wait("matchmaking")
			found := m.Leave("found")

			mi.Transition().Target(lobby)
			lobby.OnEnter(say("in lobby"))
			lobby.Event("play").Target(matchmaking)
			lobby.Event("logout").Target(mf)
			matchmaking.Event("cancel").Target(lobby)
			matchmaking.WaitingFor(acts.Register(ActivityMatchmaking)).Target(found)
			found.OnEnter(say("match found"))
			found.Transition().Target(match)
		}).Target(final)

		match.NestWith(dsl.NestedSetup{
			ExecuteExit:  true,
			ExecuteFinal: true,
			Setup: func(m *dsl.Factory) {
				mi := m.Initial("init")
				mf := m.Final("end")
				countdown := m.TaskWait("countdown")
				playing := m.State("playing")
				spectating := m.State("spectating")

				mi.Transition().Target(countdown)
				countdown.WaitingFor(delay(opts.Countdown)).Target(playing)
				playing.OnEnter(say("match started"))
				playing.Event("eliminated").Target(spectating)
				playing.Event("win").Target(mf)
				spectating.Event("match_over").Target(mf)
				mf.OnEnter(say("match over"))
			},
		}).Target(results)
		match.Event("abandon").Target(menu)

		results.Event("continue").Target(menu)
	}
}

func delay(d time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if d <= 0 {
			return nil
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

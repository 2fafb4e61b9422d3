package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/statechart"
	"github.com/aretw0/statechart/internal/config"
	"github.com/aretw0/statechart/internal/demo"
	"github.com/aretw0/statechart/internal/telemetry"
	"github.com/aretw0/statechart/pkg/adapters/memory"
	"github.com/aretw0/statechart/pkg/adapters/redis"
	"github.com/aretw0/statechart/pkg/adapters/sqlite"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/observability"
	"github.com/aretw0/statechart/pkg/persistence/middleware"
	"github.com/aretw0/statechart/pkg/ports"
	"github.com/aretw0/statechart/pkg/runner"
	"github.com/aretw0/statechart/pkg/session"
)

// app is the demo chart wired the way every long-running command needs it:
// a runner.Loop owning the engine, observability hooks and snapshot recording.
type app struct {
	loop     *runner.Loop
	engine   *statechart.Engine
	acts     *demo.Activities
	sessions *session.Manager

	closers []func(context.Context) error
}

func newApp(ctx context.Context, opts demo.Options, hooks ...domain.LifecycleHooks) (*app, error) {
	a := &app{acts: demo.NewActivities()}

	shutdown, err := telemetry.Setup(ctx, "statechart", cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	a.closers = append(a.closers, shutdown)

	sessions, closeStore, err := openSessions(cfg.Store)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.closers = append(a.closers, closeStore)
	a.sessions = sessions

	loopOpts := []runner.Option{runner.WithLogger(logger)}
	if sessions != nil {
		loopOpts = append(loopOpts, runner.WithRecorder(sessions))
	}
	a.loop = runner.NewLoop(loopOpts...)

	engineOpts := []statechart.Option{
		statechart.WithLogger(logger),
		statechart.WithScheduler(a.loop),
		statechart.WithErrorHandler(func(err error) {
			logger.Error("completion failed", "error", err)
		}),
		statechart.WithLifecycleHooks(observability.LoggingHooks(logger.With("component", "engine"))),
	}
	if cfg.Tracing.Enabled {
		engineOpts = append(engineOpts, statechart.WithLifecycleHooks(observability.TracingHooks(telemetry.Tracer())))
	}
	for _, h := range hooks {
		engineOpts = append(engineOpts, statechart.WithLifecycleHooks(h))
	}

	if opts.Logger == nil {
		opts.Logger = logger.With("component", "demo")
	}
	a.engine, err = statechart.New(demo.Name, demo.Chart(a.acts, opts), engineOpts...)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *app) start(ctx context.Context) error {
	return a.loop.Start(ctx, a.engine)
}

// close stops the loop and releases the store and the tracer provider.
func (a *app) close(ctx context.Context) {
	if a.loop != nil {
		a.loop.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}

// openSessions builds the session manager for the configured store driver.
// It returns a nil manager when recording is disabled.
func openSessions(sc config.StoreConfig) (*session.Manager, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	store, closeStore, err := openStore(sc)
	if err != nil || store == nil {
		return nil, noop, err
	}

	opts := []session.Option{session.WithLogger(logger)}
	if sc.Lock {
		if rs, ok := store.(*redis.Store); ok {
			opts = append(opts, session.WithLocker(redis.NewLocker(rs.Client(), sc.Redis.Prefix)))
		}
	}

	active, fallback, err := sc.Keys()
	if err != nil {
		_ = closeStore(context.Background())
		return nil, noop, err
	}
	if active != nil {
		store = middleware.Chain(store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	return session.NewManager(store, opts...), closeStore, nil
}

func openStore(sc config.StoreConfig) (ports.SnapshotStore, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch sc.Driver {
	case config.DriverNone:
		return nil, noop, nil
	case config.DriverMemory:
		return memory.NewStore(), noop, nil
	case config.DriverRedis:
		opts := []redis.Option{redis.WithTTL(sc.Redis.TTL)}
		if sc.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(sc.Redis.Prefix))
		}
		store := redis.New(sc.Redis.Addr, sc.Redis.Password, sc.Redis.DB, opts...)
		return store, func(context.Context) error { return store.Close() }, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(sc.SQLite.Path)
		if err != nil {
			return nil, noop, err
		}
		return store, func(context.Context) error { return store.Close() }, nil
	}
	return nil, noop, errors.New("unknown store driver " + sc.Driver)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/statechart"
	"github.com/aretw0/statechart/internal/demo"
	httpAdapter "github.com/aretw0/statechart/pkg/adapters/http"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/observability"
	"github.com/aretw0/statechart/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP debug server",
	Long: `Runs the battle-royale chart and exposes it over HTTP: snapshot, graph, event triggers,
a server-sent event stream of configuration changes and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()
		ctx := sm.Context()

		var hooks []domain.LifecycleHooks
		serverOpts := []httpAdapter.Option{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithVersion(strings.TrimSpace(statechart.Version)),
		}
		if cfg.HTTP.Metrics {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics, err := observability.NewMetrics(reg)
			if err != nil {
				return err
			}
			hooks = append(hooks, metrics.Hooks())
			serverOpts = append(serverOpts, httpAdapter.WithHandler("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
		}

		a, err := newApp(ctx, demo.DefaultOptions(), hooks...)
		if err != nil {
			return err
		}
		defer a.close(cmd.Context())

		api := httpAdapter.NewServer(a.loop, serverOpts...)
		a.loop.OnChange(api.Publish)
		a.acts.AutoComplete(ctx, autoCompleteDelay, demo.ActivityConnect, demo.ActivityMatchmaking)

		if err := a.start(ctx); err != nil {
			return fmt.Errorf("failed to start chart: %w", err)
		}

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("Starting statechart server", "address", srv.Addr, "chart", demo.Name, "metrics", cfg.HTTP.Metrics)
			serverErrors <- srv.ListenAndServe()
		}()

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Start shutdown...")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Statechart server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides http.addr)")
}

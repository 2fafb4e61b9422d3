/*
Package observability provides lifecycle hook sets for monitoring the statechart engine.

Each constructor returns a domain.LifecycleHooks value; combine several with
domain.MergeHooks and pass the result to statechart.WithLifecycleHooks.

  - Metrics records Prometheus counters and a hook-duration histogram.
  - TracingHooks emits one OpenTelemetry span per host hook execution.
  - LoggingHooks bridges observer events to a slog.Logger.
*/
package observability

package telemetry_test

import (
	"context"
	"testing"

	"github.com/aretw0/statechart/internal/config"
	"github.com/aretw0/statechart/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_NoopWhenDisabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TracingConfig
	}{
		{"Zero Value", config.TracingConfig{}},
		{"Endpoint Without Enabled", config.TracingConfig{Endpoint: "http://localhost:4318"}},
		{"Enabled Without Endpoint", config.TracingConfig{Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := telemetry.Setup(context.Background(), "test-service", tt.cfg)
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			assert.NoError(t, shutdown(ctx), "noop shutdown should ignore cancelled context")
		})
	}
}

func TestSetup_CreatesProviderWhenEnabled(t *testing.T) {
	// Use a non-routable address so no actual export happens.
	shutdown, err := telemetry.Setup(context.Background(), "test-service", config.TracingConfig{
		Enabled:  true,
		Endpoint: "http://192.0.2.1:4318",
	})
	require.NoError(t, err)
	assert.NotNil(t, telemetry.Tracer())
	assert.NoError(t, shutdown(context.Background()))
}

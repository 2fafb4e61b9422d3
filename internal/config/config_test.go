package config

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "statechart.yaml", `
log_level: debug
http:
  addr: ":9090"
store:
  driver: redis
  lock: true
  redis:
    addr: "redis:6379"
    db: "2"
    ttl: 90s
`)
	t.Setenv("STATECHART_HTTP_ADDR", ":7070")
	t.Setenv("STATECHART_REDIS_TTL", "1h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.True(t, cfg.HTTP.Metrics, "defaults survive a partial file")
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.True(t, cfg.Store.Lock)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, "statechart:run:", cfg.Store.Redis.Prefix)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		want    string
	}{
		{"Unknown Key", "htp:\n  addr: x\n", nil, "htp"},
		{"Bad YAML", "log_level: [", nil, "failed to parse"},
		{"Unknown Driver", "store:\n  driver: etcd\n", nil, `unknown store driver "etcd"`},
		{"Lock Without Redis", "store:\n  lock: true\n", nil, "requires the redis driver"},
		{"Tracing Without Endpoint", "tracing:\n  enabled: true\n", nil, "tracing.endpoint"},
		{"Bad Env", "", map[string]string{"STATECHART_REDIS_DB": "two"}, "parse env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, "c.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: quick match
steps:
  - await: game
  - complete: connect
  - trigger: play
  - sleep: 50ms
`))
	require.NoError(t, err)
	assert.Equal(t, "quick match", sc.Name)
	assert.Equal(t, []Step{
		{Await: "game"},
		{Complete: "connect"},
		{Trigger: "play"},
		{Sleep: 50 * time.Millisecond},
	}, sc.Steps)

	out, err := sc.Encode()
	require.NoError(t, err)
	again, err := ParseScenario(out)
	require.NoError(t, err)
	assert.Equal(t, sc, again)
}

func TestParseScenario_InvalidStep(t *testing.T) {
	_, err := ParseScenario([]byte("steps:\n  - trigger: play\n    complete: connect\n"))
	assert.ErrorContains(t, err, "step 1")

	_, err = ParseScenario([]byte("steps:\n  - {}\n"))
	assert.ErrorContains(t, err, "exactly one")

	_, err = LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestStoreConfig_Keys(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	old := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{3}, 32))

	active, fallback, err := StoreConfig{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, fallback)

	t.Setenv("STATECHART_STORE_KEY", key)
	t.Setenv("STATECHART_STORE_FALLBACK_KEYS", old)
	cfg, err := Load("")
	require.NoError(t, err)

	active, fallback, err = cfg.Store.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	require.Len(t, fallback, 1)
	assert.Equal(t, byte(3), fallback[0][0])

	t.Setenv("STATECHART_STORE_KEY", base64.StdEncoding.EncodeToString([]byte("short")))
	_, err = Load("")
	assert.ErrorContains(t, err, "must decode to 32 bytes")
}

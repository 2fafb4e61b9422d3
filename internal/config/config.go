// Package config loads CLI settings from an optional YAML file and STATECHART_*
// environment variables. Environment values win over the file, the file wins
// over the defaults.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config is the root configuration of the statechart CLI.
type Config struct {
	LogLevel string        `mapstructure:"log_level" env:"STATECHART_LOG_LEVEL"`
	HTTP     HTTPConfig    `mapstructure:"http"`
	MCP      MCPConfig     `mapstructure:"mcp"`
	Store    StoreConfig   `mapstructure:"store"`
	Tracing  TracingConfig `mapstructure:"tracing"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" env:"STATECHART_HTTP_ADDR"`
	// Metrics exposes Prometheus metrics on /metrics.
	Metrics bool `mapstructure:"metrics" env:"STATECHART_HTTP_METRICS"`
}

type MCPConfig struct {
	// SSEPort serves MCP over SSE when non-zero; stdio otherwise.
	SSEPort int `mapstructure:"sse_port" env:"STATECHART_MCP_SSE_PORT"`
}

type StoreConfig struct {
	Driver string       `mapstructure:"driver" env:"STATECHART_STORE"`
	Redis  RedisConfig  `mapstructure:"redis"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	// Lock serializes snapshot writes across replicas (redis only).
	Lock bool `mapstructure:"lock" env:"STATECHART_STORE_LOCK"`
	// EncryptionKey is a base64 AES-256 key. When set, snapshots are stored sealed.
	EncryptionKey string `mapstructure:"encryption_key" env:"STATECHART_STORE_KEY"`
	// FallbackKeys are older base64 keys still accepted for decryption.
	FallbackKeys []string `mapstructure:"fallback_keys" env:"STATECHART_STORE_FALLBACK_KEYS" envSeparator:","`
}

// Keys decodes the encryption keys. active is nil when encryption is off.
func (s StoreConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = decodeKey(s.EncryptionKey); err != nil {
		return nil, nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" env:"STATECHART_REDIS_ADDR"`
	Password string        `mapstructure:"password" env:"STATECHART_REDIS_PASSWORD"`
	DB       int           `mapstructure:"db" env:"STATECHART_REDIS_DB"`
	Prefix   string        `mapstructure:"prefix" env:"STATECHART_REDIS_PREFIX"`
	TTL      time.Duration `mapstructure:"ttl" env:"STATECHART_REDIS_TTL"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path" env:"STATECHART_SQLITE_PATH"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled" env:"STATECHART_OTEL_ENABLED"`
	Endpoint string `mapstructure:"endpoint" env:"STATECHART_OTEL_ENDPOINT"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		HTTP:     HTTPConfig{Addr: ":8080", Metrics: true},
		Store: StoreConfig{
			Driver: DriverMemory,
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "statechart:run:"},
			SQLite: SQLiteConfig{Path: "statechart.db"},
		},
	}
}

// Load reads path (if not empty), then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := decodeYAML(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be expressed by types alone.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverNone, DriverMemory, DriverRedis, DriverSQLite:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Lock && c.Store.Driver != DriverRedis {
		return fmt.Errorf("store.lock requires the redis driver")
	}
	if _, _, err := c.Store.Keys(); err != nil {
		return err
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.enabled requires tracing.endpoint")
	}
	return nil
}

// decodeYAML goes through a generic map so YAML and env share the mapstructure
// tags and durations can be written as "30s".
func decodeYAML(data []byte, target any) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	return decode(raw, target)
}

func decode(input, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

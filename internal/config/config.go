// Package config loads the router's on-disk YAML settings, the same
// goccy/go-yaml-backed shape the teacher's gateway uses for its own
// GatewayOption, generalized to this router's supergraph source,
// authorization mode, plan cache, and telemetry settings.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/n9te9/hive-query-router/internal/authz"
)

// Config is the router's top-level settings document.
type Config struct {
	ServiceName     string          `yaml:"service_name"`
	Port            int             `yaml:"port"`
	TimeoutDuration string          `yaml:"timeout_duration" default:"5s"`
	Supergraph      SupergraphSetting `yaml:"supergraph"`
	Authorization   AuthSetting     `yaml:"authorization"`
	PlanCache       PlanCacheSetting `yaml:"plan_cache"`
	Opentelemetry   OpentelemetrySetting `yaml:"opentelemetry"`
}

// SupergraphSetting selects and configures exactly one supergraph source:
// a local file (optionally polled) or a Hive CDN-compatible endpoint.
type SupergraphSetting struct {
	File          *FileSourceSetting `yaml:"file"`
	Hive          *HiveSourceSetting `yaml:"hive"`
	PollInterval  string             `yaml:"poll_interval" default:"5s"`
	PlannerTimeout string            `yaml:"planner_timeout" default:"0s"`
}

type FileSourceSetting struct {
	Path string `yaml:"path"`
}

type HiveSourceSetting struct {
	Endpoint      string        `yaml:"endpoint"`
	CDNKey        string        `yaml:"cdn_key"`
	RetryAttempts int           `yaml:"retry_attempts" default:"3"`
	RetryBackoff  string        `yaml:"retry_backoff"  default:"200ms"`
	RetryTimeout  string        `yaml:"retry_timeout"  default:"5s"`
}

// AuthSetting selects the router's authorization outcome on a failed
// field: "filter" (default, §6 200-with-partial-data) or "reject" (403).
type AuthSetting struct {
	Mode string `yaml:"mode" default:"filter"`
}

// ResolveMode converts the textual setting into authz.Mode, defaulting to
// Filter for anything other than an explicit "reject".
func (a AuthSetting) ResolveMode() authz.Mode {
	if a.Mode == "reject" {
		return authz.Reject
	}
	return authz.Filter
}

type PlanCacheSetting struct {
	MaxEntries int `yaml:"max_entries" default:"1024"`
}

type OpentelemetrySetting struct {
	TracingSetting OpentelemetryTracingSetting `yaml:"tracing"`
}

type OpentelemetryTracingSetting struct {
	Enable bool `yaml:"enable" default:"false"`
}

// Load reads and parses a YAML config document from path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return &cfg, nil
}

// ShutdownTimeout parses TimeoutDuration, defaulting to 5s on an empty or
// invalid value.
func (c *Config) ShutdownTimeout() time.Duration {
	if c.TimeoutDuration == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(c.TimeoutDuration)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// PollIntervalDuration parses Supergraph.PollInterval, defaulting to 5s.
func (s SupergraphSetting) PollIntervalDuration() time.Duration {
	if s.PollInterval == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(s.PollInterval)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// PlannerTimeoutDuration parses Supergraph.PlannerTimeout, defaulting to
// zero (no soft budget) on an empty or invalid value.
func (s SupergraphSetting) PlannerTimeoutDuration() time.Duration {
	if s.PlannerTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(s.PlannerTimeout)
	if err != nil {
		return 0
	}
	return d
}

func (h HiveSourceSetting) RetryBackoffDuration() time.Duration {
	if h.RetryBackoff == "" {
		return 200 * time.Millisecond
	}
	d, err := time.ParseDuration(h.RetryBackoff)
	if err != nil {
		return 200 * time.Millisecond
	}
	return d
}

func (h HiveSourceSetting) RetryTimeoutDuration() time.Duration {
	if h.RetryTimeout == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(h.RetryTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/n9te9/hive-query-router/internal/authz"
	"github.com/n9te9/hive-query-router/internal/config"
)

const testYAML = `
service_name: hive-router
port: 4000
timeout_duration: 10s
supergraph:
  file:
    path: /etc/hive/supergraph.graphql
  poll_interval: 30s
authorization:
  mode: reject
plan_cache:
  max_entries: 2048
opentelemetry:
  tracing:
    enable: true
`

func TestLoad_ParsesNestedSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "router.yaml")
	if err := os.WriteFile(path, []byte(testYAML), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := &config.Config{
		ServiceName:     "hive-router",
		Port:            4000,
		TimeoutDuration: "10s",
		Supergraph: config.SupergraphSetting{
			File:         &config.FileSourceSetting{Path: "/etc/hive/supergraph.graphql"},
			PollInterval: "30s",
		},
		Authorization: config.AuthSetting{Mode: "reject"},
		PlanCache:     config.PlanCacheSetting{MaxEntries: 2048},
		Opentelemetry: config.OpentelemetrySetting{
			TracingSetting: config.OpentelemetryTracingSetting{Enable: true},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("parsed config mismatch (-want +got):\n%s", diff)
	}

	if cfg.ShutdownTimeout() != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout())
	}
	if cfg.Supergraph.PollIntervalDuration() != 30*time.Second {
		t.Errorf("PollIntervalDuration = %v, want 30s", cfg.Supergraph.PollIntervalDuration())
	}
	if cfg.Authorization.ResolveMode() != authz.Reject {
		t.Errorf("ResolveMode = %v, want Reject", cfg.Authorization.ResolveMode())
	}
}

func TestLoad_DefaultsAuthModeToFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "router.yaml")
	if err := os.WriteFile(path, []byte("service_name: hive-router\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Authorization.ResolveMode() != authz.Filter {
		t.Errorf("ResolveMode = %v, want Filter", cfg.Authorization.ResolveMode())
	}
	if cfg.Supergraph.PlannerTimeoutDuration() != 0 {
		t.Errorf("PlannerTimeoutDuration = %v, want 0", cfg.Supergraph.PlannerTimeoutDuration())
	}
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

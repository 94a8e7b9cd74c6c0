package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("server address = %q", cfg.Server.Address)
	}
	if cfg.RateLimit.APIRequests != 100 || cfg.RateLimit.APIWindow != 15*time.Minute {
		t.Fatalf("api rate limit = %d/%s", cfg.RateLimit.APIRequests, cfg.RateLimit.APIWindow)
	}
	if cfg.RateLimit.AnalysisRequests != 20 || cfg.RateLimit.AnalysisWindow != 5*time.Minute {
		t.Fatalf("analysis rate limit = %d/%s", cfg.RateLimit.AnalysisRequests, cfg.RateLimit.AnalysisWindow)
	}
	if cfg.Clients.History.Timeout != 5*time.Second {
		t.Fatalf("history timeout = %s", cfg.Clients.History.Timeout)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  address: ":9090"
auth:
  enabled: true
  secret: file-secret
clients:
  history:
    baseURL: http://history.internal
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("IMPACT_ENGINE_AUTH_SECRET", "env-secret")
	t.Setenv("IMPACT_ENGINE_CACHE_ENABLED", "true")
	t.Setenv("IMPACT_ENGINE_CACHE_ADDR", "localhost:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Fatalf("file override lost: %q", cfg.Server.Address)
	}
	if !cfg.Auth.Enabled || cfg.Auth.Secret != "env-secret" {
		t.Fatalf("env should win over file: %+v", cfg.Auth)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Addr != "localhost:6379" {
		t.Fatalf("cache env overrides lost: %+v", cfg.Cache)
	}
	if cfg.Clients.History.BaseURL != "http://history.internal" {
		t.Fatalf("history base URL lost: %q", cfg.Clients.History.BaseURL)
	}
	// Defaults survive a partial file.
	if cfg.Clients.History.HistoryPath != "/api/v1/history" {
		t.Fatalf("default path lost: %q", cfg.Clients.History.HistoryPath)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for explicit missing config file")
	}
}

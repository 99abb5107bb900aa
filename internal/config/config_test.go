package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategos.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8002 {
		t.Errorf("server.port = %d, want 8002", cfg.Server.Port)
	}
	if cfg.Quality.Threshold != 7 || cfg.Quality.MaxRevisions != 3 {
		t.Errorf("quality = %d/%d, want 7/3", cfg.Quality.Threshold, cfg.Quality.MaxRevisions)
	}
	if cfg.Providers.CallTimeout != 60*time.Second {
		t.Errorf("providers.call_timeout = %s, want 60s", cfg.Providers.CallTimeout)
	}
	if cfg.Research.BasketTimeout != 20*time.Second {
		t.Errorf("research.basket_timeout = %s, want 20s", cfg.Research.BasketTimeout)
	}
	if cfg.Registry.MaxWorkflows != 1000 {
		t.Errorf("registry.max_workflows = %d, want 1000", cfg.Registry.MaxWorkflows)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9100
quality:
  threshold: 8
  max_revisions: 1
providers:
  order: [groq, openrouter]
  endpoints:
    groq:
      endpoint: https://api.groq.example/v1/chat/completions
      model: llama-3.3-70b
      api_key_env: GROQ_API_KEY
    openrouter:
      endpoint: https://openrouter.example/v1/chat/completions
      model: qwen-2.5-72b
      api_key_env: OPENROUTER_API_KEY
cache:
  redis_addr: localhost:6379
  ttl: 24h
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("server.port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Quality.Threshold != 8 || cfg.Quality.MaxRevisions != 1 {
		t.Errorf("quality = %d/%d, want 8/1", cfg.Quality.Threshold, cfg.Quality.MaxRevisions)
	}
	if len(cfg.Providers.Order) != 2 || cfg.Providers.Order[1] != "openrouter" {
		t.Errorf("providers.order = %v", cfg.Providers.Order)
	}
	if got := cfg.Providers.Endpoints["groq"].Model; got != "llama-3.3-70b" {
		t.Errorf("groq model = %q", got)
	}
	if cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("cache.ttl = %s, want 24h", cfg.Cache.TTL)
	}
	// Unset keys keep their defaults.
	if cfg.Metrics.Port != 2112 {
		t.Errorf("metrics.port = %d, want 2112", cfg.Metrics.Port)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("STRATEGOS_SERVER_PORT", "9200")
	t.Setenv("STRATEGOS_QUALITY_THRESHOLD", "9")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9200 {
		t.Errorf("server.port = %d, want env override 9200", cfg.Server.Port)
	}
	if cfg.Quality.Threshold != 9 {
		t.Errorf("quality.threshold = %d, want env override 9", cfg.Quality.Threshold)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "server: [not: a: mapping\n")
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML did not error")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Quality.Threshold = 7
		cfg.Quality.MaxRevisions = 3
		cfg.Providers.Order = []string{"groq"}
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg := base()
	cfg.Quality.Threshold = 0
	if err := cfg.Validate(); err == nil {
		t.Error("threshold 0 accepted")
	}

	cfg = base()
	cfg.Quality.Threshold = 11
	if err := cfg.Validate(); err == nil {
		t.Error("threshold 11 accepted")
	}

	cfg = base()
	cfg.Quality.MaxRevisions = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative max_revisions accepted")
	}

	cfg = base()
	cfg.Providers.Order = nil
	if err := cfg.Validate(); err == nil {
		t.Error("empty cascade accepted")
	}

	cfg = base()
	cfg.Providers.Order = []string{"groq", "mystery"}
	cfg.Providers.Endpoints = map[string]ProviderConfig{
		"groq": {Endpoint: "https://api.groq.example"},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("order naming an unconfigured provider accepted")
	}

	// Zero max_revisions is a valid accept-first-draft setting.
	cfg = base()
	cfg.Quality.MaxRevisions = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("max_revisions 0 rejected: %v", err)
	}
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vintry/sommelier/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("WORKERS", "")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gemini.Model == "" || cfg.Gemini.EmbeddingModel == "" {
		t.Fatalf("expected model defaults, got %#v", cfg.Gemini)
	}
	if cfg.Pipeline.TopK != 4 || cfg.Index.Path != "wines.db" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if cfg.Batch.Workers != 4 || cfg.Batch.RequestTimeout.Std() != 2*time.Minute {
		t.Fatalf("unexpected batch defaults: %#v", cfg.Batch)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-secret")
	t.Setenv("SOMMELIER_TOP_K", "")
	t.Setenv("WORKERS", "")

	path := filepath.Join(t.TempDir(), "sommelier.yaml")
	body := `
gemini:
  model: gemini-2.5-pro
index:
  path: /srv/wines.db
pipeline:
  top_k: 6
batch:
  workers: 8
  request_timeout: 45s
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gemini.Model != "gemini-2.5-pro" || cfg.Index.Path != "/srv/wines.db" {
		t.Fatalf("yaml values not applied: %#v", cfg)
	}
	if cfg.Pipeline.TopK != 6 || cfg.Batch.Workers != 8 || cfg.Batch.RequestTimeout.Std() != 45*time.Second {
		t.Fatalf("yaml values not applied: %#v", cfg)
	}
	if cfg.Gemini.APIKey != "env-secret" {
		t.Fatalf("api key must come from the environment, got %q", cfg.Gemini.APIKey)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "gemini-from-env")
	t.Setenv("SOMMELIER_TOP_K", "5")
	t.Setenv("FAIL_FAST", "true")

	path := filepath.Join(t.TempDir(), "sommelier.yaml")
	if err := os.WriteFile(path, []byte("gemini:\n  model: gemini-from-yaml\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gemini.Model != "gemini-from-env" {
		t.Fatalf("env override not applied: %q", cfg.Gemini.Model)
	}
	if cfg.Pipeline.TopK != 5 || !cfg.Batch.FailFast {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
}

func TestLoadRejectsBadEnvValues(t *testing.T) {
	t.Setenv("WORKERS", "many")
	if _, err := config.Load(""); err == nil {
		t.Fatal("expected error for non-integer WORKERS")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  path: /var/lib/rebarflow/rebarflow.db
tenant:
  id: acme-rebar
  actor: planner-1
extraction:
  url: http://extractor.local/v1/extract
  timeoutSeconds: 30
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REBARFLOW_CONFIG", path)
	t.Setenv("REBARFLOW_DB", "")
	t.Setenv("REBARFLOW_TENANT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Path != "/var/lib/rebarflow/rebarflow.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Tenant.ID != "acme-rebar" {
		t.Errorf("Tenant.ID = %q", cfg.Tenant.ID)
	}
	if cfg.Extraction.URL != "http://extractor.local/v1/extract" {
		t.Errorf("Extraction.URL = %q", cfg.Extraction.URL)
	}
	if cfg.Extraction.Timeout() != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Extraction.Timeout())
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("tenant:\n  id: from-file\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REBARFLOW_CONFIG", path)
	t.Setenv("REBARFLOW_TENANT", "from-env")
	t.Setenv("REBARFLOW_DB", "/tmp/override.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Tenant.ID != "from-env" {
		t.Errorf("Tenant.ID = %q, want from-env", cfg.Tenant.ID)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("Database.Path = %q, want /tmp/override.db", cfg.Database.Path)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("REBARFLOW_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("REBARFLOW_TENANT", "")
	t.Setenv("REBARFLOW_DB", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Tenant.ID != "default" {
		t.Errorf("Tenant.ID = %q, want default", cfg.Tenant.ID)
	}
	if cfg.Extraction.Timeout() != 120*time.Second {
		t.Errorf("Timeout = %v, want 120s default", cfg.Extraction.Timeout())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	want := &Config{
		Database:   DatabaseConfig{Path: "/tmp/rf.db"},
		Tenant:     TenantConfig{ID: "acme", Actor: "ops"},
		Extraction: ExtractionConfig{URL: "http://localhost:9000", TimeoutSeconds: 15},
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Setenv("REBARFLOW_CONFIG", path)
	t.Setenv("REBARFLOW_TENANT", "")
	t.Setenv("REBARFLOW_DB", "")
	t.Setenv("EXTRACTION_API_URL", "")

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Tenant != want.Tenant || got.Database != want.Database || got.Extraction != want.Extraction {
		t.Errorf("round trip mismatch: %+v vs %+v", got, want)
	}
}

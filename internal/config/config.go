// Package config loads the service configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "REBARFLOW_CONFIG"
	databasePathEnv  = "REBARFLOW_DB"
	tenantEnv        = "REBARFLOW_TENANT"
	actorEnv         = "REBARFLOW_ACTOR"
	extractionURLEnv = "EXTRACTION_API_URL"
	extractionKeyEnv = "EXTRACTION_API_KEY"

	defaultTenant            = "default"
	defaultExtractionTimeout = 120 * time.Second
)

// Config holds high-level settings required across the application.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Tenant     TenantConfig     `yaml:"tenant"`
	Extraction ExtractionConfig `yaml:"extraction"`
}

// DatabaseConfig describes the SQLite store location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TenantConfig identifies the owning tenant and acting user.
type TenantConfig struct {
	ID    string `yaml:"id"`
	Actor string `yaml:"actor"`
}

// ExtractionConfig points at the external AI extraction service.
type ExtractionConfig struct {
	URL            string `yaml:"url"`
	APIKey         string `yaml:"apiKey"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout resolves the configured extraction timeout.
func (e ExtractionConfig) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return defaultExtractionTimeout
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".rebarflow", "config.yaml"), nil
}

// Load reads the config file, applying env overrides afterwards. A
// missing file is not an error: defaults plus environment apply.
func Load() (*Config, error) {
	path := os.Getenv(configPathEnv)
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// Save writes the config file, creating its directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(databasePathEnv); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv(tenantEnv); v != "" {
		cfg.Tenant.ID = v
	}
	if v := os.Getenv(actorEnv); v != "" {
		cfg.Tenant.Actor = v
	}
	if v := os.Getenv(extractionURLEnv); v != "" {
		cfg.Extraction.URL = v
	}
	if v := os.Getenv(extractionKeyEnv); v != "" {
		cfg.Extraction.APIKey = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Tenant.ID == "" {
		cfg.Tenant.ID = defaultTenant
	}
}

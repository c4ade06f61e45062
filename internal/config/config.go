package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Config is the statement-importer configuration file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Import   ImportConfig   `yaml:"import"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr         string `yaml:"addr" env:"STATEMENT_IMPORTER_ADDR"`
	MaxUploadMB  int    `yaml:"max_upload_mb" env:"STATEMENT_IMPORTER_MAX_UPLOAD_MB"`
	PreviewLimit int    `yaml:"preview_limit" env:"STATEMENT_IMPORTER_PREVIEW_LIMIT"`
	UploadDir    string `yaml:"upload_dir" env:"STATEMENT_IMPORTER_UPLOAD_DIR"`
}

// DatabaseConfig points at the PostgreSQL ledger. An empty DSN keeps
// imports in memory.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_URL"`
}

// ImportConfig tunes parsing and reconciliation.
type ImportConfig struct {
	DefaultCategory string `yaml:"default_category" env:"STATEMENT_IMPORTER_DEFAULT_CATEGORY"`
	StrictDates     bool   `yaml:"strict_dates" env:"STATEMENT_IMPORTER_STRICT_DATES"`
}

// LogConfig sets the log verbosity: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level" env:"STATEMENT_IMPORTER_LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			MaxUploadMB:  10,
			PreviewLimit: 5,
			UploadDir:    os.TempDir(),
		},
		Import: ImportConfig{
			DefaultCategory: "Geral",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path, fills unset values from Default and
// applies environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := mergo.Merge(&cfg, Default()); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Server.PreviewLimit <= 0 {
		return fmt.Errorf("server.preview_limit must be positive, got %d", c.Server.PreviewLimit)
	}
	return nil
}

// MaxUploadBytes is the request body limit in bytes.
func (c *Config) MaxUploadBytes() int {
	return c.Server.MaxUploadMB << 20
}

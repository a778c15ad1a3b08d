// Package config loads optional YAML configuration for proofcheck.
//
// Precedence is defaults, then the config file, then explicit flags. The CLI
// applies flags on top of the Config returned here.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/proofcheck/internal/loader"
	"github.com/roach88/proofcheck/internal/logging"
	"github.com/roach88/proofcheck/internal/schema"
)

// Config is the file-level configuration.
//
// Example:
//
//	schema_mode: strict
//	consistency: true
//	record_db: ./receipts.db
//	batch:
//	  workers: 8
//	  retries: 3
//	  retry_delay: 100ms
//	log:
//	  level: debug
//	  format: json
type Config struct {
	SchemaMode  string      `yaml:"schema_mode"`
	SchemaFile  string      `yaml:"schema_file"`
	Consistency bool        `yaml:"consistency"`
	Format      string      `yaml:"format"`
	RecordDB    string      `yaml:"record_db"`
	Batch       BatchConfig `yaml:"batch"`
	Log         LogConfig   `yaml:"log"`
}

// BatchConfig configures batch verification.
type BatchConfig struct {
	Workers    int           `yaml:"workers"`
	Retries    int           `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// LogConfig configures diagnostics.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	policy := loader.DefaultRetryPolicy
	return &Config{
		SchemaMode: string(schema.ModeAuto),
		Format:     "text",
		Batch: BatchConfig{
			Workers:    4,
			Retries:    policy.MaxAttempts - 1,
			RetryDelay: policy.BaseDelay,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := schema.ParseMode(c.SchemaMode); err != nil {
		return err
	}
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", c.Format)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	if c.Batch.Retries < 0 {
		return fmt.Errorf("batch.retries must not be negative, got %d", c.Batch.Retries)
	}
	if c.Batch.RetryDelay < 0 {
		return fmt.Errorf("batch.retry_delay must not be negative, got %s", c.Batch.RetryDelay)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format %q: must be 'text' or 'json'", c.Log.Format)
	}
	return nil
}

// RetryPolicy converts the batch settings into a loader policy.
func (c *Config) RetryPolicy() loader.RetryPolicy {
	policy := loader.DefaultRetryPolicy
	policy.MaxAttempts = c.Batch.Retries + 1
	policy.BaseDelay = c.Batch.RetryDelay
	return policy
}

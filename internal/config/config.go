// Package config loads service configuration from an optional YAML document
// with environment overrides. Everything here is read once at process start
// and passed down explicitly; there is no global mutable state.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names recognized as overrides.
const (
	EnvTableName    = "CERTSTUDY_TABLE"
	EnvRegion       = "AWS_REGION"
	EnvAuthSecretID = "CERTSTUDY_AUTH_SECRET_ID"
	EnvConfigPath   = "CERTSTUDY_CONFIG"
)

// Config is the full service configuration.
type Config struct {
	// TableName is the single DynamoDB table holding all entities.
	TableName string `yaml:"tableName"`
	// Region is the AWS region; empty defers to the default chain.
	Region string `yaml:"region"`
	// AuthSecretID names the Secrets Manager secret with the token signing key.
	AuthSecretID string `yaml:"authSecretId"`
	// OpTimeoutMillis bounds each store round trip; zero means the adapter default.
	OpTimeoutMillis int `yaml:"opTimeoutMs"`
	// RetryAttempts is the transient retry budget; zero means the adapter default.
	RetryAttempts int `yaml:"retryAttempts"`
}

// OpTimeout returns the configured per-operation timeout as a duration.
func (c *Config) OpTimeout() time.Duration {
	return time.Duration(c.OpTimeoutMillis) * time.Millisecond
}

// Load reads the YAML document at path (when non-empty), applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvTableName); v != "" {
		cfg.TableName = v
	}
	if v := os.Getenv(EnvRegion); v != "" {
		cfg.Region = v
	}
	if v := os.Getenv(EnvAuthSecretID); v != "" {
		cfg.AuthSecretID = v
	}
}

func (c *Config) validate() error {
	if c.TableName == "" {
		return errors.New("config: tableName is required (set " + EnvTableName + " or the yaml field)")
	}
	if c.OpTimeoutMillis < 0 {
		return fmt.Errorf("config: opTimeoutMs must be non-negative, got %d", c.OpTimeoutMillis)
	}
	if c.RetryAttempts < 0 {
		return errors.New("config: retryAttempts must be non-negative")
	}
	return nil
}

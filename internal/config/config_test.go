package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
tableName: study-platform
region: us-east-2
authSecretId: certstudy/auth
opTimeoutMs: 2500
retryAttempts: 3
`)
	t.Setenv(EnvTableName, "")
	t.Setenv(EnvRegion, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TableName != "study-platform" || cfg.Region != "us-east-2" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.OpTimeout() != 2500*time.Millisecond {
		t.Fatalf("op timeout: %v", cfg.OpTimeout())
	}
	if cfg.RetryAttempts != 3 {
		t.Fatalf("retry attempts: %d", cfg.RetryAttempts)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "tableName: from-file\nregion: us-east-2\n")
	t.Setenv(EnvTableName, "from-env")
	t.Setenv(EnvRegion, "eu-west-1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TableName != "from-env" {
		t.Fatalf("env must win over file, got %q", cfg.TableName)
	}
	if cfg.Region != "eu-west-1" {
		t.Fatalf("region: %q", cfg.Region)
	}
}

func TestEnvOnly(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvTableName, "env-table")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TableName != "env-table" {
		t.Fatalf("table name: %q", cfg.TableName)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvTableName, "")
	t.Setenv(EnvConfigPath, "")

	if _, err := Load(""); err == nil {
		t.Fatal("missing table name must fail validation")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("unreadable path must fail")
	}

	unknown := writeConfig(t, "tableName: x\nnoSuchField: y\n")
	if _, err := Load(unknown); err == nil {
		t.Fatal("unknown fields must be rejected")
	}

	negative := writeConfig(t, "tableName: x\nopTimeoutMs: -1\n")
	if _, err := Load(negative); err == nil {
		t.Fatal("negative timeout must fail validation")
	}
}

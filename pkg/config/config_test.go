package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearOracleEnv unsets variables a developer shell may carry into the test.
func clearOracleEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "LOG_LEVEL", "METRICS_ADDR",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASS",
		"DB_CONNECTION_STRING", "DB_ENABLE_STAT", "DB_POOL_MIN", "DB_POOL_MAX",
		"DB_CONNECTION_CALL_TIMEOUT", "DB_MAX_ROWS", "DB_PREFETCH_ROWS", "DB_MAX_IDENTIFIER_LENGTH",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearOracleEnv(t)

	path := writeConfig(t, `
env: "test"
log_level: "debug"
oracle:
  host: "db.example.com"
  port: 1522
  database: "SALES"
  user: "analyst"
  pool_max: 20
`)

	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DB_POOL_MAX", "8")
	t.Setenv("DB_PASS", "from-env")

	cfg, err := Load(path, "test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != "production" {
		t.Errorf("expected Env=production (from env), got %s", cfg.Env)
	}
	if cfg.Oracle.PoolMax != 8 {
		t.Errorf("expected PoolMax=8 (from env), got %d", cfg.Oracle.PoolMax)
	}
	if cfg.Oracle.Host != "db.example.com" {
		t.Errorf("expected Host=db.example.com (from yaml), got %s", cfg.Oracle.Host)
	}
	if cfg.Oracle.Port != 1522 {
		t.Errorf("expected Port=1522 (from yaml), got %d", cfg.Oracle.Port)
	}
	if cfg.Oracle.Password != "from-env" {
		t.Errorf("expected password from env, got %q", cfg.Oracle.Password)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel=debug (from yaml), got %s", cfg.LogLevel)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction() for ENVIRONMENT=production")
	}
}

func TestLoad_PasswordNeverReadFromYAML(t *testing.T) {
	clearOracleEnv(t)

	path := writeConfig(t, `
oracle:
  user: "cube"
  database: "FREEPDB1"
  password: "leaked"
`)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Oracle.Password != "" {
		t.Errorf("password must only come from DB_PASS, got %q", cfg.Oracle.Password)
	}
}

func TestLoad_EnvOnlyDefaults(t *testing.T) {
	clearOracleEnv(t)

	// Run from an empty directory so DefaultPath is absent.
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})

	t.Setenv("DB_USER", "cube")
	t.Setenv("DB_NAME", "FREEPDB1")

	cfg, err := Load("", "v1")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	o := cfg.Oracle
	if o.Host != "localhost" || o.Port != 1521 {
		t.Errorf("expected localhost:1521, got %s:%d", o.Host, o.Port)
	}
	if o.PoolMin != 0 || o.PoolMax != 50 {
		t.Errorf("expected pool 0/50, got %d/%d", o.PoolMin, o.PoolMax)
	}
	if o.CallTimeoutSeconds != 30 {
		t.Errorf("expected call timeout 30, got %d", o.CallTimeoutSeconds)
	}
	if o.MaxRows != 100000 || o.PrefetchRows != 500 {
		t.Errorf("expected max rows 100000 and prefetch 500, got %d and %d", o.MaxRows, o.PrefetchRows)
	}
	if o.MaxIdentifierLength != 128 {
		t.Errorf("expected identifier ceiling 128, got %d", o.MaxIdentifierLength)
	}
	if o.EnableStats {
		t.Error("expected stats disabled by default")
	}
	if cfg.Env != "local" || cfg.LogLevel != "info" || cfg.MetricsAddr != "" {
		t.Errorf("unexpected ambient defaults: env=%s level=%s metrics=%q", cfg.Env, cfg.LogLevel, cfg.MetricsAddr)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearOracleEnv(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
		if err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("bad log level", func(t *testing.T) {
		path := writeConfig(t, `log_level: "loud"`)
		_, err := Load(path, "")
		if err == nil || !strings.Contains(err.Error(), "log_level") {
			t.Fatalf("expected log_level error, got %v", err)
		}
	})

	t.Run("negative timeout", func(t *testing.T) {
		t.Setenv("DB_CONNECTION_CALL_TIMEOUT", "-1")
		path := writeConfig(t, `env: "test"`)
		_, err := Load(path, "")
		if err == nil || !strings.Contains(err.Error(), "call timeout") {
			t.Fatalf("expected call timeout error, got %v", err)
		}
	})
}

func TestAdapterConfig(t *testing.T) {
	o := OracleConfig{
		Host:                "oracle.example.com",
		Port:                1521,
		ServiceName:         "FREEPDB1",
		User:                "cube",
		Password:            "secret",
		PoolMax:             50,
		CallTimeoutSeconds:  30,
		MaxRows:             100000,
		PrefetchRows:        500,
		MaxIdentifierLength: 30,
		EnableStats:         true,
	}

	m := o.AdapterConfig()

	expect := map[string]any{
		"host":                  "oracle.example.com",
		"database":              "FREEPDB1",
		"user":                  "cube",
		"password":              "secret",
		"pool_max":              50,
		"call_timeout":          30,
		"max_identifier_length": 30,
		"enable_stats":          true,
	}
	for key, want := range expect {
		if m[key] != want {
			t.Errorf("AdapterConfig()[%q] = %v, want %v", key, m[key], want)
		}
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap/zapcore"
)

// DefaultPath is read when no config file is named and it exists.
const DefaultPath = "config.yaml"

// Config holds all configuration for ekaya-oracle.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Env         string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR" env-default:""` // empty disables /metrics
	Version     string `yaml:"-"`                                              // Set at load time, not from config

	// Oracle datasource configuration
	Oracle OracleConfig `yaml:"oracle"`
}

// OracleConfig holds the connection and pool settings for the Oracle datasource.
type OracleConfig struct {
	Host        string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port        int    `yaml:"port" env:"DB_PORT" env-default:"1521"`
	ServiceName string `yaml:"database" env:"DB_NAME"`
	User        string `yaml:"user" env:"DB_USER"`
	Password    string `yaml:"-" env:"DB_PASS"` // Secret - not in YAML

	// ConnectionString overrides host/port/database, e.g. "scan-host:1521/SALES".
	ConnectionString string `yaml:"connection_string" env:"DB_CONNECTION_STRING" env-default:""`

	// EnableStats logs pool statistics after every statement.
	EnableStats bool `yaml:"enable_stats" env:"DB_ENABLE_STAT" env-default:"false"`

	PoolMin int `yaml:"pool_min" env:"DB_POOL_MIN" env-default:"0"`
	PoolMax int `yaml:"pool_max" env:"DB_POOL_MAX" env-default:"50"`

	// CallTimeoutSeconds bounds statement execution once a connection is held.
	CallTimeoutSeconds int `yaml:"call_timeout_seconds" env:"DB_CONNECTION_CALL_TIMEOUT" env-default:"30"`

	MaxRows      int `yaml:"max_rows" env:"DB_MAX_ROWS" env-default:"100000"`
	PrefetchRows int `yaml:"prefetch_rows" env:"DB_PREFETCH_ROWS" env-default:"500"`

	// MaxIdentifierLength is 128 on 12.2+; set 30 for older compatibility levels.
	MaxIdentifierLength int `yaml:"max_identifier_length" env:"DB_MAX_IDENTIFIER_LENGTH" env-default:"128"`
}

// Load reads configuration from the YAML file at path with environment
// variable overrides. An empty path reads DefaultPath when it exists and
// the environment alone otherwise.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	path, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if _, err := os.Stat(DefaultPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat %s: %w", DefaultPath, err)
	}
	return DefaultPath, nil
}

func (c *Config) validate() error {
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Oracle.CallTimeoutSeconds < 0 {
		return fmt.Errorf("call timeout must not be negative, got %d", c.Oracle.CallTimeoutSeconds)
	}
	return nil
}

// IsProduction reports whether logs should use the production encoder.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// AdapterConfig returns the settings in the generic form accepted by the
// datasource adapter factory. Loopback hosts are rewritten when running in Docker.
func (o *OracleConfig) AdapterConfig() map[string]any {
	return map[string]any{
		"host":                  ResolveHostForDocker(o.Host),
		"port":                  o.Port,
		"database":              o.ServiceName,
		"user":                  o.User,
		"password":              o.Password,
		"connection_string":     o.ConnectionString,
		"enable_stats":          o.EnableStats,
		"pool_min":              o.PoolMin,
		"pool_max":              o.PoolMax,
		"call_timeout":          o.CallTimeoutSeconds,
		"max_rows":              o.MaxRows,
		"prefetch_rows":         o.PrefetchRows,
		"max_identifier_length": o.MaxIdentifierLength,
	}
}

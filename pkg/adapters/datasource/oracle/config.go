package oracle

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ekaya-inc/ekaya-oracle/pkg/jsonutil"
)

// Config contains Oracle-specific connection and pool options.
type Config struct {
	Host        string
	Port        int
	ServiceName string

	User     string
	Password string

	// ConnectionString overrides Host/Port/ServiceName. Accepts EZConnect
	// ("host:port/service"), a TNS descriptor ("(DESCRIPTION=...)") or an
	// oracle:// URL.
	ConnectionString string

	PoolMin int
	PoolMax int

	// CallTimeout bounds statement execution, not the wait for a connection.
	CallTimeout  time.Duration
	MaxRows      int
	PrefetchRows int
	EnableStats  bool

	MaxIdentifierLength int
}

// DefaultPort returns the default Oracle listener port.
func DefaultPort() int {
	return 1521
}

// DefaultPoolMax returns the default upper bound on open connections.
func DefaultPoolMax() int {
	return 50
}

// DefaultCallTimeout returns the default per-statement execution timeout.
func DefaultCallTimeout() time.Duration {
	return 30 * time.Second
}

// DefaultMaxRows returns the default cap on rows fetched per statement.
func DefaultMaxRows() int {
	return 100000
}

// DefaultPrefetchRows returns the default driver prefetch size.
func DefaultPrefetchRows() int {
	return 500
}

// FromMap creates a Config from a generic config map.
// Numeric fields accept JSON numbers, ints or numeric strings.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Host:         "localhost",
		Port:         DefaultPort(),
		PoolMax:      DefaultPoolMax(),
		CallTimeout:  DefaultCallTimeout(),
		MaxRows:      DefaultMaxRows(),
		PrefetchRows: DefaultPrefetchRows(),
	}

	if host, ok := config["host"].(string); ok && host != "" {
		cfg.Host = host
	}
	if port, ok := jsonutil.FlexibleInt(config["port"]); ok {
		cfg.Port = port
	}

	cfg.ServiceName = firstString(config, "service_name", "database", "name")
	cfg.User = firstString(config, "user", "username")
	if password, ok := config["password"].(string); ok {
		cfg.Password = password
	}
	cfg.ConnectionString = firstString(config, "connection_string", "connect_string")

	if cfg.User == "" {
		return nil, fmt.Errorf("user is required")
	}
	if cfg.ConnectionString == "" && cfg.ServiceName == "" {
		return nil, fmt.Errorf("database (service name) or connection_string is required")
	}

	if n, ok := jsonutil.FlexibleInt(config["pool_min"]); ok {
		cfg.PoolMin = n
	}
	if n, ok := jsonutil.FlexibleInt(config["pool_max"]); ok {
		cfg.PoolMax = n
	}
	if n, ok := jsonutil.FlexibleInt(config["call_timeout"]); ok {
		cfg.CallTimeout = time.Duration(n) * time.Second
	}
	if n, ok := jsonutil.FlexibleInt(config["max_rows"]); ok {
		cfg.MaxRows = n
	}
	if n, ok := jsonutil.FlexibleInt(config["prefetch_rows"]); ok {
		cfg.PrefetchRows = n
	}
	if b, ok := jsonutil.FlexibleBool(config["enable_stats"]); ok {
		cfg.EnableStats = b
	}
	if n, ok := jsonutil.FlexibleInt(config["max_identifier_length"]); ok {
		cfg.MaxIdentifierLength = n
	}

	return cfg, nil
}

// Validate checks the config is usable to build a pool.
func (c *Config) Validate() error {
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	if c.ConnectionString == "" {
		if c.Host == "" {
			return fmt.Errorf("host is required")
		}
		if c.ServiceName == "" {
			return fmt.Errorf("database (service name) is required")
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.PoolMax <= 0 {
		return fmt.Errorf("pool_max must be positive, got %d", c.PoolMax)
	}
	if c.PoolMin < 0 || c.PoolMin > c.PoolMax {
		return fmt.Errorf("pool_min must be between 0 and pool_max (%d), got %d", c.PoolMax, c.PoolMin)
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("call_timeout must not be negative")
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("max_rows must not be negative")
	}
	return nil
}

// ConnectTarget returns the connect string the pool dials, falling back to
// EZConnect "host:port/service" when none was given.
func (c *Config) ConnectTarget() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.ServiceName)
}

// parseEZConnect splits "host[:port]/service". Port defaults to defaultPort.
func parseEZConnect(s string, defaultPort int) (host string, port int, service string, err error) {
	s = strings.TrimPrefix(s, "//")
	slash := strings.Index(s, "/")
	if slash <= 0 || slash == len(s)-1 {
		return "", 0, "", fmt.Errorf("connection string %q is not host[:port]/service", s)
	}
	hostPort, service := s[:slash], s[slash+1:]

	host, port = hostPort, defaultPort
	if colon := strings.LastIndex(hostPort, ":"); colon >= 0 {
		host = hostPort[:colon]
		port, err = strconv.Atoi(hostPort[colon+1:])
		if err != nil {
			return "", 0, "", fmt.Errorf("invalid port in connection string %q", s)
		}
	}
	if host == "" {
		return "", 0, "", fmt.Errorf("connection string %q has no host", s)
	}
	return host, port, service, nil
}

func firstString(config map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := config[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/caarlos0/env/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Admin    AdminConfig
	Provider ProviderConfig
	Audit    AuditConfig
	Log      LogConfig
}

// ServerConfig holds the public update listener configuration.
type ServerConfig struct {
	Host           string   `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port           int      `env:"SERVER_PORT" envDefault:"8080"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

// AdminConfig holds the operator listener configuration.
type AdminConfig struct {
	Enabled bool   `env:"ADMIN_ENABLED" envDefault:"true"`
	Host    string `env:"ADMIN_HOST" envDefault:"127.0.0.1"`
	Port    int    `env:"ADMIN_PORT" envDefault:"9090"`
	APIKey  string `env:"ADMIN_API_KEY"`
}

// ProviderConfig holds settings shared by the firewall providers.
type ProviderConfig struct {
	DigitalOceanURL string        `env:"DIGITALOCEAN_API_URL"`
	HetznerURL      string        `env:"HETZNER_API_URL"`
	Timeout         time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"0s"`
	FileShim        string        `env:"PROVIDER_FILE_SHIM"` // Path to file for testing shim (disables real APIs)
}

// AuditConfig holds audit trail storage configuration.
type AuditConfig struct {
	Driver    string `env:"AUDIT_DRIVER" envDefault:"memory"`
	DSN       string `env:"AUDIT_DSN"`
	Retention int    `env:"AUDIT_RETENTION" envDefault:"1000"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Admin); err != nil {
		return nil, fmt.Errorf("parsing admin config: %w", err)
	}
	if err := env.Parse(&cfg.Provider); err != nil {
		return nil, fmt.Errorf("parsing provider config: %w", err)
	}
	if err := env.Parse(&cfg.Audit); err != nil {
		return nil, fmt.Errorf("parsing audit config: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, fmt.Errorf("parsing log config: %w", err)
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Addr returns the admin address in host:port format.
func (c *AdminConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks if the configuration is valid. Every problem is reported,
// not just the first.
func (c *Config) Validate() error {
	var err error

	err = multierr.Append(err, validatePort("SERVER_PORT", c.Server.Port))
	if c.Admin.Enabled {
		err = multierr.Append(err, validatePort("ADMIN_PORT", c.Admin.Port))
		if c.Admin.Host == c.Server.Host && c.Admin.Port == c.Server.Port {
			err = multierr.Append(err, fmt.Errorf("ADMIN_PORT must differ from SERVER_PORT"))
		}
	}

	err = multierr.Append(err, validateURL("DIGITALOCEAN_API_URL", c.Provider.DigitalOceanURL))
	err = multierr.Append(err, validateURL("HETZNER_API_URL", c.Provider.HetznerURL))
	if c.Provider.Timeout < 0 {
		err = multierr.Append(err, fmt.Errorf("PROVIDER_TIMEOUT must not be negative"))
	}

	switch c.Audit.Driver {
	case "memory":
		if c.Audit.Retention <= 0 {
			err = multierr.Append(err, fmt.Errorf("AUDIT_RETENTION must be positive"))
		}
	case "sqlite3", "postgres":
		if c.Audit.DSN == "" {
			err = multierr.Append(err, fmt.Errorf("AUDIT_DSN is required when AUDIT_DRIVER is %s", c.Audit.Driver))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("AUDIT_DRIVER must be one of memory, sqlite3, postgres (got %q)", c.Audit.Driver))
	}

	if _, lerr := zapcore.ParseLevel(c.Log.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("LOG_LEVEL: %w", lerr))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		err = multierr.Append(err, fmt.Errorf("LOG_FORMAT must be json or console (got %q)", c.Log.Format))
	}

	return err
}

func validatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535 (got %d)", name, port)
	}
	return nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL (got %q)", name, raw)
	}
	return nil
}

// UseFileShim returns true if the file shim should be used instead of the real APIs.
func (c *Config) UseFileShim() bool {
	return c.Provider.FileShim != ""
}

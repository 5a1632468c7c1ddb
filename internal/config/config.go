package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	fileMode = 0600

	defaultAddress         = "127.0.0.1:8080"
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultMaxBodyBytes    = 1 << 20
)

// Config represents the app config object.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Store    Store  `yaml:"store"`
	Server   Server `yaml:"server"`
}

// Store selects where match results are kept.
type Store struct {
	// Driver is either postgres or sqlite.
	Driver string `yaml:"driver"`
	// DSN is a postgres connection string or a sqlite file path.
	DSN string `yaml:"dsn"`
}

// Server holds the HTTP API settings.
type Server struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// Default returns the config used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Store: Store{
			Driver: "sqlite",
		},
		Server: Server{
			Address:         defaultAddress,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			MaxBodyBytes:    defaultMaxBodyBytes,
		},
	}
}

// Load reads the config file at path on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file: %s", path)
	}
	return c, nil
}

// Save writes the config as YAML to path.
func Save(path string, c *Config) error {
	if path == "" {
		return errors.New("config path required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", path)
	}
	return nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		return errors.Errorf("unsupported store driver: %q", c.Store.Driver)
	}
	if c.Server.Address == "" {
		return errors.New("server address required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.Errorf("server max_body_bytes must be positive: %d", c.Server.MaxBodyBytes)
	}
	return nil
}

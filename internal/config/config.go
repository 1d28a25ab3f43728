// Package config loads service configuration from an optional YAML file and
// CQC_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"careindex/internal/domain/filter"
)

// EnvPrefix prefixes every environment override: CQC_POSTGRES_HOST -> postgres.host.
const EnvPrefix = "CQC"

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Env             string        `mapstructure:"env"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type PostgresConfig struct {
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	DB               string        `mapstructure:"db"`
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	SSLMode          string        `mapstructure:"sslmode"`
	MaxConns         int32         `mapstructure:"max_conns"`
	MinConns         int32         `mapstructure:"min_conns"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

type FilterConfig struct {
	DefaultLimit  int `mapstructure:"default_limit"`
	MaxLimit      int `mapstructure:"max_limit"`
	MaxConditions int `mapstructure:"max_conditions"`
}

type StorageConfig struct {
	Driver  string `mapstructure:"driver"`
	Fixture string `mapstructure:"fixture"`
}

// defaults registers every key, which also lets AutomaticEnv resolve
// overrides during Unmarshal.
var defaults = map[string]any{
	"app.name":             "CQC Data API",
	"app.env":              "development",
	"app.port":             8080,
	"app.read_timeout":     "15s",
	"app.write_timeout":    "30s",
	"app.shutdown_timeout": "30s",

	"log.level":       "info",
	"log.development": false,

	"postgres.user":              "postgres",
	"postgres.password":          "",
	"postgres.db":                "cqc",
	"postgres.host":              "localhost",
	"postgres.port":              5432,
	"postgres.sslmode":           "disable",
	"postgres.max_conns":         20,
	"postgres.min_conns":         2,
	"postgres.statement_timeout": "30s",

	"filter.default_limit":  100,
	"filter.max_limit":      1000,
	"filter.max_conditions": 50,

	"storage.driver":  DriverPostgres,
	"storage.fixture": "",
}

// Load reads configuration. When path is empty, config.yaml is looked up in
// . and ./config and its absence is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if err := c.Limits().Validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	switch c.Storage.Driver {
	case DriverPostgres:
	case DriverMemory:
		if c.Storage.Fixture == "" {
			return fmt.Errorf("storage: driver %q requires storage.fixture", DriverMemory)
		}
	default:
		return fmt.Errorf("storage: unknown driver %q", c.Storage.Driver)
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app: invalid port %d", c.App.Port)
	}
	return nil
}

// Limits converts the filter section for the core.
func (c *Config) Limits() filter.Limits {
	return filter.Limits{
		DefaultLimit:  c.Filter.DefaultLimit,
		MaxLimit:      c.Filter.MaxLimit,
		MaxConditions: c.Filter.MaxConditions,
	}
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// DatabaseURL builds the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(c.Postgres.User, c.Postgres.Password),
		Host:   net.JoinHostPort(c.Postgres.Host, strconv.Itoa(c.Postgres.Port)),
		Path:   "/" + c.Postgres.DB,
	}
	if c.Postgres.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.Postgres.SSLMode}}.Encode()
	}
	return u.String()
}

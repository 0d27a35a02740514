// Package config loads zood configuration from defaults, an optional YAML
// file, ZOO_* environment variables and command-line flags.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kungfuzoo/zoo/internal/store"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "ZOO"

// Config is the complete daemon configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Seed    SeedConfig    `mapstructure:"seed"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Events  EventsConfig  `mapstructure:"events"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

// SeedConfig controls the initial collection contents.
type SeedConfig struct {
	// File is an optional YAML/JSON seed file replacing the built-in seed.
	File string `mapstructure:"file"`
	// Empty starts both collections without records.
	Empty bool `mapstructure:"empty"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// TracingConfig configures OpenTelemetry.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// EventsConfig configures the NATS change-event relay.
type EventsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// NATSURL points at an external NATS server. Empty starts an embedded one.
	NATSURL string `mapstructure:"nats_url"`
	// Port of the embedded server; -1 picks a random port.
	Port int `mapstructure:"port"`
}

// SetDefaults registers every key with its default value. Keys must be
// registered for AutomaticEnv to pick them up during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("store.backend", store.BackendMemory)
	v.SetDefault("seed.file", "")
	v.SetDefault("seed.empty", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "zoo")
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.port", -1)
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile reads cfgFile if set, otherwise looks for zood.yaml in the
// working directory and $HOME. A missing default file is not an error.
func ReadFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	v.SetConfigName("zood")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if !slices.Contains(store.Backends, c.Store.Backend) {
		return fmt.Errorf("store.backend %q not supported (supported: %s)", c.Store.Backend, strings.Join(store.Backends, ", "))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Seed.Empty && c.Seed.File != "" {
		return fmt.Errorf("seed.empty and seed.file are mutually exclusive")
	}
	return nil
}

// NewLogger builds the zap logger described by c.
func (c LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}

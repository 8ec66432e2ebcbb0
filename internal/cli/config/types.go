// Package config provides configuration management for the sql2nl CLI.
//
// Values are layered from defaults, an optional sql2nl.yaml file, SQL2NL_
// environment variables and explicitly set command-line flags, in that order.
package config

import (
	"log/slog"
	"time"

	"github.com/leapstack-labs/sql2nl/internal/server"
	"github.com/leapstack-labs/sql2nl/pkg/predict"
)

// Output formats.
const (
	OutputText     = "text"
	OutputJSON     = "json"
	OutputYAML     = "yaml"
	OutputMarkdown = "markdown"
)

// Default configuration values.
const (
	DefaultOutput   = OutputText
	DefaultLogLevel = "info"
)

// Config holds all CLI configuration options.
type Config struct {
	Output   string       `koanf:"output"`
	Verbose  bool         `koanf:"verbose"`
	LogLevel string       `koanf:"log_level"`
	Model    ModelConfig  `koanf:"model"`
	Server   ServerConfig `koanf:"server"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// ModelConfig configures the optional text-generation endpoint.
type ModelConfig struct {
	Endpoint     string        `koanf:"endpoint"`
	Name         string        `koanf:"name"`
	Timeout      time.Duration `koanf:"timeout"`
	MaxNewTokens int           `koanf:"max_new_tokens"`
	APIKey       string        `koanf:"api_key"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Port              int           `koanf:"port"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Output:   DefaultOutput,
		LogLevel: DefaultLogLevel,
		Model: ModelConfig{
			Timeout:      predict.DefaultTimeout,
			MaxNewTokens: predict.DefaultMaxNewTokens,
		},
		Server: ServerConfig{
			Port:              server.DefaultPort,
			ReadHeaderTimeout: server.DefaultReadHeaderTimeout,
			ShutdownTimeout:   server.DefaultShutdownTimeout,
		},
	}
}

// ModelConfigured reports whether a model endpoint is set.
func (c *Config) ModelConfigured() bool {
	return c.Model.Endpoint != ""
}

// PredictConfig converts the model section into a predictor config.
func (c *Config) PredictConfig(logger *slog.Logger) predict.Config {
	return predict.Config{
		Endpoint:     c.Model.Endpoint,
		Model:        c.Model.Name,
		APIKey:       c.Model.APIKey,
		Timeout:      c.Model.Timeout,
		MaxNewTokens: c.Model.MaxNewTokens,
		Logger:       logger,
	}
}

// Level returns the slog level for the configured log level.
// Verbose forces debug.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

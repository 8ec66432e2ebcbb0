package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"
)

// ValidOutputs lists the accepted output formats.
var ValidOutputs = []string{OutputText, OutputJSON, OutputYAML, OutputMarkdown}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(ValidOutputs, c.Output) {
		return fmt.Errorf("invalid output format %q (expected one of %v)", c.Output, ValidOutputs)
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}

	if c.Model.Endpoint != "" {
		u, err := url.Parse(c.Model.Endpoint)
		if err != nil {
			return fmt.Errorf("invalid model.endpoint: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid model.endpoint %q: scheme must be http or https", c.Model.Endpoint)
		}
	}
	if c.Model.Timeout <= 0 {
		return fmt.Errorf("model.timeout must be positive, got %s", c.Model.Timeout)
	}
	if c.Model.MaxNewTokens <= 0 {
		return fmt.Errorf("model.max_new_tokens must be positive, got %d", c.Model.MaxNewTokens)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		return fmt.Errorf("server.read_header_timeout must be positive, got %s", c.Server.ReadHeaderTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	return nil
}

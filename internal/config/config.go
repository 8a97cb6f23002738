// Package config loads covtrace configuration from defaults and an
// optional YAML file via koanf. CLI flags layered on top by the caller
// take final precedence.
package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration for the application.
type Config struct {
	// APIPort is the port the API server listens on.
	APIPort int `koanf:"apiPort"`

	// LogLevel is the default logging level (debug, info, warn, error).
	LogLevel string `koanf:"logLevel"`

	// PortfolioPath is the JSON portfolio snapshot the engine analyzes.
	PortfolioPath string `koanf:"portfolioPath"`

	// PatternsPath is the YAML file seeding the causal pattern library.
	PatternsPath string `koanf:"patternsPath"`

	// WatchPatterns enables hot reload of the pattern file.
	WatchPatterns bool `koanf:"watchPatterns"`

	// CacheSize is the maximum number of cached facility predictions.
	CacheSize int `koanf:"cacheSize"`

	// PredictConcurrency bounds parallel per-facility predictions during
	// portfolio runs.
	PredictConcurrency int `koanf:"predictConcurrency"`

	// Tracing settings for the OTLP exporter.
	TracingEnabled     bool   `koanf:"tracingEnabled"`
	TracingEndpoint    string `koanf:"tracingEndpoint"`
	TracingTLSCAPath   string `koanf:"tracingTLSCAPath"`
	TracingTLSInsecure bool   `koanf:"tracingTLSInsecure"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIPort:            8090,
		LogLevel:           "info",
		CacheSize:          256,
		PredictConcurrency: 8,
	}
}

// Load builds a Config from defaults overlaid with the given YAML file.
// An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.APIPort < 1 || c.APIPort > 65535 {
		return NewConfigError("APIPort must be between 1 and 65535")
	}
	if c.PortfolioPath == "" {
		return NewConfigError("PortfolioPath must not be empty")
	}
	if c.CacheSize < 1 {
		return NewConfigError("CacheSize must be at least 1")
	}
	if c.PredictConcurrency < 1 {
		return NewConfigError("PredictConcurrency must be at least 1")
	}
	if c.WatchPatterns && c.PatternsPath == "" {
		return NewConfigError("PatternsPath must be set when WatchPatterns is enabled")
	}
	if c.TracingEnabled && c.TracingEndpoint == "" {
		return NewConfigError("TracingEndpoint must be set when tracing is enabled")
	}
	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message.
func (e *ConfigError) Error() string {
	return e.message
}

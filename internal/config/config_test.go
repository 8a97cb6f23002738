package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.PortfolioPath = "/data/portfolio.json"
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.APIPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 256, cfg.CacheSize)
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
apiPort: 9000
portfolioPath: /data/portfolio.json
patternsPath: /data/patterns.yaml
watchPatterns: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.APIPort)
	assert.Equal(t, "/data/portfolio.json", cfg.PortfolioPath)
	assert.True(t, cfg.WatchPatterns)
	// Unset keys keep their defaults.
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8, cfg.PredictConcurrency)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.APIPort = 0 }, "APIPort"},
		{"missing portfolio", func(c *Config) { c.PortfolioPath = "" }, "PortfolioPath"},
		{"bad cache size", func(c *Config) { c.CacheSize = 0 }, "CacheSize"},
		{"bad concurrency", func(c *Config) { c.PredictConcurrency = 0 }, "PredictConcurrency"},
		{"watch without patterns", func(c *Config) { c.WatchPatterns = true }, "PatternsPath"},
		{"tracing without endpoint", func(c *Config) { c.TracingEnabled = true }, "TracingEndpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

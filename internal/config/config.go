// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
)

// Config holds all configuration for the membank server.
type Config struct {
	DBFilename     string // name of the per-project database directory
	Host           string
	Port           int // reserved base port; the stdio transport binds no listener
	HTTPStreamPort int // Streamable HTTP transport port
	Debug          int // 0-4
	Server         ServerConfig
}

// ServerConfig holds MCP server metadata reported in the handshake.
type ServerConfig struct {
	Name    string
	Version string
}

// Load creates a Config by reading environment variables with defaults.
// Precedence: environment variables > defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("DB_FILENAME", "memory-bank.kuzu")
	v.SetDefault("HOST", "localhost")
	v.SetDefault("PORT", 3000)
	v.SetDefault("HTTP_STREAM_PORT", 3001)
	v.SetDefault("DEBUG", 2)

	cfg := &Config{
		DBFilename:     v.GetString("DB_FILENAME"),
		Host:           v.GetString("HOST"),
		Port:           v.GetInt("PORT"),
		HTTPStreamPort: v.GetInt("HTTP_STREAM_PORT"),
		Debug:          v.GetInt("DEBUG"),
		Server: ServerConfig{
			Name:    "membank",
			Version: "1.0.0",
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that fields are in range.
func (c *Config) Validate() error {
	if c.DBFilename == "" {
		return fmt.Errorf("DB_FILENAME must not be empty")
	}
	if c.Debug < 0 || c.Debug > 4 {
		return fmt.Errorf("DEBUG must be between 0 and 4, got %d", c.Debug)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.HTTPStreamPort <= 0 || c.HTTPStreamPort > 65535 {
		return fmt.Errorf("HTTP_STREAM_PORT out of range: %d", c.HTTPStreamPort)
	}
	return nil
}

// LogLevel maps the DEBUG integer to a slog level.
func (c *Config) LogLevel() slog.Level {
	switch c.Debug {
	case 0:
		return slog.LevelError
	case 1:
		return slog.LevelWarn
	case 2:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

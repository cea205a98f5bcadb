// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrInvalidResponseMode is returned when RESPONSE_MODE is neither
	// "inline" nor "link".
	ErrInvalidResponseMode = errors.New("config: RESPONSE_MODE must be \"inline\" or \"link\"")
	// ErrInvalidFontFallback is returned when FONT_FALLBACK is neither
	// "none" nor "check".
	ErrInvalidFontFallback = errors.New("config: FONT_FALLBACK must be \"none\" or \"check\"")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Directory settings, resolved once at startup and injected
	ScratchDir   string `env:"SCRATCH_DIR, default=/tmp/compose/scratch" json:"scratch_dir"`
	OutputDir    string `env:"OUTPUT_DIR, default=/tmp/compose/outputs" json:"output_dir"`
	ContainerDir string `env:"CONTAINER_DIR, default=/tmp/compose/containers" json:"container_dir"`

	// External binary settings
	FFmpegPath  string `env:"FFMPEG_PATH" json:"ffmpeg_path,omitempty"`
	FFprobePath string `env:"FFPROBE_PATH" json:"ffprobe_path,omitempty"`

	// Font settings; empty values fall back to platform defaults
	FontsDir     string `env:"FONTS_DIR" json:"fonts_dir,omitempty"`
	DefaultFont  string `env:"DEFAULT_FONT" json:"default_font,omitempty"`
	FontFallback string `env:"FONT_FALLBACK, default=none" json:"font_fallback"` // "none" or "check"

	// Response settings
	ResponseMode  string `env:"RESPONSE_MODE, default=inline" json:"response_mode"` // "inline" or "link"
	PublicBaseURL string `env:"PUBLIC_BASE_URL, default=http://localhost:8080" json:"public_base_url"`

	// Processing settings
	ExecTimeoutSec int `env:"EXEC_TIMEOUT_SEC, default=120" json:"exec_timeout_sec"`

	// Optional S3 settings for link-response publication
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3KeyPrefix        string `env:"S3_KEY_PREFIX" json:"s3_key_prefix,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// LinkMode returns true when finished artifacts are returned as URLs.
func (c *Config) LinkMode() bool {
	return strings.ToLower(c.ResponseMode) == "link"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that enum-valued settings hold known values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.ResponseMode) {
	case "inline", "link":
	default:
		return ErrInvalidResponseMode
	}
	switch strings.ToLower(c.FontFallback) {
	case "none", "check":
	default:
		return ErrInvalidFontFallback
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive
// values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, ScratchDir: %s, OutputDir: %s, ContainerDir: %s, ResponseMode: %s, FontFallback: %s, ExecTimeoutSec: %d, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.ScratchDir,
		c.OutputDir,
		c.ContainerDir,
		c.ResponseMode,
		c.FontFallback,
		c.ExecTimeoutSec,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

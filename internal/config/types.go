package config

import (
	"errors"
	"fmt"
	"time"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, lowest priority first.
	Files []string
}

// Default values.
const (
	DefaultDataFile            = "user_checklists.json"
	DefaultScanIntervalSeconds = 60
	DefaultLookaheadMinutes    = 15
	DefaultNotifyWorkers       = 4
	DefaultNotifyTimeout       = 10
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
)

// ErrMissingToken is returned when a bot run is requested without a token.
var ErrMissingToken = errors.New("DISCORD_TOKEN is not set")

// Config holds the full configuration for the checklist bot.
type Config struct {
	// Storage
	DataFile string `toml:"data_file"`

	// Discord
	Token   string `toml:"-"` // Environment only
	GuildID string `toml:"guild_id"`

	// Reminder scanner
	ScanIntervalSeconds  int    `toml:"scan_interval_seconds"`
	LookaheadMinutes     int    `toml:"lookahead_minutes"`
	NotifyWorkers        int    `toml:"notify_workers"`
	NotifyTimeoutSeconds int    `toml:"notify_timeout_seconds"`
	NotifyHook           string `toml:"notify_hook"`

	// HTTP API and metrics; empty disables the server
	HTTPAddr string `toml:"http_addr"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`
	LogDir        string `toml:"log_dir"`

	// Computed at load time
	WorkDir string `toml:"-"`
}

// ScanInterval returns the reminder scan interval.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSeconds) * time.Second
}

// Lookahead returns the reminder lookahead window.
func (c *Config) Lookahead() time.Duration {
	return time.Duration(c.LookaheadMinutes) * time.Minute
}

// NotifyTimeout returns the per-delivery timeout.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.NotifyTimeoutSeconds) * time.Second
}

// Validate checks the numeric settings.
func (c *Config) Validate() error {
	if c.DataFile == "" {
		return fmt.Errorf("data_file must not be empty")
	}
	if c.ScanIntervalSeconds <= 0 {
		return fmt.Errorf("scan_interval_seconds must be positive, got %d", c.ScanIntervalSeconds)
	}
	if c.LookaheadMinutes < 0 {
		return fmt.Errorf("lookahead_minutes must not be negative, got %d", c.LookaheadMinutes)
	}
	if c.NotifyWorkers <= 0 {
		return fmt.Errorf("notify_workers must be positive, got %d", c.NotifyWorkers)
	}
	if c.NotifyTimeoutSeconds <= 0 {
		return fmt.Errorf("notify_timeout_seconds must be positive, got %d", c.NotifyTimeoutSeconds)
	}
	return nil
}

// RequireToken returns ErrMissingToken when no Discord token is configured.
func (c *Config) RequireToken() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}

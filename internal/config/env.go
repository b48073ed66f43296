package config

import (
	"github.com/kelseyhightower/envconfig"
)

// envPrefix is prepended to every environment variable name.
const envPrefix = "CHECKLIST"

// envOverrides mirrors Config for environment loading, e.g. DataFile is
// read from CHECKLIST_DATA_FILE. Nil fields were not set in the environment
// and leave the config untouched.
type envOverrides struct {
	DataFile             *string `split_words:"true"`
	GuildID              *string `split_words:"true"`
	ScanIntervalSeconds  *int    `split_words:"true"`
	LookaheadMinutes     *int    `split_words:"true"`
	NotifyWorkers        *int    `split_words:"true"`
	NotifyTimeoutSeconds *int    `split_words:"true"`
	NotifyHook           *string `split_words:"true"`
	HTTPAddr             *string `split_words:"true"`
	LogLevel             *string `split_words:"true"`
	LogFormat            *string `split_words:"true"`
	LogTimestamps        *bool   `split_words:"true"`
	LogCaller            *bool   `split_words:"true"`
	LogDir               *string `split_words:"true"`

	// Read as CHECKLIST_DISCORD_TOKEN, falling back to DISCORD_TOKEN.
	Token *string `envconfig:"DISCORD_TOKEN"`
}

// loadFromEnv overrides config from environment variables and updates
// source tracking.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return err
	}

	setString := func(field string, dst *string, v *string) {
		if v != nil && *v != "" {
			*dst = *v
			sources[field] = SourceEnv
		}
	}
	setInt := func(field string, dst *int, v *int) {
		if v != nil {
			*dst = *v
			sources[field] = SourceEnv
		}
	}
	setBool := func(field string, dst *bool, v *bool) {
		if v != nil {
			*dst = *v
			sources[field] = SourceEnv
		}
	}

	setString("data_file", &cfg.DataFile, env.DataFile)
	setString("guild_id", &cfg.GuildID, env.GuildID)
	setInt("scan_interval_seconds", &cfg.ScanIntervalSeconds, env.ScanIntervalSeconds)
	setInt("lookahead_minutes", &cfg.LookaheadMinutes, env.LookaheadMinutes)
	setInt("notify_workers", &cfg.NotifyWorkers, env.NotifyWorkers)
	setInt("notify_timeout_seconds", &cfg.NotifyTimeoutSeconds, env.NotifyTimeoutSeconds)
	setString("notify_hook", &cfg.NotifyHook, env.NotifyHook)
	setString("http_addr", &cfg.HTTPAddr, env.HTTPAddr)
	setString("log_level", &cfg.LogLevel, env.LogLevel)
	setString("log_format", &cfg.LogFormat, env.LogFormat)
	setBool("log_timestamps", &cfg.LogTimestamps, env.LogTimestamps)
	setBool("log_caller", &cfg.LogCaller, env.LogCaller)
	setString("log_dir", &cfg.LogDir, env.LogDir)

	if env.Token != nil {
		cfg.Token = *env.Token
	}
	return nil
}

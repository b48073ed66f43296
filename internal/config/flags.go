package config

import (
	"flag"
)

// flagFields maps flag names to the config field they set.
var flagFields = map[string]string{
	"data":           "data_file",
	"guild":          "guild_id",
	"scan-interval":  "scan_interval_seconds",
	"lookahead":      "lookahead_minutes",
	"notify-workers": "notify_workers",
	"notify-timeout": "notify_timeout_seconds",
	"notify-hook":    "notify_hook",
	"http-addr":      "http_addr",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
	"log-dir":        "log_dir",
}

// parseFlags defines and parses CLI flags, recording the source of every
// flag that was set explicitly.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("checklist", flag.ContinueOnError)
	}

	// Storage
	fs.StringVar(&cfg.DataFile, "data", cfg.DataFile, "Path to the checklist JSON file")

	// Discord
	fs.StringVar(&cfg.GuildID, "guild", cfg.GuildID, "Register slash commands in this guild only (empty for global)")

	// Reminders
	fs.IntVar(&cfg.ScanIntervalSeconds, "scan-interval", cfg.ScanIntervalSeconds, "Seconds between reminder scans")
	fs.IntVar(&cfg.LookaheadMinutes, "lookahead", cfg.LookaheadMinutes, "Remind about tasks due within this many minutes")
	fs.IntVar(&cfg.NotifyWorkers, "notify-workers", cfg.NotifyWorkers, "Concurrent reminder deliveries")
	fs.IntVar(&cfg.NotifyTimeoutSeconds, "notify-timeout", cfg.NotifyTimeoutSeconds, "Timeout for one reminder delivery (seconds)")
	fs.StringVar(&cfg.NotifyHook, "notify-hook", cfg.NotifyHook, "Command to run for each reminder")

	// HTTP
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "Listen address for the HTTP API and metrics (empty disables)")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text|json|logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in log output")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in log output")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Also write logs to a per-run file in this directory")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if field, ok := flagFields[f.Name]; ok {
			sources[field] = SourceFlag
		}
	})
	return nil
}

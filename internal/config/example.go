package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# Checklist bot configuration file
# Values can be overridden by CHECKLIST_* environment variables or CLI flags.
# The Discord token is read from DISCORD_TOKEN only.

# Checklist storage (relative to the working directory)
data_file = "user_checklists.json"

# Register slash commands in a single guild (faster to update while testing)
# guild_id = "123456789012345678"

# Reminder scanner
scan_interval_seconds = 60
lookahead_minutes = 15
notify_workers = 4
notify_timeout_seconds = 10

# Command run for every reminder, in addition to the Discord DM.
# Arguments: <user_id> <due> <priority>; the reminder JSON is on stdin.
# notify_hook = "/path/to/hook.sh"

# HTTP API and Prometheus metrics (empty disables)
# http_addr = ":8080"

# Logging
log_level = "info"
log_format = "text"
log_timestamps = false
log_caller = false
# log_dir = "~/.checklist/logs"
`
}

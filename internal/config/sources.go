package config

import (
	"os"
	"path/filepath"
)

const configFileName = "checklist.toml"

// firstExisting returns the first candidate that names a regular file.
func firstExisting(candidates ...string) string {
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// findProjectConfigFile returns ./checklist.toml or ./.checklist.toml.
func findProjectConfigFile() string {
	return firstExisting(configFileName, "."+configFileName)
}

// findUserConfigFile returns ~/.checklist/checklist.toml, or
// checklist/checklist.toml under the user config directory
// ($XDG_CONFIG_HOME or ~/.config on Linux).
func findUserConfigFile() string {
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".checklist", configFileName))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "checklist", configFileName))
	}
	return firstExisting(candidates...)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.DataFile = DefaultDataFile
	cfg.ScanIntervalSeconds = DefaultScanIntervalSeconds
	cfg.LookaheadMinutes = DefaultLookaheadMinutes
	cfg.NotifyWorkers = DefaultNotifyWorkers
	cfg.NotifyTimeoutSeconds = DefaultNotifyTimeout
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

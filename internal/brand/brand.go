// Package brand provides centralized naming and default locations for swarmctl.
package brand

import (
	"os"
	"path/filepath"
)

// Identity.
const (
	Name            = "swarmctl"
	Description     = "Terminal client for a live agent-swarm simulation"
	ConfigEnvPrefix = "SWARMCTL"
	ConfigFileName  = "swarmctl.hcl"
	RecordingsFile  = "recordings.db"
)

// Build information, set at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// UserAgent returns the User-Agent sent on the WebSocket handshake.
func UserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return Name + "/" + version
}

// GetConfigDir returns the config directory.
// Priority: SWARMCTL_CONFIG_DIR > $XDG_CONFIG_HOME/swarmctl > ~/.config/swarmctl
func GetConfigDir() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_CONFIG_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, Name)
}

// GetDataDir returns the directory for the recording library.
// Priority: SWARMCTL_DATA_DIR > $XDG_DATA_HOME/swarmctl > ~/.local/share/swarmctl
func GetDataDir() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_DATA_DIR"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, Name)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", Name)
}

// DefaultConfigPath returns the config file looked up when none is given.
func DefaultConfigPath() string {
	return filepath.Join(GetConfigDir(), ConfigFileName)
}

// DefaultRecordingsPath returns the default recording library location.
func DefaultRecordingsPath() string {
	return filepath.Join(GetDataDir(), RecordingsFile)
}

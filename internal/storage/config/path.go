// Package config provides configuration file parsing and directory resolution.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// AppName names the configuration and data subdirectories
const AppName = "rwm"

// configEnvVars are consulted in order; each names a parent directory
var configEnvVars = []string{"XDG_CONFIG_HOME", "RWM_CONFIG_HOME", "CONFIG_HOME"}

// ResolveDir returns the configuration directory. A non-empty override wins,
// then the first set variable in configEnvVars, then ~/.config.
func ResolveDir(override string, getenv func(string) string) (string, error) {
	if override != "" {
		return ExpandHome(override), nil
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, name := range configEnvVars {
		if v := getenv(name); v != "" {
			return filepath.Join(ExpandHome(v), AppName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("cannot determine home directory; set XDG_CONFIG_HOME or --config")
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DataDir returns the directory for the database, next to the config
func DataDir(configDir string) string {
	return filepath.Join(configDir, "data")
}

// DefaultSteamCmdPath is where setup expects steamcmd to be unpacked
func DefaultSteamCmdPath(configDir string) string {
	return filepath.Join(configDir, "steamcmd", "steamcmd.sh")
}

// DefaultGamePaths lists common RimWorld install locations
func DefaultGamePaths() []string {
	return []string{
		"~/GOG Games/RimWorld",
		"~/.steam/steam/steamapps/common/RimWorld",
		"~/.local/share/Steam/steamapps/common/RimWorld",
		"~/Games/RimWorld",
	}
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

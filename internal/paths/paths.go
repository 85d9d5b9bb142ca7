// Package paths resolves where draftctl keeps its configuration and drafts.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "formdraft"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "FORMDRAFT_CONFIG_DIR"
	EnvDataDir   = "FORMDRAFT_DATA_DIR"
)

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/formdraft (fallback ~/.config/formdraft)
// macOS:   ~/Library/Application Support/formdraft
// Windows: %APPDATA%/formdraft
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/formdraft (fallback ~/.local/share/formdraft)
// macOS and Windows: same as DefaultConfigDir.
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, homeRel string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, appName), nil
}

// ResolveConfigDir applies flag > FORMDRAFT_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	return resolve(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir applies flag > config.yaml data_dir > FORMDRAFT_DATA_DIR >
// DefaultDataDir.
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(DefaultDataDir, flag, configValue, os.Getenv(EnvDataDir))
}

// resolve returns the first non-empty candidate as an absolute path.
func resolve(fallback func() (string, error), candidates ...string) (string, error) {
	for _, v := range candidates {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	return fallback()
}

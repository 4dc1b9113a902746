// Package paths resolves where dayplan reads its configuration and keeps its
// database.
package paths

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// Directory names looked up relative to the working directory.
const (
	LocalConfigDirName = ".dayplan"
	DefaultDataDirName = ".dayplan-db"
)

// Environment variables that override directory defaults.
const (
	EnvConfigDir = "DAYPLAN_CONFIG_DIR"
	EnvDataDir   = "DAYPLAN_DATA_DIR"
)

const appName = "dayplan"

// platformDir holds platform lookups that tests replace.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// PlatformConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/dayplan (fallback ~/.config/dayplan)
// macOS:   ~/Library/Application Support/dayplan
// Windows: %APPDATA%/dayplan
func PlatformConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// ResolveConfigDir picks the configuration directory: flag, then
// DAYPLAN_CONFIG_DIR, then ./.dayplan when it exists, then the platform
// directory. The result is absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	local := filepath.Join(cwd, LocalConfigDirName)
	info, err := os.Stat(local)
	switch {
	case err == nil && info.IsDir():
		return local, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return "", err
	}
	return PlatformConfigDir()
}

// ResolveDataDir picks the database directory: flag, then the data_dir
// config value, then DAYPLAN_DATA_DIR, then ./.dayplan-db. A relative config
// value is taken relative to configDir.
func ResolveDataDir(flag, configValue, configDir string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		if !filepath.IsAbs(configValue) && configDir != "" {
			configValue = filepath.Join(configDir, configValue)
		}
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

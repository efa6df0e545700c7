// Package paths resolves the configuration and state directories of the
// depersonalize CLI.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "depersonalizer"

// DefaultConfigDirName is the CWD-relative configuration directory.
const DefaultConfigDirName = ".depersonalizer"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "DEPERSONALIZER_CONFIG_DIR"
	EnvStateDir  = "DEPERSONALIZER_STATE_DIR"
)

// Names inside the state directory.
const (
	LogsDirName    = "logs"
	ReportsDirName = "reports"
	LastReportName = "last-run.jsonl"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// UserConfigDir returns the per-user configuration directory, searched after
// the resolved configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/depersonalizer (fallback ~/.config/depersonalizer)
// macOS:   ~/Library/Application Support/depersonalizer
// Windows: %APPDATA%/depersonalizer
func UserConfigDir() (string, error) {
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

// DefaultStateDir returns the platform-specific directory for logs and run
// reports.
//
// Linux:   $XDG_STATE_HOME/depersonalizer (fallback ~/.local/state/depersonalizer)
// Others:  the user configuration directory
func DefaultStateDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "state", appName), nil
	}
	return UserConfigDir()
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > DEPERSONALIZER_CONFIG_DIR env > $(CWD)/.depersonalizer.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultConfigDirName), nil
}

// ResolveStateDir returns the state directory following the precedence
// chain: flag > config.yaml value > DEPERSONALIZER_STATE_DIR env > DefaultStateDir().
func ResolveStateDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvStateDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultStateDir()
}

// LogFile returns the log file for a command under stateDir.
func LogFile(stateDir, command string) string {
	return filepath.Join(stateDir, LogsDirName, "depersonalize-"+command+".log")
}

// LastReport returns the report file of the most recent run under stateDir.
func LastReport(stateDir string) string {
	return filepath.Join(stateDir, ReportsDirName, LastReportName)
}

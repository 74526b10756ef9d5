package config

import (
	"os"
	"path/filepath"
)

// EnvConfigPath is the environment variable for an explicit config path
// override, checked ahead of the default location.
const EnvConfigPath = "NSCAN_CONFIG"

// ConfigFileName is the default config file name under $HOME, per spec.md
// §6.
const ConfigFileName = ".nscancfg.json"

// FindConfigPath resolves the config file to load, in priority order:
// 1. $NSCAN_CONFIG (explicit path)
// 2. $HOME/.nscancfg.json
//
// Returns empty string if neither exists.
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	if home := os.Getenv("HOME"); home != "" {
		path := filepath.Join(home, ConfigFileName)
		if fileExists(path) {
			return path
		}
	}

	return ""
}

// DefaultConfigPath returns the preferred location for a new config file.
func DefaultConfigPath() string {
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ConfigFileName)
	}
	return ConfigFileName
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

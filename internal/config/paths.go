package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "FABRICVIEW_CONFIG"
	// ConfigFileName is the default config file name
	ConfigFileName = "fabricview.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "fabricview"
)

// configNames are tried in each directory, YAML first
var configNames = []string{"config.yaml", "config.toml"}

// FindConfigPath searches for a config file in priority order:
//  1. $FABRICVIEW_CONFIG (explicit path)
//  2. ./fabricview.yaml or ./fabricview.toml
//  3. $XDG_CONFIG_HOME/fabricview/config.{yaml,toml}
//  4. ~/.config/fabricview/config.{yaml,toml}
//  5. /etc/fabricview/config.{yaml,toml}
//
// Returns empty string if no config file found
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" && fileExists(path) {
		return path
	}

	for _, name := range []string{ConfigFileName, "fabricview.toml"} {
		if fileExists(name) {
			if abs, err := filepath.Abs(name); err == nil {
				return abs
			}
			return name
		}
	}

	for _, dir := range configDirs() {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if fileExists(path) {
				return path
			}
		}
	}

	return ""
}

// configDirs lists the directories searched after the working directory
func configDirs() []string {
	var dirs []string
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		dirs = append(dirs, filepath.Join(xdgHome, ConfigDirName))
	}
	if home := os.Getenv("HOME"); home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", ConfigDirName))
	}
	return append(dirs, filepath.Join("/etc", ConfigDirName))
}

// DefaultConfigPath returns the preferred location for a new config file
func DefaultConfigPath() string {
	if dirs := configDirs(); len(dirs) > 1 {
		return filepath.Join(dirs[0], configNames[0])
	}
	return ConfigFileName
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

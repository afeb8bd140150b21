package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file and wins over every other location
	EnvConfigPath = "COMMANDCENTER_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "commandcenter.yaml"
	// ConfigDirName holds config.yaml under the user and system config roots
	ConfigDirName = "commandcenter"
)

// SearchPaths lists the candidate config files, highest priority first:
// $COMMANDCENTER_CONFIG, ./commandcenter.yaml, the user config dir
// ($XDG_CONFIG_HOME or ~/.config) and /etc/commandcenter.
func SearchPaths() []string {
	var paths []string
	if explicit := os.Getenv(EnvConfigPath); explicit != "" {
		paths = append(paths, explicit)
	}
	if abs, err := filepath.Abs(ConfigFileName); err == nil {
		paths = append(paths, abs)
	} else {
		paths = append(paths, ConfigFileName)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// FindConfigPath returns the first regular file among SearchPaths, or ""
func FindConfigPath() string {
	for _, path := range SearchPaths() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// DefaultConfigPath is where `config init` writes: the user config dir when one
// is known, the working directory otherwise.
func DefaultConfigPath() string {
	switch {
	case os.Getenv("XDG_CONFIG_HOME") != "":
		return filepath.Join(os.Getenv("XDG_CONFIG_HOME"), ConfigDirName, "config.yaml")
	case os.Getenv("HOME") != "":
		return filepath.Join(os.Getenv("HOME"), ".config", ConfigDirName, "config.yaml")
	default:
		return ConfigFileName
	}
}

// Package config provides configuration management for the command center.
//
// Config file locations (priority order):
//  1. $COMMANDCENTER_CONFIG
//  2. ./commandcenter.yaml
//  3. $XDG_CONFIG_HOME/commandcenter/config.yaml
//  4. ~/.config/commandcenter/config.yaml
//  5. /etc/commandcenter/config.yaml
//
// Keys missing from the file keep their defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"commandcenter/internal/domain"
	"commandcenter/internal/kernel"
	"commandcenter/internal/repository"
	"commandcenter/internal/session"
)

var validate = validator.New()

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// Parse decodes YAML on top of the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	opts := session.DefaultOptions()
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Kernel: KernelConfig{
			Command:      "node",
			Args:         []string{"src/genesis/Kernel.js"},
			Dir:          "../../",
			StopTimeout:  Duration(5 * time.Second),
			SinkCapacity: kernel.DefaultSinkCapacity,
		},
		Session: SessionConfig{
			TickInterval:           Duration(opts.TickInterval),
			SyncDelay:              Duration(opts.SyncDelay),
			SyncCommand:            opts.SyncCommand,
			HistoryLimit:           opts.HistoryLimit,
			MaxLinesPerTick:        opts.MaxLinesPerTick,
			FrameBroadcastInterval: Duration(opts.FrameBroadcastInterval),
		},
		Physics: domain.DefaultPhysics(),
		Archive: ArchiveConfig{
			Path: "./commandcenter.db",
		},
		Log: LogConfig{Level: "info"},
	}
}

// applyDefaults fills in values a file explicitly zeroed
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Kernel.StopTimeout <= 0 {
		c.Kernel.StopTimeout = d.Kernel.StopTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// KernelCommand converts to the supervisor's launch settings
func (c *Config) KernelCommand() kernel.Config {
	return kernel.Config{
		Command: c.Kernel.Command,
		Args:    c.Kernel.Args,
		Dir:     c.Kernel.Dir,
		Env:     c.Kernel.Env,
	}
}

// SessionOptions converts to coordinator options. Zero values fall back to
// session defaults.
func (c *Config) SessionOptions() session.Options {
	tick := c.Session.TickInterval.Duration()
	return session.Options{
		TickInterval:           tick,
		Dt:                     tick.Seconds(),
		SyncDelay:              c.Session.SyncDelay.Duration(),
		SyncCommand:            c.Session.SyncCommand,
		HistoryLimit:           c.Session.HistoryLimit,
		MaxLinesPerTick:        c.Session.MaxLinesPerTick,
		FrameBroadcastInterval: c.Session.FrameBroadcastInterval.Duration(),
	}
}

// ArchiverOptions converts to archive batching settings
func (c *Config) ArchiverOptions() repository.ArchiverOptions {
	return repository.ArchiverOptions{
		QueueSize:     c.Archive.QueueSize,
		BatchSize:     c.Archive.BatchSize,
		FlushInterval: c.Archive.FlushInterval.Duration(),
	}
}

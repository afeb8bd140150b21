package config

import (
	"time"

	"commandcenter/internal/domain"
)

// Config is the on-disk configuration
type Config struct {
	Version int            `yaml:"version"`
	Server  ServerConfig   `yaml:"server"`
	Kernel  KernelConfig   `yaml:"kernel"`
	Session SessionConfig  `yaml:"session"`
	Physics domain.Physics `yaml:"physics"`
	Archive ArchiveConfig  `yaml:"archive"`
	Log     LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string   `yaml:"addr" validate:"required"`
	CORSOrigins     []string `yaml:"cors_origins,omitempty"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// KernelConfig describes the child process
type KernelConfig struct {
	Command      string   `yaml:"command" validate:"required"`
	Args         []string `yaml:"args,omitempty"`
	Dir          string   `yaml:"dir,omitempty"`
	Env          []string `yaml:"env,omitempty"`
	AutoLaunch   bool     `yaml:"auto_launch"`
	StopTimeout  Duration `yaml:"stop_timeout"`
	SinkCapacity int      `yaml:"sink_capacity" validate:"gte=0"`
}

// SessionConfig tunes the coordinator loop
type SessionConfig struct {
	TickInterval           Duration `yaml:"tick_interval"`
	SyncDelay              Duration `yaml:"sync_delay"`
	SyncCommand            string   `yaml:"sync_command"`
	HistoryLimit           int      `yaml:"history_limit" validate:"gte=0"`
	MaxLinesPerTick        int      `yaml:"max_lines_per_tick" validate:"gte=0"`
	FrameBroadcastInterval Duration `yaml:"frame_broadcast_interval"`
}

// ArchiveConfig controls the transcript archive
type ArchiveConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Path          string   `yaml:"path" validate:"required_if=Enabled true"`
	QueueSize     int      `yaml:"queue_size" validate:"gte=0"`
	BatchSize     int      `yaml:"batch_size" validate:"gte=0"`
	FlushInterval Duration `yaml:"flush_interval"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

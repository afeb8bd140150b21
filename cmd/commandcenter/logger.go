package main

import (
	"fmt"

	"go.uber.org/zap"

	"commandcenter/internal/config"
)

// newLogger builds the process logger from the log section of the config
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level

	return zc.Build()
}

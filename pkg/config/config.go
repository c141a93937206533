package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
)

// DefaultTargetNames are the name and LE alias the Sony WH-1000XM3 advertises.
var DefaultTargetNames = []string{"WH-1000XM3", "LE_WH-1000XM3"}

// Config holds application configuration
type Config struct {
	LogLevel       logrus.Level  `json:"log_level" yaml:"log_level"`
	Tool           string        `json:"tool" yaml:"tool" default:"bluetoothctl"`
	TargetNames    []string      `json:"target_names" yaml:"target_names"`
	MaxAttempts    int           `json:"max_attempts" yaml:"max_attempts" default:"5"`
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout" default:"5s"`
	UsePTY         bool          `json:"use_pty" yaml:"use_pty" default:"false"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{
		// Panic level keeps normal runs silent
		LogLevel:    logrus.PanicLevel,
		TargetNames: append([]string(nil), DefaultTargetNames...),
	}
	defaults.SetDefaults(cfg)
	return cfg
}

// Validate reports the first setting that cannot drive a connection.
func (c *Config) Validate() error {
	if c.Tool == "" {
		return errors.New("tool must not be empty")
	}
	if len(c.TargetNames) == 0 {
		return errors.New("at least one target device name is required")
	}
	for _, name := range c.TargetNames {
		if name == "" {
			return errors.New("target device names must not be empty")
		}
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("invalid attempts: %d (must be at least 1)", c.MaxAttempts)
	}
	if c.ConnectTimeout < time.Second {
		return fmt.Errorf("invalid timeout: %s (must be at least 1s)", c.ConnectTimeout)
	}
	return nil
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
)

// DefaultPayload is written to the selected characteristic at the end of a session.
var DefaultPayload = []byte{0x01, 0x02, 0x03}

// Config holds the session configuration. Target and payload are fixed at build
// time; the record exists so tests can substitute every constant.
type Config struct {
	LogLevel logrus.Level `json:"log_level"`

	// TargetName is compared byte-for-byte with the advertised local name.
	TargetName string `json:"target_name" default:"Jakub’s iPhone"`
	Payload    []byte `json:"payload"`

	ScanWindow   time.Duration `json:"scan_window" default:"2s"`
	ReadTimeout  time.Duration `json:"read_timeout" default:"10s"`
	PollInterval time.Duration `json:"poll_interval" default:"100ms"`
	WriteTimeout time.Duration `json:"write_timeout" default:"5s"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every zero-valued field with its default.
func (c *Config) ApplyDefaults() {
	defaults.SetDefaults(c)
	// go-defaults leaves byte slices non-nil but empty.
	if len(c.Payload) == 0 {
		c.Payload = append([]byte(nil), DefaultPayload...)
	}
}

// Validate reports configuration values a session cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.TargetName == "" {
		errs = append(errs, errors.New("target name is empty"))
	}
	if c.ScanWindow <= 0 {
		errs = append(errs, fmt.Errorf("scan window must be positive, got %v", c.ScanWindow))
	}
	if c.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("read timeout must be positive, got %v", c.ReadTimeout))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %v", c.PollInterval))
	}
	if c.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("write timeout must be positive, got %v", c.WriteTimeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
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

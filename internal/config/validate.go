package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/danielpatrickdp/pose-alarm/internal/alarm"
	"github.com/danielpatrickdp/pose-alarm/internal/counter"
	"github.com/danielpatrickdp/pose-alarm/internal/pose"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateAlarm(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateClassifier() error {
	switch c.Classifier.Mode {
	case "local", "remote":
	default:
		return fmt.Errorf("classifier.mode: unsupported value %q (want local or remote)", c.Classifier.Mode)
	}
	if c.Classifier.K < 1 {
		return errors.New("classifier.k must be positive")
	}
	if _, err := pose.ParseFeatureMode(c.Classifier.FeatureMode); err != nil {
		return fmt.Errorf("classifier.feature_mode: %w", err)
	}
	return nil
}

func (c *Config) validateSession() error {
	if _, err := c.SessionConfig(""); err != nil {
		return err
	}
	if _, err := counter.ParseState(c.Session.InitialState); err != nil {
		return fmt.Errorf("session.initial_state: %w", err)
	}
	if math.IsNaN(c.Session.Threshold) || c.Session.Threshold <= 0 || c.Session.Threshold > 1 {
		return fmt.Errorf("session.threshold must be in (0, 1], got %g", c.Session.Threshold)
	}
	return nil
}

func (c *Config) validateAlarm() error {
	if _, err := alarm.ParseTimeOfDay(c.Alarm.Time); err != nil {
		return fmt.Errorf("alarm.time: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	}
	return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
}

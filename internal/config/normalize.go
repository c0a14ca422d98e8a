package config

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/pose-alarm/internal/counter"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeClassifier()
	c.normalizeSession()
	c.normalizeLogging()
	if len(c.Exercises) == 0 {
		c.Exercises = counter.DefaultExercises()
	}
	c.Alarm.Time = strings.TrimSpace(c.Alarm.Time)
	if c.Alarm.Time == "" {
		c.Alarm.Time = defaultAlarmTime
	}
	return nil
}

func (c *Config) normalizePaths() error {
	c.Paths.DBPath = envOr(envDBPath, strings.TrimSpace(c.Paths.DBPath))
	if c.Paths.DBPath == "" {
		c.Paths.DBPath = defaultDBPath
	}
	var err error
	if c.Paths.DBPath, err = ExpandPath(c.Paths.DBPath); err != nil {
		return fmt.Errorf("paths.db_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockPath) == "" {
		c.Paths.LockPath = c.Paths.DBPath + lockSuffix
	}
	if c.Paths.LockPath, err = ExpandPath(c.Paths.LockPath); err != nil {
		return fmt.Errorf("paths.lock_path: %w", err)
	}
	if c.Paths.LogPath, err = ExpandPath(strings.TrimSpace(c.Paths.LogPath)); err != nil {
		return fmt.Errorf("paths.log_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeClassifier() {
	c.Classifier.Mode = strings.ToLower(strings.TrimSpace(c.Classifier.Mode))
	if c.Classifier.Mode == "" {
		c.Classifier.Mode = defaultClassifierMode
	}
	c.Classifier.Addr = envOr(envClassifierAddr, strings.TrimSpace(c.Classifier.Addr))
	if c.Classifier.Addr == "" {
		c.Classifier.Addr = defaultClassifierAddr
	}
	if c.Classifier.K == 0 {
		c.Classifier.K = defaultK
	}
	c.Classifier.FeatureMode = strings.ToLower(strings.TrimSpace(c.Classifier.FeatureMode))
	if c.Classifier.FeatureMode == "" {
		c.Classifier.FeatureMode = defaultFeatureMode
	}
	if c.Classifier.MinExamples < 1 {
		c.Classifier.MinExamples = 1
	}
}

func (c *Config) normalizeSession() {
	c.Session.Target = strings.TrimSpace(c.Session.Target)
	if c.Session.Target == "" {
		c.Session.Target = defaultTarget
	}
	if c.Session.Threshold == 0 {
		c.Session.Threshold = counter.DefaultThreshold
	}
	c.Session.InitialState = strings.ToLower(strings.TrimSpace(c.Session.InitialState))
	if c.Session.InitialState == "" {
		c.Session.InitialState = defaultInitialState
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

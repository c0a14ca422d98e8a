package config

import (
	"fmt"

	"github.com/danielpatrickdp/pose-alarm/internal/alarm"
	"github.com/danielpatrickdp/pose-alarm/internal/counter"
	"github.com/danielpatrickdp/pose-alarm/internal/gate"
	"github.com/danielpatrickdp/pose-alarm/internal/pose"
	"github.com/danielpatrickdp/pose-alarm/internal/session"
)

// SessionConfig builds a validated session.Config with the given ID.
func (c *Config) SessionConfig(id string) (session.Config, error) {
	state, err := counter.ParseState(c.Session.InitialState)
	if err != nil {
		return session.Config{}, fmt.Errorf("session.initial_state: %w", err)
	}
	cfg := session.Config{
		ID:           id,
		Exercises:    c.Exercises,
		Target:       c.Session.Target,
		RequiredReps: c.Session.RequiredReps,
		Threshold:    c.Session.Threshold,
		InitialState: state,
	}
	if err := cfg.Validate(); err != nil {
		return session.Config{}, fmt.Errorf("session: %w", err)
	}
	return cfg, nil
}

// AlarmTime returns the configured wake-up time.
func (c *Config) AlarmTime() (alarm.TimeOfDay, error) {
	return alarm.ParseTimeOfDay(c.Alarm.Time)
}

// FeatureMode returns the configured pose feature mode.
func (c *Config) FeatureMode() pose.FeatureMode {
	m, _ := pose.ParseFeatureMode(c.Classifier.FeatureMode)
	return m
}

// Gate builds the readiness gate for the configured exercises.
func (c *Config) Gate() *gate.Gate {
	return gate.NewGate(gate.GateConfig{
		RequiredLabels: gate.ForExercises(c.Exercises).RequiredLabels(),
		MinExamples:    c.Classifier.MinExamples,
	})
}

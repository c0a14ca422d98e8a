package config

import "github.com/danielpatrickdp/pose-alarm/internal/counter"

const (
	defaultDBPath         = "~/.local/share/posealarm/posealarm.db"
	defaultClassifierMode = "local"
	defaultClassifierAddr = "localhost:50061"
	defaultK              = 3
	defaultFeatureMode    = "score_xy"
	defaultTarget         = "squats"
	defaultRequiredReps   = 10
	defaultInitialState   = "resting"
	defaultAlarmTime      = "07:00"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	lockSuffix            = ".lock"
	envDBPath             = "POSEALARM_DB"
	envClassifierAddr     = "CLASSIFIER_ADDR"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Paths: Paths{
			DBPath: defaultDBPath,
		},
		Classifier: Classifier{
			Mode:        defaultClassifierMode,
			Addr:        defaultClassifierAddr,
			K:           defaultK,
			FeatureMode: defaultFeatureMode,
			MinExamples: 1,
		},
		Session: Session{
			Target:       defaultTarget,
			RequiredReps: defaultRequiredReps,
			Threshold:    counter.DefaultThreshold,
			InitialState: defaultInitialState,
		},
		Exercises: counter.DefaultExercises(),
		Alarm: Alarm{
			Enabled: false,
			Time:    defaultAlarmTime,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

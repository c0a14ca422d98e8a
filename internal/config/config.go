package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/danielpatrickdp/pose-alarm/internal/counter"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file locations.
type Paths struct {
	DBPath   string `toml:"db_path"`
	LockPath string `toml:"lock_path"` // Default: <db_path>.lock
	LogPath  string `toml:"log_path"`  // Default: stderr only
}

// Classifier selects and tunes the nearest-neighbour classifier.
type Classifier struct {
	Mode        string `toml:"mode"` // "local" (in-process) or "remote" (gRPC)
	Addr        string `toml:"addr"`
	K           int    `toml:"k"`
	FeatureMode string `toml:"feature_mode"`
	MinExamples int    `toml:"min_examples"`
}

// Session describes the repetition target that silences the alarm.
type Session struct {
	Target       string  `toml:"target"`
	RequiredReps int     `toml:"required_reps"`
	Threshold    float64 `toml:"threshold"`
	InitialState string  `toml:"initial_state"`
}

// Alarm contains the wake-up time.
type Alarm struct {
	Enabled bool   `toml:"enabled"`
	Time    string `toml:"time"` // HH:MM, local time
}

// Logging configures the slog logger.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the full application configuration.
type Config struct {
	Paths      Paths              `toml:"paths"`
	Classifier Classifier         `toml:"classifier"`
	Session    Session            `toml:"session"`
	Exercises  []counter.Exercise `toml:"exercises"`
	Alarm      Alarm              `toml:"alarm"`
	Logging    Logging            `toml:"logging"`
}

// DefaultConfigPath returns the per-user config location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/posealarm/config.toml")
}

// Load reads the config at path (or the default locations when path is
// empty), applies defaults and environment overrides, and validates it. It
// returns the resolved path and whether a file was found there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// [[exercises]] tables append; start empty so a file replaces the defaults.
		cfg.Exercises = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("posealarm.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the parent directories of every configured file.
func (c *Config) EnsureDirectories() error {
	for _, p := range []string{c.Paths.DBPath, c.Paths.LockPath, c.Paths.LogPath} {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("create directory for %q: %w", p, err)
		}
	}
	return nil
}

// ExpandPath resolves ~ and returns an absolute path. Empty stays empty.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

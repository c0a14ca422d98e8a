package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/pose-alarm/internal/classifier"
	"github.com/danielpatrickdp/pose-alarm/internal/config"
	"github.com/danielpatrickdp/pose-alarm/internal/logging"
	"github.com/danielpatrickdp/pose-alarm/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger builds the configured slog logger writing to stderr and, when
// configured, the log file.
func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	outputs := []string{"stderr"}
	if cfg.Paths.LogPath != "" {
		outputs = append(outputs, cfg.Paths.LogPath)
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
	})
}

func (c *commandContext) withStore(fn func(*store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.NewStore(cfg.Paths.DBPath)
	if err != nil {
		return fmt.Errorf("open store %s: %w", cfg.Paths.DBPath, err)
	}
	defer st.Close()
	return fn(st)
}

// openClassifier returns the configured classifier: the store-backed
// in-process model, or a gRPC client. The returned io.Closer is never nil.
func (c *commandContext) openClassifier(ctx context.Context, st *store.Store) (classifier.Classifier, io.Closer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	switch cfg.Classifier.Mode {
	case "remote":
		client, err := classifier.NewClient(cfg.Classifier.Addr)
		if err != nil {
			return nil, nil, fmt.Errorf("connect classifier at %s: %w", cfg.Classifier.Addr, err)
		}
		return client, client, nil
	default:
		model, err := classifier.NewPersistent(ctx, classifier.NewKNN(cfg.Classifier.K), st)
		if err != nil {
			return nil, nil, fmt.Errorf("load classifier: %w", err)
		}
		return model, nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openInput returns stdin for "" or "-", otherwise the named file.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

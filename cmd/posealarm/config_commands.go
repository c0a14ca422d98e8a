package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/pose-alarm/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the configuration file",
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := configTarget(targetPath)
			if err != nil {
				return err
			}
			if _, err := os.Stat(target); err == nil && !overwrite {
				return fmt.Errorf("%s already exists (pass --overwrite to replace it)", target)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("check %s: %w", target, err)
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}

			cfg, _, _, err := config.Load(target)
			if err != nil {
				return fmt.Errorf("reload sample config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Train every label below with `posealarm train --label <label>` before the first run:")
			fmt.Fprintln(out, exercisesTable(cfg))
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Where to write the file (default ~/.config/posealarm/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

// configTarget expands path, or returns the default config location when it is empty.
func configTarget(path string) (string, error) {
	if path = strings.TrimSpace(path); path == "" {
		return config.DefaultConfigPath()
	}
	return config.ExpandPath(path)
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the configuration and print the resolved settings",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, resolved, exists, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			source := resolved
			if !exists {
				source = "defaults (no file at " + resolved + ")"
			}
			fmt.Fprintf(out, "Config: %s\n", source)
			printSettings(out, cfg)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func printSettings(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "Target: %s x%d at threshold %.2f\n",
		cfg.Session.Target, cfg.Session.RequiredReps, cfg.Session.Threshold)

	b := newTable(textCol("Setting"), textCol("Value"))
	b.add("database", cfg.Paths.DBPath)
	b.add("classifier", cfg.Classifier.Mode)
	if cfg.Classifier.Mode == "remote" {
		b.add("classifier address", cfg.Classifier.Addr)
	}
	b.add("neighbours (k)", cfg.Classifier.K)
	b.add("features", cfg.Classifier.FeatureMode)
	b.add("initial state", cfg.Session.InitialState)
	if cfg.Alarm.Enabled {
		b.add("alarm", cfg.Alarm.Time)
	} else {
		b.add("alarm", "off")
	}
	fmt.Fprintln(out, b.render())
	fmt.Fprintln(out, exercisesTable(cfg))
}

func exercisesTable(cfg *config.Config) string {
	b := newTable(textCol("Exercise"), textCol("Active label"), textCol("Resting label"), textCol("Target"))
	for _, ex := range cfg.Exercises {
		target := ""
		if ex.Name == cfg.Session.Target {
			target = fmt.Sprintf("%d reps", cfg.Session.RequiredReps)
		}
		b.add(ex.Name, ex.ActiveLabel, ex.RestingLabel, target)
	}
	return b.render()
}

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/pose-alarm/internal/config"
	"github.com/danielpatrickdp/pose-alarm/internal/gate"
	"github.com/danielpatrickdp/pose-alarm/internal/logging"
	"github.com/danielpatrickdp/pose-alarm/internal/replay"
	"github.com/danielpatrickdp/pose-alarm/internal/store"
)

func newReplayCommand(ctx *commandContext) *cobra.Command {
	var fixturePath, sessionID string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded classifications and compare the counts",
		Long: "Feeds recorded classification results through a fresh session and checks\n" +
			"each cycle's decision and target count against what was recorded.\n" +
			"Reads a JSON fixture with --fixture, otherwise a session from the database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f *replay.Fixture
			if fixturePath != "" {
				loaded, err := replay.LoadFixture(fixturePath)
				if err != nil {
					return err
				}
				f = loaded
			} else {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				err = ctx.withStore(func(st *store.Store) error {
					built, err := fixtureFromSession(cmd.Context(), st, cfg, sessionID)
					f = built
					return err
				})
				if err != nil {
					return err
				}
			}
			return runReplay(f, verbose, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&fixturePath, "fixture", "", "Replay a JSON fixture file")
	cmd.Flags().StringVar(&sessionID, "session", "", "Replay a recorded session (default: active session)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every cycle")
	return cmd
}

func newExportFixtureCommand(ctx *commandContext) *cobra.Command {
	var sessionID, outPath, description string

	cmd := &cobra.Command{
		Use:   "export-fixture",
		Short: "Write a recorded session as a replay fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				f, err := fixtureFromSession(cmd.Context(), st, cfg, sessionID)
				if err != nil {
					return err
				}
				if description != "" {
					f.Description = description
				}
				if err := replay.WriteFixture(outPath, f); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d cycles to %s\n", len(f.Results), outPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session to export (default: active session)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output fixture JSON path")
	cmd.Flags().StringVar(&description, "description", "", "Fixture description")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// fixtureFromSession rebuilds a fixture from the session's event log. The
// exercise definitions and initial state come from the current config.
func fixtureFromSession(ctx context.Context, st *store.Store, cfg *config.Config, sessionID string) (*replay.Fixture, error) {
	rec, err := resolveSession(ctx, st, sessionID)
	if err != nil {
		return nil, err
	}
	events, err := logging.ListEvents(ctx, st.DB(), rec.SessionID, "classification")
	if err != nil {
		return nil, err
	}
	base := replay.FixtureConfig{
		Exercises:    cfg.Exercises,
		InitialState: cfg.Session.InitialState,
	}
	desc := fmt.Sprintf("session %s (%s x%d)", rec.SessionID, rec.TargetExercise, rec.RequiredReps)
	f, err := replay.FixtureFromEvents(desc, base, events)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", shortID(rec.SessionID), err)
	}
	return f, nil
}

func runReplay(f *replay.Fixture, verbose bool, out io.Writer) error {
	results, final, err := replay.ReplayFixture(f)
	if err != nil {
		return err
	}
	mismatches := replay.Check(f, results)
	summary := replay.Summarize(results, final)

	if f.Description != "" {
		fmt.Fprintf(out, "Replaying: %s\n", f.Description)
	}
	if verbose {
		labels := gate.ForExercises(f.Config.Exercises).RequiredLabels()
		cycles := newTable(countCol("Seq"), textCol("Label"), textCol("Confidences"), textCol("Action"),
			countCol("Count"), reasonCol("Reason"))
		for i, r := range results {
			cycles.add(r.Seq, r.Label, formatConfidences(f.Results[i].Confidences, labels), r.Action, r.TargetCount, r.Reason)
		}
		fmt.Fprintln(out, cycles.render())
	}

	totals := newTable(countCol("Cycles"), countCol("Transitions"), countCol("Increments"),
		countCol("Completions"), countCol("Alarm stops"), countCol("No-ops"))
	totals.add(summary.TotalCycles, summary.Transitions, summary.Increments,
		summary.Completions, summary.AlarmStops, summary.NoOps)
	fmt.Fprintln(out, totals.render())
	fmt.Fprintln(out, countersTable(summary.Final, f.Config.Target, summary.Completions))

	if len(mismatches) > 0 {
		lines := make([]string, len(mismatches))
		for i, m := range mismatches {
			lines[i] = m.String()
		}
		return fmt.Errorf("%d replay mismatches:\n  %s", len(mismatches), strings.Join(lines, "\n  "))
	}
	if len(f.ExpectedResults) > 0 {
		fmt.Fprintf(out, "All %d cycles match\n", len(f.ExpectedResults))
	}
	return nil
}

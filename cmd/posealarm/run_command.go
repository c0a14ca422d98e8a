package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/pose-alarm/internal/alarm"
	"github.com/danielpatrickdp/pose-alarm/internal/config"
	"github.com/danielpatrickdp/pose-alarm/internal/logging"
	"github.com/danielpatrickdp/pose-alarm/internal/pipeline"
	"github.com/danielpatrickdp/pose-alarm/internal/pose"
	"github.com/danielpatrickdp/pose-alarm/internal/session"
	"github.com/danielpatrickdp/pose-alarm/internal/store"
	"github.com/danielpatrickdp/pose-alarm/internal/timeutil"
)

type runOptions struct {
	input          string
	alarmAt        string
	ringNow        bool
	resume         bool
	exitOnComplete bool
	verbose        bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Count repetitions from JSONL pose frames",
		Long: `Read newline-delimited JSON pose frames, classify each one and count
repetitions of the configured exercises. When the target exercise reaches the
required count the alarm is stopped and the count starts over.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return ctx.runSession(runCtx, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "Frame source (JSONL file, - for stdin)")
	cmd.Flags().StringVar(&opts.alarmAt, "alarm", "", "Schedule the alarm at HH:MM (overrides alarm.time)")
	cmd.Flags().BoolVar(&opts.ringNow, "ring-now", false, "Start ringing immediately")
	cmd.Flags().BoolVar(&opts.resume, "resume", false, "Continue the active session instead of starting a new one")
	cmd.Flags().BoolVar(&opts.exitOnComplete, "exit-on-complete", false, "Stop after the target is reached once")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print every label's confidence for each classification")
	return cmd
}

func (c *commandContext) runSession(ctx context.Context, opts runOptions, out io.Writer) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger()
	if err != nil {
		return err
	}

	lock := flock.New(cfg.Paths.LockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another posealarm controller is using %s", cfg.Paths.DBPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release lock", "error", err)
		}
	}()

	input, err := openInput(opts.input)
	if err != nil {
		return err
	}
	defer input.Close()

	// The alarm rings on its own goroutine, so every write to out goes
	// through one lock.
	colorize := shouldColorize(out)
	out = &syncWriter{w: out}

	return c.withStore(func(st *store.Store) error {
		clf, closer, err := c.openClassifier(ctx, st)
		if err != nil {
			return err
		}
		defer closer.Close()

		sess, rec, err := startSession(ctx, st, cfg, opts.resume)
		if err != nil {
			return err
		}
		logger = logger.With("session", shortID(rec.SessionID))

		recorder, err := pipeline.NewStoreRecorder(ctx, st, rec.SessionID)
		if err != nil {
			return err
		}

		var lastSeq atomic.Int64
		lastSeq.Store(int64(sess.Seq()))
		a := alarm.New(timeutil.RealClock{}, alarm.Options{
			Logger: logger,
			OnRing: func() {
				fmt.Fprintln(out, paint("ALARM", ansiRed, colorize))
				if err := recorder.RecordRing(context.WithoutCancel(ctx), int(lastSeq.Load())); err != nil {
					logger.Error("record ring", "error", err)
				}
			},
		})
		defer a.Cancel()
		if err := armAlarm(ctx, st, a, cfg, rec, opts); err != nil {
			return err
		}
		sess.SetStopper(a)

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		var completed atomic.Bool

		printer := newStatusPrinter(out, colorize, sess.Config(), a)
		printer.verbose = opts.verbose
		p := pipeline.New(pose.NewProducer(cfg.FeatureMode()), clf, cfg.Gate(), sess, pipeline.Options{
			Recorder: recorder,
			Logger:   logger,
			Handler: func(cy pipeline.Cycle) {
				lastSeq.Store(int64(cy.Outcome.Seq))
				printer.print(cy.Result, cy.Outcome)
				if cy.Outcome.Completed {
					completed.Store(true)
					if opts.exitOnComplete {
						cancel()
					}
				}
			},
		})

		sessCfg := sess.Config()
		logger.Info("session started",
			"target", sessCfg.Target,
			"required_reps", sessCfg.RequiredReps,
			"threshold", sessCfg.Threshold,
			"resumed_at_seq", sess.Seq(),
			"classifier", cfg.Classifier.Mode,
		)
		if at, ok := a.ScheduledAt(); ok {
			fmt.Fprintf(out, "Alarm set for %s\n", at.Local().Format("Mon 15:04"))
		}
		err = runFrames(runCtx, p, input, logger)
		if errors.Is(err, context.Canceled) {
			switch {
			case ctx.Err() != nil:
				logger.Info("session interrupted", "seq", sess.Seq())
				err = nil
			case opts.exitOnComplete && completed.Load():
				err = nil
			}
		}

		if endErr := st.EndSession(context.WithoutCancel(ctx), rec.SessionID, time.Now()); endErr != nil {
			logger.Error("end session", "error", endErr)
		}
		fmt.Fprintln(out, renderCounters(sess))
		return err
	})
}

// runFrames decodes frames on one goroutine and runs the pipeline on another.
// The decoder is abandoned rather than awaited once the pipeline stops, since
// a read from a terminal cannot be interrupted.
func runFrames(ctx context.Context, p *pipeline.Pipeline, input io.Reader, logger *slog.Logger) error {
	frames := make(chan pose.Frame, 16)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		errc := make(chan error, 1)
		go func() { errc <- pose.DecodeFrames(gctx, input, frames, logger) }()
		select {
		case err := <-errc:
			return err
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		return p.Run(gctx, frames)
	})
	return g.Wait()
}

// startSession creates a new session row, or with resume picks up the active
// one together with its counters.
func startSession(ctx context.Context, st *store.Store, cfg *config.Config, resume bool) (*session.Session, store.SessionRecord, error) {
	if resume {
		rec, err := st.GetActiveSession(ctx)
		if err == nil && rec.EndedAt.IsZero() {
			return resumeSession(ctx, st, cfg, rec)
		}
	}

	rec, err := st.CreateSession(ctx, store.SessionRecord{
		TargetExercise: cfg.Session.Target,
		RequiredReps:   cfg.Session.RequiredReps,
		Threshold:      cfg.Session.Threshold,
	})
	if err != nil {
		return nil, store.SessionRecord{}, err
	}
	sessCfg, err := cfg.SessionConfig(rec.SessionID)
	if err != nil {
		return nil, store.SessionRecord{}, err
	}
	sess, err := session.New(sessCfg, nil)
	if err != nil {
		return nil, store.SessionRecord{}, err
	}
	return sess, rec, nil
}

// resumeSession rebuilds the active session. Target, required reps and
// threshold come from the session row, so editing the config between runs
// does not change a session already in progress.
func resumeSession(ctx context.Context, st *store.Store, cfg *config.Config, rec store.SessionRecord) (*session.Session, store.SessionRecord, error) {
	sessCfg, err := cfg.SessionConfig(rec.SessionID)
	if err != nil {
		return nil, store.SessionRecord{}, err
	}
	sessCfg.Target = rec.TargetExercise
	sessCfg.RequiredReps = rec.RequiredReps
	sessCfg.Threshold = rec.Threshold
	sess, err := session.New(sessCfg, nil)
	if err != nil {
		return nil, store.SessionRecord{}, fmt.Errorf("resume session %s: %w", shortID(rec.SessionID), err)
	}

	restored, err := st.RestoreCounters(ctx, rec.SessionID)
	if err != nil {
		return nil, store.SessionRecord{}, err
	}
	events, err := logging.ListEvents(ctx, st.DB(), rec.SessionID, "classification")
	if err != nil {
		return nil, store.SessionRecord{}, err
	}
	seq := 0
	if len(events) > 0 {
		seq = events[len(events)-1].Seq
	}
	sess.Restore(restored, seq, rec.Completions)
	return sess, rec, nil
}

func armAlarm(ctx context.Context, st *store.Store, a *alarm.Alarm, cfg *config.Config, rec store.SessionRecord, opts runOptions) error {
	if opts.ringNow {
		a.Ring()
		return nil
	}
	at := opts.alarmAt
	if at == "" && cfg.Alarm.Enabled {
		at = cfg.Alarm.Time
	}
	if at == "" {
		return nil
	}
	tod, err := alarm.ParseTimeOfDay(at)
	if err != nil {
		return fmt.Errorf("alarm: %w", err)
	}
	when := a.Schedule(tod)
	return st.SetAlarmAt(ctx, rec.SessionID, when)
}

func renderCounters(sess *session.Session) string {
	return countersTable(sess.Snapshots(), sess.Config().Target, sess.Completions())
}

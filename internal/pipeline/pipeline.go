package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielpatrickdp/pose-alarm/internal/classifier"
	"github.com/danielpatrickdp/pose-alarm/internal/gate"
	"github.com/danielpatrickdp/pose-alarm/internal/logging"
	"github.com/danielpatrickdp/pose-alarm/internal/pose"
	"github.com/danielpatrickdp/pose-alarm/internal/session"
)

// #region options
// Options carries the optional collaborators of a Pipeline.
type Options struct {
	Recorder Recorder
	Handler  Handler
	Logger   *slog.Logger
}

// #endregion options

// #region pipeline
// Pipeline turns pose frames into session updates, one frame at a time.
type Pipeline struct {
	producer   *pose.Producer
	classifier classifier.Classifier
	gate       *gate.Gate
	session    *session.Session
	recorder   Recorder
	handler    Handler
	logger     *slog.Logger

	ready *bool // last readiness seen; nil before the first evaluation
}

// New wires a pipeline. g may be nil to classify without a readiness check.
func New(producer *pose.Producer, clf classifier.Classifier, g *gate.Gate, sess *session.Session, opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Pipeline{
		producer:   producer,
		classifier: clf,
		gate:       g,
		session:    sess,
		recorder:   opts.Recorder,
		handler:    opts.Handler,
		logger:     opts.Logger,
	}
}

// Session returns the session the pipeline drives.
func (p *Pipeline) Session() *session.Session {
	return p.session
}

// #endregion pipeline

// #region run
// Run consumes frames until the channel closes (returns nil) or ctx is
// cancelled (returns ctx.Err()). Per-frame errors are logged and the frame is
// skipped.
func (p *Pipeline) Run(ctx context.Context, frames <-chan pose.Frame) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if _, err := p.Step(ctx, frame); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.logSkip(err)
			}
		}
	}
}

func (p *Pipeline) logSkip(err error) {
	switch {
	case errors.Is(err, ErrNotReady):
		// reported when readiness flips
	case errors.Is(err, pose.ErrNoPose):
		p.logger.Debug("frame skipped", "error", err)
	default:
		p.logger.Warn("frame skipped", "error", err)
	}
}

// #endregion run

// #region step
// Step runs one frame through features, gate, classifier and session. On
// error nothing in the session has changed.
func (p *Pipeline) Step(ctx context.Context, frame pose.Frame) (Cycle, error) {
	cycle := Cycle{Frame: frame}

	features, err := p.producer.Features(frame)
	if err != nil {
		return cycle, fmt.Errorf("features: %w", err)
	}
	cycle.Features = features

	if p.gate != nil {
		if err := p.checkGate(ctx); err != nil {
			return cycle, err
		}
	}

	result, err := p.classifier.Classify(ctx, features)
	if err != nil {
		return cycle, fmt.Errorf("classify: %w", err)
	}
	cycle.Result = result

	cycle.Outcome = p.session.Observe(result)
	cycle.Record = p.session.Record(result, cycle.Outcome)
	p.logOutcome(cycle.Outcome)

	if p.recorder != nil {
		if err := p.recorder.RecordCycle(ctx, cycle); err != nil {
			p.logger.Error("record cycle", "seq", cycle.Outcome.Seq, "error", err)
		}
	}
	if p.handler != nil {
		p.handler(cycle)
	}
	return cycle, nil
}

// #endregion step

// #region gate
func (p *Pipeline) checkGate(ctx context.Context) error {
	counts, err := p.classifier.CountByLabel(ctx)
	if err != nil {
		return fmt.Errorf("count examples: %w", err)
	}
	decision := p.gate.Evaluate(counts)

	if p.ready == nil || *p.ready != decision.Ready {
		ready := decision.Ready
		p.ready = &ready
		if decision.Ready {
			p.logger.Info("classifier ready", "reason", decision.Reason)
		} else {
			p.logger.Warn("classification refused", "reason", decision.Reason, "missing", decision.Missing)
		}
		if p.recorder != nil {
			if err := p.recorder.RecordGate(ctx, p.session.Seq(), decision); err != nil {
				p.logger.Error("record gate", "error", err)
			}
		}
	}

	if !decision.Ready {
		return fmt.Errorf("%w: %s", ErrNotReady, decision.Reason)
	}
	return nil
}

// #endregion gate

// #region log-outcome
func (p *Pipeline) logOutcome(out session.Outcome) {
	for _, obs := range out.Observations {
		if !obs.Transitioned() {
			continue
		}
		p.logger.Debug("counter transition",
			"exercise", obs.Exercise,
			"from", obs.Previous.String(),
			"to", obs.State.String(),
			"count", obs.Count,
			"reason", obs.Reason,
		)
	}
	if out.Completed {
		p.logger.Info("target reached",
			"exercise", out.Target.Exercise.Name,
			"seq", out.Seq,
			"alarm_stopped", out.AlarmStopped,
		)
	}
}

// #endregion log-outcome

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/danielpatrickdp/pose-alarm/internal/classifier"
	"github.com/danielpatrickdp/pose-alarm/internal/counter"
	"github.com/danielpatrickdp/pose-alarm/internal/gate"
	"github.com/danielpatrickdp/pose-alarm/internal/session"
)

const (
	ansiReset = "\033[0m"
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiBlue  = "\033[34m"
)

type alarmState interface {
	Active() bool
}

// syncWriter serializes writes from the pipeline and the alarm goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// statusPrinter writes one line per cycle in which something changed. With
// verbose it also writes every label's confidence for each classification.
type statusPrinter struct {
	out      io.Writer
	colorize bool
	verbose  bool
	target   string
	required int
	labels   []string
	alarm    alarmState
}

func newStatusPrinter(out io.Writer, colorize bool, cfg session.Config, a alarmState) *statusPrinter {
	return &statusPrinter{
		out:      out,
		colorize: colorize,
		target:   cfg.Target,
		required: cfg.RequiredReps,
		labels:   gate.ForExercises(cfg.Exercises).RequiredLabels(),
		alarm:    a,
	}
}

func (p *statusPrinter) print(res classifier.Result, out session.Outcome) {
	if p.verbose {
		fmt.Fprintf(p.out, "[%d] %s: %s\n", out.Seq, res.Label, formatConfidences(res.ConfidencesByLabel, p.labels))
	}
	if !out.Transitioned() && !out.Completed {
		return
	}
	alarmActive := p.alarm != nil && p.alarm.Active()
	fmt.Fprintln(p.out, formatStatus(out, p.target, p.required, alarmActive, p.colorize))
}

func formatStatus(out session.Outcome, target string, required int, alarmActive, colorize bool) string {
	parts := make([]string, 0, len(out.Counters)+2)
	for _, snap := range out.Counters {
		count := fmt.Sprintf("%d", snap.Count)
		if snap.Exercise.Name == target && required > 0 {
			count = fmt.Sprintf("%d/%d", snap.Count, required)
		}
		part := fmt.Sprintf("%s %s %s", snap.Exercise.Name, count, stateLabel(snap))
		if snap.Exercise.Name == target {
			part = paint(part, ansiBlue, colorize)
		}
		parts = append(parts, part)
	}
	if out.Completed {
		parts = append(parts, paint("target reached", ansiGreen, colorize))
	}
	if alarmActive {
		parts = append(parts, paint("alarm ringing", ansiRed, colorize))
	} else {
		parts = append(parts, "alarm off")
	}
	return fmt.Sprintf("[%d] %s", out.Seq, strings.Join(parts, " | "))
}

func stateLabel(snap counter.Snapshot) string {
	if l := snap.Exercise.Label(snap.State); l != "" {
		return l
	}
	return snap.State.String()
}

func paint(s, color string, colorize bool) string {
	if !colorize {
		return s
	}
	return color + s + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/pose-alarm/internal/logging"
	"github.com/danielpatrickdp/pose-alarm/internal/store"
)

type inspectOptions struct {
	session string
	last    int
	events  int
	jsonOut bool
	labels  []string
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show recorded sessions, counter versions and events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts.labels = cfg.Gate().RequiredLabels()
			return ctx.withStore(func(st *store.Store) error {
				if opts.session != "" {
					return inspectSession(cmd.Context(), st, opts, cmd.OutOrStdout())
				}
				return inspectSessions(cmd.Context(), st, opts, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().StringVar(&opts.session, "session", "", "Show one session in detail (\"active\" for the active session)")
	cmd.Flags().IntVar(&opts.last, "last", 20, "Show N most recent sessions or counter versions")
	cmd.Flags().IntVar(&opts.events, "events", 20, "Show N most recent events in session detail")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Output as JSON instead of a table")
	return cmd
}

// #region list-mode

type sessionRow struct {
	SessionID    string  `json:"session_id"`
	Target       string  `json:"target"`
	RequiredReps int     `json:"required_reps"`
	Threshold    float64 `json:"threshold"`
	Completions  int     `json:"completions"`
	AlarmAt      string  `json:"alarm_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
	EndedAt      string  `json:"ended_at,omitempty"`
}

func toSessionRow(rec store.SessionRecord) sessionRow {
	return sessionRow{
		SessionID:    rec.SessionID,
		Target:       rec.TargetExercise,
		RequiredReps: rec.RequiredReps,
		Threshold:    rec.Threshold,
		Completions:  rec.Completions,
		AlarmAt:      formatOptionalTime(rec.AlarmAt),
		CreatedAt:    formatOptionalTime(rec.CreatedAt),
		EndedAt:      formatOptionalTime(rec.EndedAt),
	}
}

func inspectSessions(ctx context.Context, st *store.Store, opts inspectOptions, out io.Writer) error {
	sessions, err := st.ListSessions(ctx, opts.last)
	if err != nil {
		return err
	}
	rows := make([]sessionRow, len(sessions))
	for i, rec := range sessions {
		rows[i] = toSessionRow(rec)
	}
	if opts.jsonOut {
		return printJSON(out, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "no sessions recorded")
		return nil
	}

	b := newTable(idCol("Session"), textCol("Target"), countCol("Reps"), percentCol("Threshold"), countCol("Done"),
		timeCol("Alarm"), timeCol("Started"), timeCol("Ended"))
	for _, rec := range sessions {
		b.add(rec.SessionID, rec.TargetExercise, rec.RequiredReps, rec.Threshold, rec.Completions,
			rec.AlarmAt, rec.CreatedAt, rec.EndedAt)
	}
	fmt.Fprintln(out, b.render())
	return nil
}

// #endregion list-mode

// #region detail-mode

type counterRow struct {
	VersionID string `json:"version_id"`
	ParentID  string `json:"parent_id,omitempty"`
	Exercise  string `json:"exercise"`
	State     string `json:"state"`
	Count     int    `json:"count"`
	CreatedAt string `json:"created_at"`
}

type eventRow struct {
	Seq         int                `json:"seq"`
	Trigger     string             `json:"trigger"`
	Decision    string             `json:"decision"`
	Reason      string             `json:"reason,omitempty"`
	Label       string             `json:"label,omitempty"`
	Confidences map[string]float64 `json:"confidences,omitempty"`
}

type sessionDetail struct {
	Session  sessionRow   `json:"session"`
	Counters []counterRow `json:"counters"`
	History  []counterRow `json:"history"`
	Events   []eventRow   `json:"events"`
}

func toCounterRows(recs []store.CounterRecord) []counterRow {
	rows := make([]counterRow, len(recs))
	for i, r := range recs {
		rows[i] = counterRow{
			VersionID: r.VersionID,
			ParentID:  r.ParentID,
			Exercise:  r.Snapshot.Exercise.Name,
			State:     r.Snapshot.State.String(),
			Count:     r.Snapshot.Count,
			CreatedAt: formatOptionalTime(r.CreatedAt),
		}
	}
	return rows
}

func loadSessionDetail(ctx context.Context, st *store.Store, opts inspectOptions) (*sessionDetail, error) {
	rec, err := resolveSession(ctx, st, opts.session)
	if err != nil {
		return nil, err
	}
	current, err := st.CurrentCounters(ctx, rec.SessionID)
	if err != nil {
		return nil, err
	}
	history, err := st.ListCounterVersions(ctx, rec.SessionID, opts.last)
	if err != nil {
		return nil, err
	}
	events, err := logging.ListEvents(ctx, st.DB(), rec.SessionID, "")
	if err != nil {
		return nil, err
	}
	if opts.events > 0 && len(events) > opts.events {
		events = events[len(events)-opts.events:]
	}

	d := &sessionDetail{
		Session:  toSessionRow(rec),
		Counters: toCounterRows(current),
		History:  toCounterRows(history),
	}
	for _, e := range events {
		row := eventRow{Seq: e.Seq, Trigger: e.TriggerType, Decision: e.Decision, Reason: e.Reason}
		if e.RecordJSON != "" {
			var cr logging.CycleRecord
			if json.Unmarshal([]byte(e.RecordJSON), &cr) == nil {
				row.Label = cr.Label
				row.Confidences = cr.Confidences
			}
		}
		d.Events = append(d.Events, row)
	}
	return d, nil
}

func inspectSession(ctx context.Context, st *store.Store, opts inspectOptions, out io.Writer) error {
	d, err := loadSessionDetail(ctx, st, opts)
	if err != nil {
		return err
	}
	if opts.jsonOut {
		return printJSON(out, d)
	}

	s := d.Session
	fmt.Fprintf(out, "Session %s: %s x%d at threshold %.2f, %d completions\n",
		s.SessionID, s.Target, s.RequiredReps, s.Threshold, s.Completions)
	fmt.Fprintf(out, "Started %s, ended %s, alarm %s\n\n", s.CreatedAt, dash(s.EndedAt), dash(s.AlarmAt))

	counters := newTable(textCol("Exercise"), textCol("State"), countCol("Count"), idCol("Version"))
	for _, c := range d.Counters {
		counters.add(c.Exercise, c.State, c.Count, c.VersionID)
	}
	fmt.Fprintln(out, counters.render())

	history := newTable(idCol("Version"), idCol("Parent"), textCol("Exercise"), textCol("State"), countCol("Count"), textCol("Time"))
	for _, c := range d.History {
		history.add(c.VersionID, c.ParentID, c.Exercise, c.State, c.Count, c.CreatedAt)
	}
	fmt.Fprintln(out, history.render())

	events := newTable(countCol("Seq"), textCol("Trigger"), textCol("Decision"), textCol("Label"),
		textCol("Confidences"), reasonCol("Reason"))
	for _, e := range d.Events {
		events.add(e.Seq, e.Trigger, e.Decision, e.Label, formatConfidences(e.Confidences, opts.labels), e.Reason)
	}
	fmt.Fprintln(out, events.render())
	return nil
}

// #endregion detail-mode

// #region helpers

// resolveSession accepts a full ID, "active", or "" (also active).
func resolveSession(ctx context.Context, st *store.Store, id string) (store.SessionRecord, error) {
	if id == "" || id == "active" {
		return st.GetActiveSession(ctx)
	}
	return st.GetSession(ctx, id)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// #endregion helpers

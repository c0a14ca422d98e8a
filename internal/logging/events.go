package logging

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// #region log-event
// LogEvent writes an entry to the event_log table.
func LogEvent(ctx context.Context, db *sql.DB, entry EventEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO event_log (session_id, seq, trigger_type, record_json, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.Seq,
		entry.TriggerType,
		nullIfEmpty(entry.RecordJSON),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// #endregion log-event

// #region list-events
// ListEvents returns a session's events in sequence order. An empty
// triggerType matches every trigger.
func ListEvents(ctx context.Context, db *sql.DB, sessionID, triggerType string) ([]EventEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT session_id, seq, trigger_type, record_json, decision, reason, created_at
		 FROM event_log
		 WHERE session_id = ? AND (? = '' OR trigger_type = ?)
		 ORDER BY seq, id`,
		sessionID, triggerType, triggerType,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []EventEntry
	for rows.Next() {
		var e EventEntry
		var recordJSON, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.SessionID, &e.Seq, &e.TriggerType, &recordJSON, &e.Decision, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.RecordJSON = recordJSON.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion list-events

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/pose-alarm/internal/counter"
)

// #region store-struct
// Store manages sessions, counter versions and training examples in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region create-session
// CreateSession inserts a session and makes it the active one. An empty
// SessionID is replaced with a new UUID.
func (s *Store) CreateSession(ctx context.Context, rec SessionRecord) (SessionRecord, error) {
	if rec.SessionID == "" {
		rec.SessionID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id, target_exercise, required_reps, threshold, alarm_at, completions, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.TargetExercise, rec.RequiredReps, rec.Threshold,
		nullTime(rec.AlarmAt), rec.Completions, formatTime(rec.CreatedAt),
	)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("insert session: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO active_session (id, session_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET session_id = excluded.session_id`,
		rec.SessionID,
	)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return SessionRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion create-session

// #region get-session
const sessionColumns = `session_id, target_exercise, required_reps, threshold, alarm_at, completions, created_at, ended_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (SessionRecord, error) {
	var rec SessionRecord
	var alarmAt, endedAt sql.NullString
	var createdStr string
	if err := row.Scan(&rec.SessionID, &rec.TargetExercise, &rec.RequiredReps, &rec.Threshold,
		&alarmAt, &rec.Completions, &createdStr, &endedAt); err != nil {
		return SessionRecord{}, err
	}
	rec.CreatedAt = parseTime(createdStr)
	if alarmAt.Valid {
		rec.AlarmAt = parseTime(alarmAt.String)
	}
	if endedAt.Valid {
		rec.EndedAt = parseTime(endedAt.String)
	}
	return rec, nil
}

// GetActiveSession reads the session most recently created.
func (s *Store) GetActiveSession(ctx context.Context) (SessionRecord, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT session_id FROM active_session WHERE id = 1`).Scan(&id)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("get active session: %w", err)
	}
	return s.GetSession(ctx, id)
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, id)
	rec, err := scanSession(row)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return rec, nil
}

// ListSessions returns the most recent sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion get-session

// #region update-session
// RecordCompletion increments a session's completion count.
func (s *Store) RecordCompletion(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET completions = completions + 1 WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	return requireOneRow(res, sessionID)
}

// SetAlarmAt records when the session's alarm is due.
func (s *Store) SetAlarmAt(ctx context.Context, sessionID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET alarm_at = ? WHERE session_id = ?`, nullTime(at), sessionID)
	if err != nil {
		return fmt.Errorf("set alarm: %w", err)
	}
	return requireOneRow(res, sessionID)
}

// EndSession stamps the session's end time.
func (s *Store) EndSession(ctx context.Context, sessionID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE session_id = ?`, formatTime(at), sessionID)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return requireOneRow(res, sessionID)
}

func requireOneRow(res sql.Result, sessionID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s not found", sessionID)
	}
	return nil
}

// #endregion update-session

// #region commit-counter
// CommitCounter inserts a new counter version and moves the session's active
// pointer for that exercise to it atomically. Empty VersionID gets a new UUID.
func (s *Store) CommitCounter(ctx context.Context, rec CounterRecord) (CounterRecord, error) {
	if rec.VersionID == "" {
		rec.VersionID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	snapJSON, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return CounterRecord{}, fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return CounterRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO counter_versions (version_id, parent_id, session_id, exercise, state, count, snapshot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.VersionID, nullIfEmpty(rec.ParentID), rec.SessionID, rec.Snapshot.Exercise.Name,
		rec.Snapshot.State.String(), rec.Snapshot.Count, string(snapJSON), formatTime(rec.CreatedAt),
	)
	if err != nil {
		return CounterRecord{}, fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO active_counters (session_id, exercise, version_id) VALUES (?, ?, ?)
		 ON CONFLICT(session_id, exercise) DO UPDATE SET version_id = excluded.version_id`,
		rec.SessionID, rec.Snapshot.Exercise.Name, rec.VersionID,
	)
	if err != nil {
		return CounterRecord{}, fmt.Errorf("update active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return CounterRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion commit-counter

// #region get-counters
const counterColumns = `v.version_id, v.parent_id, v.session_id, v.snapshot, v.created_at`

func scanCounter(row rowScanner) (CounterRecord, error) {
	var rec CounterRecord
	var parentID sql.NullString
	var snapJSON, createdStr string
	if err := row.Scan(&rec.VersionID, &parentID, &rec.SessionID, &snapJSON, &createdStr); err != nil {
		return CounterRecord{}, err
	}
	if parentID.Valid {
		rec.ParentID = parentID.String
	}
	if err := json.Unmarshal([]byte(snapJSON), &rec.Snapshot); err != nil {
		return CounterRecord{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	rec.CreatedAt = parseTime(createdStr)
	return rec, nil
}

func (s *Store) queryCounters(ctx context.Context, query string, args ...any) ([]CounterRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CounterRecord
	for rows.Next() {
		rec, err := scanCounter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan counter: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CurrentCounters returns the active version of every counter in a session,
// ordered by exercise name.
func (s *Store) CurrentCounters(ctx context.Context, sessionID string) ([]CounterRecord, error) {
	out, err := s.queryCounters(ctx,
		`SELECT `+counterColumns+`
		 FROM active_counters a JOIN counter_versions v ON v.version_id = a.version_id
		 WHERE a.session_id = ? ORDER BY a.exercise`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("current counters: %w", err)
	}
	return out, nil
}

// ListCounterVersions returns a session's counter history, newest first.
func (s *Store) ListCounterVersions(ctx context.Context, sessionID string, limit int) ([]CounterRecord, error) {
	out, err := s.queryCounters(ctx,
		`SELECT `+counterColumns+`
		 FROM counter_versions v WHERE v.session_id = ?
		 ORDER BY v.created_at DESC, v.rowid DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list counter versions: %w", err)
	}
	return out, nil
}

// RestoreCounters rebuilds live counters from a session's active versions.
func (s *Store) RestoreCounters(ctx context.Context, sessionID string) (map[string]*counter.Counter, error) {
	recs, err := s.CurrentCounters(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*counter.Counter, len(recs))
	for _, r := range recs {
		out[r.Snapshot.Exercise.Name] = counter.Restore(r.Snapshot)
	}
	return out, nil
}

// #endregion get-counters

// #region helpers
// timeLayout is fixed width so created_at columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers

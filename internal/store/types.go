package store

import (
	"time"

	"github.com/danielpatrickdp/pose-alarm/internal/counter"
)

// #region session-record
// SessionRecord is one exercise session: the target the user must reach to
// silence the alarm.
type SessionRecord struct {
	SessionID      string
	TargetExercise string
	RequiredReps   int
	Threshold      float64
	AlarmAt        time.Time // zero when no alarm was scheduled
	Completions    int
	CreatedAt      time.Time
	EndedAt        time.Time // zero while running
}

// #endregion session-record

// #region counter-record
// CounterRecord is a versioned snapshot of one exercise counter.
type CounterRecord struct {
	VersionID string
	ParentID  string
	SessionID string
	Snapshot  counter.Snapshot
	CreatedAt time.Time
}

// #endregion counter-record

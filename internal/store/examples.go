package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/danielpatrickdp/pose-alarm/internal/classifier"
)

// #region save-example
// SaveExample persists one training example. Store satisfies
// classifier.ExampleStore.
func (s *Store) SaveExample(ctx context.Context, ex classifier.Example) error {
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO examples (label, dim, features, created_at) VALUES (?, ?, ?, ?)`,
		ex.Label, len(ex.Features), encodeFeatures(ex.Features), formatTime(ex.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save example: %w", err)
	}
	return nil
}

// #endregion save-example

// #region list-examples
// ListExamples returns every stored example in insertion order.
func (s *Store) ListExamples(ctx context.Context) ([]classifier.Example, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, dim, features, created_at FROM examples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list examples: %w", err)
	}
	defer rows.Close()

	var out []classifier.Example
	for rows.Next() {
		var ex classifier.Example
		var dim int
		var blob []byte
		var createdStr string
		if err := rows.Scan(&ex.Label, &dim, &blob, &createdStr); err != nil {
			return nil, fmt.Errorf("scan example: %w", err)
		}
		ex.Features = decodeFeatures(blob, dim)
		ex.CreatedAt = parseTime(createdStr)
		out = append(out, ex)
	}
	return out, rows.Err()
}

// CountExamples returns the stored example count per label.
func (s *Store) CountExamples(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT label, COUNT(*) FROM examples GROUP BY label`)
	if err != nil {
		return nil, fmt.Errorf("count examples: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[label] = n
	}
	return out, rows.Err()
}

// #endregion list-examples

// #region delete-examples
// DeleteExamples removes all examples for label and reports how many went.
func (s *Store) DeleteExamples(ctx context.Context, label string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM examples WHERE label = ?`, label)
	if err != nil {
		return 0, fmt.Errorf("delete examples: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// #endregion delete-examples

// #region feature-encoding
func encodeFeatures(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeFeatures(b []byte, dim int) []float64 {
	v := make([]float64, dim)
	for i := range v {
		if i*8+8 <= len(b) {
			v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
		}
	}
	return v
}

// #endregion feature-encoding

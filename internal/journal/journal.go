// Package journal keeps a durable per-batch audit trail in SQLite: one row
// per flushed batch with a BLAKE3 checksum of the exact content handed to
// the sinks. Journal writes are best-effort like the sinks themselves; a
// failed insert never blocks the pipeline.
package journal

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/mattjoyce/bulkd/internal/batch"
)

// Entry is one recorded batch.
type Entry struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	FileName     string    `json:"file_name"`
	CommandCount int       `json:"command_count"`
	Checksum     string    `json:"checksum"`
	StartedAt    time.Time `json:"started_at"`
	CreatedAt    time.Time `json:"created_at"`
}

type Journal struct {
	db *sql.DB
}

func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Checksum returns the hex BLAKE3 digest of a batch's wire content.
func Checksum(content string) string {
	sum := blake3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Record inserts one row for a flushed batch.
func (j *Journal) Record(ctx context.Context, sessionID string, b batch.Batch) error {
	if sessionID == "" {
		return fmt.Errorf("session id is empty")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := j.db.ExecContext(ctx, `
INSERT INTO batch_log(id, session_id, file_name, command_count, checksum, started_at, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?);
`, uuid.NewString(), sessionID, b.FileName, len(b.Commands), Checksum(b.Content()),
		b.StartedAt.UTC().Format(time.RFC3339Nano), now)
	if err != nil {
		return fmt.Errorf("record batch: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx, `
SELECT id, session_id, file_name, command_count, checksum, started_at, created_at
FROM batch_log
ORDER BY created_at DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent batches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			startedAtS string
			createdAtS string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.FileName, &e.CommandCount, &e.Checksum, &startedAtS, &createdAtS); err != nil {
			return nil, fmt.Errorf("scan batch row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, startedAtS); err == nil {
			e.StartedAt = t
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAtS); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch rows: %w", err)
	}
	return entries, nil
}

// Count returns the total number of recorded batches.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM batch_log;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return n, nil
}

package audit

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder copies fresh audit entries into the audit_entries table so the
// in-memory window can stay small. It tracks the last flushed sequence
// itself; callers just invoke Flush.
type Recorder struct {
	pool *pgxpool.Pool
	log  *Log

	mu      sync.Mutex
	flushed uint64
}

// NewRecorder returns a Recorder bound to the given log and pool.
func NewRecorder(pool *pgxpool.Pool, log *Log) *Recorder {
	return &Recorder{pool: pool, log: log}
}

// Flush persists entries appended since the previous flush. It returns the
// number of rows written.
func (r *Recorder) Flush(ctx context.Context) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("audit: recorder not initialised")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, seq := r.log.SnapshotSince(r.flushed)
	if len(entries) == 0 {
		r.flushed = seq
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO audit_entries (occurred_at, principal, resource, status, reason) VALUES ($1, $2, $3, $4, $5)`,
			e.Timestamp, e.Principal, e.Resource, string(e.Status), e.Reason,
		)
	}
	results := r.pool.SendBatch(ctx, batch)
	if err := results.Close(); err != nil {
		return 0, err
	}
	r.flushed = seq
	return len(entries), nil
}

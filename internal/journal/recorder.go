package journal

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mattjoyce/bulkd/internal/batch"
	"github.com/mattjoyce/bulkd/internal/log"
)

const recorderBuffer = 256

type record struct {
	sessionID string
	batch     batch.Batch
}

// Recorder writes journal rows on a background goroutine so the flush path
// never waits on the database. The channel is bounded; if journaling falls
// this far behind, entries are dropped with a warning rather than stalling
// producers.
type Recorder struct {
	journal *Journal
	ch      chan record
	wg      sync.WaitGroup
	logger  *slog.Logger

	// mu guards closed so a late Record never races the channel close.
	mu     sync.Mutex
	closed bool
}

// NewRecorder starts the background writer.
func NewRecorder(j *Journal) *Recorder {
	r := &Recorder{
		journal: j,
		ch:      make(chan record, recorderBuffer),
		logger:  log.WithComponent("journal"),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record queues one batch for journaling. Never blocks. A flush arriving
// after Close is dropped with a warning; shutdown ordering cannot fully
// fence off in-flight producers, so this path must stay safe.
func (r *Recorder) Record(sessionID string, b batch.Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.logger.Warn("journal recorder closed, dropping entry", "file_name", b.FileName)
		return
	}
	select {
	case r.ch <- record{sessionID: sessionID, batch: b}:
	default:
		r.logger.Warn("journal backlog full, dropping entry", "file_name", b.FileName)
	}
}

// Close drains queued entries and stops the writer. Idempotent.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for rec := range r.ch {
		if err := r.journal.Record(context.Background(), rec.sessionID, rec.batch); err != nil {
			r.logger.Error("failed to journal batch", "file_name", rec.batch.FileName, "error", err)
		}
	}
}

package batch

import (
	"fmt"
	"time"
)

// Aggregator is the per-session batching state machine. Outside a block,
// buffered commands flush once the buffer reaches capacity; inside a block,
// the threshold is suspended and the whole block flushes when the outermost
// close marker arrives.
//
// An Aggregator is not safe for concurrent use; callers serialize Process
// and Flush per session (the session registry does this for the HTTP
// surface).
type Aggregator struct {
	capacity  int
	pending   []string
	depth     int
	startedAt time.Time

	now     func() time.Time
	namer   *Namer
	emitter Emitter
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator creates an aggregator with the given size threshold.
func NewAggregator(capacity int, namer *Namer, emitter Emitter, opts ...AggregatorOption) (*Aggregator, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("capacity must be at least 1 (got %d)", capacity)
	}
	a := &Aggregator{
		capacity: capacity,
		now:      time.Now,
		namer:    namer,
		emitter:  emitter,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Process consumes one command, advancing the state machine and flushing
// where a batch boundary is reached.
func (a *Aggregator) Process(cmd string) {
	switch cmd {
	case OpenBlock:
		// An open marker always starts a fresh unit of batching: whatever
		// is buffered flushes first, even below threshold.
		if a.depth == 0 {
			a.Flush()
		}
		a.depth++
	case CloseBlock:
		// Depth goes negative on an unmatched close marker and stays
		// there until enough opens arrive; flushing only happens when the
		// decrement lands exactly on zero.
		a.depth--
		if a.depth == 0 {
			a.Flush()
		}
	default:
		if len(a.pending) == 0 {
			a.startedAt = a.now()
		}
		a.pending = append(a.pending, cmd)
		if a.depth == 0 && len(a.pending) == a.capacity {
			a.Flush()
		}
	}
}

// Flush emits the buffered commands as one batch. It is a no-op while
// inside a block (depth != 0) or when the buffer is empty.
func (a *Aggregator) Flush() {
	if a.depth != 0 {
		return
	}
	if len(a.pending) == 0 {
		return
	}

	seq := a.namer.Next()
	b := Batch{
		Commands:  a.pending,
		StartedAt: a.startedAt,
		Seq:       seq,
		FileName:  FileName(a.startedAt, seq),
	}
	a.emitter.Emit(b)

	a.pending = nil
	a.startedAt = time.Time{}
	a.depth = 0
}

// Depth reports the current count of unmatched open-block markers.
func (a *Aggregator) Depth() int {
	return a.depth
}

// PendingCount reports the number of buffered, not yet flushed commands.
func (a *Aggregator) PendingCount() int {
	return len(a.pending)
}

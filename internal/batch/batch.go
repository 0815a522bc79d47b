// Package batch implements the per-session aggregator that groups incoming
// commands into batches, either by size threshold or by explicit `{` / `}`
// block markers.
package batch

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Block marker tokens. Everything between an outermost open/close pair is
// emitted as exactly one batch, regardless of the size threshold.
const (
	OpenBlock  = "{"
	CloseBlock = "}"
)

// Batch is an ordered group of commands completed at a flush point.
type Batch struct {
	Commands  []string
	StartedAt time.Time
	Seq       uint64
	FileName  string
}

// Content renders the wire format handed byte-identically to both sinks:
// the literal prefix "bulk:" followed by the commands in arrival order.
func (b Batch) Content() string {
	var sb strings.Builder
	sb.WriteString("bulk:")
	for i, cmd := range b.Commands {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(" ")
		sb.WriteString(cmd)
	}
	return sb.String()
}

// Emitter receives completed batches. The session layer wires this to the
// dispatcher (and, when enabled, the journal and events hub).
type Emitter interface {
	Emit(b Batch)
}

// Namer issues process-wide monotonically increasing sequence numbers so
// artifact names never collide, even for batches flushed in the same second
// from different sessions. One Namer is shared by every aggregator.
type Namer struct {
	counter atomic.Uint64
}

// NewNamer returns a Namer starting at sequence 0.
func NewNamer() *Namer {
	return &Namer{}
}

// Next returns the next sequence number.
func (n *Namer) Next() uint64 {
	return n.counter.Add(1) - 1
}

// FileName derives the artifact name for a batch from its start timestamp
// and sequence number.
func FileName(startedAt time.Time, seq uint64) string {
	return fmt.Sprintf("bulk%d_%d.log", startedAt.Unix(), seq)
}

// Package session exposes the externally visible surface: connect a
// session with a capacity, stream raw bytes into it, disconnect. Each
// session owns one batch aggregator; completed batches fan out to the
// dispatcher, the journal, and the events hub.
package session

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mattjoyce/bulkd/internal/batch"
	"github.com/mattjoyce/bulkd/internal/events"
	"github.com/mattjoyce/bulkd/internal/journal"
	"github.com/mattjoyce/bulkd/internal/log"
)

// Dispatcher is the slice of the dispatch layer a session needs: the two
// non-blocking enqueue operations.
type Dispatcher interface {
	EnqueueConsole(line string)
	EnqueueFile(name, content string)
}

type session struct {
	// mu serializes Process/Flush per session; callers of the library API
	// are expected to do this themselves, but the HTTP surface cannot, so
	// the registry enforces it.
	mu  sync.Mutex
	id  string
	agg *batch.Aggregator
}

// Registry owns all live sessions. Handle lookups that miss are silent
// no-ops by contract: there is no error channel back to the caller.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session

	namer      *batch.Namer
	dispatcher Dispatcher
	recorder   *journal.Recorder
	hub        *events.Hub
	logger     *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithRecorder enables the durable batch journal.
func WithRecorder(r *journal.Recorder) Option {
	return func(reg *Registry) { reg.recorder = r }
}

// WithHub enables batch/session lifecycle events.
func WithHub(h *events.Hub) Option {
	return func(reg *Registry) { reg.hub = h }
}

// WithLogger overrides the component logger.
func WithLogger(logger *slog.Logger) Option {
	return func(reg *Registry) { reg.logger = logger }
}

// NewRegistry creates a Registry dispatching through d. The registry owns
// the process-wide sequence namer, so artifact names are unique across all
// its sessions.
func NewRegistry(d Dispatcher, opts ...Option) *Registry {
	r := &Registry{
		sessions:   make(map[string]*session),
		namer:      batch.NewNamer(),
		dispatcher: d,
		logger:     log.WithComponent("session"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect creates a session with the given batch capacity and returns its
// opaque handle.
func (r *Registry) Connect(capacity int) (string, error) {
	id := uuid.NewString()

	agg, err := batch.NewAggregator(capacity, r.namer, &flushFanout{registry: r, sessionID: id})
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.sessions[id] = &session{id: id, agg: agg}
	r.mu.Unlock()

	r.logger.Debug("session connected", "session_id", id, "capacity", capacity)
	if r.hub != nil {
		r.hub.Publish(events.TypeSessionConnected, map[string]any{
			"session_id": id,
			"capacity":   capacity,
		})
	}
	return id, nil
}

// Receive splits data into newline-delimited, non-empty commands and feeds
// them in order to the session's aggregator. Unknown handles are ignored.
func (r *Registry) Receive(handle string, data []byte) {
	s := r.lookup(handle)
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cmd := range splitCommands(data) {
		s.agg.Process(cmd)
	}
}

// Disconnect forces a final flush attempt and releases the session.
// Commands trapped inside an unterminated block are dropped; that loss is
// logged, not repaired. Double disconnect and unknown handles are no-ops.
func (r *Registry) Disconnect(handle string) {
	r.mu.Lock()
	s, ok := r.sessions[handle]
	if ok {
		delete(r.sessions, handle)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	s.agg.Flush()
	dropped := s.agg.PendingCount()
	depth := s.agg.Depth()
	s.mu.Unlock()

	if dropped > 0 {
		r.logger.Warn("session closed inside an unterminated block, commands dropped",
			"session_id", handle, "dropped", dropped, "depth", depth)
	}
	r.logger.Debug("session disconnected", "session_id", handle)
	if r.hub != nil {
		r.hub.Publish(events.TypeSessionDisconnected, map[string]any{
			"session_id": handle,
			"dropped":    dropped,
		})
	}
}

// Count reports the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close disconnects every remaining session. Call before stopping the
// dispatcher so final batches still drain to the sinks.
func (r *Registry) Close() {
	r.mu.Lock()
	handles := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		handles = append(handles, id)
	}
	r.mu.Unlock()

	for _, id := range handles {
		r.Disconnect(id)
	}
}

func (r *Registry) lookup(handle string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[handle]
}

// flushFanout hands one completed batch to every consumer: both dispatch
// queues (byte-identical content), then the journal and the events hub.
type flushFanout struct {
	registry  *Registry
	sessionID string
}

func (f *flushFanout) Emit(b batch.Batch) {
	content := b.Content()
	f.registry.dispatcher.EnqueueConsole(content)
	f.registry.dispatcher.EnqueueFile(b.FileName, content)

	if f.registry.recorder != nil {
		f.registry.recorder.Record(f.sessionID, b)
	}
	if f.registry.hub != nil {
		f.registry.hub.Publish(events.TypeBatchFlushed, map[string]any{
			"session_id":    f.sessionID,
			"file_name":     b.FileName,
			"command_count": len(b.Commands),
		})
	}
}

// splitCommands breaks raw bytes into non-empty newline-separated tokens.
func splitCommands(data []byte) []string {
	parts := strings.Split(string(data), "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(p, "\r")
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Package dispatch fans completed batches out to the console and file sinks
// on background workers, so slow sink I/O never stalls command producers.
package dispatch

import (
	"log/slog"
	"sync"

	"github.com/mattjoyce/bulkd/internal/log"
)

// DefaultFileWorkers is the file writer pool size when none is configured.
const DefaultFileWorkers = 2

// ConsoleSink consumes one formatted batch line at a time.
type ConsoleSink interface {
	WriteLine(line string) error
}

// FileSink persists a named batch artifact.
type FileSink interface {
	WriteArtifact(name, content string) error
}

// FileItem pairs an artifact name with its content.
type FileItem struct {
	Name    string
	Content string
}

// Dispatcher owns the two sink queues and their worker pool. Enqueue
// operations never block; Stop drains both queues before returning.
type Dispatcher struct {
	console *fifo[string]
	files   *fifo[FileItem]

	consoleSink ConsoleSink
	fileSink    FileSink
	fileWorkers int

	wg      sync.WaitGroup
	mu      sync.Mutex // guards started/stopped
	started bool
	stopped bool
	logger  *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithFileWorkers sets the size of the file worker pool.
func WithFileWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.fileWorkers = n
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates a Dispatcher writing to the given sinks. Call Start to spawn
// the workers and Stop to drain and join them.
func New(consoleSink ConsoleSink, fileSink FileSink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		console:     newFIFO[string](),
		files:       newFIFO[FileItem](),
		consoleSink: consoleSink,
		fileSink:    fileSink,
		fileWorkers: DefaultFileWorkers,
		logger:      log.WithComponent("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start spawns one console worker and the file worker pool. The lifecycle
// is one-shot: Start once, Stop once. Both are safe to call from any
// goroutine and extra calls are no-ops; a stopped Dispatcher does not
// restart.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true

	d.wg.Add(1)
	go d.runConsoleWorker()

	for i := 0; i < d.fileWorkers; i++ {
		d.wg.Add(1)
		go d.runFileWorker(i)
	}

	d.logger.Info("dispatch workers started", "file_workers", d.fileWorkers)
}

// Stop signals both queues, wakes every worker, and waits for them to
// finish. Items enqueued before Stop are still delivered: workers only
// exit once their queue is empty.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started || d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	d.console.stop()
	d.files.stop()
	d.wg.Wait()
	d.logger.Info("dispatch workers stopped")
}

// EnqueueConsole queues one formatted batch line for the console worker.
func (d *Dispatcher) EnqueueConsole(line string) {
	d.console.push(line)
}

// EnqueueFile queues one batch artifact for the file worker pool.
func (d *Dispatcher) EnqueueFile(name, content string) {
	d.files.push(FileItem{Name: name, Content: content})
}

// ConsoleDepth reports the number of console items waiting for a worker.
func (d *Dispatcher) ConsoleDepth() int {
	return d.console.depth()
}

// FileDepth reports the number of file items waiting for a worker.
func (d *Dispatcher) FileDepth() int {
	return d.files.depth()
}

// runConsoleWorker drains the console queue in FIFO order. A write failure
// is local to that item: the worker logs it and moves on.
func (d *Dispatcher) runConsoleWorker() {
	defer d.wg.Done()

	for {
		line, ok := d.console.pop()
		if !ok {
			return
		}
		if err := d.consoleSink.WriteLine(line); err != nil {
			d.logger.Error("console sink write failed", "error", err)
		}
	}
}

// runFileWorker drains the file queue. Workers in the pool are
// interchangeable; no ordering holds between them.
func (d *Dispatcher) runFileWorker(id int) {
	defer d.wg.Done()

	for {
		item, ok := d.files.pop()
		if !ok {
			return
		}
		if err := d.fileSink.WriteArtifact(item.Name, item.Content); err != nil {
			d.logger.Error("file sink write failed", "worker", id, "name", item.Name, "error", err)
		}
	}
}

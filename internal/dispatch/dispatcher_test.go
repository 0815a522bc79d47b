package dispatch

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/mattjoyce/bulkd/internal/dispatch/mocks"
)

type recordingConsole struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingConsole) WriteLine(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	return nil
}

func (r *recordingConsole) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

type recordingFiles struct {
	mu        sync.Mutex
	artifacts map[string]string
}

func newRecordingFiles() *recordingFiles {
	return &recordingFiles{artifacts: make(map[string]string)}
}

func (r *recordingFiles) WriteArtifact(name, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts[name] = content
	return nil
}

func (r *recordingFiles) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.artifacts)
}

func TestConsoleDeliveryIsFIFO(t *testing.T) {
	t.Parallel()

	console := &recordingConsole{}
	d := New(console, newRecordingFiles())
	d.Start()

	want := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		line := fmt.Sprintf("bulk: cmd%d", i)
		want = append(want, line)
		d.EnqueueConsole(line)
	}

	d.Stop()

	got := console.snapshot()
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestStopDrainsPendingItems(t *testing.T) {
	t.Parallel()

	console := &recordingConsole{}
	files := newRecordingFiles()
	d := New(console, files, WithFileWorkers(3))

	// Enqueue before the workers exist; Start then immediate Stop must
	// still deliver everything.
	for i := 0; i < 200; i++ {
		d.EnqueueConsole(fmt.Sprintf("bulk: c%d", i))
		d.EnqueueFile(fmt.Sprintf("bulk0_%d.log", i), "bulk: c")
	}

	d.Start()
	d.Stop()

	if n := len(console.snapshot()); n != 200 {
		t.Fatalf("expected 200 console lines after drain, got %d", n)
	}
	if n := files.count(); n != 200 {
		t.Fatalf("expected 200 artifacts after drain, got %d", n)
	}
	if d.ConsoleDepth() != 0 || d.FileDepth() != 0 {
		t.Fatalf("expected empty queues after Stop, got console=%d file=%d", d.ConsoleDepth(), d.FileDepth())
	}
}

func TestConcurrentProducers(t *testing.T) {
	t.Parallel()

	console := &recordingConsole{}
	files := newRecordingFiles()
	d := New(console, files, WithFileWorkers(4))
	d.Start()

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				d.EnqueueConsole("bulk: x")
				d.EnqueueFile(fmt.Sprintf("bulk0_%d.log", p*100+i), "bulk: x")
			}
		}(p)
	}
	wg.Wait()
	d.Stop()

	if n := len(console.snapshot()); n != 800 {
		t.Fatalf("expected 800 console lines, got %d", n)
	}
	if n := files.count(); n != 800 {
		t.Fatalf("expected 800 distinct artifacts, got %d", n)
	}
}

func TestSinkFailureDoesNotStopWorkers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	console := mocks.NewMockConsoleSink(ctrl)
	files := mocks.NewMockFileSink(ctrl)

	console.EXPECT().WriteLine("bulk: bad").Return(errors.New("stdout gone"))
	console.EXPECT().WriteLine("bulk: good").Return(nil)
	files.EXPECT().WriteArtifact("a.log", gomock.Any()).Return(errors.New("disk full"))
	files.EXPECT().WriteArtifact("b.log", gomock.Any()).Return(nil)

	d := New(console, files, WithFileWorkers(1))
	d.Start()

	d.EnqueueConsole("bulk: bad")
	d.EnqueueConsole("bulk: good")
	d.EnqueueFile("a.log", "bulk: a")
	d.EnqueueFile("b.log", "bulk: b")

	// Stop drains, so all expected calls have happened by the time it
	// returns; a failed item must not have killed either worker.
	d.Stop()
}

func TestDepthReporting(t *testing.T) {
	t.Parallel()

	d := New(&recordingConsole{}, newRecordingFiles())

	d.EnqueueConsole("bulk: a")
	d.EnqueueConsole("bulk: b")
	d.EnqueueFile("a.log", "bulk: a")

	if got := d.ConsoleDepth(); got != 2 {
		t.Fatalf("expected console depth 2, got %d", got)
	}
	if got := d.FileDepth(); got != 1 {
		t.Fatalf("expected file depth 1, got %d", got)
	}

	d.Start()
	d.Stop()
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()

	d := New(&recordingConsole{}, newRecordingFiles())
	d.Start()
	d.Stop()
	d.Stop()
}

func TestLifecycleCallsAreConcurrencySafe(t *testing.T) {
	t.Parallel()

	console := &recordingConsole{}
	d := New(console, newRecordingFiles())

	for i := 0; i < 10; i++ {
		d.EnqueueConsole(fmt.Sprintf("line-%d", i))
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Start()
		}()
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Stop()
		}()
	}
	wg.Wait()

	if got := len(console.snapshot()); got != 10 {
		t.Fatalf("expected 10 lines delivered exactly once, got %d", got)
	}

	// The lifecycle is one-shot: Start after Stop stays a no-op.
	d.Start()
	d.Stop()
}

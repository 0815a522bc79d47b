package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireWritesPID(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "bulkd.lock")
	l, err := Acquire(lockPath)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	t.Cleanup(func() { _ = l.Release() })

	b, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := fmt.Sprintf("%d", os.Getpid())
	if strings.TrimSpace(string(b)) != want {
		t.Fatalf("expected pid %s in lock file, got %q", want, string(b))
	}
}

func TestAcquireRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := Acquire(""); err == nil {
		t.Fatal("expected error for empty lock path")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	l, err := Acquire(filepath.Join(t.TempDir(), "bulkd.lock"))
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}

	var nilLock *PIDLock
	if err := nilLock.Release(); err != nil {
		t.Fatalf("nil Release: %v", err)
	}
}

func TestReacquireAfterRelease(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bulkd.lock")
	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	l2, err := Acquire(path)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	_ = l2.Release()
}

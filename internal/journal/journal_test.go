package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattjoyce/bulkd/internal/batch"
	"github.com/mattjoyce/bulkd/internal/storage"
)

func testJournal(t *testing.T) *Journal {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "journal.db")
	db, err := storage.OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return New(db)
}

func TestRecordAndRecent(t *testing.T) {
	t.Parallel()

	j := testJournal(t)

	b1 := batch.Batch{
		Commands:  []string{"a", "b"},
		StartedAt: time.Unix(1700000000, 0),
		Seq:       0,
		FileName:  "bulk1700000000_0.log",
	}
	b2 := batch.Batch{
		Commands:  []string{"c"},
		StartedAt: time.Unix(1700000001, 0),
		Seq:       1,
		FileName:  "bulk1700000001_1.log",
	}

	if err := j.Record(context.Background(), "sess-1", b1); err != nil {
		t.Fatalf("Record (1): %v", err)
	}
	if err := j.Record(context.Background(), "sess-2", b2); err != nil {
		t.Fatalf("Record (2): %v", err)
	}

	entries, err := j.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Newest first.
	if entries[0].FileName != "bulk1700000001_1.log" {
		t.Fatalf("unexpected newest entry: %#v", entries[0])
	}
	if entries[1].SessionID != "sess-1" || entries[1].CommandCount != 2 {
		t.Fatalf("unexpected oldest entry: %#v", entries[1])
	}
	if entries[1].Checksum != Checksum(b1.Content()) {
		t.Fatalf("checksum mismatch: %s", entries[1].Checksum)
	}

	n, err := j.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected count 2, got %d", n)
	}
}

func TestRecordRejectsEmptySession(t *testing.T) {
	t.Parallel()

	j := testJournal(t)
	err := j.Record(context.Background(), "", batch.Batch{FileName: "x.log"})
	if err == nil {
		t.Fatal("expected error for empty session id")
	}
}

func TestRecentLimit(t *testing.T) {
	t.Parallel()

	j := testJournal(t)
	for i := 0; i < 5; i++ {
		b := batch.Batch{
			Commands:  []string{"x"},
			StartedAt: time.Unix(1700000000, 0),
			Seq:       uint64(i),
			FileName:  batch.FileName(time.Unix(1700000000, 0), uint64(i)),
		}
		if err := j.Record(context.Background(), "sess", b); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	entries, err := j.Recent(context.Background(), 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestChecksumIsStable(t *testing.T) {
	t.Parallel()

	a := Checksum("bulk: a, b")
	b := Checksum("bulk: a, b")
	c := Checksum("bulk: a, c")
	if a != b {
		t.Fatal("checksum must be deterministic")
	}
	if a == c {
		t.Fatal("different content must hash differently")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

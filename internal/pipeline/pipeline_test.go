package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nvalandra/redraft/internal/papers"
	"github.com/nvalandra/redraft/internal/store"
)

func newJob(id string) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		DocID:     "doc-" + id,
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  "draft.md",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestJobStorePutGet(t *testing.T) {
	s := NewJobStore(time.Hour)
	job := newJob("j1")
	s.Put(job)

	if got := s.Get("j1"); got != job {
		t.Fatalf("Get returned %v", got)
	}
	if got := s.Get("missing"); got != nil {
		t.Fatalf("Get(missing) = %v, want nil", got)
	}
}

func TestJobStoreCleanup(t *testing.T) {
	s := NewJobStore(10 * time.Millisecond)
	stale := newJob("stale")
	stale.UpdatedAt = time.Now().Add(-time.Minute)
	s.Put(stale)

	fresh := newJob("fresh")
	s.Put(fresh)

	s.Cleanup()
	if s.Get("stale") != nil {
		t.Error("expired job survived cleanup")
	}
	if s.Get("fresh") == nil {
		t.Error("fresh job evicted")
	}
}

func TestJobSnapshot(t *testing.T) {
	job := newJob("j1")
	job.SetStatus(StatusFailed, "parse_error")
	job.AddError("boom")

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "parse_error" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if len(snap.Errors) != 1 || snap.Errors[0] != "boom" {
		t.Fatalf("errors = %v", snap.Errors)
	}

	// Snapshot of a clean job serialises an empty, non-nil error list.
	if errs := newJob("j2").Snapshot().Errors; errs == nil || len(errs) != 0 {
		t.Fatalf("clean job errors = %v", errs)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&papers.RetryableError{Err: errors.New("429")}) {
		t.Error("RetryableError not retryable")
	}
	wrapped := errors.Join(errors.New("outer"), &papers.RetryableError{Err: errors.New("inner")})
	if !IsRetryable(wrapped) {
		t.Error("wrapped RetryableError not retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain error retryable")
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		d := Backoff(attempt)
		base := time.Duration(1<<uint(attempt)) * time.Second
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		if d < base || d > base+base/2 {
			t.Errorf("Backoff(%d) = %v, want within [%v, %v]", attempt, d, base, base+base/2)
		}
	}
}

func TestWorkerProcessMarkdown(t *testing.T) {
	docs := store.NewStore(time.Hour)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewWorker(nil, docs, log, false)

	job := newJob("j1")
	job.SetFileData([]byte("# Imported Paper\n\nBody paragraph."))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %s, errors = %v", snap.Status, snap.Errors)
	}
	if snap.Title != "Imported Paper" {
		t.Errorf("title = %q", snap.Title)
	}
	if snap.BlockCount != 2 {
		t.Errorf("block count = %d, want 2", snap.BlockCount)
	}

	sess := docs.Get(job.DocID)
	if sess == nil {
		t.Fatal("no session registered")
	}
	if sess.Title != "Imported Paper" {
		t.Errorf("session title = %q", sess.Title)
	}
	if got := sess.Editor.Doc().PlainText(); got != "Imported Paper\nBody paragraph." {
		t.Errorf("document projection = %q", got)
	}
}

func TestWorkerProcessUnsupportedFile(t *testing.T) {
	docs := store.NewStore(time.Hour)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewWorker(nil, docs, log, false)

	job := newJob("j1")
	job.Filename = "archive.zip"
	job.SetFileData([]byte("zip bytes"))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "unsupported_file" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if docs.Get(job.DocID) != nil {
		t.Fatal("failed import registered a session")
	}
}

func TestWorkerKeepsCallerTitle(t *testing.T) {
	docs := store.NewStore(time.Hour)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewWorker(nil, docs, log, false)

	job := newJob("j1")
	job.Title = "Caller Title"
	job.SetFileData([]byte("# Heading Title\n\nbody"))
	w.Process(context.Background(), job)

	if sess := docs.Get(job.DocID); sess == nil || sess.Title != "Caller Title" {
		t.Fatalf("session = %+v", docs.Get(job.DocID))
	}
}

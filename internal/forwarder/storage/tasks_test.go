package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
)

func TestInsertAndSelectDue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.UnixMilli(1767366245000)

	task, err := store.InsertTask(ctx, sampleRecord("first"), now)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	due, err := store.SelectDue(ctx, now, 10)
	if err != nil {
		t.Fatalf("select due: %v", err)
	}

	if len(due) != 1 || due[0].ID != task.ID {
		t.Fatalf("expected the inserted task to be due, got %+v", due)
	}

	got := due[0]
	if got.Record != sampleRecord("first") {
		t.Fatalf("record round trip mismatch: %+v", got.Record)
	}

	if got.Status != model.StatusPending || got.Attempts != 0 {
		t.Fatalf("unexpected state %s/%d", got.Status, got.Attempts)
	}

	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at %v, want %v", got.CreatedAt, now)
	}
}

func TestRescheduleDefersTask(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.UnixMilli(1767366245000)

	task, err := store.InsertTask(ctx, sampleRecord("retry me"), now)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	next := now.Add(10 * time.Second)
	if err := store.Reschedule(ctx, task.ID, next, now, "status 500"); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	due, err := store.SelectDue(ctx, now.Add(5*time.Second), 10)
	if err != nil {
		t.Fatalf("select due: %v", err)
	}

	if len(due) != 0 {
		t.Fatalf("task must not be due before its backoff elapsed, got %d", len(due))
	}

	due, err = store.SelectDue(ctx, next, 10)
	if err != nil {
		t.Fatalf("select due: %v", err)
	}

	if len(due) != 1 || due[0].Attempts != 1 || due[0].LastError != "status 500" {
		t.Fatalf("unexpected due tasks %+v", due)
	}
}

func TestTerminalTasksAreNotDue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.UnixMilli(1767366245000)

	ok, _ := store.InsertTask(ctx, sampleRecord("ok"), now)
	bad, _ := store.InsertTask(ctx, sampleRecord("bad"), now)

	if err := store.MarkSucceeded(ctx, ok.ID, now); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}

	if err := store.MarkFailed(ctx, bad.ID, now, "target url missing", false); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	due, err := store.SelectDue(ctx, now.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("select due: %v", err)
	}

	if len(due) != 0 {
		t.Fatalf("terminal tasks must not be due, got %d", len(due))
	}

	failed, err := store.GetTask(ctx, bad.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}

	if failed.Status != model.StatusFailed || failed.Attempts != 0 {
		t.Fatalf("unexpected failed task %+v", failed)
	}

	if err := store.Reschedule(ctx, ok.ID, now, now, "late"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("terminal task must not be rescheduled, got %v", err)
	}
}

func TestPruneTerminal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	old := time.UnixMilli(1767366245000)
	recent := old.Add(8 * 24 * time.Hour)

	done, _ := store.InsertTask(ctx, sampleRecord("done"), old)
	_ = store.MarkSucceeded(ctx, done.ID, old)

	pending, _ := store.InsertTask(ctx, sampleRecord("pending"), old)

	fresh, _ := store.InsertTask(ctx, sampleRecord("fresh"), recent)
	_ = store.MarkSucceeded(ctx, fresh.ID, recent)

	pruned, err := store.PruneTerminal(ctx, recent.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}

	if pruned != 1 {
		t.Fatalf("expected 1 pruned task, got %d", pruned)
	}

	if _, err := store.GetTask(ctx, done.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("old terminal task must be gone, got %v", err)
	}

	for _, id := range []uuid.UUID{pending.ID, fresh.ID} {
		if _, err := store.GetTask(ctx, id); err != nil {
			t.Fatalf("task %s must survive: %v", id, err)
		}
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}

	if counts[model.StatusPending] != 1 || counts[model.StatusSucceeded] != 1 || counts[model.StatusFailed] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestPendingTasksSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forwarder.db")
	ctx := context.Background()
	now := time.UnixMilli(1767366245000)

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	task, err := store.InsertTask(ctx, sampleRecord("survivor"), now)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	due, err := reopened.SelectDue(ctx, now, 10)
	if err != nil {
		t.Fatalf("select due: %v", err)
	}

	if len(due) != 1 || due[0].ID != task.ID {
		t.Fatalf("pending task lost across restart: %+v", due)
	}
}

func TestGetTaskUnknown(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetTask(context.Background(), uuid.New()); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

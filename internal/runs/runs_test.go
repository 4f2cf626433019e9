package runs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s, path
}

func TestCreateAndGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	run := NewRun("Ancient Rome")
	if run.Status != StatusPending {
		t.Errorf("new run status = %q", run.Status)
	}
	if err := s.Create(ctx, run); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Topic != "Ancient Rome" {
		t.Errorf("topic = %q", got.Topic)
	}
}

func TestCreateDuplicateFails(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	run := NewRun("topic")
	if err := s.Create(ctx, run); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, run); err == nil {
		t.Error("duplicate Create should fail")
	}
}

func TestUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	run := NewRun("topic")
	if err := s.Create(ctx, run); err != nil {
		t.Fatalf("Create: %v", err)
	}

	run.Status = StatusCompleted
	run.VideoPath = "/out/video.mp4"
	before := run.UpdatedAt
	if err := s.Update(ctx, run); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusCompleted || got.VideoPath != "/out/video.mp4" {
		t.Errorf("update not applied: %+v", got)
	}
	if !got.UpdatedAt.After(before) && !got.UpdatedAt.Equal(before) {
		t.Errorf("UpdatedAt not advanced: %v vs %v", got.UpdatedAt, before)
	}
}

func TestUpdateUnknownRun(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Update(context.Background(), NewRun("ghost"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetUnknownRun(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReloadKeepsLatestSnapshot(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	run := NewRun("topic")
	if err := s.Create(ctx, run); err != nil {
		t.Fatalf("Create: %v", err)
	}
	run.Status = StatusFailed
	run.Error = "render exploded"
	if err := s.Update(ctx, run); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := reloaded.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if got.Status != StatusFailed || got.Error != "render exploded" {
		t.Errorf("reload returned stale snapshot: %+v", got)
	}
}

func TestReloadSkipsTornLine(t *testing.T) {
	s, path := newTestStore(t)
	if err := s.Create(context.Background(), NewRun("topic")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString(`{"id":"torn","topic":"incomp`)
	f.Close()

	reloaded, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reload with torn tail: %v", err)
	}
	list, err := reloaded.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("runs = %d, want 1", len(list))
	}
}

func TestListNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	older := NewRun("first")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := NewRun("second")

	if err := s.Create(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, newer); err != nil {
		t.Fatal(err)
	}

	list, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Topic != "second" {
		t.Errorf("unexpected order: %+v", list)
	}

	limited, _ := s.List(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("limit ignored, got %d runs", len(limited))
	}
}

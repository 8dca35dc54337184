package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pthm-cable/warren/telemetry"
)

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	err := store.SaveRun(context.Background(), RunRecord{ID: "r1"})
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := store.SaveRun(ctx, RunRecord{ID: "b", Seed: 2, StartedAt: start.Add(time.Minute)}); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := store.SaveRun(ctx, RunRecord{ID: "a", Seed: 1, StartedAt: start, FinalRabbits: 12}); err != nil {
		t.Fatalf("save run: %v", err)
	}

	run, ok, err := store.GetRun(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if run.FinalRabbits != 12 || run.SchemaVersion != CurrentSchemaVersion {
		t.Fatalf("unexpected run: %+v", run)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "a" || runs[1].ID != "b" {
		t.Fatalf("expected runs ordered by start time, got %+v", runs)
	}

	if _, ok, _ := store.GetRun(ctx, "missing"); ok {
		t.Fatal("expected missing run")
	}
}

func TestMemoryStoreWindowsAndBookmarks(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for i := 1; i <= 3; i++ {
		stats := telemetry.WindowStats{WindowEndTick: int32(i * 600), Rabbits: 10 * i}
		if err := store.AppendWindow(ctx, "r1", stats); err != nil {
			t.Fatalf("append window: %v", err)
		}
	}
	windows, ok, err := store.GetWindows(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("get windows: ok=%v err=%v", ok, err)
	}
	if len(windows) != 3 || windows[2].Rabbits != 30 {
		t.Fatalf("unexpected windows: %+v", windows)
	}

	// Returned slices are copies
	windows[0].Rabbits = -1
	again, _, _ := store.GetWindows(ctx, "r1")
	if again[0].Rabbits != 10 {
		t.Fatal("store returned aliased window slice")
	}

	bm := telemetry.Bookmark{Type: telemetry.BookmarkExtinction, Tick: 1800, Description: "gone"}
	if err := store.AppendBookmark(ctx, "r1", bm); err != nil {
		t.Fatalf("append bookmark: %v", err)
	}
	bookmarks, ok, err := store.GetBookmarks(ctx, "r1")
	if err != nil || !ok || len(bookmarks) != 1 || bookmarks[0] != bm {
		t.Fatalf("unexpected bookmarks: %+v ok=%v err=%v", bookmarks, ok, err)
	}

	if _, ok, _ := store.GetWindows(ctx, "other"); ok {
		t.Fatal("expected no windows for unknown run")
	}
}

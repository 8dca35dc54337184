package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/pthm-cable/warren/telemetry"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]RunRecord
	windows     map[string][]telemetry.WindowStats
	bookmarks   map[string][]telemetry.Bookmark
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.runs = make(map[string]RunRecord)
	s.windows = make(map[string][]telemetry.WindowStats)
	s.bookmarks = make(map[string][]telemetry.Bookmark)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if run.SchemaVersion == 0 {
		run.SchemaVersion = CurrentSchemaVersion
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

func (s *MemoryStore) AppendWindow(_ context.Context, runID string, stats telemetry.WindowStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.windows[runID] = append(s.windows[runID], stats)
	return nil
}

func (s *MemoryStore) GetWindows(_ context.Context, runID string) ([]telemetry.WindowStats, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	windows, ok := s.windows[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]telemetry.WindowStats(nil), windows...), true, nil
}

func (s *MemoryStore) AppendBookmark(_ context.Context, runID string, bookmark telemetry.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.bookmarks[runID] = append(s.bookmarks[runID], bookmark)
	return nil
}

func (s *MemoryStore) GetBookmarks(_ context.Context, runID string) ([]telemetry.Bookmark, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookmarks, ok := s.bookmarks[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]telemetry.Bookmark(nil), bookmarks...), true, nil
}

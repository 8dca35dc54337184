// Package storage persists run summaries, telemetry windows and bookmarks.
package storage

import (
	"context"
	"time"

	"github.com/pthm-cable/warren/telemetry"
)

// RunRecord summarizes one simulation run.
type RunRecord struct {
	SchemaVersion int `json:"schema_version"`

	ID         string    `json:"id"`
	Seed       int64     `json:"seed"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	Ticks        int32   `json:"ticks"`
	SimTimeSec   float64 `json:"sim_time"`
	FinalRabbits int     `json:"final_rabbits"`
	PeakRabbits  int     `json:"peak_rabbits"`
	Extinct      bool    `json:"extinct"`

	ConfigYAML []byte `json:"config_yaml,omitempty"`
}

// Store defines persistence operations for simulation runs.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]RunRecord, error)
	AppendWindow(ctx context.Context, runID string, stats telemetry.WindowStats) error
	GetWindows(ctx context.Context, runID string) ([]telemetry.WindowStats, bool, error)
	AppendBookmark(ctx context.Context, runID string, bookmark telemetry.Bookmark) error
	GetBookmarks(ctx context.Context, runID string) ([]telemetry.Bookmark, bool, error)
}

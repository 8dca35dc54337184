package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/warren/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction       BookmarkType = "extinction"
	BookmarkPopulationCrash  BookmarkType = "population_crash"
	BookmarkPopulationBoom   BookmarkType = "population_boom"
	BookmarkStablePopulation BookmarkType = "stable_population"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the population history.
type BookmarkDetector struct {
	cfg config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	lastRabbits        int
	seen               bool
	recentPeak         int // peak count since the last crash
	recentMin          int // minimum count since the last boom
	haveMin            bool
	stableWindowsCount int // consecutive windows with low variation
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, cfg config.BookmarksConfig) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable population detection
	}
	if cfg.StablePopulation.StableWindows < 1 {
		cfg.StablePopulation.StableWindows = 1
	}
	return &BookmarkDetector{
		cfg:         cfg,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.seen {
		if b := bd.checkExtinction(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPopulationCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPopulationBoom(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	if b := bd.checkStablePopulation(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	bd.seen = true
	bd.lastRabbits = stats.Rabbits

	if stats.Rabbits > bd.recentPeak {
		bd.recentPeak = stats.Rabbits
	}
	if !bd.haveMin || stats.Rabbits < bd.recentMin {
		bd.recentMin = stats.Rabbits
		bd.haveMin = true
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n of the newest history entries, oldest first.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	count := bd.historyIdx
	if bd.historyFull {
		count = bd.historySize
	}
	n = min(n, count)
	out := make([]WindowStats, n)
	for i := 0; i < n; i++ {
		idx := (bd.historyIdx - n + i + bd.historySize) % bd.historySize
		out[i] = bd.history[idx]
	}
	return out
}

func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	if stats.Rabbits != 0 || bd.lastRabbits == 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkExtinction,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population died out after %.1fs (last window had %d)", stats.SimTimeSec, bd.lastRabbits),
	}
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 || stats.Rabbits == 0 {
		return nil
	}

	cfg := bd.cfg.PopulationCrash
	dropPercent := 1.0 - float64(stats.Rabbits)/float64(bd.recentPeak)
	if dropPercent > cfg.DropPercent && stats.Rabbits <= bd.recentPeak-cfg.MinDrop {
		// Reset peak after crash
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Rabbits

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Rabbits),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPopulationBoom(stats WindowStats) *Bookmark {
	if !bd.haveMin || bd.recentMin == 0 {
		return nil
	}

	cfg := bd.cfg.PopulationBoom
	threshold := float64(bd.recentMin) * cfg.Multiplier
	if float64(stats.Rabbits) >= threshold && stats.Rabbits >= cfg.MinFinal {
		// Reset the minimum after triggering
		oldMin := bd.recentMin
		bd.recentMin = stats.Rabbits

		return &Bookmark{
			Type:        BookmarkPopulationBoom,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population boomed from %d to %d", oldMin, stats.Rabbits),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStablePopulation(stats WindowStats) *Bookmark {
	cfg := bd.cfg.StablePopulation
	if stats.Rabbits < cfg.MinRabbits {
		bd.stableWindowsCount = 0
		return nil
	}

	window := append(bd.recent(3), stats)
	if len(window) < 4 {
		return nil
	}

	counts := make([]float64, len(window))
	for i, w := range window {
		counts[i] = float64(w.Rabbits)
	}
	mean, std := stat.PopMeanStdDev(counts, nil)
	if mean > 0 && std/mean < cfg.CVThreshold {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == cfg.StableWindows { // trigger exactly once per stable stretch
		return &Bookmark{
			Type:        BookmarkStablePopulation,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable population around %.0f rabbits over %d windows", mean, cfg.StableWindows),
		}
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/pthm-cable/warren/config"
	"github.com/pthm-cable/warren/game"
	"github.com/pthm-cable/warren/storage"
)

// assignments collects repeated -set NAME=VALUE flags.
type assignments map[string]string

func (a assignments) String() string {
	parts := make([]string, 0, len(a))
	for k, v := range a {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (a assignments) Set(s string) error {
	name, value, err := config.ParseAssignment(s)
	if err != nil {
		return err
	}
	a[name] = value
	return nil
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in simulation seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	realtime := flag.Bool("realtime", false, "Step from the wall clock instead of a fixed dt")
	frameInterval := flag.Duration("frame-interval", time.Second/60, "Wall-clock interval between realtime steps")
	progressEvery := flag.Int("progress-every", 10000, "Log progress every N ticks (0 = never)")
	stopOnExtinction := flag.Bool("stop-on-extinction", false, "Stop when the last rabbit dies")
	storeKind := flag.String("store", "", "Run store backend: memory or sqlite (empty = none)")
	storePath := flag.String("store-path", storage.DefaultSQLitePath, "SQLite database path for -store sqlite")
	sets := assignments{}
	flag.Var(sets, "set", "Override a parameter, NAME=VALUE (repeatable)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	opts := runOptions{
		configPath:       *configPath,
		sets:             sets,
		seed:             *seed,
		logStats:         *logStats,
		statsWindow:      *statsWindow,
		outputDir:        *outputDir,
		maxTicks:         *maxTicks,
		stepsPerUpdate:   *stepsPerUpdate,
		realtime:         *realtime,
		frameInterval:    *frameInterval,
		progressEvery:    *progressEvery,
		stopOnExtinction: *stopOnExtinction,
		storeKind:        *storeKind,
		storePath:        *storePath,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

type runOptions struct {
	configPath       string
	sets             map[string]string
	seed             int64
	logStats         bool
	statsWindow      float64
	outputDir        string
	maxTicks         int
	stepsPerUpdate   int
	realtime         bool
	frameInterval    time.Duration
	progressEvery    int
	stopOnExtinction bool
	storeKind        string
	storePath        string
}

// validate rejects flag values the int32 tick counter cannot honour.
func (o runOptions) validate() error {
	if o.stepsPerUpdate < 1 {
		return fmt.Errorf("-steps-per-update must be >= 1, got %d", o.stepsPerUpdate)
	}
	if o.maxTicks < 0 {
		return fmt.Errorf("-max-ticks must be >= 0, got %d", o.maxTicks)
	}
	// the last update may run past maxTicks by up to stepsPerUpdate-1 ticks
	if limit := math.MaxInt32 - o.stepsPerUpdate + 1; o.maxTicks > 0 && o.maxTicks > limit {
		return fmt.Errorf("-max-ticks must be <= %d with -steps-per-update %d, got %d", limit, o.stepsPerUpdate, o.maxTicks)
	}
	if o.progressEvery < 0 || o.progressEvery > math.MaxInt32 {
		return fmt.Errorf("-progress-every must be in [0, %d], got %d", math.MaxInt32, o.progressEvery)
	}
	return nil
}

func run(ctx context.Context, opts runOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if len(opts.sets) > 0 {
		params, err := config.ParseParams(opts.sets)
		if err != nil {
			return err
		}
		if err := cfg.Apply(params); err != nil {
			return err
		}
	}

	rngSeed := opts.seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	var store storage.Store
	if opts.storeKind != "" {
		backend, err := storage.ParseBackend(opts.storeKind)
		if err != nil {
			return err
		}
		store, err = storage.Open(ctx, storage.Options{Backend: backend, Path: opts.storePath})
		if err != nil {
			return err
		}
		defer func() {
			if err := storage.Close(store); err != nil {
				slog.Error("failed to close store", "error", err)
			}
		}()
	}

	runID := uuid.NewString()
	g, err := game.NewGameWithOptions(game.Options{
		Seed:           rngSeed,
		Config:         cfg,
		LogStats:       opts.logStats,
		StatsWindowSec: opts.statsWindow,
		OutputDir:      opts.outputDir,
		StepsPerUpdate: opts.stepsPerUpdate,
		Store:          store,
		RunID:          runID,
	})
	if err != nil {
		return fmt.Errorf("creating game: %w", err)
	}
	defer func() {
		if err := g.Unload(); err != nil {
			slog.Error("failed to finish run", "error", err)
		}
	}()

	w, h := g.Size()
	slog.Info("starting simulation",
		"run", runID,
		"seed", rngSeed,
		"width", w,
		"height", h,
		"rabbits", g.RabbitCount(),
		"realtime", opts.realtime,
		"max_ticks", opts.maxTicks,
		"steps_per_update", opts.stepsPerUpdate,
	)

	started := time.Now()
	nextProgress := int64(opts.progressEvery)
	done := func(g *game.Game) bool {
		tick := g.Tick()
		if opts.progressEvery > 0 && int64(tick) >= nextProgress {
			nextProgress += int64(opts.progressEvery)
			logProgress(g, started)
		}
		if opts.stopOnExtinction && g.RabbitCount() == 0 {
			slog.Info("population extinct", "tick", tick)
			return true
		}
		if opts.maxTicks > 0 && int(tick) >= opts.maxTicks {
			slog.Info("max ticks reached", "tick", tick)
			return true
		}
		return false
	}

	if opts.realtime {
		err := g.RunRealtime(ctx, opts.frameInterval, done)
		if ctx.Err() != nil {
			slog.Info("interrupted", "tick", g.Tick())
			return nil
		}
		return err
	}

	for {
		if ctx.Err() != nil {
			slog.Info("interrupted", "tick", g.Tick())
			return nil
		}
		g.UpdateHeadless()
		if done(g) {
			break
		}
	}

	logProgress(g, started)
	return nil
}

func logProgress(g *game.Game, started time.Time) {
	elapsed := time.Since(started)
	tps := 0.0
	if elapsed > 0 {
		tps = float64(g.Tick()) / elapsed.Seconds()
	}
	slog.Info("progress",
		"tick", humanize.Comma(int64(g.Tick())),
		"sim_time", fmt.Sprintf("%.1fs", g.SimTime()),
		"rabbits", humanize.Comma(int64(g.RabbitCount())),
		"ground_total", humanize.FtoaWithDigits(g.GroundTotal(), 2),
		"ticks_per_sec", humanize.FtoaWithDigits(tps, 1),
		"started", humanize.Time(started),
	)
}

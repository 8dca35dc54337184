// Package game wires the ground field, rabbit population and telemetry into a
// steppable simulation.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/warren/config"
	"github.com/pthm-cable/warren/storage"
	"github.com/pthm-cable/warren/systems"
	"github.com/pthm-cable/warren/telemetry"
)

// Options configures a Game.
type Options struct {
	Seed           int64
	Config         *config.Config // nil = embedded defaults
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string  // empty = no CSV output
	StepsPerUpdate int     // ticks per UpdateHeadless call

	// Store receives run summaries, windows and bookmarks when set.
	Store storage.Store
	RunID string

	StatsCallback func(telemetry.WindowStats)
}

// AgentView is a read-only copy of a rabbit's state.
type AgentView struct {
	ID       uint32
	ParentID uint32
	X, Y     int
	Life     float64
}

// Game holds the complete simulation state.
type Game struct {
	cfg  *config.Config
	rng  *rand.Rand
	seed int64

	world   *ecs.World
	ground  *systems.GroundField
	pop     *systems.Population
	rabbits *systems.RabbitSystem
	bands   *bandPool

	// Telemetry
	collector        *telemetry.Collector
	lifetimeTracker  *telemetry.LifetimeTracker
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	statsCallback    func(telemetry.WindowStats)
	logStats         bool
	statsWindowSec   float64

	store storage.Store
	run   storage.RunRecord

	// State
	tick           int32
	simTime        float64
	paused         atomic.Bool
	clock          Clock
	stepsPerUpdate int
	peakRabbits    int
	started        bool // Setup has run at least once

	// Scratch buffers reused across ticks
	snapshot []ecs.Entity
	lives    []float64
}

// NewGameWithOptions creates a game and runs Setup.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	world := ecs.NewWorld()
	grid := systems.NewGrid(cfg.World.Width, cfg.World.Height)

	g := &Game{
		cfg:            cfg,
		seed:           opts.Seed,
		rng:            rand.New(rand.NewSource(opts.Seed)),
		world:          world,
		ground:         systems.NewGroundField(grid.W, grid.H),
		pop:            systems.NewPopulation(world, grid),
		statsCallback:  opts.StatsCallback,
		logStats:       opts.LogStats,
		statsWindowSec: statsWindow,
		store:          opts.Store,
		stepsPerUpdate: steps,
	}
	g.rabbits = systems.NewRabbitSystem(g.pop, g.ground, g.rng)
	g.bands = newBandPool(g.ground, cfg.Ground.Workers)
	g.perfCollector = telemetry.NewPerfCollector()
	g.lifetimeTracker = telemetry.NewLifetimeTracker()

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, err
	}

	if g.store != nil {
		if err := g.store.Init(context.Background()); err != nil {
			om.Close()
			return nil, fmt.Errorf("init store: %w", err)
		}
	}
	g.run.ID = opts.RunID
	if g.run.ID == "" {
		g.run.ID = uuid.NewString()
	}

	g.Setup()
	return g, nil
}

// Config returns the live configuration. Use Configure to change parameters.
func (g *Game) Config() *config.Config { return g.cfg }

// Seed returns the RNG seed the game was created with.
func (g *Game) Seed() int64 { return g.seed }

// Size returns the grid dimensions.
func (g *Game) Size() (int, int) { return g.ground.W, g.ground.H }

// Tick returns the number of steps since the last Setup.
func (g *Game) Tick() int32 { return g.tick }

// SimTime returns simulated seconds since the last Setup.
func (g *Game) SimTime() float64 { return g.simTime }

// RabbitCount returns the number of live rabbits.
func (g *Game) RabbitCount() int { return g.pop.Len() }

// GroundLifeAt returns the ground life at (x, y), or 0 outside the grid.
func (g *Game) GroundLifeAt(x, y int) float64 { return g.ground.At(x, y) }

// GroundTotal returns the summed ground life.
func (g *Game) GroundTotal() float64 { return g.ground.Total() }

// AgentAt returns the rabbit at (x, y), if any.
func (g *Game) AgentAt(x, y int) (AgentView, bool) {
	e, ok := g.pop.At(x, y)
	if !ok {
		return AgentView{}, false
	}
	pos, energy, org := g.pop.Get(e)
	return AgentView{ID: org.ID, ParentID: org.ParentID, X: pos.X, Y: pos.Y, Life: energy.Life}, true
}

// Agents returns a copy of every live rabbit, ordered by position.
func (g *Game) Agents() []AgentView {
	out := make([]AgentView, 0, g.pop.Len())
	for y := 0; y < g.pop.H; y++ {
		for x := 0; x < g.pop.W; x++ {
			if a, ok := g.AgentAt(x, y); ok {
				out = append(out, a)
			}
		}
	}
	return out
}

// Parameters lists the editable parameters with their current values.
func (g *Game) Parameters() []config.Parameter {
	return g.cfg.Parameters()
}

// Configure applies named parameters. Nothing is applied if any entry is
// invalid. The next Step uses the new values; INIT_NUM_RABBITS takes effect
// on the next Setup.
func (g *Game) Configure(params map[string]float64) error {
	if err := g.cfg.Apply(params); err != nil {
		return err
	}
	g.ground.SetParams(g.cfg.Ground)
	slog.Debug("parameters updated", "count", len(params), "tick", g.tick)
	return nil
}

// Pause stops Step from advancing the simulation. Pause, Resume and Paused
// are safe to call from any goroutine; every other method belongs to the
// goroutine driving the game.
func (g *Game) Pause() { g.paused.Store(true) }

// Resume re-enables stepping. The realtime clock restarts so the wall time
// spent paused is not folded into the next step.
func (g *Game) Resume() {
	g.clock.Reset()
	g.paused.Store(false)
}

// Paused reports whether the simulation is paused.
func (g *Game) Paused() bool { return g.paused.Load() }

// Unload flushes the run record and releases output files.
func (g *Game) Unload() error {
	var firstErr error
	if err := g.finishRun(context.Background()); err != nil {
		firstErr = err
	}
	if err := g.outputManager.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	g.outputManager = nil
	return firstErr
}

package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/storage"
	"github.com/pthm-cable/warren/telemetry"
)

// Setup resets the world: fresh random ground, an empty population and
// INIT_NUM_RABBITS rabbits at distinct random cells. It can be called again
// at any time to restart with the current parameters; the replaced run is
// closed out first and the restart gets a new run ID.
func (g *Game) Setup() {
	cfg := g.cfg
	if g.started {
		g.retireRun()
	}
	g.started = true

	g.tick = 0
	g.simTime = 0
	g.peakRabbits = 0
	g.pop.Clear()

	g.ground.SetParams(cfg.Ground)
	g.ground.Randomize(g.rng)

	g.collector = telemetry.NewCollector(g.statsWindowSec)
	g.lifetimeTracker.Reset()
	g.perfCollector.Reset()
	g.bookmarkDetector = telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Bookmarks)

	g.spawnInitialPopulation()
	g.peakRabbits = g.pop.Len()

	g.run = storage.RunRecord{
		ID:        g.run.ID,
		Seed:      g.seed,
		Width:     g.ground.W,
		Height:    g.ground.H,
		StartedAt: time.Now().UTC(),
	}

	slog.Debug("setup complete",
		"width", g.ground.W,
		"height", g.ground.H,
		"rabbits", g.pop.Len(),
	)
}

// retireRun ends the run a repeated Setup is about to wipe. Living rabbits
// get lifetime rows stamped with the current tick, the summary is saved and
// a fresh ID is drawn so the next run's windows do not mix with this one's.
func (g *Game) retireRun() {
	g.pop.Each(func(_ ecs.Entity, _ *components.Position, _ *components.Energy, org *components.Organism) {
		stats := g.lifetimeTracker.Get(org.ID)
		if stats == nil {
			return
		}
		g.lifetimeTracker.UpdateSurvivalTime(org.ID, g.simTime)
		if err := g.outputManager.WriteLifetime(stats.Record(org.ID, g.tick)); err != nil {
			slog.Error("failed to write lifetime", "error", err)
		}
	})
	if err := g.saveRun(context.Background()); err != nil {
		slog.Error("failed to save replaced run", "run", g.run.ID, "error", err)
	}
	g.run.ID = uuid.NewString()
}

// spawnInitialPopulation places rabbits at distinct uniform-random cells.
// Sparse populations use rejection sampling; dense ones draw from a
// permutation so the loop always terminates.
func (g *Game) spawnInitialPopulation() {
	cfg := g.cfg
	cells := g.ground.Cells()
	n := cfg.Population.Initial
	if n > cells {
		slog.Warn("initial population exceeds grid, capping", "requested", n, "cells", cells)
		n = cells
	}

	if n <= cells/2 {
		for g.pop.Len() < n {
			x := g.rng.Intn(g.ground.W)
			y := g.rng.Intn(g.ground.H)
			if g.pop.Occupied(x, y) {
				continue
			}
			g.spawnRabbit(x, y, cfg.Rabbit.FullLife, 0)
		}
		return
	}

	for _, i := range g.rng.Perm(cells)[:n] {
		x, y := g.ground.Coord(i)
		g.spawnRabbit(x, y, cfg.Rabbit.FullLife, 0)
	}
}

// spawnRabbit creates a rabbit and registers it with the lifetime tracker.
func (g *Game) spawnRabbit(x, y int, life float64, parentID uint32) (ecs.Entity, bool) {
	e, ok := g.pop.Spawn(x, y, life, parentID, g.tick)
	if !ok {
		return e, false
	}
	_, _, org := g.pop.Get(e)
	g.lifetimeTracker.Register(org.ID, parentID, g.tick, g.simTime, life)
	return e, true
}

// removeIfDead removes a rabbit whose life has dropped below zero.
// It reports whether the rabbit was removed.
func (g *Game) removeIfDead(e ecs.Entity) bool {
	_, energy, org := g.pop.Get(e)
	if energy.Alive() {
		return false
	}

	g.collector.Record(telemetry.NewDeathEvent(g.tick, org.ID, energy.Life))

	if stats := g.lifetimeTracker.Get(org.ID); stats != nil {
		g.lifetimeTracker.UpdateSurvivalTime(org.ID, g.simTime)
		if err := g.outputManager.WriteLifetime(stats.Record(org.ID, g.tick)); err != nil {
			slog.Error("failed to write lifetime", "error", err)
		}
	}
	g.lifetimeTracker.Remove(org.ID)
	g.pop.Remove(e)
	return true
}

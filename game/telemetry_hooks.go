package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/storage"
	"github.com/pthm-cable/warren/systems"
	"github.com/pthm-cable/warren/telemetry"
)

// recordOutcome feeds one rabbit cycle into the collector and lifetime tracker.
func (g *Game) recordOutcome(e ecs.Entity, out systems.Outcome) {
	_, energy, org := g.pop.Get(e)
	id := org.ID

	switch out.Action {
	case systems.ActionBreed:
		_, childEnergy, child := g.pop.Get(out.Child)
		g.lifetimeTracker.Register(child.ID, id, g.tick, g.simTime, childEnergy.Life)
		g.lifetimeTracker.RecordChild(id)
		g.collector.Record(telemetry.NewBirthEvent(g.tick, child.ID, id))
	case systems.ActionForage:
		g.lifetimeTracker.RecordForage(id, out.Eaten)
		g.lifetimeTracker.UpdateLife(id, energy.Life)
		g.collector.Record(telemetry.NewForageEvent(g.tick, id, out.Eaten))
	case systems.ActionMove:
		g.lifetimeTracker.RecordMove(id)
		g.collector.Record(telemetry.NewMoveEvent(g.tick, id))
	case systems.ActionBreedBlocked:
		g.collector.Record(telemetry.NewBreedBlockedEvent(g.tick, id))
	case systems.ActionStuck:
		g.collector.Record(telemetry.NewStuckEvent(g.tick, id))
	}
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.simTime) {
		return
	}

	g.lives = g.lives[:0]
	g.pop.Each(func(_ ecs.Entity, _ *components.Position, energy *components.Energy, _ *components.Organism) {
		g.lives = append(g.lives, energy.Life)
	})
	ground := telemetry.GroundSample{
		Total:    g.ground.Total(),
		Cells:    g.ground.Cells(),
		Depleted: g.ground.CountBelow(g.cfg.Rabbit.MinEatInterval),
	}

	stats := g.collector.Flush(g.tick, g.simTime, g.lives, ground, g.lifetimeTracker.ActiveLineageCount())
	perfStats := g.perfCollector.Stats()
	g.perfCollector.Reset()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	g.persistWindow(stats)

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		g.persistBookmark(bm)
	}
}

func (g *Game) persistWindow(stats telemetry.WindowStats) {
	if g.store == nil {
		return
	}
	if err := g.store.AppendWindow(context.Background(), g.run.ID, stats); err != nil {
		slog.Error("failed to store window", "run", g.run.ID, "error", err)
	}
}

func (g *Game) persistBookmark(bm telemetry.Bookmark) {
	if g.store == nil {
		return
	}
	if err := g.store.AppendBookmark(context.Background(), g.run.ID, bm); err != nil {
		slog.Error("failed to store bookmark", "run", g.run.ID, "error", err)
	}
}

// Summary returns the run record as of the current tick.
func (g *Game) Summary() storage.RunRecord {
	run := g.run
	run.Ticks = g.tick
	run.SimTimeSec = g.simTime
	run.FinalRabbits = g.pop.Len()
	run.PeakRabbits = g.peakRabbits
	run.Extinct = g.pop.Len() == 0
	return run
}

// finishRun stops the ground workers and saves the run summary.
func (g *Game) finishRun(ctx context.Context) error {
	g.bands.stop()
	return g.saveRun(ctx)
}

// saveRun writes the run summary to the store, if one is attached.
func (g *Game) saveRun(ctx context.Context) error {
	if g.store == nil {
		return nil
	}

	run := g.Summary()
	run.FinishedAt = time.Now().UTC()
	cfgYAML, err := g.cfg.YAML()
	if err != nil {
		return err
	}
	run.ConfigYAML = cfgYAML

	if err := g.store.SaveRun(ctx, run); err != nil {
		return err
	}
	slog.Info("run saved", "run", run.ID, "ticks", run.Ticks, "rabbits", run.FinalRabbits)
	return nil
}

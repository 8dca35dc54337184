package game

import (
	"github.com/pthm-cable/warren/telemetry"
)

// Step advances the simulation by dt seconds.
//
// The ground pass runs first and completes before any rabbit acts. Rabbits
// alive at the start of the tick are then cycled once each; children born
// during the tick wait for the next one. A rabbit whose life falls below zero
// is removed right after its own cycle, freeing its cell for rabbits cycled
// later in the same tick.
func (g *Game) Step(dt float64) {
	if g.paused.Load() {
		return
	}
	if dt < 0 {
		dt = 0
	}

	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseGround)
	g.bands.step(dt)

	g.perfCollector.StartPhase(telemetry.PhaseRabbits)
	rabbitCfg := &g.cfg.Rabbit
	g.snapshot = g.pop.Snapshot(g.snapshot[:0])
	cycled := 0
	for _, e := range g.snapshot {
		if !g.pop.Alive(e) {
			continue
		}
		cycled++
		out := g.rabbits.Cycle(e, rabbitCfg, dt, g.tick)
		g.recordOutcome(e, out)

		_, energy, _ := g.pop.Get(e)
		if !energy.Alive() {
			g.perfCollector.StartPhase(telemetry.PhaseCleanup)
			g.removeIfDead(e)
			g.perfCollector.StartPhase(telemetry.PhaseRabbits)
		}
	}

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.tick++
	g.simTime += dt
	if n := g.pop.Len(); n > g.peakRabbits {
		g.peakRabbits = n
	}
	g.flushTelemetry()

	g.perfCollector.EndTick(cycled, g.ground.Cells())
}

// UpdateHeadless runs StepsPerUpdate fixed-size steps of physics.dt seconds.
func (g *Game) UpdateHeadless() {
	dt := g.cfg.Physics.DT
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.Step(dt)
	}
}

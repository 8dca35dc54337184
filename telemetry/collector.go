package telemetry

// Collector accumulates events within time windows and produces WindowStats.
// Windows are measured in simulation seconds so variable-dt realtime runs
// and fixed-step headless runs share the same cadence.
type Collector struct {
	windowDurationSec float64

	// Current window tracking
	windowStartTick int32
	windowStartTime float64

	// Event counters for current window
	births       int
	deaths       int
	forages      int
	foraged      float64
	moves        int
	stuck        int
	breedBlocked int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
func NewCollector(windowDurationSec float64) *Collector {
	if windowDurationSec <= 0 {
		windowDurationSec = 1
	}
	return &Collector{windowDurationSec: windowDurationSec}
}

// Record counts a single event.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventBirth:
		c.births++
	case EventDeath:
		c.deaths++
	case EventForage:
		c.forages++
		c.foraged += ev.Amount
	case EventMove:
		c.moves++
	case EventBreedBlocked:
		c.breedBlocked++
	case EventStuck:
		c.stuck++
	}
}

// ShouldFlush returns true once the current window has covered its duration.
func (c *Collector) ShouldFlush(simTime float64) bool {
	return simTime-c.windowStartTime >= c.windowDurationSec
}

// GroundSample summarizes the ground field at window end.
type GroundSample struct {
	Total    float64
	Cells    int
	Depleted int // cells at or below the forage threshold
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller must provide:
// - tick, simTime: the current simulation position
// - lives: life of every live rabbit, for the distribution columns
// - ground: ground field totals
// - activeLineages: number of distinct founders among live rabbits
func (c *Collector) Flush(tick int32, simTime float64, lives []float64, ground GroundSample, activeLineages int) WindowStats {
	life := ComputeLifeStats(lives)

	var groundMean, depleted float64
	if ground.Cells > 0 {
		groundMean = ground.Total / float64(ground.Cells)
		depleted = float64(ground.Depleted) / float64(ground.Cells)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   tick,
		SimTimeSec:      simTime,

		Rabbits: len(lives),

		Births:       c.births,
		Deaths:       c.deaths,
		Forages:      c.forages,
		Foraged:      c.foraged,
		Moves:        c.moves,
		Stuck:        c.stuck,
		BreedBlocked: c.breedBlocked,

		LifeMean: life.Mean,
		LifeStd:  life.Std,
		LifeP10:  life.P10,
		LifeP50:  life.P50,
		LifeP90:  life.P90,

		GroundTotal:    ground.Total,
		GroundMean:     groundMean,
		GroundDepleted: depleted,

		ActiveLineages: activeLineages,
	}

	// Reset for next window
	c.windowStartTick = tick
	c.windowStartTime = simTime
	c.births = 0
	c.deaths = 0
	c.forages = 0
	c.foraged = 0
	c.moves = 0
	c.stuck = 0
	c.breedBlocked = 0

	return stats
}

// WindowDurationSec returns the simulation seconds per window.
func (c *Collector) WindowDurationSec() float64 {
	return c.windowDurationSec
}

package systems

import (
	"math/rand"

	"github.com/pthm-cable/warren/config"
)

// GroundField is a dense grid of regrowing resource in [0,1].
// Each cell grows from its own life and the sum of its neighbors' life,
// capped per second by MaxGrowFactor.
type GroundField struct {
	Grid

	// Current life per cell, row-major.
	Life []float64

	// Parameters
	MinSelfGrowFactor  float64
	SelfGrowFactor     float64
	AdjacentGrowFactor float64
	MaxGrowFactor      float64

	// Sweep updates in place in raster order; otherwise neighbors are read
	// from a pre-tick snapshot.
	Sweep bool

	// Scratch buffer holding the pre-tick snapshot
	prev []float64
}

// NewGroundField creates a ground field with every cell at zero.
func NewGroundField(w, h int) *GroundField {
	g := NewGrid(w, h)
	return &GroundField{
		Grid: g,
		Life: make([]float64, g.Cells()),
		prev: make([]float64, g.Cells()),

		// Default parameters - tune via SetParams
		MinSelfGrowFactor:  0.5,
		SelfGrowFactor:     0.05,
		AdjacentGrowFactor: 0.25,
		MaxGrowFactor:      0.1,
	}
}

// SetParams configures ground growth from config. Safe to call between ticks.
func (gf *GroundField) SetParams(cfg config.GroundConfig) {
	gf.MinSelfGrowFactor = cfg.MinSelfGrowFactor
	gf.SelfGrowFactor = cfg.SelfGrowFactor
	gf.AdjacentGrowFactor = cfg.AdjacentGrowFactor
	gf.MaxGrowFactor = cfg.MaxGrowFactor
	gf.Sweep = cfg.UpdateMode == config.UpdateSweep
}

// Randomize sets every cell to an independent uniform value in [0,1).
func (gf *GroundField) Randomize(rng *rand.Rand) {
	for i := range gf.Life {
		gf.Life[i] = rng.Float64()
	}
}

// Fill sets every cell to v.
func (gf *GroundField) Fill(v float64) {
	for i := range gf.Life {
		gf.Life[i] = v
	}
}

// At returns the life at (x, y), or 0 outside the grid.
func (gf *GroundField) At(x, y int) float64 {
	if !gf.InBounds(x, y) {
		return 0
	}
	return gf.Life[gf.Index(x, y)]
}

// Set overwrites the life at (x, y), clamped to [0,1]. Out-of-bounds writes
// are ignored.
func (gf *GroundField) Set(x, y int, v float64) {
	if !gf.InBounds(x, y) {
		return
	}
	gf.Life[gf.Index(x, y)] = clamp01(v)
}

// Extract removes up to amount from (x, y) and returns what was removed.
// The cell never drops below zero.
func (gf *GroundField) Extract(x, y int, amount float64) float64 {
	if amount <= 0 || !gf.InBounds(x, y) {
		return 0
	}
	i := gf.Index(x, y)
	avail := gf.Life[i]
	take := min(avail, amount)
	gf.Life[i] = avail - take
	if gf.Life[i] <= 0 {
		gf.Life[i] = 0
	}
	return take
}

// Step advances every cell by dt seconds.
func (gf *GroundField) Step(dt float64) {
	if gf.Sweep {
		gf.CycleRows(gf.Life, 0, gf.H, dt)
		return
	}
	gf.Snapshot()
	gf.CycleRows(gf.prev, 0, gf.H, dt)
}

// Snapshot copies current life into the pre-tick buffer and returns it.
// Callers that split CycleRows across workers must take the snapshot first.
func (gf *GroundField) Snapshot() []float64 {
	copy(gf.prev, gf.Life)
	return gf.prev
}

// CycleRows applies the growth rule to rows [y0, y1), reading neighbor and
// own life from src. Passing gf.Life as src gives in-place sweep semantics.
func (gf *GroundField) CycleRows(src []float64, y0, y1 int, dt float64) {
	for y := y0; y < y1; y++ {
		row := y * gf.W
		for x := 0; x < gf.W; x++ {
			i := row + x
			adjacent := gf.NeighborSum(src, x, y)
			gf.Life[i] = gf.grow(src[i], adjacent, dt)
		}
	}
}

// Cycle applies the growth rule to a single cell against the current field.
func (gf *GroundField) Cycle(x, y int, dt float64) {
	if !gf.InBounds(x, y) {
		return
	}
	i := gf.Index(x, y)
	gf.Life[i] = gf.grow(gf.Life[i], gf.NeighborSum(gf.Life, x, y), dt)
}

// grow returns the new life for a cell. Growth is never negative for
// non-negative inputs, so only the upper bound is clamped.
func (gf *GroundField) grow(life, adjacent, dt float64) float64 {
	growth := gf.AdjacentGrowFactor * adjacent * dt
	growth += gf.SelfGrowFactor * max(gf.MinSelfGrowFactor, life) * dt
	growth = min(growth, gf.MaxGrowFactor*dt)

	life += growth
	if life >= 1.0 {
		life = 1.0
	}
	return life
}

// Total returns the summed life of all cells.
func (gf *GroundField) Total() float64 {
	var sum float64
	for _, v := range gf.Life {
		sum += v
	}
	return sum
}

// CountBelow returns how many cells hold at most threshold.
func (gf *GroundField) CountBelow(threshold float64) int {
	n := 0
	for _, v := range gf.Life {
		if v <= threshold {
			n++
		}
	}
	return n
}

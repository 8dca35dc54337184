package telemetry

import (
	"log/slog"
	"time"
)

// Phase identifies a timed section of a simulation step.
type Phase uint8

const (
	PhaseGround Phase = iota
	PhaseRabbits
	PhaseCleanup
	PhaseTelemetry
	numPhases
)

func (p Phase) String() string {
	switch p {
	case PhaseGround:
		return "ground"
	case PhaseRabbits:
		return "rabbits"
	case PhaseCleanup:
		return "cleanup"
	case PhaseTelemetry:
		return "telemetry"
	}
	return "unknown"
}

// PerfCollector accumulates step timings and work counts between flushes.
// The game flushes it once per telemetry window, so every PerfStats covers
// exactly the ticks of one window.
type PerfCollector struct {
	// current tick
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
	spent      [numPhases]time.Duration

	// accumulated since the last Reset
	ticks        int
	tickTotal    time.Duration
	tickMin      time.Duration
	tickMax      time.Duration
	phaseTotal   [numPhases]time.Duration
	rabbitCycles int64
	groundCells  int64

	lastFrame  time.Time
	frames     int
	frameTotal time.Duration
}

// NewPerfCollector returns an empty collector.
func NewPerfCollector() *PerfCollector {
	return &PerfCollector{}
}

// StartTick begins timing a new step.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.inPhase = false
	p.spent = [numPhases]time.Duration{}
}

// StartPhase closes the running phase, if any, and opens phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.spent[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick closes the step. rabbits is the number of rabbit cycles run and
// cells the number of ground cells updated during it.
func (p *PerfCollector) EndTick(rabbits, cells int) {
	now := time.Now()
	p.closePhase(now)
	p.inPhase = false

	d := now.Sub(p.tickStart)
	if p.ticks == 0 || d < p.tickMin {
		p.tickMin = d
	}
	if d > p.tickMax {
		p.tickMax = d
	}
	p.ticks++
	p.tickTotal += d
	for i, s := range p.spent {
		p.phaseTotal[i] += s
	}
	p.rabbitCycles += int64(rabbits)
	p.groundCells += int64(cells)
}

// RecordFrame marks one realtime driver frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frames++
		p.frameTotal += now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// Reset drops the accumulated window. A tick in progress keeps its timing.
func (p *PerfCollector) Reset() {
	p.ticks = 0
	p.tickTotal, p.tickMin, p.tickMax = 0, 0, 0
	p.phaseTotal = [numPhases]time.Duration{}
	p.rabbitCycles, p.groundCells = 0, 0
	p.frames, p.frameTotal = 0, 0
}

// PerfStats summarises one window of step timings.
type PerfStats struct {
	Ticks    int
	AvgTick  time.Duration
	MinTick  time.Duration
	MaxTick  time.Duration
	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64

	TicksPerSecond    float64 // of compute time, not wall time
	RabbitsPerTick    float64
	NsPerRabbit       float64 // rabbits phase time per cycle
	GroundCellsPerSec float64 // cells updated per second of ground phase

	FPS float64 // realtime frames; 0 when headless
}

// Stats summarises everything recorded since the last Reset.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats
	if p.frames > 0 && p.frameTotal > 0 {
		s.FPS = float64(p.frames) / p.frameTotal.Seconds()
	}
	if p.ticks == 0 {
		return s
	}

	n := time.Duration(p.ticks)
	s.Ticks = p.ticks
	s.AvgTick = p.tickTotal / n
	s.MinTick = p.tickMin
	s.MaxTick = p.tickMax
	for i, total := range p.phaseTotal {
		s.PhaseAvg[i] = total / n
		if p.tickTotal > 0 {
			s.PhasePct[i] = 100 * float64(total) / float64(p.tickTotal)
		}
	}
	if p.tickTotal > 0 {
		s.TicksPerSecond = float64(p.ticks) / p.tickTotal.Seconds()
	}
	s.RabbitsPerTick = float64(p.rabbitCycles) / float64(p.ticks)
	if p.rabbitCycles > 0 {
		s.NsPerRabbit = float64(p.phaseTotal[PhaseRabbits].Nanoseconds()) / float64(p.rabbitCycles)
	}
	if g := p.phaseTotal[PhaseGround]; g > 0 {
		s.GroundCellsPerSec = float64(p.groundCells) / g.Seconds()
	}
	return s
}

// LogStats logs the window at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Duration("avg_tick", s.AvgTick),
		slog.Duration("max_tick", s.MaxTick),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.Float64("rabbits_per_tick", s.RabbitsPerTick),
		slog.Float64("ns_per_rabbit", s.NsPerRabbit),
		slog.Float64("ground_cells_per_sec", s.GroundCellsPerSec),
	}
	for i := Phase(0); i < numPhases; i++ {
		attrs = append(attrs, slog.Float64(i.String()+"_pct", s.PhasePct[i]))
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd         int32   `csv:"window_end"`
	Ticks             int     `csv:"ticks"`
	AvgTickUS         int64   `csv:"avg_tick_us"`
	MinTickUS         int64   `csv:"min_tick_us"`
	MaxTickUS         int64   `csv:"max_tick_us"`
	TicksPerSec       float64 `csv:"ticks_per_sec"`
	RabbitsPerTick    float64 `csv:"rabbits_per_tick"`
	NsPerRabbit       float64 `csv:"ns_per_rabbit"`
	GroundCellsPerSec float64 `csv:"ground_cells_per_sec"`
	GroundPct         float64 `csv:"ground_pct"`
	RabbitsPct        float64 `csv:"rabbits_pct"`
	CleanupPct        float64 `csv:"cleanup_pct"`
	TelemetryPct      float64 `csv:"telemetry_pct"`
	FPS               float64 `csv:"fps"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:         windowEnd,
		Ticks:             s.Ticks,
		AvgTickUS:         s.AvgTick.Microseconds(),
		MinTickUS:         s.MinTick.Microseconds(),
		MaxTickUS:         s.MaxTick.Microseconds(),
		TicksPerSec:       s.TicksPerSecond,
		RabbitsPerTick:    s.RabbitsPerTick,
		NsPerRabbit:       s.NsPerRabbit,
		GroundCellsPerSec: s.GroundCellsPerSec,
		GroundPct:         s.PhasePct[PhaseGround],
		RabbitsPct:        s.PhasePct[PhaseRabbits],
		CleanupPct:        s.PhasePct[PhaseCleanup],
		TelemetryPct:      s.PhasePct[PhaseTelemetry],
		FPS:               s.FPS,
	}
}

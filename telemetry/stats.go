package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-" json:"window_start"`
	WindowEndTick   int32   `csv:"window_end" json:"window_end"`
	SimTimeSec      float64 `csv:"sim_time" json:"sim_time"`

	// Population count at window end
	Rabbits int `csv:"rabbits" json:"rabbits"`

	// Events during window
	Births       int     `csv:"births" json:"births"`
	Deaths       int     `csv:"deaths" json:"deaths"`
	Forages      int     `csv:"forages" json:"forages"`
	Foraged      float64 `csv:"foraged" json:"foraged"` // total ground eaten
	Moves        int     `csv:"moves" json:"moves"`
	Stuck        int     `csv:"stuck" json:"stuck"`
	BreedBlocked int     `csv:"breed_blocked" json:"breed_blocked"`

	// Life distribution (sampled at window end)
	LifeMean float64 `csv:"life_mean" json:"life_mean"`
	LifeStd  float64 `csv:"life_std" json:"life_std"`
	LifeP10  float64 `csv:"life_p10" json:"life_p10"`
	LifeP50  float64 `csv:"life_p50" json:"life_p50"`
	LifeP90  float64 `csv:"life_p90" json:"life_p90"`

	// Ground field
	GroundTotal    float64 `csv:"ground_total" json:"ground_total"`
	GroundMean     float64 `csv:"ground_mean" json:"ground_mean"`
	GroundDepleted float64 `csv:"ground_depleted" json:"ground_depleted"` // fraction of cells too bare to eat

	// Lineage tracking
	ActiveLineages int `csv:"active_lineages" json:"active_lineages"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// LifeStats summarizes a life distribution.
type LifeStats struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeLifeStats calculates mean, population std and percentiles.
func ComputeLifeStats(values []float64) LifeStats {
	if len(values) == 0 {
		return LifeStats{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	// Sort for percentiles
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return LifeStats{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("rabbits", s.Rabbits),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("forages", s.Forages),
		slog.Float64("foraged", s.Foraged),
		slog.Int("moves", s.Moves),
		slog.Int("stuck", s.Stuck),
		slog.Int("breed_blocked", s.BreedBlocked),
		slog.Float64("life_mean", s.LifeMean),
		slog.Float64("life_std", s.LifeStd),
		slog.Float64("life_p10", s.LifeP10),
		slog.Float64("life_p50", s.LifeP50),
		slog.Float64("life_p90", s.LifeP90),
		slog.Float64("ground_total", s.GroundTotal),
		slog.Float64("ground_mean", s.GroundMean),
		slog.Float64("ground_depleted", s.GroundDepleted),
		slog.Int("active_lineages", s.ActiveLineages),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}

package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/warren/config"
	"github.com/pthm-cable/warren/telemetry"
)

func windows(counts []int, groundMean float64) []telemetry.WindowStats {
	out := make([]telemetry.WindowStats, len(counts))
	for i, n := range counts {
		out[i] = telemetry.WindowStats{Rabbits: n, GroundMean: groundMean}
	}
	return out
}

func TestComputeQuality(t *testing.T) {
	tests := []struct {
		name    string
		windows []telemetry.WindowStats
		want    float64
	}{
		{"too few windows", windows([]int{50, 50, 50}, 0.5), 0},
		{"steady with balanced ground", windows([]int{1, 1, 1, 40, 40, 40, 40}, 0.5), 1},
		{"all below viable", windows([]int{9, 9, 9, 1, 2, 1}, 0.5), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeQuality(tt.windows); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestComputeQualityPrefersSteadyCounts(t *testing.T) {
	steady := computeQuality(windows([]int{0, 0, 0, 40, 42, 38, 40}, 0.5))
	swinging := computeQuality(windows([]int{0, 0, 0, 10, 90, 5, 80}, 0.5))
	if steady <= swinging {
		t.Errorf("steady %v should beat swinging %v", steady, swinging)
	}
}

func TestCV(t *testing.T) {
	if got := cv([]float64{2, 4, 4, 4, 5, 5, 7, 9}); math.Abs(got-0.4) > 1e-12 {
		t.Errorf("expected 0.4, got %v", got)
	}
	if cv(nil) != 0 || cv([]float64{0, 0}) != 0 {
		t.Error("expected 0 for empty or zero-mean input")
	}
}

func TestEvaluateShortRun(t *testing.T) {
	cfg := config.Default()
	cfg.World.Width, cfg.World.Height = 12, 12
	cfg.Population.Initial = 10

	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 50, []int64{1, 2}, cfg)
	fitness := fe.Evaluate(pv.DefaultVector())

	if fitness > 0 || fitness < -50*1.2 {
		t.Errorf("fitness %v outside [-60, 0]", fitness)
	}
	if q := fe.LastQuality(); q < 0 || q > 1 {
		t.Errorf("quality %v outside [0, 1]", q)
	}
}

package main

import (
	"log"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/warren/config"
	"github.com/pthm-cable/warren/game"
	"github.com/pthm-cable/warren/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10.0,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// A population below minViablePop for extinctionGraceSec counts as
// functionally extinct.
const (
	minViablePop       = 3
	extinctionGraceSec = 30.0
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int32                   // ticks before functional extinction (or maxTicks if survived)
	windowStats   []telemetry.WindowStats // collected via StatsCallback each window
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
// All seeds run in parallel; the result is their mean.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result, err := fe.runSimulation(x, s)
			if err != nil {
				log.Printf("seed %d: %v", s, err)
				results[idx] = seedResult{}
				return
			}
			results[idx] = seedResult{
				fitness: fe.computeFitness(result),
				quality: computeQuality(result.windowStats),
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes a single headless simulation run.
// Runs until functional extinction or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (*runResult, error) {
	cfg := fe.baseConfig.Clone()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return nil, err
	}

	result := &runResult{}
	g, err := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 1,
		Config:         cfg,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer g.Unload()

	dt := cfg.Physics.DT
	var belowSec float64

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()

		rabbits := g.RabbitCount()
		if rabbits == 0 {
			result.survivalTicks = g.Tick()
			return result, nil
		}
		if rabbits < minViablePop {
			belowSec += dt
		} else {
			belowSec = 0
		}
		if belowSec >= extinctionGraceSec {
			result.survivalTicks = g.Tick()
			return result, nil
		}
	}

	result.survivalTicks = fe.maxTicks
	return result, nil
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
// Survival dominates; quality separates configs with similar survival.
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	survival := float64(r.survivalTicks)
	quality := computeQuality(r.windowStats)
	return -(survival * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightStability = 0.6
	qualityWeightGround    = 0.4

	qualityWarmupWindows = 3 // skip first N windows
)

// computeQuality scores a run in [0, 1]: a steady rabbit count and a ground
// field that is neither stripped bare nor untouched.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	counts := make([]float64, 0, len(valid))
	var groundSum float64
	for _, w := range valid {
		if w.Rabbits < minViablePop {
			continue
		}
		counts = append(counts, float64(w.Rabbits))
		groundSum += math.Exp(-math.Pow((w.GroundMean-0.5)/0.25, 2))
	}
	if len(counts) == 0 {
		return 0
	}

	stability := 0.0
	if len(counts) >= 2 {
		c := cv(counts)
		stability = math.Exp(-c * c)
	}
	ground := groundSum / float64(len(counts))

	return clamp01(qualityWeightStability*stability + qualityWeightGround*ground)
}

// cv computes the coefficient of variation (std/mean).
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

func clamp01(x float64) float64 {
	return max(0, min(x, 1))
}

package main

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/boidmind/config"
	"github.com/pthm-cable/boidmind/game"
	"github.com/pthm-cable/boidmind/scenario"
	"github.com/pthm-cable/boidmind/telemetry"
)

// FitnessEvaluator runs headless scenarios and scores the resulting steering.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int
	seeds       []int64
	baseConfig  *config.Config
	scenario    *scenario.File
	statsWindow float64

	mu          sync.Mutex
	bestFitness float64
	lastScore   Score // from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, f *scenario.File, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		scenario:    f,
		statsWindow: 5.0,
		bestFitness: math.Inf(1),
	}
}

// LastScore returns the averaged score from the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() Score {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastScore
}

// Score summarizes one run. Progress counts things the minds were asked to
// do; faults count the pipeline breaking down.
type Score struct {
	Checkpoints float64
	Shots       float64
	Faults      float64
	DodgeRate   float64 // dodging routine-ticks per computed routine
	SpeedCV     float64 // spread of median speed across windows
}

// Fitness weights.
const (
	weightCheckpoint = 10.0
	weightShot       = 0.5
	weightFault      = 25.0
	weightDodge      = 50.0
	weightSpeedCV    = 5.0

	warmupWindows = 1 // first window covers spawn transients
)

// Fitness converts a score to the scalar minimized by CMA-ES (lower = better).
func (s Score) Fitness() float64 {
	progress := weightCheckpoint*s.Checkpoints + weightShot*s.Shots
	penalty := weightFault*s.Faults + weightDodge*s.DodgeRate + weightSpeedCV*s.SpeedCV
	return penalty - progress
}

// Evaluate computes fitness for a raw parameter vector.
// All seeds share one config, so it is installed once before they start.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	config.Set(cfg)

	scores := make([]Score, len(fe.seeds))
	errs := make([]error, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows, err := fe.runSimulation(s)
			if err != nil {
				errs[idx] = err
				return
			}
			scores[idx] = computeScore(windows)
		}(i, seed)
	}
	wg.Wait()

	var avg Score
	for i, s := range scores {
		if errs[i] != nil {
			// A run that cannot start is the worst possible outcome.
			return math.MaxFloat64
		}
		avg.Checkpoints += s.Checkpoints
		avg.Shots += s.Shots
		avg.Faults += s.Faults
		avg.DodgeRate += s.DodgeRate
		avg.SpeedCV += s.SpeedCV
	}
	n := float64(len(scores))
	avg.Checkpoints /= n
	avg.Shots /= n
	avg.Faults /= n
	avg.DodgeRate /= n
	avg.SpeedCV /= n
	fitness := avg.Fitness()

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
	}
	fe.lastScore = avg
	fe.mu.Unlock()

	return fitness
}

// runSimulation executes a single headless run and returns its windows.
func (fe *FitnessEvaluator) runSimulation(seed int64) ([]telemetry.WindowStats, error) {
	g, err := game.NewGame(game.Options{
		Seed:           seed,
		Scenario:       fe.scenario.Name,
		StatsWindowSec: fe.statsWindow,
		Workers:        1,
	})
	if err != nil {
		return nil, fmt.Errorf("creating game: %w", err)
	}
	defer g.Close()

	var windows []telemetry.WindowStats
	g.SetStatsCallback(func(s telemetry.WindowStats) {
		windows = append(windows, s)
	})
	if _, err := scenario.Apply(g, fe.scenario, seed); err != nil {
		return nil, fmt.Errorf("applying scenario: %w", err)
	}
	g.Run(fe.maxTicks, nil)
	return windows, nil
}

// copyConfig returns a copy of the base config. Config holds only values and
// fixed arrays, so a struct copy is deep.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeScore aggregates window stats past warmup.
func computeScore(windows []telemetry.WindowStats) Score {
	if len(windows) <= warmupWindows {
		return Score{}
	}
	valid := windows[warmupWindows:]

	var s Score
	var computed, dodges float64
	speeds := make([]float64, 0, len(valid))
	for _, w := range valid {
		s.Checkpoints += float64(w.CheckpointsHit)
		s.Shots += float64(w.FireEvents)
		s.Faults += float64(w.MissingTargets + w.NoOutput + w.ComposerAborts + w.UntaggedRefs)
		computed += float64(w.RoutinesComputed)
		dodges += float64(w.DodgeTicks)
		speeds = append(speeds, w.SpeedP50)
	}
	if computed > 0 {
		s.DodgeRate = dodges / computed
	}
	if len(speeds) >= 2 {
		mean, std := stat.MeanStdDev(speeds, nil)
		if mean > 0 {
			s.SpeedCV = std / mean
		}
	}
	return s
}

package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/shimmer/config"
	"github.com/pthm-cable/shimmer/game"
	"github.com/pthm-cable/shimmer/systems"
	"github.com/pthm-cable/shimmer/telemetry"
)

// Evaluation canvas and swipe.
const (
	evalWidth   = 400
	evalHeight  = 300
	swipeFrames = 30
	settleEps   = 0.5 // px; max displacement that counts as settled
)

// Targets describe the desired feel.
type Targets struct {
	SettleFrames float64 // Frames from pointer release until the field is at rest
	PeakMean     float64 // Mean displacement in px at the end of the swipe
}

// FitnessEvaluator runs headless swipes and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxFrames  int
	seeds      []int64
	baseConfig *config.Config
	targets    Targets

	mu       sync.Mutex
	lastRun  runResult // averaged over seeds, from the most recent Evaluate call
	bestRun  runResult
	bestEval float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxFrames int, seeds []int64, baseCfg *config.Config, targets Targets) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxFrames:  maxFrames,
		seeds:      seeds,
		baseConfig: baseCfg,
		targets:    targets,
		bestEval:   math.Inf(1),
	}
}

// runResult holds the measurements from a single swipe.
type runResult struct {
	settleFrames float64 // frames after release until max displacement < settleEps
	peakMean     float64 // mean displacement when the pointer is released
}

// LastRun returns the seed-averaged measurements of the most recent evaluation.
func (fe *FitnessEvaluator) LastRun() (settleFrames, peakMean float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastRun.settleFrames, fe.lastRun.peakMean
}

// BestRun returns the measurements of the best evaluation so far.
func (fe *FitnessEvaluator) BestRun() (settleFrames, peakMean float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestRun.settleFrames, fe.bestRun.peakMean
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// Run all seeds in parallel
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSwipe(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var avg runResult
	for _, r := range results {
		avg.settleFrames += r.settleFrames
		avg.peakMean += r.peakMean
	}
	n := float64(len(results))
	avg.settleFrames /= n
	avg.peakMean /= n

	fitness := fe.computeFitness(avg)

	fe.mu.Lock()
	fe.lastRun = avg
	if fitness < fe.bestEval {
		fe.bestEval = fitness
		fe.bestRun = avg
	}
	fe.mu.Unlock()

	return fitness
}

// runSwipe drags the pointer across the tree, releases it and counts frames
// until the field is back at rest.
func (fe *FitnessEvaluator) runSwipe(cfg *config.Config, seed int64) runResult {
	g := game.NewGame(cfg, game.Options{
		Headless: true,
		Width:    evalWidth,
		Height:   evalHeight,
		Seed:     seed,
	})
	defer g.Unload()

	var buf []systems.ParticleState
	measure := func() telemetry.FieldStats {
		buf = g.Field().Snapshot(buf)
		return telemetry.ComputeFieldStats(buf)
	}

	y := evalHeight * 0.7
	for i := 0; i < swipeFrames; i++ {
		x := evalWidth * (0.3 + 0.4*float64(i)/float64(swipeFrames-1))
		g.OnPointerMove(x, y)
		g.Update()
	}
	g.OnPointerEnd()

	result := runResult{
		settleFrames: float64(fe.maxFrames),
		peakMean:     measure().DisplacementMean,
	}
	for frame := 1; frame <= fe.maxFrames; frame++ {
		g.Update()
		if measure().DisplacementMax < settleEps {
			result.settleFrames = float64(frame)
			break
		}
	}
	return result
}

// copyConfig copies the base config with breathing and depth disabled, so
// the field has a well-defined rest state.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Field.Mode = config.ModeGenerative
	cfg.Field.Depth = false
	cfg.Settings.BreathIntensity = 0
	cfg.Derived.Settings = cfg.Settings.Clamp()
	return &cfg
}

// computeFitness is the squared relative error against both targets.
func (fe *FitnessEvaluator) computeFitness(r runResult) float64 {
	settle := (r.settleFrames - fe.targets.SettleFrames) / fe.targets.SettleFrames
	peak := (r.peakMean - fe.targets.PeakMean) / fe.targets.PeakMean
	return settle*settle + peak*peak
}

package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/shimmer/config"
)

func TestParamVectorNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-12 {
			t.Errorf("%s: %f -> %f", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestParamVectorApplyToConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()

	// Out-of-bounds values are clamped to the spec range
	pv.ApplyToConfig(cfg, []float64{2, 0.1})
	if cfg.Settings.Friction != 0.98 || cfg.Settings.Ease != 0.1 {
		t.Errorf("unexpected settings %+v", cfg.Settings)
	}
	if cfg.Derived.Settings != cfg.Settings.Clamp() {
		t.Error("derived settings not refreshed")
	}

	got := pv.ExtractFromConfig(cfg)
	if got[0] != 0.98 || got[1] != 0.1 {
		t.Errorf("ExtractFromConfig = %v", got)
	}
}

func TestComputeFitness(t *testing.T) {
	fe := NewFitnessEvaluator(NewParamVector(), 600, []int64{1}, nil, Targets{SettleFrames: 100, PeakMean: 10})
	if f := fe.computeFitness(runResult{settleFrames: 100, peakMean: 10}); f != 0 {
		t.Errorf("expected zero fitness on target, got %f", f)
	}
	if f := fe.computeFitness(runResult{settleFrames: 150, peakMean: 5}); math.Abs(f-0.5) > 1e-12 {
		t.Errorf("expected 0.25+0.25, got %f", f)
	}
}

func TestParamVectorClamp(t *testing.T) {
	pv := NewParamVector()
	got := pv.Clamp([]float64{-1, 0.1})
	if got[0] != 0.5 || got[1] != 0.1 {
		t.Errorf("Clamp = %v", got)
	}
	unit := pv.Normalize([]float64{0.5, 0.25})
	if unit[0] != 0 || unit[1] != 1 {
		t.Errorf("expected bounds to map to the unit box corners, got %v", unit)
	}
}

func TestOptionsValidate(t *testing.T) {
	ok := options{outputDir: "out", seeds: 1, maxEvals: 1, targets: Targets{SettleFrames: 90, PeakMean: 12}}
	if err := ok.validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	noOutput := ok
	noOutput.outputDir = ""
	badTarget := ok
	badTarget.targets.PeakMean = 0
	noSeeds := ok
	noSeeds.seeds = 0
	for _, o := range []options{noOutput, badTarget, noSeeds} {
		if o.validate() == nil {
			t.Errorf("expected %+v to be rejected", o)
		}
	}

	if got := ok.populationSize(2); got != 6 {
		t.Errorf("expected default population 6 for two parameters, got %d", got)
	}
	ok.population = 12
	if got := ok.populationSize(2); got != 12 {
		t.Errorf("expected explicit population, got %d", got)
	}
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/shimmer/config"
)

type options struct {
	configPath string
	outputDir  string
	maxFrames  int
	seeds      int
	maxEvals   int
	population int
	targets    Targets
}

func (o options) validate() error {
	switch {
	case o.outputDir == "":
		return errors.New("--output is required")
	case o.targets.SettleFrames <= 0 || o.targets.PeakMean <= 0:
		return errors.New("targets must be positive")
	case o.seeds < 1 || o.maxEvals < 1:
		return errors.New("--seeds and --max-evals must be at least 1")
	}
	return nil
}

// populationSize is the CMA-ES default 4 + 3ln(n), rounded down.
func (o options) populationSize(dim int) int {
	if o.population > 0 {
		return o.population
	}
	return 4 + int(3*math.Log(float64(dim)))
}

// evalRow is one line of optimize_log.csv.
type evalRow struct {
	Eval         int     `csv:"eval"`
	Fitness      float64 `csv:"fitness"`
	Friction     float64 `csv:"friction"`
	Ease         float64 `csv:"ease"`
	SettleFrames float64 `csv:"settle_frames"`
	PeakMean     float64 `csv:"peak_mean"`
}

// tuner is the objective handed to CMA-ES. It logs every evaluation and
// remembers the best point seen, which need not be the optimizer's final X.
type tuner struct {
	params    *ParamVector
	evaluator *FitnessEvaluator
	maxEvals  int

	log   *os.File
	evals int
	best  float64
	bestX []float64
	start time.Time
}

func (t *tuner) objective(x []float64) float64 {
	raw := t.params.Clamp(t.params.Denormalize(x))
	fitness := t.evaluator.Evaluate(raw)
	t.evals++
	if t.bestX == nil || fitness < t.best {
		t.best, t.bestX = fitness, raw
	}

	settle, peak := t.evaluator.LastRun()
	if err := t.record(evalRow{
		Eval:         t.evals,
		Fitness:      fitness,
		Friction:     raw[0],
		Ease:         raw[1],
		SettleFrames: settle,
		PeakMean:     peak,
	}); err != nil {
		log.Printf("optimize log: %v", err)
	}

	elapsed := time.Since(t.start)
	eta := elapsed / time.Duration(t.evals) * time.Duration(max(t.maxEvals-t.evals, 0))
	fmt.Printf("[%d/%d] settle=%.0f peak=%.1fpx fitness=%.4f best=%.4f elapsed=%s eta=%s\n",
		t.evals, t.maxEvals, settle, peak, fitness, t.best,
		elapsed.Round(time.Second), eta.Round(time.Second))
	return fitness
}

func (t *tuner) record(row evalRow) error {
	rows := []evalRow{row}
	if t.evals == 1 {
		return gocsv.Marshal(rows, t.log)
	}
	return gocsv.MarshalWithoutHeaders(rows, t.log)
}

func run(o options) error {
	if err := o.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(o.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	baseCfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	params := NewParamVector()
	seeds := make([]int64, o.seeds)
	for i := range seeds {
		seeds[i] = 42 + int64(i)*1000
	}

	logFile, err := os.Create(filepath.Join(o.outputDir, "optimize_log.csv"))
	if err != nil {
		return fmt.Errorf("creating optimize log: %w", err)
	}
	defer logFile.Close()

	t := &tuner{
		params:    params,
		evaluator: NewFitnessEvaluator(params, o.maxFrames, seeds, baseCfg, o.targets),
		maxEvals:  o.maxEvals,
		log:       logFile,
		start:     time.Now(),
	}

	dim := params.Dim()
	pop := o.populationSize(dim)
	fmt.Printf("CMA-ES over %d parameters, population %d, %d evaluations, %d seeds each\n",
		dim, pop, o.maxEvals, o.seeds)
	fmt.Printf("targets: settle=%.0f frames peak=%.1fpx\n", o.targets.SettleFrames, o.targets.PeakMean)

	// Evaluations run one at a time; the evaluator already fans out per seed.
	_, err = optimize.Minimize(
		optimize.Problem{Func: t.objective},
		params.Normalize(params.Clamp(params.ExtractFromConfig(baseCfg))),
		&optimize.Settings{FuncEvaluations: o.maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: pop},
	)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if t.bestX == nil {
		return errors.New("no evaluations completed")
	}

	settle, peak := t.evaluator.BestRun()
	fmt.Printf("\ndone: %d evaluations in %s\n", t.evals, time.Since(t.start).Round(time.Second))
	fmt.Printf("best fitness %.4f (settle=%.0f frames, peak=%.1fpx)\n", t.best, settle, peak)
	for i, spec := range params.Specs {
		fmt.Printf("  %s = %.6f\n", spec.Path, t.bestX[i])
	}

	bestCfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	params.ApplyToConfig(bestCfg, t.bestX)
	out := filepath.Join(o.outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(out); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	fmt.Printf("best config written to %s\n", out)
	return nil
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.StringVar(&o.outputDir, "output", "", "Output directory for results")
	flag.IntVar(&o.maxFrames, "max-frames", 600, "Frames allowed for the field to settle after release")
	flag.IntVar(&o.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&o.maxEvals, "max-evals", 80, "Maximum number of evaluations")
	flag.IntVar(&o.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.Float64Var(&o.targets.SettleFrames, "target-settle", 90, "Desired frames from release to rest")
	flag.Float64Var(&o.targets.PeakMean, "target-peak", 12, "Desired mean displacement in px at release")
	flag.Parse()

	// Field lifecycle logs are noise here
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := run(o); err != nil {
		log.Fatal(err)
	}
}

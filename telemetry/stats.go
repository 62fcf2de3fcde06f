package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/shimmer/systems"
)

// FieldStats summarizes the motion of one field at an instant.
type FieldStats struct {
	Particles int
	Accents   int

	// Distance of each particle from its anchor
	DisplacementMean float64
	DisplacementStd  float64
	DisplacementP50  float64
	DisplacementP90  float64
	DisplacementMax  float64

	MaxSpeed float64
}

// ComputeFieldStats computes statistics over detached particle states.
func ComputeFieldStats(states []systems.ParticleState) FieldStats {
	n := len(states)
	if n == 0 {
		return FieldStats{}
	}

	disp := make([]float64, n)
	fs := FieldStats{Particles: n}
	for i := range states {
		s := &states[i]
		disp[i] = math.Hypot(s.Pos.X-s.Anchor.X, s.Pos.Y-s.Anchor.Y)
		if speed := math.Hypot(s.Vel.X, s.Vel.Y); speed > fs.MaxSpeed {
			fs.MaxSpeed = speed
		}
		if s.Look.Accent {
			fs.Accents++
		}
	}

	fs.DisplacementMean, fs.DisplacementStd = stat.MeanStdDev(disp, nil)
	if n < 2 {
		fs.DisplacementStd = 0
	}

	sort.Float64s(disp)
	fs.DisplacementP50 = Percentile(disp, 0.50)
	fs.DisplacementP90 = Percentile(disp, 0.90)
	fs.DisplacementMax = disp[n-1]
	return fs
}

// WindowStats holds aggregated statistics for a stats window.
type WindowStats struct {
	WindowStartTick uint64  `csv:"-"`
	WindowEndTick   uint64  `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Field at window end
	Mode      string `csv:"mode"`
	State     string `csv:"state"`
	Epoch     uint64 `csv:"epoch"`
	Particles int    `csv:"particles"`
	Accents   int    `csv:"accents"`

	DisplacementMean float64 `csv:"disp_mean"`
	DisplacementStd  float64 `csv:"disp_std"`
	DisplacementP50  float64 `csv:"disp_p50"`
	DisplacementP90  float64 `csv:"disp_p90"`
	DisplacementMax  float64 `csv:"disp_max"`
	MaxSpeed         float64 `csv:"max_speed"`

	PointerActive bool `csv:"pointer_active"`

	// Events during window
	Regenerations int `csv:"regenerations"`
	StaleDropped  int `csv:"stale_dropped"`
	LoadFailures  int `csv:"load_failures"`
	Fallbacks     int `csv:"fallbacks"`
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

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.String("mode", s.Mode),
		slog.String("state", s.State),
		slog.Uint64("epoch", s.Epoch),
		slog.Int("particles", s.Particles),
		slog.Int("accents", s.Accents),
		slog.Float64("disp_mean", s.DisplacementMean),
		slog.Float64("disp_std", s.DisplacementStd),
		slog.Float64("disp_p90", s.DisplacementP90),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Int("regenerations", s.Regenerations),
		slog.Int("stale_dropped", s.StaleDropped),
		slog.Int("load_failures", s.LoadFailures),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"mode", s.Mode,
		"state", s.State,
		"epoch", s.Epoch,
		"particles", s.Particles,
		"accents", s.Accents,
		"disp_mean", s.DisplacementMean,
		"disp_std", s.DisplacementStd,
		"disp_p50", s.DisplacementP50,
		"disp_p90", s.DisplacementP90,
		"disp_max", s.DisplacementMax,
		"max_speed", s.MaxSpeed,
		"pointer_active", s.PointerActive,
		"regenerations", s.Regenerations,
		"stale_dropped", s.StaleDropped,
		"load_failures", s.LoadFailures,
		"fallbacks", s.Fallbacks,
	)
}

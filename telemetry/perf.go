package telemetry

import (
	"log/slog"
	"time"
)

// Phase identifies one timed section of a frame update.
type Phase int

// Frame phases in execution order.
const (
	PhaseDrain     Phase = iota // installing finished field generations
	PhaseFade                   // trail fade layer
	PhaseIntegrate              // particle physics
	PhaseComposite              // disk rasterization
	phaseCount
)

var phaseNames = [phaseCount]string{"drain", "fade", "integrate", "composite"}

// Phases lists every frame phase in execution order.
var Phases = [phaseCount]Phase{PhaseDrain, PhaseFade, PhaseIntegrate, PhaseComposite}

func (ph Phase) String() string {
	if ph < 0 || ph >= phaseCount {
		return "unknown"
	}
	return phaseNames[ph]
}

// PhaseTimes holds one duration per phase.
type PhaseTimes [phaseCount]time.Duration

// frameSample is the timing of one update.
type frameSample struct {
	total  time.Duration
	phases PhaseTimes
}

// PerfCollector times frame phases over a ring of recent frames. It is owned
// by the frame loop and is not safe for concurrent use.
type PerfCollector struct {
	now func() time.Time

	ring   []frameSample
	next   int
	filled int

	cur        frameSample
	frameStart time.Time
	mark       time.Time
	active     Phase // -1 when no phase is open

	// Wall-clock pacing between presented frames
	lastPresent time.Time
	presentGap  time.Duration
}

// NewPerfCollector keeps the last window frames; 60 is one second at 60fps.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		now:    time.Now,
		ring:   make([]frameSample, window),
		active: -1,
	}
}

// StartTick opens a new frame.
func (p *PerfCollector) StartTick() {
	p.frameStart = p.now()
	p.cur = frameSample{}
	p.active = -1
}

// StartPhase closes the open phase, if any, and opens ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	t := p.now()
	p.closePhase(t)
	p.mark = t
	p.active = ph
}

func (p *PerfCollector) closePhase(t time.Time) {
	if p.active >= 0 && p.active < phaseCount {
		p.cur.phases[p.active] += t.Sub(p.mark)
	}
	p.active = -1
}

// EndTick closes the frame and stores it in the ring.
func (p *PerfCollector) EndTick() {
	t := p.now()
	p.closePhase(t)
	p.cur.total = t.Sub(p.frameStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	if p.filled < len(p.ring) {
		p.filled++
	}
}

// RecordFrame marks a presented frame; the gap between marks drives FPS.
func (p *PerfCollector) RecordFrame() {
	t := p.now()
	if !p.lastPresent.IsZero() {
		p.presentGap = t.Sub(p.lastPresent)
	}
	p.lastPresent = t
}

// PerfStats summarizes the frames currently in the ring.
type PerfStats struct {
	AvgFrame time.Duration
	MinFrame time.Duration
	MaxFrame time.Duration

	PhaseAvg PhaseTimes
	PhasePct [phaseCount]float64 // share of AvgFrame, 0-100

	// Updates per second the simulation could sustain at AvgFrame.
	Throughput float64

	PresentGap time.Duration
	FPS        float64
}

// Stats aggregates the ring.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{PresentGap: p.presentGap}
	if p.presentGap > 0 {
		s.FPS = float64(time.Second) / float64(p.presentGap)
	}
	if p.filled == 0 {
		return s
	}

	var sum frameSample
	for i, f := range p.ring[:p.filled] {
		sum.total += f.total
		if i == 0 || f.total < s.MinFrame {
			s.MinFrame = f.total
		}
		if f.total > s.MaxFrame {
			s.MaxFrame = f.total
		}
		for ph, d := range f.phases {
			sum.phases[ph] += d
		}
	}

	n := time.Duration(p.filled)
	s.AvgFrame = sum.total / n
	for ph := range sum.phases {
		s.PhaseAvg[ph] = sum.phases[ph] / n
	}
	if s.AvgFrame > 0 {
		s.Throughput = float64(time.Second) / float64(s.AvgFrame)
		for ph, d := range s.PhaseAvg {
			s.PhasePct[ph] = 100 * float64(d) / float64(s.AvgFrame)
		}
	}
	return s
}

// LogStats emits one "perf" record.
func (s PerfStats) LogStats() {
	slog.Info("perf", "frame", s)
}

// LogValue implements slog.LogValuer. Phases under 0.1% are omitted.
func (s PerfStats) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 5+int(phaseCount))
	attrs = append(attrs,
		slog.Int64("avg_us", s.AvgFrame.Microseconds()),
		slog.Int64("min_us", s.MinFrame.Microseconds()),
		slog.Int64("max_us", s.MaxFrame.Microseconds()),
		slog.Int("throughput", int(s.Throughput)),
	)
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, ph := range Phases {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfRow is one perf.csv record.
type PerfRow struct {
	WindowEnd    uint64  `csv:"window_end"`
	AvgFrameUS   int64   `csv:"avg_frame_us"`
	MinFrameUS   int64   `csv:"min_frame_us"`
	MaxFrameUS   int64   `csv:"max_frame_us"`
	Throughput   float64 `csv:"frames_per_sec"`
	FPS          float64 `csv:"fps"`
	DrainPct     float64 `csv:"drain_pct"`
	FadePct      float64 `csv:"fade_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	CompositePct float64 `csv:"composite_pct"`
}

// Row flattens s for CSV export, stamped with the window's last tick.
func (s PerfStats) Row(windowEnd uint64) PerfRow {
	return PerfRow{
		WindowEnd:    windowEnd,
		AvgFrameUS:   s.AvgFrame.Microseconds(),
		MinFrameUS:   s.MinFrame.Microseconds(),
		MaxFrameUS:   s.MaxFrame.Microseconds(),
		Throughput:   s.Throughput,
		FPS:          s.FPS,
		DrainPct:     s.PhasePct[PhaseDrain],
		FadePct:      s.PhasePct[PhaseFade],
		IntegratePct: s.PhasePct[PhaseIntegrate],
		CompositePct: s.PhasePct[PhaseComposite],
	}
}

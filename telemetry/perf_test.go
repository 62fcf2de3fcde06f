package telemetry

import (
	"testing"
	"time"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time       { return c.t }
func (c *fakeClock) step(d time.Duration) { c.t = c.t.Add(d) }

func newClockedCollector(window int) (*PerfCollector, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	pc := NewPerfCollector(window)
	pc.now = clock.now
	return pc, clock
}

// frame runs one update with the given phase durations.
func frame(pc *PerfCollector, clock *fakeClock, phases map[Phase]time.Duration) {
	pc.StartTick()
	for _, ph := range Phases {
		d, ok := phases[ph]
		if !ok {
			continue
		}
		pc.StartPhase(ph)
		clock.step(d)
	}
	pc.EndTick()
}

func TestPerfCollectorPhaseBreakdown(t *testing.T) {
	pc, clock := newClockedCollector(10)
	for i := 0; i < 5; i++ {
		frame(pc, clock, map[Phase]time.Duration{
			PhaseFade:      time.Millisecond,
			PhaseIntegrate: 3 * time.Millisecond,
		})
	}

	s := pc.Stats()
	if s.AvgFrame != 4*time.Millisecond {
		t.Errorf("expected 4ms frames, got %v", s.AvgFrame)
	}
	if s.PhaseAvg[PhaseFade] != time.Millisecond || s.PhaseAvg[PhaseIntegrate] != 3*time.Millisecond {
		t.Errorf("unexpected phase averages: %v", s.PhaseAvg)
	}
	if s.PhasePct[PhaseFade] != 25 || s.PhasePct[PhaseIntegrate] != 75 || s.PhasePct[PhaseComposite] != 0 {
		t.Errorf("unexpected phase shares: %v", s.PhasePct)
	}
	if s.Throughput != 250 {
		t.Errorf("expected throughput 250/s, got %v", s.Throughput)
	}
}

func TestPerfCollectorRingEvictsOldFrames(t *testing.T) {
	pc, clock := newClockedCollector(3)
	for i := 0; i < 5; i++ {
		frame(pc, clock, map[Phase]time.Duration{PhaseIntegrate: 10 * time.Millisecond})
	}
	for i := 0; i < 3; i++ {
		frame(pc, clock, map[Phase]time.Duration{PhaseIntegrate: 2 * time.Millisecond})
	}

	s := pc.Stats()
	if s.AvgFrame != 2*time.Millisecond || s.MaxFrame != 2*time.Millisecond {
		t.Errorf("expected only the last 3 frames, got avg %v max %v", s.AvgFrame, s.MaxFrame)
	}
}

func TestPerfCollectorMinMax(t *testing.T) {
	pc, clock := newClockedCollector(10)
	for _, d := range []time.Duration{5, 1, 9, 3} {
		frame(pc, clock, map[Phase]time.Duration{PhaseComposite: d * time.Millisecond})
	}
	s := pc.Stats()
	if s.MinFrame != time.Millisecond || s.MaxFrame != 9*time.Millisecond {
		t.Errorf("expected min 1ms max 9ms, got %v / %v", s.MinFrame, s.MaxFrame)
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	pc := NewPerfCollector(0)
	if len(pc.ring) != 60 {
		t.Errorf("expected default window 60, got %d", len(pc.ring))
	}
	if s := pc.Stats(); s != (PerfStats{}) {
		t.Errorf("expected zero stats from an empty collector, got %+v", s)
	}
}

func TestPerfCollectorPresentPacing(t *testing.T) {
	pc, clock := newClockedCollector(10)

	pc.RecordFrame()
	if s := pc.Stats(); s.FPS != 0 {
		t.Errorf("expected no FPS after a single mark, got %v", s.FPS)
	}

	clock.step(20 * time.Millisecond)
	pc.RecordFrame()
	s := pc.Stats()
	if s.PresentGap != 20*time.Millisecond || s.FPS != 50 {
		t.Errorf("expected 20ms gap at 50fps, got %v at %v", s.PresentGap, s.FPS)
	}
}

func TestPhaseString(t *testing.T) {
	want := []string{"drain", "fade", "integrate", "composite"}
	for i, ph := range Phases {
		if ph.String() != want[i] {
			t.Errorf("phase %d: got %q, want %q", i, ph.String(), want[i])
		}
	}
	if Phase(42).String() != "unknown" {
		t.Errorf("expected unknown for out-of-range phase")
	}
}

func TestPerfStatsRow(t *testing.T) {
	var s PerfStats
	s.AvgFrame = 2 * time.Millisecond
	s.PhasePct[PhaseFade] = 10
	s.PhasePct[PhaseIntegrate] = 60
	s.PhasePct[PhaseComposite] = 30

	row := s.Row(600)
	if row.WindowEnd != 600 || row.AvgFrameUS != 2000 {
		t.Errorf("unexpected header fields: %+v", row)
	}
	if row.FadePct != 10 || row.IntegratePct != 60 || row.CompositePct != 30 || row.DrainPct != 0 {
		t.Errorf("phase percentages not mapped: %+v", row)
	}
}

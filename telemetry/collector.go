package telemetry

import "math"

// Collector counts field lifecycle events within windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks uint64
	dt                  float64

	windowStartTick uint64

	regenerations int
	staleDropped  int
	loadFailures  int
	fallbacks     int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in seconds
// dt: seconds per frame (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := uint64(1)
	if dt > 0 && windowDurationSec > dt {
		ticksPerWindow = uint64(math.Round(windowDurationSec / dt))
	}
	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordRegeneration records a field being installed.
func (c *Collector) RecordRegeneration() {
	c.regenerations++
}

// RecordStaleDrop records a generation result discarded because a newer request superseded it.
func (c *Collector) RecordStaleDrop() {
	c.staleDropped++
}

// RecordLoadFailure records a generation that left no field.
func (c *Collector) RecordLoadFailure() {
	c.loadFailures++
}

// RecordFallback records the fallback image being used.
func (c *Collector) RecordFallback() {
	c.fallbacks++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// FieldInfo describes the field being shown at flush time.
type FieldInfo struct {
	Mode          string
	State         string
	Epoch         uint64
	PointerActive bool
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick uint64, info FieldInfo, fs FieldStats) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Mode:      info.Mode,
		State:     info.State,
		Epoch:     info.Epoch,
		Particles: fs.Particles,
		Accents:   fs.Accents,

		DisplacementMean: fs.DisplacementMean,
		DisplacementStd:  fs.DisplacementStd,
		DisplacementP50:  fs.DisplacementP50,
		DisplacementP90:  fs.DisplacementP90,
		DisplacementMax:  fs.DisplacementMax,
		MaxSpeed:         fs.MaxSpeed,

		PointerActive: info.PointerActive,

		Regenerations: c.regenerations,
		StaleDropped:  c.staleDropped,
		LoadFailures:  c.loadFailures,
		Fallbacks:     c.fallbacks,
	}

	c.windowStartTick = currentTick
	c.regenerations = 0
	c.staleDropped = 0
	c.loadFailures = 0
	c.fallbacks = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() uint64 {
	return c.windowDurationTicks
}

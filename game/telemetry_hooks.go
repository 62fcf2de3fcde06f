package game

import (
	"log/slog"

	"github.com/pthm-cable/shimmer/systems"
	"github.com/pthm-cable/shimmer/telemetry"
)

// flushTelemetry checks if the stats window should be flushed.
func (g *Game) flushTelemetry(field *systems.Field, pointerActive bool) {
	if !g.logStats && g.outputManager == nil {
		return
	}

	g.mu.Lock()
	if !g.collector.ShouldFlush(g.tick) {
		g.mu.Unlock()
		return
	}
	info := telemetry.FieldInfo{
		Mode:          string(g.mode),
		State:         g.state.String(),
		Epoch:         g.epoch,
		PointerActive: pointerActive,
	}
	g.mu.Unlock()

	g.statsBuf = field.Snapshot(g.statsBuf)
	fieldStats := telemetry.ComputeFieldStats(g.statsBuf)

	g.mu.Lock()
	stats := g.collector.Flush(g.tick, info, fieldStats)
	g.mu.Unlock()
	perfStats := g.perfCollector.Stats()

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteField(stats); err != nil {
			slog.Error("failed to write field stats", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// PerfStats returns frame timing over the collector window.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

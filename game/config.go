package game

import (
	"github.com/pthm-cable/shimmer/source"
	"github.com/pthm-cable/shimmer/telemetry"
)

// Options holds configuration for game initialization.
type Options struct {
	Headless bool
	Width    int // Canvas width; 0 = config screen width
	Height   int // Canvas height; 0 = config screen height
	Seed     int64

	// Loader resolves image locators. Nil uses source.NewLoader with the
	// configured load timeout.
	Loader source.Loader

	LogStats       bool
	StatsWindowSec float64 // 0 = config telemetry.stats_window
	Output         *telemetry.OutputManager
}

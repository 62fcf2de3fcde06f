// Package game runs the particle field: it owns the active field, generates
// replacements when the input changes, and advances and composites one frame
// per Update.
package game

import (
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/shimmer/config"
	"github.com/pthm-cable/shimmer/renderer"
	"github.com/pthm-cable/shimmer/source"
	"github.com/pthm-cable/shimmer/systems"
	"github.com/pthm-cable/shimmer/telemetry"
	"github.com/pthm-cable/shimmer/ui"
)

// Game is the render loop and field manager.
//
// Update, Draw, HandleInput, SetField, SetSettings and OnViewportResize are
// called from the render goroutine. OnPointerMove and OnPointerEnd may be
// called from any goroutine.
type Game struct {
	cfg    *config.Config
	seed   int64
	loader source.Loader

	// Active field; nil while no field is available
	field   atomic.Pointer[systems.Field]
	pointer *systems.PointerTracker

	// Field manager state, guarded by mu
	mu         sync.Mutex
	state      State
	epoch      uint64
	mode       config.Mode
	source     string
	settings   config.Settings
	lastSource string // Most recent image source, kept across mode toggles
	lastErr    error
	cancel     func()
	cache      map[string]image.Image

	// Generation results from background goroutines
	results  chan generation
	inflight atomic.Int32
	done     chan struct{}
	unload   sync.Once

	compositor *renderer.Compositor
	presenter  *renderer.Presenter
	parallel   *parallelState
	width      int
	height     int

	tick uint64

	// Host UI
	controls  *ui.ControlsPanel
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	showPerf  bool
	headless  bool

	// Telemetry
	perfCollector *telemetry.PerfCollector
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	logStats      bool
	statsBuf      []systems.ParticleState
}

// NewGame creates a game for cfg and requests the configured field.
func NewGame(cfg *config.Config, opts Options) *Game {
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = cfg.Screen.Width
	}
	if height <= 0 {
		height = cfg.Screen.Height
	}

	loader := opts.Loader
	if loader == nil {
		loader = source.NewLoader(time.Duration(cfg.Field.LoadTimeout * float64(time.Second)))
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	fps := cfg.Screen.TargetFPS
	if fps <= 0 {
		fps = 60
	}

	g := &Game{
		cfg:           cfg,
		seed:          opts.Seed,
		loader:        loader,
		pointer:       systems.NewPointerTracker(),
		settings:      cfg.Derived.Settings,
		cache:         make(map[string]image.Image),
		results:       make(chan generation, resultBuffer),
		done:          make(chan struct{}),
		compositor:    renderer.NewCompositor(width, height, cfg.Render, cfg.Derived),
		parallel:      newParallelState(cfg.Parallel.Threshold),
		width:         width,
		height:        height,
		headless:      opts.Headless,
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:     telemetry.NewCollector(statsWindow, 1/float64(fps)),
		outputManager: opts.Output,
		logStats:      opts.LogStats,
	}
	if !opts.Headless {
		g.presenter = renderer.NewPresenter()
		g.controls = ui.NewControlsPanel(10, 10, 300)
		g.hud = ui.NewHUD()
		g.perfPanel = ui.NewPerfPanel(int32(width)-230, 10, 220)
	}

	if err := g.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	g.SetField(cfg.Field.Mode, cfg.Field.Image, cfg.Derived.Settings)
	return g
}

// Update advances and composites one frame. It never blocks on field
// generation: with no field it still paints the fade layer and advances time.
func (g *Game) Update() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseDrain)
	g.drainResults()

	g.perfCollector.StartPhase(telemetry.PhaseFade)
	g.compositor.Fade()

	field := g.field.Load()
	ctx := g.frameContext()

	g.perfCollector.StartPhase(telemetry.PhaseIntegrate)
	if g.parallel.shouldParallelize(field.Len()) {
		g.parallel.integrate(field, ctx)
	} else {
		systems.IntegrateField(field, ctx)
	}

	g.perfCollector.StartPhase(telemetry.PhaseComposite)
	g.drawField(field)

	g.perfCollector.EndTick()
	g.tick++

	g.flushTelemetry(field, ctx.Pointer.Active)
}

// frameContext builds the read-only inputs shared by every particle this
// frame, including the single pointer snapshot.
func (g *Game) frameContext() *systems.FrameContext {
	g.mu.Lock()
	settings := g.settings
	g.mu.Unlock()

	return &systems.FrameContext{
		Settings:    settings,
		Tick:        g.tick,
		Pointer:     g.pointer.Snapshot(),
		Width:       float64(g.width),
		Height:      float64(g.height),
		Interaction: g.cfg.Interaction,
		AccentBoost: g.cfg.Render.AccentBoost,
	}
}

// drawField composites every particle of field at its current position.
func (g *Game) drawField(field *systems.Field) {
	if field == nil {
		return
	}
	query := field.Query()
	for query.Next() {
		_, pos, _, look, _, render := query.Get()
		g.compositor.DrawParticle(*pos, *look, *render)
	}
}

// Frame returns the composited frame. The image is reused by the next Update.
func (g *Game) Frame() *image.RGBA {
	return g.compositor.Frame()
}

// Field returns the active field, or nil.
func (g *Game) Field() *systems.Field {
	return g.field.Load()
}

// Tick returns the number of frames rendered.
func (g *Game) Tick() uint64 {
	return g.tick
}

// OnPointerMove records the pointer position and marks it active.
func (g *Game) OnPointerMove(x, y float64) {
	g.pointer.Move(x, y)
}

// OnPointerEnd marks the pointer inactive.
func (g *Game) OnPointerEnd() {
	g.pointer.End()
}

// Unload cancels pending generation, stops the worker pool and frees GPU
// resources.
func (g *Game) Unload() {
	g.unload.Do(func() {
		g.mu.Lock()
		if g.cancel != nil {
			g.cancel()
			g.cancel = nil
		}
		g.mu.Unlock()

		close(g.done)
		g.parallel.stopWorkers()

		if g.presenter != nil {
			g.presenter.Unload()
		}
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	})
}

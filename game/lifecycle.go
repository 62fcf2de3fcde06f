package game

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/shimmer/config"
	"github.com/pthm-cable/shimmer/source"
	"github.com/pthm-cable/shimmer/systems"
)

// State is the field manager state.
type State int

const (
	StateNoField State = iota // no field; Status().Err says why, if anything failed
	StatePending              // waiting for an image to load and sample
	StateReady                // a field is active
)

func (s State) String() string {
	switch s {
	case StateNoField:
		return "no_field"
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

const (
	resultBuffer   = 16
	imageCacheSize = 8
)

// ErrNoSource is reported when image mode is requested without a locator.
var ErrNoSource = errors.New("image mode requires an image source")

// Status is a snapshot of the field manager.
type Status struct {
	State     State
	Epoch     uint64
	Mode      config.Mode
	Source    string
	Particles int
	Err       error
}

// generation is the result of one background field request.
type generation struct {
	epoch    uint64
	locator  string // Locator the image came from
	fallback bool
	field    *systems.Field
	err      error
}

// Status returns the current state, epoch and last generation error.
func (g *Game) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Status{
		State:     g.state,
		Epoch:     g.epoch,
		Mode:      g.mode,
		Source:    g.source,
		Particles: g.field.Load().Len(),
		Err:       g.lastErr,
	}
}

// Settings returns the live settings.
func (g *Game) Settings() config.Settings {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settings
}

// SetField selects the mode, image source and settings. The field is
// regenerated when the mode or source changes, or when gap changes in image
// mode; otherwise only the live settings are replaced. source is ignored in
// generative mode.
func (g *Game) SetField(mode config.Mode, src string, settings config.Settings) {
	settings = settings.Clamp()

	g.mu.Lock()
	defer g.mu.Unlock()

	if mode == config.ModeGenerative {
		src = ""
	} else if src != "" {
		g.lastSource = src
	}
	regen := g.epoch == 0 || mode != g.mode || src != g.source
	regen = regen || (mode == config.ModeImage && settings.Gap != g.settings.Gap)

	g.mode = mode
	g.source = src
	g.settings = settings
	if regen {
		g.regenerateLocked()
	}
}

// SetSettings replaces the live settings. Physics changes apply on the next
// frame; a gap change in image mode regenerates the field.
func (g *Game) SetSettings(settings config.Settings) {
	settings = settings.Clamp()

	g.mu.Lock()
	defer g.mu.Unlock()

	regen := g.mode == config.ModeImage && settings.Gap != g.settings.Gap
	g.settings = settings
	if regen {
		g.regenerateLocked()
	}
}

// OnViewportResize resizes the canvas and regenerates the field against the
// new extent.
func (g *Game) OnViewportResize(width, height int) {
	if width == g.width && height == g.height {
		return
	}
	g.width = width
	g.height = height
	g.compositor.Resize(width, height)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.regenerateLocked()
}

// Regenerate discards the active field and builds a new one from the current
// mode, source and settings.
func (g *Game) Regenerate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.regenerateLocked()
}

// regenerateLocked starts a new generation epoch. The old field is discarded
// at once and any pending request is cancelled. Callers hold g.mu.
func (g *Game) regenerateLocked() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.epoch++
	g.lastErr = nil
	g.field.Store(nil)

	epoch := g.epoch
	rng := rand.New(rand.NewSource(g.seed + int64(epoch)))

	switch g.mode {
	case config.ModeGenerative:
		field, err := systems.GenerateTree(rng, systems.TreeParamsFromConfig(g.cfg, g.width, g.height))
		g.finishLocked(generation{epoch: epoch, field: field, err: err})

	case config.ModeImage:
		primary := g.source
		if primary == "" {
			primary = g.cfg.Field.FallbackImage
		}
		if primary == "" {
			g.finishLocked(generation{epoch: epoch, err: ErrNoSource})
			return
		}
		g.state = StatePending
		g.requestImageLocked(epoch, rng, primary)
		slog.Info("field requested",
			"epoch", epoch,
			"mode", g.mode,
			"source", source.Describe(primary),
		)

	default:
		g.finishLocked(generation{epoch: epoch, err: fmt.Errorf("unknown mode %q", g.mode)})
	}
}

// requestImageLocked loads and samples an image on a goroutine. The result is
// delivered through g.results and installed by drainResults.
func (g *Game) requestImageLocked(epoch uint64, rng *rand.Rand, primary string) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout := g.cfg.Field.LoadTimeout; timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(timeout*float64(time.Second)))
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	g.cancel = cancel

	fallback := g.cfg.Field.FallbackImage
	params := systems.SampleParamsFromConfig(g.cfg, g.settings, g.width, g.height)
	loader := &cachingLoader{g: g}

	g.inflight.Add(1)
	go func() {
		defer cancel()

		res := generation{epoch: epoch}
		loaded, err := source.LoadWithFallback(ctx, loader, primary, fallback)
		if err != nil {
			res.err = err
			g.deliver(res)
			return
		}
		res.locator = loaded.Locator
		res.fallback = loaded.Primary != nil
		res.field, res.err = systems.SampleImage(loaded.Image, rng, params)
		g.deliver(res)
	}()
}

// deliver hands res to the render goroutine. After Unload the result is
// discarded.
func (g *Game) deliver(res generation) {
	select {
	case <-g.done:
		g.inflight.Add(-1)
		return
	default:
	}
	select {
	case g.results <- res:
	case <-g.done:
		g.inflight.Add(-1)
	}
}

// drainResults installs every finished generation without blocking.
func (g *Game) drainResults() {
	for {
		select {
		case res := <-g.results:
			g.install(res)
		default:
			return
		}
	}
}

// WaitIdle blocks until every pending generation has been delivered and
// installed (or dropped as stale). It is meant for tools and tests that do
// not run a frame loop.
func (g *Game) WaitIdle(ctx context.Context) error {
	for g.inflight.Load() > 0 {
		select {
		case res := <-g.results:
			g.install(res)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (g *Game) install(res generation) {
	g.inflight.Add(-1)

	g.mu.Lock()
	defer g.mu.Unlock()

	if res.epoch != g.epoch {
		g.collector.RecordStaleDrop()
		slog.Debug("stale field dropped", "epoch", res.epoch, "current", g.epoch)
		return
	}
	if res.fallback {
		g.collector.RecordFallback()
	}
	g.finishLocked(res)
}

// finishLocked applies the outcome of the current epoch's generation.
func (g *Game) finishLocked(res generation) {
	if res.err != nil {
		g.state = StateNoField
		g.lastErr = res.err
		g.field.Store(nil)
		g.collector.RecordLoadFailure()
		slog.Error("field generation failed",
			"epoch", res.epoch,
			"mode", g.mode,
			"error", res.err,
		)
		return
	}

	res.field.Epoch = res.epoch
	g.field.Store(res.field)
	g.state = StateReady
	g.lastErr = nil
	g.collector.RecordRegeneration()
	slog.Info("field ready",
		"epoch", res.epoch,
		"mode", res.field.Mode,
		"particles", res.field.Len(),
		"accents", res.field.Accents(),
		"fallback", res.fallback,
	)
}

// cachingLoader serves decoded images from the game's cache so resize and gap
// regenerations resample without reloading.
type cachingLoader struct {
	g *Game
}

func (l *cachingLoader) Load(ctx context.Context, locator string) (image.Image, error) {
	l.g.mu.Lock()
	img, ok := l.g.cache[locator]
	l.g.mu.Unlock()
	if ok {
		return img, nil
	}

	img, err := l.g.loader.Load(ctx, locator)
	if err != nil {
		return nil, err
	}

	l.g.mu.Lock()
	if len(l.g.cache) >= imageCacheSize {
		for k := range l.g.cache {
			delete(l.g.cache, k)
			break
		}
	}
	l.g.cache[locator] = img
	l.g.mu.Unlock()
	return img, nil
}

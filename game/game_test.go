package game

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pthm-cable/shimmer/config"
	"github.com/pthm-cable/shimmer/systems"
	"github.com/pthm-cable/shimmer/telemetry"
)

const (
	testWidth  = 200
	testHeight = 100
)

var (
	red  = color.NRGBA{R: 230, G: 10, B: 10, A: 255}
	blue = color.NRGBA{R: 10, G: 10, B: 230, A: 255}
)

// fakeLoader serves in-memory images. Locators with a gate block until the
// gate is closed, ignoring cancellation, so tests control completion order.
type fakeLoader struct {
	mu     sync.Mutex
	images map[string]image.Image
	gates  map[string]chan struct{}
	calls  map[string]int
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		images: make(map[string]image.Image),
		gates:  make(map[string]chan struct{}),
		calls:  make(map[string]int),
	}
}

func (l *fakeLoader) add(locator string, c color.NRGBA) {
	img := image.NewNRGBA(image.Rect(0, 0, 50, 25))
	for y := 0; y < 25; y++ {
		for x := 0; x < 50; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	l.mu.Lock()
	l.images[locator] = img
	l.mu.Unlock()
}

func (l *fakeLoader) gate(locator string) chan struct{} {
	ch := make(chan struct{})
	l.mu.Lock()
	l.gates[locator] = ch
	l.mu.Unlock()
	return ch
}

func (l *fakeLoader) callCount(locator string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[locator]
}

func (l *fakeLoader) Load(_ context.Context, locator string) (image.Image, error) {
	l.mu.Lock()
	l.calls[locator]++
	gate := l.gates[locator]
	img, ok := l.images[locator]
	l.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if !ok {
		return nil, fmt.Errorf("no image %q", locator)
	}
	return img, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

func imageConfig(t *testing.T, primary string) *config.Config {
	cfg := testConfig(t)
	cfg.Field.Mode = config.ModeImage
	cfg.Field.Image = primary
	return cfg
}

func newTestGame(t *testing.T, cfg *config.Config, loader *fakeLoader) *Game {
	t.Helper()
	opts := Options{Headless: true, Width: testWidth, Height: testHeight, Seed: 1}
	if loader != nil {
		opts.Loader = loader
	}
	g := NewGame(cfg, opts)
	t.Cleanup(g.Unload)
	return g
}

func waitIdle(t *testing.T, g *Game) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.WaitIdle(ctx); err != nil {
		t.Fatalf("waiting for generation: %v", err)
	}
}

// assertFieldColor fails unless every particle of f matches want in its red
// and blue channels.
func assertFieldColor(t *testing.T, f *systems.Field, want color.NRGBA) {
	t.Helper()
	if f.Len() == 0 {
		t.Fatal("expected a non-empty field")
	}
	for _, s := range f.Snapshot(nil) {
		c := s.Look.Color
		if absDiff(c.R, want.R) > 8 || absDiff(c.B, want.B) > 8 {
			t.Fatalf("particle color %+v, want ~%+v", c, want)
		}
	}
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

func TestGenerativeFieldReady(t *testing.T) {
	g := newTestGame(t, testConfig(t), nil)

	status := g.Status()
	if status.State != StateReady {
		t.Fatalf("expected ready, got %v (err %v)", status.State, status.Err)
	}
	if status.Epoch != 1 || g.Field().Epoch != 1 {
		t.Errorf("expected epoch 1, got status %d field %d", status.Epoch, g.Field().Epoch)
	}
	if status.Mode != config.ModeGenerative || g.Field().Mode != config.ModeGenerative {
		t.Errorf("expected generative field, got %v", g.Field().Mode)
	}
	if status.Particles == 0 || g.Field().Accents() == 0 {
		t.Errorf("expected body and accent particles, got %d/%d", status.Particles, g.Field().Accents())
	}
}

func TestUpdateAdvancesFrames(t *testing.T) {
	g := newTestGame(t, testConfig(t), nil)
	before := g.Field().Snapshot(nil)

	for i := 0; i < 30; i++ {
		g.Update()
	}
	if g.Tick() != 30 {
		t.Errorf("expected tick 30, got %d", g.Tick())
	}

	after := g.Field().Snapshot(nil)
	moved := 0
	for i := range before {
		if before[i].Pos != after[i].Pos {
			moved++
		}
	}
	if moved == 0 {
		t.Error("expected breathing to move particles")
	}

	w, h := g.Frame().Bounds().Dx(), g.Frame().Bounds().Dy()
	if w != testWidth || h != testHeight {
		t.Errorf("expected %dx%d frame, got %dx%d", testWidth, testHeight, w, h)
	}
}

func TestPointerRepelsParticles(t *testing.T) {
	cfg := testConfig(t)
	cfg.Settings.BreathIntensity = 0
	cfg.Field.Depth = false
	cfg.Derived.Settings = cfg.Settings.Clamp()
	g := newTestGame(t, cfg, nil)

	// Tree trunk area, just above the base
	px, py := float64(testWidth)/2, float64(testHeight)*0.8
	g.OnPointerMove(px, py)
	g.Update()

	var pushed int
	for _, s := range g.Field().Snapshot(nil) {
		dx, dy := s.Pos.X-s.Anchor.X, s.Pos.Y-s.Anchor.Y
		if dx == 0 && dy == 0 {
			continue
		}
		// Displacement points away from the pointer
		ax, ay := s.Anchor.X-px, s.Anchor.Y-py
		if dx*ax+dy*ay < 0 {
			t.Errorf("particle at %+v pulled toward pointer", s.Anchor)
		}
		pushed++
	}
	if pushed == 0 {
		t.Fatal("expected particles near the pointer to move")
	}

	g.OnPointerEnd()
	if g.pointer.Snapshot().Active {
		t.Error("expected pointer inactive after end")
	}
}

func TestParallelIntegrationMatchesSerial(t *testing.T) {
	serial := newTestGame(t, testConfig(t), nil)
	parallel := newTestGame(t, testConfig(t), nil)

	serial.parallel.threshold = math.MaxInt
	parallel.parallel.threshold = 1
	parallel.parallel.numWorkers = 4

	for i := 0; i < 20; i++ {
		x := float64(80 + i*2)
		serial.OnPointerMove(x, 60)
		parallel.OnPointerMove(x, 60)
		serial.Update()
		parallel.Update()
	}

	a := serial.Field().Snapshot(nil)
	b := parallel.Field().Snapshot(nil)
	if len(a) != len(b) {
		t.Fatalf("field sizes differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if math.Abs(a[i].Pos.X-b[i].Pos.X) > 1e-9 || math.Abs(a[i].Pos.Y-b[i].Pos.Y) > 1e-9 {
			t.Fatalf("particle %d: serial %+v, parallel %+v", i, a[i].Pos, b[i].Pos)
		}
	}
}

func TestEmptyFieldStillFades(t *testing.T) {
	loader := newFakeLoader()
	g := newTestGame(t, testConfig(t), loader)
	for i := 0; i < 10; i++ {
		g.Update()
	}

	g.SetField(config.ModeImage, "missing", g.Settings())
	waitIdle(t, g)
	if status := g.Status(); status.State != StateNoField || status.Err == nil {
		t.Fatalf("expected failed generation, got %v (err %v)", status.State, status.Err)
	}

	tick := g.Tick()
	for i := 0; i < 100; i++ {
		g.Update()
	}
	if g.Tick() != tick+100 {
		t.Errorf("expected 100 more ticks, got %d", g.Tick()-tick)
	}

	bg := g.cfg.Derived.Background
	frame := g.Frame()
	for i := 0; i < len(frame.Pix); i += 4 {
		if absDiff(frame.Pix[i], bg.R) > 3 || absDiff(frame.Pix[i+1], bg.G) > 3 || absDiff(frame.Pix[i+2], bg.B) > 3 {
			t.Fatalf("pixel %d = %v, expected trails faded to %+v", i/4, frame.Pix[i:i+4], bg)
		}
	}
}

func TestUnloadWithPendingGeneration(t *testing.T) {
	loader := newFakeLoader()
	loader.add("a", red)
	gate := loader.gate("a")

	g := NewGame(imageConfig(t, "a"), Options{Headless: true, Width: testWidth, Height: testHeight, Loader: loader})
	g.Unload()
	g.Unload()
	close(gate)

	deadline := time.Now().Add(5 * time.Second)
	for g.inflight.Load() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("pending generation never finished after unload")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTelemetryWindows(t *testing.T) {
	dir := t.TempDir()
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	g := NewGame(testConfig(t), Options{
		Headless:       true,
		Width:          testWidth,
		Height:         testHeight,
		StatsWindowSec: 0.05, // 3 frames at 60 fps
		Output:         out,
	})
	for i := 0; i < 12; i++ {
		g.Update()
	}
	g.Unload()

	data, err := os.ReadFile(filepath.Join(dir, "field.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header and 4 windows, got %d lines:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "window_end,") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "3,") || !strings.Contains(lines[1], ",generative,ready,1,") {
		t.Errorf("unexpected first window %q", lines[1])
	}

	for _, name := range []string{"perf.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
}

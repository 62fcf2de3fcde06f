package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shimmer/config"
	"github.com/pthm-cable/shimmer/source"
)

// HandleInput processes window, pointer and keyboard input.
func (g *Game) HandleInput() {
	// Window resize propagation
	g.handleResize()

	g.handlePointer()
	g.handleDroppedFiles()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeyTab) && g.controls != nil {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}
	if rl.IsKeyPressed(rl.KeyM) {
		g.toggleMode()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.Regenerate()
	}
}

// handleResize checks for window resize and regenerates at the new extent.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := rl.GetScreenWidth()
	h := rl.GetScreenHeight()
	if w == g.width && h == g.height {
		return
	}
	g.OnViewportResize(w, h)
	if g.perfPanel != nil {
		g.perfPanel.SetPosition(int32(w)-230, 10)
	}
}

// handlePointer feeds touch or hover position into the pointer tracker. The
// pointer is inactive while off-window or over the controls panel.
func (g *Game) handlePointer() {
	if rl.GetTouchPointCount() > 0 {
		touch := rl.GetTouchPosition(0)
		g.OnPointerMove(float64(touch.X), float64(touch.Y))
		return
	}

	if !rl.IsCursorOnScreen() {
		g.OnPointerEnd()
		return
	}
	mouse := rl.GetMousePosition()
	if g.controls != nil && g.controls.Contains(mouse.X, mouse.Y) {
		g.OnPointerEnd()
		return
	}
	g.OnPointerMove(float64(mouse.X), float64(mouse.Y))
}

// handleDroppedFiles switches to image mode with the last dropped file.
func (g *Game) handleDroppedFiles() {
	if !rl.IsFileDropped() {
		return
	}
	files := rl.LoadDroppedFiles()
	defer rl.UnloadDroppedFiles()
	if len(files) == 0 {
		return
	}

	path := files[len(files)-1]
	slog.Info("image dropped", "path", source.Describe(path))
	g.SetField(config.ModeImage, path, g.Settings())
}

// toggleMode switches between the generative tree and the configured image.
func (g *Game) toggleMode() {
	status := g.Status()
	if status.Mode == config.ModeImage {
		g.SetField(config.ModeGenerative, "", g.Settings())
		return
	}

	src := g.lastImage()
	g.SetField(config.ModeImage, src, g.Settings())
}

// lastImage returns the most recent image source, or the configured one.
func (g *Game) lastImage() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastSource != "" {
		return g.lastSource
	}
	return g.cfg.Field.Image
}

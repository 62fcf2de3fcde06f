package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shimmer/source"
	"github.com/pthm-cable/shimmer/ui"
)

const controlsLegend = "[Tab] Controls  [M] Mode  [R] Regenerate  [P] Perf  [F11] Fullscreen  Drop an image to show it"

// Draw presents the composited frame and the UI. Settings edited on the
// controls panel take effect on the next Update.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	g.presenter.Draw(g.Frame())
	g.drawUI()

	rl.EndDrawing()
}

func (g *Game) drawUI() {
	status := g.Status()
	stats := g.perfCollector.Stats()

	data := ui.HUDData{
		Mode:         string(status.Mode),
		State:        status.State.String(),
		Ready:        status.State == StateReady,
		Epoch:        status.Epoch,
		Particles:    status.Particles,
		Source:       source.Describe(status.Source),
		Tick:         g.tick,
		FPS:          int32(stats.FPS),
		ScreenWidth:  int32(g.width),
		ScreenHeight: int32(g.height),
	}
	if status.Err != nil {
		data.Err = status.Err.Error()
	}
	g.hud.Draw(data)
	g.hud.DrawControls(int32(g.height), controlsLegend)

	if g.showPerf {
		g.perfPanel.Draw(stats)
	}

	result := g.controls.Draw(g.Settings(), status.Mode)
	if result.Changed {
		g.SetSettings(result.Settings)
	}
	switch result.Action {
	case ui.ActionToggleMode:
		g.toggleMode()
	case ui.ActionRegenerate:
		g.Regenerate()
	}
}

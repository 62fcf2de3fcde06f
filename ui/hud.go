package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shimmer/telemetry"
)

// HUDData holds all the data needed to render the status line.
type HUDData struct {
	Mode         string
	State        string
	Ready        bool
	Epoch        uint64
	Particles    int
	Source       string // Already shortened for display
	Err          string
	Tick         uint64
	FPS          int32
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the status line and key legend along the bottom edge.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	t := h.renderer.Theme
	y := data.ScreenHeight - 45

	statusColor := rl.Color{R: 100, G: 200, B: 100, A: 255}
	if !data.Ready {
		statusColor = rl.Color{R: 200, G: 180, B: 100, A: 255}
	}
	rl.DrawRectangle(10, y+4, 8, 8, statusColor)

	status := fmt.Sprintf("%s | %s | epoch %d | %d particles | tick %d | %d fps",
		data.Mode, data.State, data.Epoch, data.Particles, data.Tick, data.FPS)
	if data.Source != "" {
		status += " | " + data.Source
	}
	rl.DrawText(status, 24, y, 14, t.Label)

	if data.Err != "" {
		rl.DrawText(data.Err, 24, y-18, 14, t.Error)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the frame phase breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	padding := r.Theme.Pad
	height := padding*2 + r.Theme.Line + 4 + r.Theme.Line*int32(2+len(telemetry.Phases))
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + padding
	y := r.DrawSectionHeader(x, p.y+padding, "Frame")
	y = r.DrawLabelValue(x, y, "Update", stats.AvgFrame.Round(time.Microsecond).String())
	y = r.DrawLabelValue(x, y, "FPS", fmt.Sprintf("%.0f", stats.FPS))

	for _, phase := range telemetry.Phases {
		y = r.DrawBar(x, y, phase.String(), float32(stats.PhasePct[phase]/100), p.width-padding*2)
	}
}

package ui

import (
	"math"

	"github.com/pthm-cable/shimmer/config"
)

// Slider ranges. The upper bounds are UI limits only; config files may go
// higher.
const (
	sliderGapMax    = 20
	sliderSizeMax   = 6
	sliderEaseMax   = 0.25
	sliderBreathMax = 6
)

// settingSlider binds one slider to one field of config.Settings.
type settingSlider struct {
	label    string
	format   string
	min, max float32
	get      func(config.Settings) float32
	set      func(*config.Settings, float32)
}

var settingSliders = []settingSlider{
	{
		label: "Gap (image density)", format: "%.0f",
		min: 1, max: sliderGapMax,
		get: func(s config.Settings) float32 { return float32(s.Gap) },
		set: func(s *config.Settings, v float32) { s.Gap = int(math.Round(float64(v))) },
	},
	{
		label: "Size", format: "%.2f",
		min: config.MinSize, max: sliderSizeMax,
		get: func(s config.Settings) float32 { return float32(s.Size) },
		set: func(s *config.Settings, v float32) { s.Size = float64(v) },
	},
	{
		label: "Friction", format: "%.2f",
		min: 0, max: config.MaxFriction,
		get: func(s config.Settings) float32 { return float32(s.Friction) },
		set: func(s *config.Settings, v float32) { s.Friction = float64(v) },
	},
	{
		label: "Ease", format: "%.3f",
		min: config.MinEase, max: sliderEaseMax,
		get: func(s config.Settings) float32 { return float32(s.Ease) },
		set: func(s *config.Settings, v float32) { s.Ease = float64(v) },
	},
	{
		label: "Breath", format: "%.1f",
		min: 0, max: sliderBreathMax,
		get: func(s config.Settings) float32 { return float32(s.BreathIntensity) },
		set: func(s *config.Settings, v float32) { s.BreathIntensity = float64(v) },
	},
}

// ControlsAction is a button press on the controls panel.
type ControlsAction int

const (
	ActionNone ControlsAction = iota
	ActionToggleMode
	ActionRegenerate
)

// ControlsResult is what the user did to the panel this frame.
type ControlsResult struct {
	Settings config.Settings
	Changed  bool // Settings differ from the ones passed to Draw
	Action   ControlsAction
}

// ControlsPanel renders the settings sliders and the mode buttons.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Height returns the panel height in pixels.
func (c *ControlsPanel) Height() int32 {
	t := c.renderer.Theme
	rowHeight := t.Line - 2 + t.SliderH + 6
	return t.Pad*2 + t.Line + 4 + int32(len(settingSliders))*rowHeight + t.ButtonH + 4
}

// Contains reports whether (px, py) is over the visible panel.
func (c *ControlsPanel) Contains(px, py float32) bool {
	if !c.visible {
		return false
	}
	return px >= float32(c.x) && px < float32(c.x+c.width) &&
		py >= float32(c.y) && py < float32(c.y+c.Height())
}

// Draw renders the panel for the given settings and mode.
func (c *ControlsPanel) Draw(settings config.Settings, mode config.Mode) ControlsResult {
	result := ControlsResult{Settings: settings}
	if !c.visible {
		return result
	}

	r := c.renderer
	padding := r.Theme.Pad
	inner := c.width - padding*2

	r.DrawPanel(c.x, c.y, c.width, c.Height())

	x := c.x + padding
	y := r.DrawSectionHeader(x, c.y+padding, "Field")

	for _, s := range settingSliders {
		var v float32
		v, y = r.DrawSlider(x, y, s.label, s.format, s.get(result.Settings), s.min, s.max, inner)
		s.set(&result.Settings, v)
	}
	result.Settings = result.Settings.Clamp()
	result.Changed = result.Settings != settings

	half := (inner - 8) / 2
	modeText := "Show Image"
	if mode == config.ModeImage {
		modeText = "Show Tree"
	}
	if r.DrawButton(x, y, half, modeText) {
		result.Action = ActionToggleMode
	}
	if r.DrawButton(x+half+8, y, half, "Regenerate") {
		result.Action = ActionRegenerate
	}

	return result
}

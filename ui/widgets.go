package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer draws themed widgets. Every Draw* that lays out a row returns the
// Y of the next row.
type Renderer struct {
	Theme Theme
}

func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// valueGutter is the space right of bars and sliders for the numeric readout.
const valueGutter = 50

func rect(x, y, w, h int32) rl.Rectangle {
	return rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(w), Height: float32(h)}
}

func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.Panel)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.Border)
}

func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	t := r.Theme
	rl.DrawText(title, x, y, t.HeadingFont, t.Heading)
	return y + t.Line + 4
}

// DrawLabelValue draws "label:" in the label column and value after it.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	t := r.Theme
	rl.DrawText(label+":", x, y, t.Font, t.Label)
	rl.DrawText(value, x+t.LabelW, y, t.Font, t.Value)
	return y + t.Line
}

// DrawBar draws a fraction in [0, 1] as a filled bar with a percentage.
func (r *Renderer) DrawBar(x, y int32, label string, frac float32, width int32) int32 {
	t := r.Theme
	frac = min(max(frac, 0), 1)
	left := x + t.LabelW
	span := width - t.LabelW - valueGutter

	rl.DrawText(label+":", x, y, t.Font, t.Label)
	rl.DrawRectangle(left, y+2, span, t.BarH, t.Track)
	rl.DrawRectangle(left, y+2, int32(float32(span)*frac), t.BarH, t.Fill)
	rl.DrawText(fmt.Sprintf("%.1f%%", frac*100), left+span+5, y, t.Font, t.Value)
	return y + t.Line
}

// DrawSlider draws a captioned raygui slider bar with its formatted value and
// returns the edited value.
func (r *Renderer) DrawSlider(x, y int32, label, format string, value, lo, hi float32, width int32) (float32, int32) {
	t := r.Theme
	rl.DrawText(label, x, y, t.Font, t.Label)
	y += t.Line - 2

	span := width - valueGutter
	value = gui.SliderBar(rect(x, y, span, t.SliderH), "", "", value, lo, hi)
	rl.DrawText(fmt.Sprintf(format, value), x+span+8, y+2, t.Font, t.Value)
	return value, y + t.SliderH + 6
}

// DrawButton reports whether the button was clicked this frame.
func (r *Renderer) DrawButton(x, y, width int32, text string) bool {
	return gui.Button(rect(x, y, width, r.Theme.ButtonH), text)
}

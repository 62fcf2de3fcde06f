// Package ui draws the on-screen controls, status line and performance panel
// over the composited particle frame.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme is the palette and metrics shared by every panel.
type Theme struct {
	Panel, Border rl.Color
	Heading       rl.Color
	Label, Value  rl.Color
	Error         rl.Color
	Track, Fill   rl.Color // bar and slider background and fill

	Pad, Line              int32
	LabelW                 int32 // label column before values and bars
	BarH, SliderH, ButtonH int32
	Font, HeadingFont      int32
}

// DefaultTheme is a dark translucent panel that reads over both modes.
func DefaultTheme() Theme {
	return Theme{
		Panel:   rl.Color{R: 12, G: 16, B: 24, A: 210},
		Border:  rl.Color{R: 70, G: 80, B: 96, A: 255},
		Heading: rl.Color{R: 255, G: 214, B: 110, A: 255},
		Label:   rl.LightGray,
		Value:   rl.RayWhite,
		Error:   rl.Color{R: 230, G: 110, B: 100, A: 255},
		Track:   rl.Color{R: 38, G: 42, B: 50, A: 255},
		Fill:    rl.Color{R: 110, G: 170, B: 140, A: 255},

		Pad:         10,
		Line:        16,
		LabelW:      70,
		BarH:        10,
		SliderH:     16,
		ButtonH:     26,
		Font:        12,
		HeadingFont: 16,
	}
}

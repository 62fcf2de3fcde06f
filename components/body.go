package components

import "image/color"

// Appearance holds the fixed visual identity of a particle.
type Appearance struct {
	Color    color.NRGBA // Fixed at creation; A is the particle's own translucency
	BaseSize float64     // Radius multiplier applied to Settings.Size
	Accent   bool        // Ornament / highlight: glow pass and size boost
}

// Motion holds the per-particle oscillation and depth parameters.
type Motion struct {
	Phase            float64 // [0, 2π), decorrelates breathing
	OscillationSpeed float64 // radians per frame
	Depth            float64 // [-1, 1], only meaningful when HasDepth
	HasDepth         bool
}

// Render holds values derived by the integrator each frame.
type Render struct {
	Size  float64 // Current radius, never below the size floor
	Alpha float64 // [0, 1], multiplied into Appearance.Color.A
}

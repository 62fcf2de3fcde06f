package components

import "gonum.org/v1/gonum/spatial/r2"

// Anchor is the origin a particle springs back to. Set once at spawn.
type Anchor struct {
	X, Y float64
}

// Position represents a particle's current render location.
type Position struct {
	X, Y float64
}

// Velocity represents a particle's velocity in pixels per frame.
type Velocity struct {
	X, Y float64
}

// Vec returns the anchor as a gonum vector.
func (a Anchor) Vec() r2.Vec { return r2.Vec{X: a.X, Y: a.Y} }

// Vec returns the position as a gonum vector.
func (p Position) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Vec returns the velocity as a gonum vector.
func (v Velocity) Vec() r2.Vec { return r2.Vec{X: v.X, Y: v.Y} }

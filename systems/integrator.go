package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shimmer/components"
	"github.com/pthm-cable/shimmer/config"
)

// MinParticleSize is the floor for a particle's derived radius.
const MinParticleSize = 0.3

// Parallax and twinkle constants.
const (
	driftAmplitude  = 10.0 // px of autonomous parallax drift at depth ±1
	driftSpeed      = 0.01 // radians per frame
	parallaxFactor  = 0.05 // pointer offset scale at depth ±1
	depthSizeFactor = 0.3
	twinkleAmount   = 0.25
	twinkleSpeed    = 0.08
)

// FrameContext is everything the integrator reads besides the particle itself.
// One context is built per frame and shared read-only by all particles.
type FrameContext struct {
	Settings    config.Settings
	Tick        uint64
	Pointer     PointerState
	Width       float64
	Height      float64
	Interaction config.InteractionConfig
	AccentBoost float64
}

// Center returns the canvas center.
func (c *FrameContext) Center() r2.Vec {
	return r2.Vec{X: c.Width / 2, Y: c.Height / 2}
}

// Home returns the point the spring pulls a particle toward this frame.
func Home(anchor components.Anchor, motion *components.Motion, ctx *FrameContext) r2.Vec {
	t := float64(ctx.Tick)
	angle := t*motion.OscillationSpeed + motion.Phase
	breath := ctx.Settings.BreathIntensity

	home := r2.Add(anchor.Vec(), r2.Vec{X: breath * math.Sin(angle), Y: breath * math.Cos(angle)})

	if motion.HasDepth {
		if ctx.Pointer.Active {
			pointer := r2.Vec{X: ctx.Pointer.X, Y: ctx.Pointer.Y}
			offset := r2.Scale(parallaxFactor*motion.Depth, r2.Sub(pointer, ctx.Center()))
			home = r2.Add(home, offset)
		} else {
			home.X += driftAmplitude * motion.Depth * math.Sin(t*driftSpeed)
			home.Y += driftAmplitude * motion.Depth * math.Cos(t*driftSpeed)
		}
	}
	return home
}

// Repulsion returns the pointer force on a particle at pos. The magnitude falls
// off linearly from Strength at the pointer to zero at Radius.
func Repulsion(pos r2.Vec, pointer PointerState, in config.InteractionConfig) r2.Vec {
	if !pointer.Active || in.Radius <= 0 {
		return r2.Vec{}
	}
	away := r2.Sub(pos, r2.Vec{X: pointer.X, Y: pointer.Y})
	dist := r2.Norm(away)
	if dist >= in.Radius {
		return r2.Vec{}
	}

	magnitude := (in.Radius - dist) / in.Radius * in.Strength
	dir := r2.Vec{X: 1}
	if dist > 0 {
		dir = r2.Scale(1/dist, away)
	}
	return r2.Scale(magnitude, dir)
}

// Integrate advances one particle by one frame: spring toward home, pointer
// repulsion, friction, then position. It also derives the render size and alpha.
func Integrate(
	anchor components.Anchor,
	pos *components.Position,
	vel *components.Velocity,
	look *components.Appearance,
	motion *components.Motion,
	out *components.Render,
	ctx *FrameContext,
) {
	p := pos.Vec()
	v := vel.Vec()

	home := Home(anchor, motion, ctx)
	v = r2.Add(v, r2.Scale(ctx.Settings.Ease, r2.Sub(home, p)))
	v = r2.Add(v, Repulsion(p, ctx.Pointer, ctx.Interaction))
	v = r2.Scale(ctx.Settings.Friction, v)
	p = r2.Add(p, v)

	vel.X, vel.Y = v.X, v.Y
	pos.X, pos.Y = p.X, p.Y

	out.Size = ParticleSize(look, motion, ctx)
	out.Alpha = ParticleAlpha(motion)
}

// ParticleSize returns the derived radius, never below MinParticleSize.
func ParticleSize(look *components.Appearance, motion *components.Motion, ctx *FrameContext) float64 {
	size := ctx.Settings.Size * look.BaseSize
	if look.Accent {
		boost := ctx.AccentBoost
		if boost <= 0 {
			boost = 1
		}
		twinkle := 1 + twinkleAmount*math.Sin(float64(ctx.Tick)*twinkleSpeed+motion.Phase)
		size *= boost * twinkle
	}
	if motion.HasDepth {
		size *= 1 + motion.Depth*depthSizeFactor
	}
	if size < MinParticleSize || math.IsNaN(size) {
		return MinParticleSize
	}
	return size
}

// ParticleAlpha returns the depth-derived opacity: far particles dim, near
// particles stay opaque. Depth-neutral particles are fully opaque.
func ParticleAlpha(motion *components.Motion) float64 {
	if !motion.HasDepth {
		return 1
	}
	return clampFloat(0.8+motion.Depth*0.4, 0.2, 1.0)
}

// Step integrates a detached particle copy.
func Step(s *ParticleState, ctx *FrameContext) {
	Integrate(s.Anchor, &s.Pos, &s.Vel, &s.Look, &s.Motion, &s.Render, ctx)
}

// IntegrateField advances every particle of f in place on the calling goroutine.
func IntegrateField(f *Field, ctx *FrameContext) {
	if f == nil {
		return
	}
	query := f.Query()
	for query.Next() {
		anchor, pos, vel, look, motion, render := query.Get()
		Integrate(*anchor, pos, vel, look, motion, render, ctx)
	}
}

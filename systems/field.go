// Package systems contains particle field generation and physics.
package systems

import (
	"errors"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/shimmer/components"
	"github.com/pthm-cable/shimmer/config"
)

// ErrEmptyCanvas is returned when a generator is asked to fill a zero-sized canvas.
var ErrEmptyCanvas = errors.New("canvas has zero area")

// Field is one generated particle set. Each field owns its own ECS world, so
// replacing a field discards every particle at once.
type Field struct {
	Epoch  uint64 // Generation token that produced this field
	Mode   config.Mode
	Width  int
	Height int

	world  *ecs.World
	mapper *ecs.Map6[
		components.Anchor,
		components.Position,
		components.Velocity,
		components.Appearance,
		components.Motion,
		components.Render,
	]
	filter *ecs.Filter6[
		components.Anchor,
		components.Position,
		components.Velocity,
		components.Appearance,
		components.Motion,
		components.Render,
	]
	posMap *ecs.Map1[components.Position]

	count   int
	accents int
}

// ParticleState is a detached copy of one particle, used for parallel
// integration and inspection.
type ParticleState struct {
	Entity ecs.Entity
	Anchor components.Anchor
	Pos    components.Position
	Vel    components.Velocity
	Look   components.Appearance
	Motion components.Motion
	Render components.Render
}

// NewField creates an empty field for a canvas of the given size.
func NewField(mode config.Mode, width, height int) *Field {
	world := ecs.NewWorld()
	return &Field{
		Mode:   mode,
		Width:  width,
		Height: height,
		world:  world,
		mapper: ecs.NewMap6[
			components.Anchor,
			components.Position,
			components.Velocity,
			components.Appearance,
			components.Motion,
			components.Render,
		](world),
		filter: ecs.NewFilter6[
			components.Anchor,
			components.Position,
			components.Velocity,
			components.Appearance,
			components.Motion,
			components.Render,
		](world),
		posMap: ecs.NewMap1[components.Position](world),
	}
}

// Spawn adds a particle resting at its anchor.
func (f *Field) Spawn(x, y float64, look components.Appearance, motion components.Motion) ecs.Entity {
	anchor := components.Anchor{X: x, Y: y}
	pos := components.Position{X: x, Y: y}
	vel := components.Velocity{}
	render := components.Render{Alpha: 1}

	e := f.mapper.NewEntity(&anchor, &pos, &vel, &look, &motion, &render)
	f.count++
	if look.Accent {
		f.accents++
	}
	return e
}

// Len returns the number of particles.
func (f *Field) Len() int {
	if f == nil {
		return 0
	}
	return f.count
}

// Accents returns the number of accent particles.
func (f *Field) Accents() int {
	if f == nil {
		return 0
	}
	return f.accents
}

// Query iterates every particle's components.
func (f *Field) Query() ecs.Query6[
	components.Anchor,
	components.Position,
	components.Velocity,
	components.Appearance,
	components.Motion,
	components.Render,
] {
	return f.filter.Query()
}

// Get returns the live components of one particle.
func (f *Field) Get(e ecs.Entity) (
	*components.Anchor,
	*components.Position,
	*components.Velocity,
	*components.Appearance,
	*components.Motion,
	*components.Render,
) {
	return f.mapper.Get(e)
}

// Position returns a particle's current position.
func (f *Field) Position(e ecs.Entity) components.Position {
	return *f.posMap.Get(e)
}

// Snapshot appends a copy of every particle to dst and returns it.
func (f *Field) Snapshot(dst []ParticleState) []ParticleState {
	dst = dst[:0]
	if f == nil {
		return dst
	}
	query := f.filter.Query()
	for query.Next() {
		anchor, pos, vel, look, motion, render := query.Get()
		dst = append(dst, ParticleState{
			Entity: query.Entity(),
			Anchor: *anchor,
			Pos:    *pos,
			Vel:    *vel,
			Look:   *look,
			Motion: *motion,
			Render: *render,
		})
	}
	return dst
}

// Apply writes integrated state back for the particles in states.
func (f *Field) Apply(states []ParticleState) {
	for i := range states {
		s := &states[i]
		_, pos, vel, _, _, render := f.mapper.Get(s.Entity)
		if pos == nil {
			continue
		}
		*pos = s.Pos
		*vel = s.Vel
		*render = s.Render
	}
}

// Package components defines the ECS components of a particle.
//
// A particle is one entity carrying Anchor, Position, Velocity, Appearance,
// Motion and Render. Entities never reference each other.
package components

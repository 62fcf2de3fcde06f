package systems

import "sync/atomic"

// PointerState is the latest pointer position and whether it is pressed/hovering.
type PointerState struct {
	X, Y   float64
	Active bool
}

// PointerTracker holds the process-wide pointer state. Input handlers write it
// from any goroutine; the render loop reads one Snapshot per frame.
type PointerTracker struct {
	state atomic.Pointer[PointerState]
}

// NewPointerTracker creates a tracker with an inactive pointer at the origin.
func NewPointerTracker() *PointerTracker {
	t := &PointerTracker{}
	t.state.Store(&PointerState{})
	return t
}

// Move records a pointer position and marks the pointer active.
func (t *PointerTracker) Move(x, y float64) {
	t.state.Store(&PointerState{X: x, Y: y, Active: true})
}

// End marks the pointer inactive, keeping its last position.
func (t *PointerTracker) End() {
	for {
		old := t.state.Load()
		next := &PointerState{X: old.X, Y: old.Y}
		if t.state.CompareAndSwap(old, next) {
			return
		}
	}
}

// Snapshot returns a consistent copy of the current state.
func (t *PointerTracker) Snapshot() PointerState {
	return *t.state.Load()
}

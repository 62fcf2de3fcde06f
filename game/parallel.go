package game

import (
	"runtime"
	"sync"

	"github.com/pthm-cable/shimmer/systems"
)

// defaultParallelThreshold is the smallest field worth fanning out. Smaller
// fields integrate faster on the frame goroutine.
const defaultParallelThreshold = 512

// span is a half-open range of snapshot indices.
type span struct{ lo, hi int }

// parallelState integrates large fields on a persistent worker pool. Each
// frame snapshots the field, steps disjoint spans concurrently, then writes
// the results back. Particles never read each other, so spans need no
// coordination beyond the batch barrier.
type parallelState struct {
	threshold  int
	numWorkers int

	states []systems.ParticleState
	ctx    *systems.FrameContext

	jobs  chan span
	batch sync.WaitGroup
	pool  sync.WaitGroup
}

func newParallelState(threshold int) *parallelState {
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	return &parallelState{
		threshold:  threshold,
		numWorkers: runtime.GOMAXPROCS(0),
		states:     make([]systems.ParticleState, 0, 4096),
	}
}

// shouldParallelize reports whether a field of n particles is worth the pool.
func (p *parallelState) shouldParallelize(n int) bool {
	return p.numWorkers > 1 && n >= p.threshold
}

func (p *parallelState) ensureWorkers() {
	if p.jobs != nil {
		return
	}
	p.jobs = make(chan span, p.numWorkers)
	p.pool.Add(p.numWorkers)
	for range p.numWorkers {
		go func() {
			defer p.pool.Done()
			for s := range p.jobs {
				for i := s.lo; i < s.hi; i++ {
					systems.Step(&p.states[i], p.ctx)
				}
				p.batch.Done()
			}
		}()
	}
}

// stopWorkers shuts the pool down. It is safe to call when no pool exists.
func (p *parallelState) stopWorkers() {
	if p.jobs == nil {
		return
	}
	close(p.jobs)
	p.pool.Wait()
	p.jobs = nil
}

// integrate advances every particle of field by one frame.
func (p *parallelState) integrate(field *systems.Field, ctx *systems.FrameContext) {
	p.states = field.Snapshot(p.states)
	n := len(p.states)
	if n == 0 {
		return
	}
	p.ctx = ctx
	p.ensureWorkers()

	size := (n + p.numWorkers - 1) / p.numWorkers
	for lo := 0; lo < n; lo += size {
		p.batch.Add(1)
		p.jobs <- span{lo: lo, hi: min(lo+size, n)}
	}
	p.batch.Wait()

	field.Apply(p.states)
}

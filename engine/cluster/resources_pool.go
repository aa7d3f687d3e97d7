package cluster

import (
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu"
	"github.com/Carmen-Shannon/oxy-cls/engine/pool"
	"github.com/Carmen-Shannon/oxy-cls/engine/profiler"
)

// ResourcesPool hands out one Resources per render target within a frame and keeps the
// device buffers alive across frames so steady-state frames allocate nothing.
type ResourcesPool struct {
	pool *pool.Pool[*Resources, Parameters]
}

// NewResourcesPool creates a pool with room for capacity render targets.
//
// Parameters:
//   - dev: the device owning the buffers
//   - prof: the profiler context receiving stage samples
//   - capacity: the maximum number of render targets per frame
//
// Returns:
//   - *ResourcesPool: the empty pool
func NewResourcesPool(dev gpu.Device, prof *profiler.Context, capacity int) *ResourcesPool {
	return &ResourcesPool{
		pool: pool.New[*Resources, Parameters](capacity,
			func(p Parameters) (*Resources, error) {
				return NewResources(dev, prof, p), nil
			},
			func(r **Resources, p Parameters) error {
				(*r).Reset(p)
				return nil
			},
		),
	}
}

// Acquire returns resources for a render target, reusing a previous frame's slot when possible.
//
// Parameters:
//   - params: the render target's cluster parameters
//
// Returns:
//   - pool.Index: the slot handle, valid until the next Reset
//   - error: pool.ErrPoolExhausted when every slot is in use
func (p *ResourcesPool) Acquire(params Parameters) (pool.Index, error) {
	return p.pool.Acquire(params)
}

// Get returns the resources of a live slot and panics on a stale handle.
func (p *ResourcesPool) Get(idx pool.Index) *Resources {
	return *p.pool.Get(idx)
}

// Lookup returns the resources of idx if the handle is live.
func (p *ResourcesPool) Lookup(idx pool.Index) (*Resources, bool) {
	r, ok := p.pool.Lookup(idx)
	if !ok {
		return nil, false
	}
	return *r, true
}

// Used returns the resources acquired this frame in slot order.
func (p *ResourcesPool) Used() []*Resources {
	used := p.pool.Used()
	out := make([]*Resources, len(used))
	for i, r := range used {
		out[i] = *r
	}
	return out
}

// Len returns the number of render targets acquired this frame.
func (p *ResourcesPool) Len() int {
	return p.pool.Len()
}

// Free returns a single slot to the pool before the frame ends. Its device buffers are
// kept for the next Acquire. Freeing a stale handle is a no-op.
func (p *ResourcesPool) Free(idx pool.Index) {
	p.pool.Release(idx)
}

// Reset releases every slot for the next frame. Device buffers are kept.
func (p *ResourcesPool) Reset() {
	p.pool.Reset()
}

// Release deletes the device buffers of every slot ever constructed.
func (p *ResourcesPool) Release() {
	for r := range p.pool.Constructed() {
		(*r).Release()
	}
	p.pool.Reset()
}

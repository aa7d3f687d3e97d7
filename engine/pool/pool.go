package pool

import (
	"errors"
	"fmt"
	"iter"
)

// ErrPoolExhausted is returned by Acquire when every slot is occupied.
var ErrPoolExhausted = errors.New("pool: no free slots")

// ErrStaleIndex reports a handle whose slot was released or reset.
var ErrStaleIndex = errors.New("pool: stale or invalid index")

// Index is an opaque handle to an occupied pool slot.
// It stays valid until the slot is released or the pool is reset; stale handles
// are detected through the generation counter.
type Index struct {
	slot       uint32
	generation uint32
}

// Slot returns the slot position the index refers to.
func (i Index) Slot() int { return int(i.slot) }

// String implements fmt.Stringer.
func (i Index) String() string {
	return fmt.Sprintf("%d@%d", i.slot, i.generation)
}

// NewFunc constructs the value for a slot the first time it is used.
type NewFunc[T any, A any] func(args A) (T, error)

// ResetFunc reinitialises a previously constructed slot value for reuse.
type ResetFunc[T any, A any] func(value *T, args A) error

type slot[T any] struct {
	value       T
	constructed bool
	occupied    bool
	generation  uint32
}

// Pool is a fixed-capacity slot allocator whose entries are reused frame to frame.
//
// Slot storage is never freed: releasing a slot only marks it free, and the next
// Acquire that lands on it calls the reset function instead of the constructor.
// Iteration yields occupied slots only, in ascending slot order.
//
// A Pool is not safe for concurrent use.
type Pool[T any, A any] struct {
	slots   []slot[T]
	used    int
	newFn   NewFunc[T, A]
	resetFn ResetFunc[T, A]
}

// New creates a Pool with the given capacity.
//
// Parameters:
//   - capacity: the number of slots (must be > 0)
//   - newFn: constructor invoked the first time a slot is acquired
//   - resetFn: reinitialiser invoked when an already constructed slot is acquired again; may be nil
//
// Returns:
//   - *Pool[T, A]: the empty pool
func New[T any, A any](capacity int, newFn NewFunc[T, A], resetFn ResetFunc[T, A]) *Pool[T, A] {
	if capacity <= 0 {
		panic(fmt.Sprintf("pool: invalid capacity %d", capacity))
	}
	return &Pool[T, A]{
		slots:   make([]slot[T], capacity),
		newFn:   newFn,
		resetFn: resetFn,
	}
}

// Acquire occupies the lowest free slot.
//
// Parameters:
//   - args: forwarded to the constructor or reset function
//
// Returns:
//   - Index: handle to the occupied slot
//   - error: ErrPoolExhausted if the pool is full, or the constructor/reset error
func (p *Pool[T, A]) Acquire(args A) (Index, error) {
	for i := range p.slots {
		s := &p.slots[i]
		if s.occupied {
			continue
		}
		if !s.constructed {
			v, err := p.newFn(args)
			if err != nil {
				return Index{}, fmt.Errorf("pool: constructing slot %d: %w", i, err)
			}
			s.value = v
			s.constructed = true
		} else if p.resetFn != nil {
			if err := p.resetFn(&s.value, args); err != nil {
				return Index{}, fmt.Errorf("pool: resetting slot %d: %w", i, err)
			}
		}
		s.occupied = true
		p.used++
		return Index{slot: uint32(i), generation: s.generation}, nil
	}
	return Index{}, ErrPoolExhausted
}

// Lookup returns the value for idx if the handle is still live.
func (p *Pool[T, A]) Lookup(idx Index) (*T, bool) {
	if int(idx.slot) >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[idx.slot]
	if !s.occupied || s.generation != idx.generation {
		return nil, false
	}
	return &s.value, true
}

// Get returns the value for idx and panics if the handle is stale.
func (p *Pool[T, A]) Get(idx Index) *T {
	v, ok := p.Lookup(idx)
	if !ok {
		panic(fmt.Errorf("%w %s", ErrStaleIndex, idx))
	}
	return v
}

// Release frees the slot referenced by idx. Releasing a stale handle is a no-op.
func (p *Pool[T, A]) Release(idx Index) {
	if _, ok := p.Lookup(idx); !ok {
		return
	}
	p.release(int(idx.slot))
}

// Reset releases every occupied slot. Slot storage is kept for reuse.
func (p *Pool[T, A]) Reset() {
	for i := range p.slots {
		if p.slots[i].occupied {
			p.release(i)
		}
	}
}

func (p *Pool[T, A]) release(i int) {
	s := &p.slots[i]
	s.occupied = false
	s.generation++
	p.used--
}

// Len returns the number of occupied slots.
func (p *Pool[T, A]) Len() int { return p.used }

// Cap returns the fixed number of slots.
func (p *Pool[T, A]) Cap() int { return len(p.slots) }

// Used returns pointers to the occupied values in ascending slot order.
func (p *Pool[T, A]) Used() []*T {
	out := make([]*T, 0, p.used)
	for i := range p.slots {
		if p.slots[i].occupied {
			out = append(out, &p.slots[i].value)
		}
	}
	return out
}

// All iterates occupied slots in ascending slot order.
func (p *Pool[T, A]) All() iter.Seq2[Index, *T] {
	return func(yield func(Index, *T) bool) {
		for i := range p.slots {
			s := &p.slots[i]
			if !s.occupied {
				continue
			}
			if !yield(Index{slot: uint32(i), generation: s.generation}, &s.value) {
				return
			}
		}
	}
}

// Constructed iterates every slot value that has ever been constructed, occupied or not.
// Owners use it to release resources held by idle slots.
func (p *Pool[T, A]) Constructed() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for i := range p.slots {
			if p.slots[i].constructed && !yield(&p.slots[i].value) {
				return
			}
		}
	}
}

// Package pool provides a generational arena. Handles stay valid while the
// slot they point at is alive; freeing a slot bumps its generation so stale
// handles miss instead of aliasing a newer occupant.
package pool

import (
	"fmt"
	"strconv"
)

// Handle identifies one slot in a Pool. The slot id lives in the low 32 bits
// and the generation in the high 32 bits. The zero Handle is never valid.
type Handle uint64

type slotID uint32
type generation uint32

const handleIDBits = 32

// None is the invalid handle.
const None Handle = 0

func makeHandle(id slotID, gen generation) Handle {
	return Handle(uint64(gen)<<handleIDBits | uint64(id))
}

func (h Handle) id() slotID {
	return slotID(uint32(h))
}

func (h Handle) generation() generation {
	return generation(uint32(uint64(h) >> handleIDBits))
}

// Valid reports whether h could ever refer to a slot. It does not check
// liveness against any pool.
func (h Handle) Valid() bool {
	return h.id() > 0
}

func (h Handle) String() string {
	return strconv.FormatUint(uint64(h), 10)
}

type record[T any] struct {
	value T
	gen   generation
	live  bool
}

// Pool is a generational arena of T. The zero value is ready to use.
type Pool[T any] struct {
	records []record[T]
	free    []slotID
	count   int
}

// record returns the live record behind h, or nil if h is stale or invalid.
func (p *Pool[T]) record(h Handle) *record[T] {
	if p == nil {
		return nil
	}
	id := h.id()
	if id == 0 || slotID(len(p.records)) < id {
		return nil
	}
	rec := &p.records[id-1]
	if !rec.live || rec.gen != h.generation() {
		return nil
	}
	return rec
}

// Spawn stores v and returns a stable handle to it.
func (p *Pool[T]) Spawn(v T) Handle {
	var id slotID
	if len(p.free) > 0 {
		id = p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
	} else {
		p.records = append(p.records, record[T]{})
		id = slotID(len(p.records))
	}
	rec := &p.records[id-1]
	rec.value = v
	rec.live = true
	p.count++
	return makeHandle(id, rec.gen)
}

// Free releases the slot behind h. Returns false if h is stale or invalid.
func (p *Pool[T]) Free(h Handle) bool {
	rec := p.record(h)
	if rec == nil {
		return false
	}
	var zero T
	rec.value = zero
	rec.live = false
	rec.gen++
	p.free = append(p.free, h.id())
	p.count--
	return true
}

// Clear drops every slot and resets all generations.
func (p *Pool[T]) Clear() {
	p.records = nil
	p.free = nil
	p.count = 0
}

// TryBorrow returns a pointer to the value behind h, or false if h is stale.
func (p *Pool[T]) TryBorrow(h Handle) (*T, bool) {
	rec := p.record(h)
	if rec == nil {
		return nil, false
	}
	return &rec.value, true
}

// Borrow returns a pointer to the value behind h, or nil if h is stale.
func (p *Pool[T]) Borrow(h Handle) *T {
	v, ok := p.TryBorrow(h)
	if !ok {
		return nil
	}
	return v
}

// Alive reports whether h refers to a live slot.
func (p *Pool[T]) Alive(h Handle) bool {
	return p.record(h) != nil
}

// Len returns the number of live slots.
func (p *Pool[T]) Len() int {
	if p == nil {
		return 0
	}
	return p.count
}

// Empty reports whether the pool holds no slots at all, live or freed.
func (p *Pool[T]) Empty() bool {
	return p == nil || len(p.records) == 0
}

// ForEach visits every live slot in id order.
func (p *Pool[T]) ForEach(fn func(Handle, *T)) {
	if p == nil || fn == nil {
		return
	}
	for i := range p.records {
		rec := &p.records[i]
		if rec.live {
			fn(makeHandle(slotID(i+1), rec.gen), &rec.value)
		}
	}
}

// Retain frees every live slot for which pred returns false.
func (p *Pool[T]) Retain(pred func(*T) bool) {
	if p == nil || pred == nil {
		return
	}
	for i := range p.records {
		rec := &p.records[i]
		if rec.live && !pred(&rec.value) {
			p.Free(makeHandle(slotID(i+1), rec.gen))
		}
	}
}

// Put places v at the exact slot and generation encoded in h. It is used to
// restore a saved arena so that previously issued handles stay valid. The
// target slot must not already be live.
func (p *Pool[T]) Put(h Handle, v T) error {
	id := h.id()
	if id == 0 {
		return fmt.Errorf("pool: cannot put at invalid handle")
	}
	for slotID(len(p.records)) < id {
		p.records = append(p.records, record[T]{})
		p.free = append(p.free, slotID(len(p.records)))
	}
	rec := &p.records[id-1]
	if rec.live {
		return fmt.Errorf("pool: slot %d already occupied", id)
	}
	for i, f := range p.free {
		if f == id {
			p.free = append(p.free[:i], p.free[i+1:]...)
			break
		}
	}
	rec.value = v
	rec.gen = h.generation()
	rec.live = true
	p.count++
	return nil
}

package vtex

import "fmt"

// PhysicalPage is one fixed-size backing region in the physical cache.
// Pages are owned exclusively by the pool; tiles hold weak indices only.
type PhysicalPage struct {
	// Allocated reports whether the page currently backs a tile.
	Allocated bool

	// Owner is the tile the page currently backs. Undefined while
	// Allocated is false.
	Owner TileCoord
}

// PagePool is a fixed-size pool of physical pages with a FIFO free list.
// The pool is created once at manager initialization and holds exactly
// MaxPhysicalPages entries for its whole lifetime.
//
// FIFO order is not semantically significant, but it makes allocation
// deterministic: after freeing pages 2 then 0, the next two allocations
// return 2 then 0.
//
// PagePool performs no locking; the manager confines it to the single
// issuing goroutine. A concurrent reimplementation must serialize
// Allocate and Free behind a mutex.
type PagePool struct {
	pages []PhysicalPage
	free  []uint32 // FIFO: pop from the front, push to the back
}

// NewPagePool creates a pool of n pages, all free, with the free list in
// ascending index order.
func NewPagePool(n int) *PagePool {
	p := &PagePool{
		pages: make([]PhysicalPage, n),
		free:  make([]uint32, n),
	}
	for i := range p.free {
		p.free[i] = uint32(i)
	}
	return p
}

// Allocate pops the oldest free page and records owner as its current
// tile. It returns ErrOutOfPhysicalMemory when the free list is empty;
// the caller decides whether that is fatal to its operation.
func (p *PagePool) Allocate(owner TileCoord) (uint32, error) {
	if len(p.free) == 0 {
		return PageIndexNone, fmt.Errorf("%w: %d/%d allocated",
			ErrOutOfPhysicalMemory, p.Used(), len(p.pages))
	}
	idx := p.free[0]
	p.free = p.free[1:]
	p.pages[idx] = PhysicalPage{Allocated: true, Owner: owner}
	return idx, nil
}

// Free marks the page unallocated and returns it to the back of the free
// list. Freeing a page that is not allocated is a caller error and is
// rejected with ErrPageNotAllocated without mutating the pool.
func (p *PagePool) Free(idx uint32) error {
	if int(idx) >= len(p.pages) {
		return fmt.Errorf("%w: index %d of %d", ErrPageNotAllocated, idx, len(p.pages))
	}
	if !p.pages[idx].Allocated {
		return fmt.Errorf("%w: index %d freed twice", ErrPageNotAllocated, idx)
	}
	p.pages[idx].Allocated = false
	p.free = append(p.free, idx)
	return nil
}

// Page returns a copy of the page record at idx.
func (p *PagePool) Page(idx uint32) (PhysicalPage, error) {
	if int(idx) >= len(p.pages) {
		return PhysicalPage{}, fmt.Errorf("%w: index %d of %d",
			ErrPageNotAllocated, idx, len(p.pages))
	}
	return p.pages[idx], nil
}

// Used returns the number of allocated pages.
// Invariant: Used() + FreeCount() == Cap() at all times.
func (p *PagePool) Used() int {
	return len(p.pages) - len(p.free)
}

// FreeCount returns the current length of the free list.
func (p *PagePool) FreeCount() int {
	return len(p.free)
}

// Cap returns the fixed pool size.
func (p *PagePool) Cap() int {
	return len(p.pages)
}

package model

import "sync/atomic"

// IDAllocator hands out task ids. The zero value is ready to use and its
// first id is 1.
type IDAllocator struct {
	last atomic.Uint64
}

// Next returns an id strictly greater than every id returned before.
func (a *IDAllocator) Next() uint64 {
	return a.last.Add(1)
}

// Observe makes sure later ids are greater than id. Used after loading
// tasks that were numbered by an earlier run.
func (a *IDAllocator) Observe(id uint64) {
	for {
		cur := a.last.Load()
		if id <= cur {
			return
		}
		if a.last.CompareAndSwap(cur, id) {
			return
		}
	}
}

// Peek returns the last issued (or observed) id.
func (a *IDAllocator) Peek() uint64 {
	return a.last.Load()
}

package cluster

import "sync"

// Process-wide read-mostly caches for the format and topology documents.
// Readers obtain an observable snapshot whose contents must not be
// mutated; Set swaps the stored value under the exclusive lock and the
// previous value is dropped only after the lock is released, so readers
// finishing a Get never race with the swap.

type formatCache struct {
	mu sync.RWMutex
	f  *Format
}

// FormatCache owns a private copy of whatever is Set into it.
var FormatCache = &formatCache{}

func (c *formatCache) Get() *Format {
	c.mu.RLock()
	f := c.f
	c.mu.RUnlock()
	return f
}

// Set stores a copy; the caller keeps ownership of its argument.
func (c *formatCache) Set(f *Format) {
	clone := f.Clone()
	c.mu.Lock()
	c.f = clone
	c.mu.Unlock()
}

func (c *formatCache) Invalidate() {
	c.mu.Lock()
	c.f = nil
	c.mu.Unlock()
}

type topoCache struct {
	mu sync.RWMutex
	t  *Topology
}

// TopoCache takes ownership of whatever is Set into it; callers must not
// touch the argument afterwards.
var TopoCache = &topoCache{}

func (c *topoCache) Get() *Topology {
	c.mu.RLock()
	t := c.t
	c.mu.RUnlock()
	return t
}

func (c *topoCache) Set(t *Topology) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *topoCache) Invalidate() {
	c.mu.Lock()
	c.t = nil
	c.mu.Unlock()
}

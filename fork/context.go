package fork

import (
	"fmt"
	"reflect"
	"sync"
)

// TypePair is the (construct-type, deconstruct-type) recorded for a
// fork at allocation time. The decoder seeded from a Context uses
// ConstructType to look up the peer-side decoder in the registry.
type TypePair struct {
	ConstructType   reflect.Type
	DeconstructType reflect.Type
}

// Context is the per-Channel shared table mapping a fork Handle to its
// TypePair, plus the allocator state for that Channel. It is safe for
// concurrent use; every mutation happens under a short critical section,
// per the fabric's concurrency model.
type Context struct {
	mu         sync.RWMutex
	types      map[Handle]TypePair
	unused     []Handle
	next       Handle
}

// NewContext returns an empty Context with its allocator starting at 1,
// leaving handle 0 unassigned (used by the deconstructing Target, which
// allocates 0 itself via CreateRoot).
func NewContext() *Context {
	return &Context{
		types: map[Handle]TypePair{},
		next:  RootHandle + 1,
	}
}

// NewContextFor returns a Context with fork 0 pre-registered under the
// given TypePair, used by the Shim side before any frame is read so the
// first inbound frame on fork 0 can already be decoded.
func NewContextFor(pair TypePair) *Context {
	c := NewContext()
	c.types[RootHandle] = pair
	return c
}

// Create allocates a new handle for pair, preferring a recycled handle
// from the free list (LIFO) over the monotonic counter.
func (c *Context) Create(pair TypePair) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := len(c.unused); n > 0 {
		h := c.unused[n-1]
		c.unused = c.unused[:n-1]
		c.types[h] = pair
		recordCreate()
		return h
	}

	h := c.next
	c.next++
	c.types[h] = pair
	recordCreate()
	return h
}

// CreateRoot allocates handle 0 for pair. It must be called exactly once,
// before any other Create call, by the deconstructing side of a new
// Channel.
func (c *Context) CreateRoot(pair TypePair) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.types[RootHandle] = pair
	recordCreate()
	return RootHandle
}

// Add records pair under an already-known handle, used by the
// constructing side when it calls GetFork for a handle whose allocation
// happened on the peer.
func (c *Context) Add(h Handle, pair TypePair) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.types[h] = pair
}

// ErrTypeMismatch is returned when a handle already recorded in a
// Context is requested again under a different TypePair — spec's "get_fork
// on a handle whose type-pair does not match K's is a fatal protocol
// violation" (§4.3). Existing is the TypePair already on file; Requested
// is the one the new call asked for.
type ErrTypeMismatch struct {
	Handle    Handle
	Existing  TypePair
	Requested TypePair
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("fork: handle %s already registered as (construct=%s, deconstruct=%s), cannot reuse as (construct=%s, deconstruct=%s)",
		e.Handle, e.Existing.ConstructType, e.Existing.DeconstructType, e.Requested.ConstructType, e.Requested.DeconstructType)
}

// Lookup returns the TypePair recorded for h, and whether it exists.
func (c *Context) Lookup(h Handle) (TypePair, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pair, ok := c.types[h]
	return pair, ok
}

// Release removes h from the table and pushes it onto the free list for
// LIFO reuse. Handle 0 is never released by fork lifecycle; it lives for
// the Channel's own lifetime.
func (c *Context) Release(h Handle) {
	if h == RootHandle {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.types[h]; !ok {
		return
	}

	delete(c.types, h)
	c.unused = append(c.unused, h)
	recordRelease()
}

// Len reports the number of live forks, including the root.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.types)
}

// File: memcache/cache.go
// Package memcache implements the size-classed, thread-local small-object
// allocator specified in spec.md §3 "MemoryCache page" and §4.1 MemoryCache
// (C1), for objects that want this recycling discipline. The reactor does
// not allocate through it: CompletionHandlers are plain Go allocations and
// timer entries are recycled through pool.SyncPool.
//
// Grounded on the teacher's pool/base_bufferpool.go and pool/bufferpool.go
// (per-NUMA/per-class channel pools), reshaped into spec's page/free-list
// model: a Cache is not safe for concurrent use from more than one
// goroutine at a time (spec §5 "Memory caches are strictly thread-local") —
// callers pin one Cache per reactor/OS thread, the same way
// affinity.SetAffinity pins the reactor itself.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package memcache

import (
	"os"

	"github.com/momentics/solidframe-go/api"
)

// Config configures page geometry. Zero values mean "use the default"
// (spec §4.1): PageCapacity 0 -> OS page size, Alignment 0 -> native pointer
// alignment, EmptyPageRetention 0 -> default of 1.
type Config struct {
	PageCapacity       int
	Alignment          int
	EmptyPageRetention int
}

const (
	defaultAlignment = 8
	defaultRetention = 1
)

// Block is the handle Allocate returns in place of a raw pointer: Go has no
// pointer arithmetic, so the back-reference to the owning page that a C++
// MemoryCache keeps implicitly (via pointer-to-page-header math) is carried
// explicitly here instead, following the same slot/handle substitution the
// spec's design notes (§9) prescribe for reactor back-references.
type Block struct {
	Data []byte

	class int // class size in bytes, 0 = heap-delegated (oversized) allocation
	page  *page
	off   int
}

// Bytes returns the usable byte slice. Safe to use beyond Deallocate is not:
// the backing array is recycled.
func (b Block) Bytes() []byte { return b.Data }

type page struct {
	data      []byte
	classSize int
	nodeCount int
	useCount  int
	prev      *page
	next      *page
}

type class struct {
	size   int
	free   []*freeNode // LIFO stack of free slots
	pages  *page       // doubly-linked list head
	target int         // Reserve(..., lazy=true) recorded target, 0 if none
}

type freeNode struct {
	pg  *page
	off int
}

// Cache is the per-size-class free-list allocator (spec §3, §4.1).
type Cache struct {
	pageCapacity int
	alignment    int
	keepPages    int

	emptyPages int
	totalPages int

	classes map[int]*class

	used bool
}

// New creates a Cache with the given configuration.
func New(cfg Config) *Cache {
	pc := cfg.PageCapacity
	if pc <= 0 {
		pc = os.Getpagesize()
	}
	al := cfg.Alignment
	if al <= 0 {
		al = defaultAlignment
	}
	ret := cfg.EmptyPageRetention
	if ret <= 0 {
		ret = defaultRetention
	}
	return &Cache{
		pageCapacity: pc,
		alignment:    al,
		keepPages:    ret,
		classes:      make(map[int]*class),
	}
}

// Configure changes page geometry. Valid only before the cache has served
// its first Allocate/Reserve (spec §4.1).
func (c *Cache) Configure(pageCapacity, emptyPageRetention int) error {
	if c.used {
		return api.NewError(api.ErrCodeInternal, "memcache: Configure called after first use")
	}
	if pageCapacity > 0 {
		c.pageCapacity = pageCapacity
	}
	if emptyPageRetention > 0 {
		c.keepPages = emptyPageRetention
	}
	return nil
}

func (c *Cache) roundClass(size int) int {
	al := c.alignment
	n := (size + al - 1) / al
	return n * al
}

// usableNodeCapacity is how large a single node may be while still fitting
// several per page; anything larger delegates straight to the Go heap
// (spec §4.1 "If size exceeds the page's usable data capacity").
func (c *Cache) usableNodeCapacity() int {
	return c.pageCapacity / 2
}

// Allocate returns a Block of at least size bytes. Never returns a nil
// buffer except on OS exhaustion, reported via the returned error
// (spec §4.1, §7 AllocationError).
func (c *Cache) Allocate(size int) (Block, error) {
	if size < 0 {
		return Block{}, api.NewError(api.ErrCodeAllocationError, "memcache: negative size")
	}
	c.used = true
	if size == 0 {
		return Block{Data: nil}, nil
	}
	if size > c.usableNodeCapacity() {
		return Block{Data: make([]byte, size)}, nil
	}

	cs := c.roundClass(size)
	cl := c.classes[cs]
	if cl == nil {
		cl = &class{size: cs}
		c.classes[cs] = cl
	}

	if len(cl.free) == 0 {
		if err := c.growClass(cl); err != nil {
			return Block{}, err
		}
	}

	n := cl.free[len(cl.free)-1]
	cl.free = cl.free[:len(cl.free)-1]
	n.pg.useCount++
	if n.pg.useCount == 1 {
		c.emptyPages--
	}

	return Block{
		Data:  n.pg.data[n.off : n.off+size : n.off+cs],
		class: cs,
		page:  n.pg,
		off:   n.off,
	}, nil
}

// growClass allocates a new page for cl and threads its nodes onto the
// free list, per spec §4.1 "Otherwise ... if empty, allocate a new page,
// thread its nodes onto the list, pop one."
//
// Go's allocator has no "out of memory, return an error" path the way
// mmap/sbrk does in the original systems-language implementation: make()
// either succeeds or the runtime terminates the process. growClass never
// returns a non-nil error; the error return keeps callers composing the
// same way spec §7 requires. Negative sizes are rejected by Allocate before
// growClass is reached; roundClass performs no checks of its own.
func (c *Cache) growClass(cl *class) error {
	data := make([]byte, c.pageCapacity)
	nodeCount := c.pageCapacity / cl.size
	if nodeCount < 1 {
		nodeCount = 1
	}
	pg := &page{data: data, classSize: cl.size, nodeCount: nodeCount}

	pg.next = cl.pages
	if cl.pages != nil {
		cl.pages.prev = pg
	}
	cl.pages = pg

	for i := 0; i < nodeCount; i++ {
		cl.free = append(cl.free, &freeNode{pg: pg, off: i * cl.size})
	}

	c.totalPages++
	c.emptyPages++
	return nil
}

// Deallocate returns b to its owning free list. If the owning page becomes
// fully free and emptyPages exceeds keepPages, the page is unlinked and
// released to the OS (GC) immediately (spec §4.1).
func (c *Cache) Deallocate(b Block) {
	if b.page == nil {
		return // heap-delegated or zero-length: nothing to recycle
	}
	cl := c.classes[b.class]
	if cl == nil {
		return
	}
	cl.free = append(cl.free, &freeNode{pg: b.page, off: b.off})
	b.page.useCount--
	if b.page.useCount == 0 {
		c.emptyPages++
		if c.emptyPages > c.keepPages {
			c.releasePage(cl, b.page)
		}
	}
}

func (c *Cache) releasePage(cl *class, pg *page) {
	if pg.prev != nil {
		pg.prev.next = pg.next
	} else {
		cl.pages = pg.next
	}
	if pg.next != nil {
		pg.next.prev = pg.prev
	}

	kept := cl.free[:0]
	for _, n := range cl.free {
		if n.pg != pg {
			kept = append(kept, n)
		}
	}
	cl.free = kept

	c.totalPages--
	c.emptyPages--
}

// Reserve pre-populates the free list for size's class with at least count
// free nodes. If lazy, only the target is recorded (spec §4.1).
func (c *Cache) Reserve(size, count int, lazy bool) error {
	c.used = true
	cs := c.roundClass(size)
	cl := c.classes[cs]
	if cl == nil {
		cl = &class{size: cs}
		c.classes[cs] = cl
	}
	if lazy {
		cl.target = count
		return nil
	}
	for len(cl.free) < count {
		if err := c.growClass(cl); err != nil {
			return err
		}
	}
	return nil
}

// Stats exposes the invariant-relevant counters for tests and diagnostics
// (spec §8 invariant 5).
type Stats struct {
	TotalPages int
	EmptyPages int
	KeepPages  int
	Classes    int
}

func (c *Cache) Stats() Stats {
	return Stats{
		TotalPages: c.totalPages,
		EmptyPages: c.emptyPages,
		KeepPages:  c.keepPages,
		Classes:    len(c.classes),
	}
}

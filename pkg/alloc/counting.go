package alloc

import (
	"reflect"
	"sync"
	"unsafe"
)

// Stats is a snapshot of Counting's counters.
type Stats struct {
	Allocs    int
	Resizes   int
	Releases  int
	Failures  int // nil results from Allocate or Resize with a non-zero size
	LiveBytes uintptr
	PeakBytes uintptr
}

// Counting wraps an Allocator and tracks call counts and live bytes.
type Counting struct {
	next Allocator

	mu    sync.Mutex
	sizes map[unsafe.Pointer]uintptr
	stats Stats
}

// NewCounting returns a Counting that forwards to next.
func NewCounting(next Allocator) *Counting {
	return &Counting{next: next, sizes: make(map[unsafe.Pointer]uintptr)}
}

func (c *Counting) Allocate(size uintptr) unsafe.Pointer {
	return c.allocated(c.next.Allocate(size), size)
}

func (c *Counting) Resize(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	return c.resized(p, c.next.Resize(p, size), size)
}

// AllocateArray forwards to next's typed path when it has one.
func (c *Counting) AllocateArray(elem reflect.Type, n int) unsafe.Pointer {
	return c.allocated(allocateArray(c.next, elem, n), arraySize(elem, n))
}

func (c *Counting) ResizeArray(p unsafe.Pointer, elem reflect.Type, n int) unsafe.Pointer {
	return c.resized(p, resizeArray(c.next, p, elem, n), arraySize(elem, n))
}

func (c *Counting) allocated(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Allocs++
	if p == nil {
		if size != 0 {
			c.stats.Failures++
		}
		return nil
	}
	c.track(p, size)
	return p
}

func (c *Counting) resized(p, q unsafe.Pointer, size uintptr) unsafe.Pointer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Resizes++
	if q == nil && size != 0 {
		c.stats.Failures++
		return nil
	}
	c.untrack(p)
	if q != nil {
		c.track(q, size)
	}
	return q
}

func (c *Counting) Release(p unsafe.Pointer) {
	c.next.Release(p)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Releases++
	c.untrack(p)
}

// Stats returns the current counters.
func (c *Counting) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Counting) track(p unsafe.Pointer, size uintptr) {
	c.sizes[p] = size
	c.stats.LiveBytes += size
	if c.stats.LiveBytes > c.stats.PeakBytes {
		c.stats.PeakBytes = c.stats.LiveBytes
	}
}

func (c *Counting) untrack(p unsafe.Pointer) {
	if p == nil {
		return
	}
	if size, ok := c.sizes[p]; ok {
		c.stats.LiveBytes -= size
		delete(c.sizes, p)
	}
}

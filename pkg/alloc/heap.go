package alloc

import (
	"reflect"
	"sync"
	"unsafe"
)

var wordType = reflect.TypeFor[uint64]()

type block struct {
	arr  reflect.Value // *[n]elem backing the block
	elem reflect.Type
	n    int
}

// Heap allocates from the Go heap. Blocks are pinned in a map until
// released so the garbage collector keeps them alive while only an
// unsafe.Pointer refers to them.
//
// Blocks from Allocate hold plain words and are not scanned for pointers.
// Blocks from AllocateArray are typed arrays, so Go pointers stored in
// their elements keep the pointees alive.
type Heap struct {
	mu     sync.Mutex
	blocks map[unsafe.Pointer]block
}

// NewHeap returns an empty Heap.
func NewHeap() *Heap {
	return &Heap{blocks: make(map[unsafe.Pointer]block)}
}

// Allocate returns a zeroed, 8-byte aligned block of at least size bytes,
// or nil for size 0.
func (h *Heap) Allocate(size uintptr) unsafe.Pointer {
	return h.AllocateArray(wordType, elemCount(size, wordType))
}

// AllocateArray returns a zeroed [n]elem. It returns nil when n or the
// element size is zero.
func (h *Heap) AllocateArray(elem reflect.Type, n int) unsafe.Pointer {
	if n <= 0 || elem.Size() == 0 {
		return nil
	}
	arr := reflect.New(reflect.ArrayOf(n, elem))
	p := arr.UnsafePointer()

	h.mu.Lock()
	h.blocks[p] = block{arr: arr, elem: elem, n: n}
	h.mu.Unlock()
	return p
}

// Resize grows or shrinks the block at p to at least size bytes, keeping
// its element type and copying the common prefix. A nil p allocates; a
// zero size releases and returns nil. Pointers not owned by h yield nil
// and are left untouched.
func (h *Heap) Resize(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	if p == nil {
		return h.Allocate(size)
	}
	if size == 0 {
		h.Release(p)
		return nil
	}

	h.mu.Lock()
	b, ok := h.blocks[p]
	h.mu.Unlock()
	if !ok {
		return nil
	}
	return h.ResizeArray(p, b.elem, elemCount(size, b.elem))
}

// ResizeArray resizes the block at p to an [n]elem, copying the common
// prefix. Changing the element type is only allowed between pointer-free
// types; otherwise nil is returned and p stays valid.
func (h *Heap) ResizeArray(p unsafe.Pointer, elem reflect.Type, n int) unsafe.Pointer {
	if p == nil {
		return h.AllocateArray(elem, n)
	}
	if n <= 0 {
		h.Release(p)
		return nil
	}

	h.mu.Lock()
	old, ok := h.blocks[p]
	h.mu.Unlock()
	if !ok {
		return nil
	}
	if old.elem == elem && old.n == n {
		return p
	}
	if old.elem != elem && (hasPointers(old.elem) || hasPointers(elem)) {
		return nil
	}

	q := h.AllocateArray(elem, n)
	if q == nil {
		return nil
	}
	if old.elem == elem {
		h.mu.Lock()
		dst := h.blocks[q].arr
		h.mu.Unlock()
		reflect.Copy(dst.Elem(), old.arr.Elem())
	} else {
		copy(unsafe.Slice((*byte)(q), elem.Size()*uintptr(n)),
			unsafe.Slice((*byte)(p), old.elem.Size()*uintptr(old.n)))
	}
	h.Release(p)
	return q
}

// Release frees the block at p. Nil and unknown pointers are ignored.
func (h *Heap) Release(p unsafe.Pointer) {
	if p == nil {
		return
	}
	h.mu.Lock()
	delete(h.blocks, p)
	h.mu.Unlock()
}

// Live returns the number of outstanding blocks.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.blocks)
}

func elemCount(size uintptr, elem reflect.Type) int {
	return int((size + elem.Size() - 1) / elem.Size())
}

// hasPointers reports whether values of t contain anything the garbage
// collector traces.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.Slice, reflect.String:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

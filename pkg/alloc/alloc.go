// Package alloc routes the M3D library layer's memory management to
// functions supplied by the embedding program.
//
// Library code never allocates on its own. It receives an Allocator and
// calls it for every allocate, resize and release it performs. Bind turns
// three plain functions into such an Allocator.
package alloc

import (
	"errors"
	"reflect"
	"unsafe"
)

// ErrIncompleteBinding is returned by Bind when any of the three functions is nil.
var ErrIncompleteBinding = errors.New("allocator binding requires allocate, resize and release")

// Allocator is the memory capability the library layer depends on.
// A nil result from Allocate or Resize means out of memory.
type Allocator interface {
	Allocate(size uintptr) unsafe.Pointer
	Resize(p unsafe.Pointer, size uintptr) unsafe.Pointer
	Release(p unsafe.Pointer)
}

// TypedAllocator is an Allocator that can also hand out memory laid out as
// an array of a Go type. The garbage collector scans such blocks, so Go
// pointers stored in them stay valid. The array helpers prefer it.
type TypedAllocator interface {
	Allocator
	AllocateArray(elem reflect.Type, n int) unsafe.Pointer
	ResizeArray(p unsafe.Pointer, elem reflect.Type, n int) unsafe.Pointer
}

// Funcs holds the allocation functions supplied by the embedding program.
// All three must stay callable for as long as any allocation made through
// them is alive.
type Funcs struct {
	Allocate func(size uintptr) unsafe.Pointer
	Resize   func(p unsafe.Pointer, size uintptr) unsafe.Pointer
	Release  func(p unsafe.Pointer)
}

// Trampoline forwards each Allocator call to the bound Funcs unchanged.
type Trampoline struct {
	fn Funcs
}

// Bind wires fn into a Trampoline.
func Bind(fn Funcs) (*Trampoline, error) {
	if fn.Allocate == nil || fn.Resize == nil || fn.Release == nil {
		return nil, ErrIncompleteBinding
	}
	return &Trampoline{fn: fn}, nil
}

// MustBind is like Bind but panics on an incomplete binding.
func MustBind(fn Funcs) *Trampoline {
	t, err := Bind(fn)
	if err != nil {
		panic(err)
	}
	return t
}

// Allocate calls the bound allocate function.
func (t *Trampoline) Allocate(size uintptr) unsafe.Pointer {
	return t.fn.Allocate(size)
}

// Resize calls the bound resize function.
func (t *Trampoline) Resize(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	return t.fn.Resize(p, size)
}

// Release calls the bound release function.
func (t *Trampoline) Release(p unsafe.Pointer) {
	t.fn.Release(p)
}

// FuncsOf exposes a's methods as Funcs, e.g. to bind a Heap through a Trampoline.
func FuncsOf(a Allocator) Funcs {
	return Funcs{
		Allocate: a.Allocate,
		Resize:   a.Resize,
		Release:  a.Release,
	}
}

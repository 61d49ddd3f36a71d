package alloc

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"
)

// Array helper errors.
var (
	ErrOutOfMemory    = errors.New("allocator returned nil")
	ErrNegativeLength = errors.New("negative array length")
)

// MakeArray allocates n elements of T from a and returns them as a slice.
// Memory contents are whatever the allocator provides. n == 0 returns a nil
// slice without calling a.
//
// Pointers stored in the elements are only seen by the garbage collector
// when a is a TypedAllocator.
func MakeArray[T any](a Allocator, n int) ([]T, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeLength, n)
	}
	if n == 0 {
		return nil, nil
	}
	elem := reflect.TypeFor[T]()
	p := allocateArray(a, elem, n)
	if p == nil {
		return nil, fmt.Errorf("%w: %d x %s (%d bytes)", ErrOutOfMemory, n, elem, arraySize(elem, n))
	}
	debugCheckBlock(p, arraySize(elem, n), uintptr(elem.Align()))
	return unsafe.Slice((*T)(p), n), nil
}

// GrowArray resizes s to n elements with a single Resize call. On failure s
// is still owned by the caller and unchanged. Growing an empty slice to
// zero makes no call.
func GrowArray[T any](a Allocator, s []T, n int) ([]T, error) {
	if n < 0 {
		return s, fmt.Errorf("%w: %d", ErrNegativeLength, n)
	}
	if n == len(s) {
		return s, nil
	}
	var old unsafe.Pointer
	if len(s) > 0 {
		old = unsafe.Pointer(unsafe.SliceData(s))
	}
	elem := reflect.TypeFor[T]()
	p := resizeArray(a, old, elem, n)
	if n == 0 {
		return nil, nil
	}
	if p == nil {
		return s, fmt.Errorf("%w: resize to %d x %s (%d bytes)", ErrOutOfMemory, n, elem, arraySize(elem, n))
	}
	debugCheckBlock(p, arraySize(elem, n), uintptr(elem.Align()))
	return unsafe.Slice((*T)(p), n), nil
}

// FreeArray releases s. Empty slices are not passed to a.
func FreeArray[T any](a Allocator, s []T) {
	if len(s) == 0 {
		return
	}
	a.Release(unsafe.Pointer(unsafe.SliceData(s)))
}

func arraySize(elem reflect.Type, n int) uintptr {
	if n <= 0 {
		return 0
	}
	return elem.Size() * uintptr(n)
}

func allocateArray(a Allocator, elem reflect.Type, n int) unsafe.Pointer {
	if ta, ok := a.(TypedAllocator); ok {
		return ta.AllocateArray(elem, n)
	}
	return a.Allocate(arraySize(elem, n))
}

func resizeArray(a Allocator, p unsafe.Pointer, elem reflect.Type, n int) unsafe.Pointer {
	if ta, ok := a.(TypedAllocator); ok {
		return ta.ResizeArray(p, elem, n)
	}
	return a.Resize(p, arraySize(elem, n))
}

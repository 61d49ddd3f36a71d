//go:build m3ddebug

package alloc

import (
	"fmt"
	"unsafe"
)

// In m3ddebug builds every block handed to library code is checked for
// alignment before use.

func debugCheckBlock(p unsafe.Pointer, size, align uintptr) {
	if p == nil || size == 0 {
		panic("alloc debug: invalid block")
	}
	if align > 0 && uintptr(p)%align != 0 {
		panic(fmt.Sprintf("alloc debug: block %p of %d bytes is misaligned", p, size))
	}
}

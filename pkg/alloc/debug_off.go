//go:build !m3ddebug

package alloc

import "unsafe"

// debugCheckBlock validates a freshly allocated block in m3ddebug builds.
// No-op in normal builds.
func debugCheckBlock(p unsafe.Pointer, size, align uintptr) {}

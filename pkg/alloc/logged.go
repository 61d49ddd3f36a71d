package alloc

import (
	"reflect"
	"unsafe"

	"go.uber.org/zap"
)

// Logged wraps an Allocator and logs every call at debug level.
type Logged struct {
	next Allocator
	log  *zap.Logger
}

// NewLogged returns a Logged forwarding to next. A nil log disables output.
func NewLogged(next Allocator, log *zap.Logger) *Logged {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logged{next: next, log: log.Named("alloc")}
}

func (l *Logged) Allocate(size uintptr) unsafe.Pointer {
	p := l.next.Allocate(size)
	l.log.Debug("allocate", zap.Uintptr("size", size), zap.Uintptr("ptr", uintptr(p)))
	if p == nil && size != 0 {
		l.log.Warn("allocation failed", zap.Uintptr("size", size))
	}
	return p
}

func (l *Logged) Resize(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	q := l.next.Resize(p, size)
	l.log.Debug("resize",
		zap.Uintptr("old", uintptr(p)),
		zap.Uintptr("size", size),
		zap.Uintptr("ptr", uintptr(q)),
	)
	if q == nil && size != 0 {
		l.log.Warn("resize failed", zap.Uintptr("size", size))
	}
	return q
}

// AllocateArray forwards to next's typed path when it has one.
func (l *Logged) AllocateArray(elem reflect.Type, n int) unsafe.Pointer {
	p := allocateArray(l.next, elem, n)
	l.log.Debug("allocate array", zap.Stringer("elem", elem), zap.Int("n", n), zap.Uintptr("ptr", uintptr(p)))
	if p == nil && n > 0 {
		l.log.Warn("allocation failed", zap.Uintptr("size", arraySize(elem, n)))
	}
	return p
}

func (l *Logged) ResizeArray(p unsafe.Pointer, elem reflect.Type, n int) unsafe.Pointer {
	q := resizeArray(l.next, p, elem, n)
	l.log.Debug("resize array",
		zap.Uintptr("old", uintptr(p)),
		zap.Stringer("elem", elem),
		zap.Int("n", n),
		zap.Uintptr("ptr", uintptr(q)),
	)
	if q == nil && n > 0 {
		l.log.Warn("resize failed", zap.Uintptr("size", arraySize(elem, n)))
	}
	return q
}

func (l *Logged) Release(p unsafe.Pointer) {
	l.next.Release(p)
	l.log.Debug("release", zap.Uintptr("ptr", uintptr(p)))
}

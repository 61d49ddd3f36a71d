package alloc

import (
	"reflect"
	"runtime"
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/m3dabi/pkg/m3d"
)

var (
	_ TypedAllocator = (*Heap)(nil)
	_ TypedAllocator = (*Counting)(nil)
	_ TypedAllocator = (*Logged)(nil)
)

type call struct {
	op   string
	ptr  unsafe.Pointer
	size uintptr
}

// recorder supplies Funcs that log every call and delegate to a Heap.
type recorder struct {
	heap  *Heap
	calls []call
	fail  bool
}

func newRecorder() *recorder {
	return &recorder{heap: NewHeap()}
}

func (r *recorder) funcs() Funcs {
	return Funcs{
		Allocate: func(size uintptr) unsafe.Pointer {
			r.calls = append(r.calls, call{"allocate", nil, size})
			if r.fail {
				return nil
			}
			return r.heap.Allocate(size)
		},
		Resize: func(p unsafe.Pointer, size uintptr) unsafe.Pointer {
			r.calls = append(r.calls, call{"resize", p, size})
			if r.fail {
				return nil
			}
			return r.heap.Resize(p, size)
		},
		Release: func(p unsafe.Pointer) {
			r.calls = append(r.calls, call{"release", p, 0})
			r.heap.Release(p)
		},
	}
}

func TestBind_Incomplete(t *testing.T) {
	full := newRecorder().funcs()

	tests := []struct {
		name string
		fn   Funcs
	}{
		{"empty", Funcs{}},
		{"no allocate", Funcs{Resize: full.Resize, Release: full.Release}},
		{"no resize", Funcs{Allocate: full.Allocate, Release: full.Release}},
		{"no release", Funcs{Allocate: full.Allocate, Resize: full.Resize}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Bind(tt.fn)
			require.ErrorIs(t, err, ErrIncompleteBinding)
			assert.Nil(t, tr)
		})
	}

	assert.Panics(t, func() { MustBind(Funcs{}) })
}

func TestTrampoline_ForwardsExactlyOnce(t *testing.T) {
	rec := newRecorder()
	tr, err := Bind(rec.funcs())
	require.NoError(t, err)

	p := tr.Allocate(24)
	require.NotNil(t, p)
	q := tr.Resize(p, 48)
	require.NotNil(t, q)
	tr.Release(q)

	require.Equal(t, []call{
		{"allocate", nil, 24},
		{"resize", p, 48},
		{"release", q, 0},
	}, rec.calls)
	assert.Equal(t, 0, rec.heap.Live())
}

func TestTrampoline_NoRequestsNoCalls(t *testing.T) {
	rec := newRecorder()
	tr, err := Bind(rec.funcs())
	require.NoError(t, err)

	s, err := MakeArray[m3d.Vertex](tr, 0)
	require.NoError(t, err)
	FreeArray(tr, s)

	assert.Empty(t, rec.calls)
}

func TestTrampoline_PropagatesFailure(t *testing.T) {
	rec := newRecorder()
	rec.fail = true
	tr := MustBind(rec.funcs())

	assert.Nil(t, tr.Allocate(16))
	assert.Nil(t, tr.Resize(nil, 16))
	assert.Len(t, rec.calls, 2)
}

func TestHeap_Resize(t *testing.T) {
	h := NewHeap()

	p := h.Allocate(16)
	require.NotNil(t, p)
	words := unsafe.Slice((*uint64)(p), 2)
	words[0], words[1] = 0xdead, 0xbeef

	q := h.Resize(p, 64)
	require.NotNil(t, q)
	grown := unsafe.Slice((*uint64)(q), 8)
	assert.Equal(t, uint64(0xdead), grown[0])
	assert.Equal(t, uint64(0xbeef), grown[1])
	assert.Equal(t, uint64(0), grown[7])
	assert.Equal(t, 1, h.Live())

	// same word count keeps the block
	assert.Equal(t, q, h.Resize(q, 60))

	assert.Nil(t, h.Resize(q, 0))
	assert.Equal(t, 0, h.Live())
}

func TestHeap_EdgeCases(t *testing.T) {
	h := NewHeap()

	assert.Nil(t, h.Allocate(0))

	var foreign uint64
	assert.Nil(t, h.Resize(unsafe.Pointer(&foreign), 8))

	h.Release(nil)
	h.Release(unsafe.Pointer(&foreign))
	assert.Equal(t, 0, h.Live())

	p := h.Resize(nil, 8)
	require.NotNil(t, p)
	assert.Equal(t, 1, h.Live())
	assert.Zero(t, uintptr(p)%8)
}

func TestCounting(t *testing.T) {
	c := NewCounting(NewHeap())

	p := c.Allocate(100)
	q := c.Allocate(28)
	p = c.Resize(p, 200)
	c.Release(q)

	st := c.Stats()
	assert.Equal(t, 2, st.Allocs)
	assert.Equal(t, 1, st.Resizes)
	assert.Equal(t, 1, st.Releases)
	assert.Equal(t, 0, st.Failures)
	assert.Equal(t, uintptr(200), st.LiveBytes)
	assert.Equal(t, uintptr(228), st.PeakBytes)

	c.Release(p)
	assert.Equal(t, uintptr(0), c.Stats().LiveBytes)
}

func TestCounting_Failures(t *testing.T) {
	rec := newRecorder()
	rec.fail = true
	c := NewCounting(MustBind(rec.funcs()))

	assert.Nil(t, c.Allocate(8))
	assert.Nil(t, c.Resize(nil, 8))
	assert.Equal(t, 2, c.Stats().Failures)
	assert.Equal(t, uintptr(0), c.Stats().LiveBytes)
}

func TestLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewLogged(NewHeap(), zap.New(core))

	p := l.Allocate(32)
	p = l.Resize(p, 64)
	l.Release(p)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "allocate", entries[0].Message)
	assert.Equal(t, "resize", entries[1].Message)
	assert.Equal(t, "release", entries[2].Message)
	assert.Equal(t, "alloc", entries[0].LoggerName)
}

func TestLogged_NilLogger(t *testing.T) {
	l := NewLogged(NewHeap(), nil)
	assert.NotPanics(t, func() {
		l.Release(l.Allocate(8))
	})
}

func TestArrays(t *testing.T) {
	c := NewCounting(NewHeap())
	tr := MustBind(FuncsOf(c))

	faces, err := MakeArray[m3d.Face](tr, 3)
	require.NoError(t, err)
	require.Len(t, faces, 3)
	assert.Equal(t, unsafe.Sizeof(m3d.Face{})*3, c.Stats().LiveBytes)

	faces[2].MaterialID = m3d.Undef
	faces, err = GrowArray(tr, faces, 10)
	require.NoError(t, err)
	require.Len(t, faces, 10)
	assert.Equal(t, m3d.Undef, faces[2].MaterialID)

	FreeArray(tr, faces)

	st := c.Stats()
	assert.Equal(t, 1, st.Allocs)
	assert.Equal(t, 1, st.Resizes)
	assert.Equal(t, 1, st.Releases)
	assert.Equal(t, uintptr(0), st.LiveBytes)
}

func TestArrays_OutOfMemory(t *testing.T) {
	rec := newRecorder()
	rec.fail = true
	tr := MustBind(rec.funcs())

	_, err := MakeArray[m3d.Bone](tr, 2)
	require.ErrorIs(t, err, ErrOutOfMemory)

	var existing []m3d.Weight
	got, err := GrowArray(tr, existing, 4)
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Nil(t, got)
}

func TestGrowArray_ToZeroReleases(t *testing.T) {
	h := NewHeap()
	s, err := MakeArray[uint32](h, 4)
	require.NoError(t, err)

	s, err = GrowArray(h, s, 0)
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Equal(t, 0, h.Live())
}

func TestGrowArray_NegativeLength(t *testing.T) {
	rec := newRecorder()
	tr := MustBind(rec.funcs())

	got, err := GrowArray[m3d.Weight](tr, nil, -1)
	require.ErrorIs(t, err, ErrNegativeLength)
	assert.Nil(t, got)

	s, err := MakeArray[m3d.Weight](tr, 2)
	require.NoError(t, err)
	got, err = GrowArray(tr, s, -3)
	require.ErrorIs(t, err, ErrNegativeLength)
	assert.Equal(t, s, got)
	assert.Equal(t, 1, rec.heap.Live(), "block must stay owned by the caller")

	_, err = MakeArray[m3d.Weight](tr, -1)
	require.ErrorIs(t, err, ErrNegativeLength)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "allocate", rec.calls[0].op)
}

func TestGrowArray_EmptyToZeroNoCall(t *testing.T) {
	rec := newRecorder()
	tr := MustBind(rec.funcs())

	got, err := GrowArray[m3d.Face](tr, nil, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, rec.calls)
}

// collectedAfterGC stores a pointer to a fresh object through store, drops
// every other reference and reports whether the object was finalized.
func collectedAfterGC(t *testing.T, store func(*byte)) bool {
	t.Helper()
	var collected atomic.Bool
	func() {
		name := new([32]byte)
		runtime.SetFinalizer(name, func(*[32]byte) { collected.Store(true) })
		store(&name[0])
	}()
	for range 5 {
		runtime.GC()
	}
	return collected.Load()
}

func TestHeap_TypedBlocksKeepPointeesAlive(t *testing.T) {
	h := NewHeap()
	mats, err := MakeArray[m3d.Material](h, 1)
	require.NoError(t, err)

	assert.False(t, collectedAfterGC(t, func(b *byte) { mats[0].Name = b }),
		"pointee of a heap block freed while still referenced")

	// The pointer survives a resize.
	mats, err = GrowArray(h, mats, 4)
	require.NoError(t, err)
	require.NotNil(t, mats[0].Name)
	assert.False(t, collectedAfterGC(t, func(b *byte) { mats[3].Name = b }))
	require.NotNil(t, mats[3].Name)

	runtime.KeepAlive(mats)
	FreeArray(h, mats)
	assert.Equal(t, 0, h.Live())
}

func TestCounting_ForwardsTypedBlocks(t *testing.T) {
	h := NewHeap()
	c := NewCounting(h)
	labels, err := MakeArray[m3d.Label](c, 2)
	require.NoError(t, err)
	assert.Equal(t, unsafe.Sizeof(m3d.Label{})*2, c.Stats().LiveBytes)

	assert.False(t, collectedAfterGC(t, func(b *byte) { labels[1].Text = b }))
	runtime.KeepAlive(labels)

	FreeArray(c, labels)
	assert.Equal(t, uintptr(0), c.Stats().LiveBytes)
	assert.Equal(t, 0, h.Live())
}

func TestHeap_ResizeArrayElemChange(t *testing.T) {
	h := NewHeap()

	p := h.AllocateArray(reflect.TypeFor[uint32](), 4)
	require.NotNil(t, p)
	unsafe.Slice((*uint32)(p), 4)[0] = 7

	// pointer-free to pointer-free copies bytes
	q := h.ResizeArray(p, reflect.TypeFor[uint64](), 4)
	require.NotNil(t, q)
	assert.Equal(t, uint32(7), *(*uint32)(q))

	// reinterpreting as a pointer-bearing type is refused
	assert.Nil(t, h.ResizeArray(q, reflect.TypeFor[m3d.Label](), 4))
	assert.Equal(t, 1, h.Live())
}

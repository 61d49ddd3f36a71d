package assertgen

import (
	"reflect"

	"github.com/Faultbox/m3dabi/pkg/m3d"
)

// Field describes one struct field in memory.
type Field struct {
	Name   string
	Type   string
	Offset uintptr
	Size   uintptr
	Align  uintptr
}

// Hole is a run of padding bytes.
type Hole struct {
	Offset uintptr
	Size   uintptr
}

// TypeLayout is the in-memory layout of a catalogue type.
type TypeLayout struct {
	Entry  m3d.Entry
	Size   uintptr
	Align  uintptr
	Fields []Field // empty for scalar types
	Holes  []Hole  // interior and trailing padding
}

// Padding returns the total padding bytes.
func (l TypeLayout) Padding() uintptr {
	var n uintptr
	for _, h := range l.Holes {
		n += h.Size
	}
	return n
}

// Layout computes field offsets and padding for e's mirror type.
// Mismatched sizes in a binding usually trace back to one of the holes.
func Layout(e m3d.Entry) TypeLayout {
	t := e.Type
	l := TypeLayout{Entry: e, Size: t.Size(), Align: uintptr(t.Align())}
	if t.Kind() != reflect.Struct {
		return l
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		l.Fields = append(l.Fields, Field{
			Name:   f.Name,
			Type:   f.Type.String(),
			Offset: f.Offset,
			Size:   f.Type.Size(),
			Align:  uintptr(f.Type.Align()),
		})
	}
	l.Holes = holes(l.Fields, l.Size)
	return l
}

// holes returns the gaps between fields and after the last one.
func holes(fields []Field, size uintptr) []Hole {
	var (
		hs  []Hole
		end uintptr
	)
	for _, f := range fields {
		if f.Offset > end {
			hs = append(hs, Hole{Offset: end, Size: f.Offset - end})
		}
		end = f.Offset + f.Size
	}
	if size > end {
		hs = append(hs, Hole{Offset: end, Size: size - end})
	}
	return hs
}

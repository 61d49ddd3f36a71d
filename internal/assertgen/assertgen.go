// Package assertgen measures the M3D mirror types and emits Odin
// compile-time size assertions for them.
//
// The output is one package clause followed by one line per catalogue
// entry, in catalogue order:
//
//	package m3d
//	#assert(size_of(FLOAT) == 4)
//	#assert(size_of(hdr_t) == 16)
//
// Compiling that file alongside the Odin binding fails as soon as a binding
// struct drifts from the native layout.
package assertgen

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Faultbox/m3dabi/pkg/m3d"
)

// DefaultPackage is the Odin package the binding lives in.
const DefaultPackage = "m3d"

// DefaultPath is where the generator writes, relative to the working directory.
const DefaultPath = "assertions.odin"

// Record is a catalogue entry together with its measured size.
type Record struct {
	m3d.Entry
	Size uintptr
}

// Measure sizes every entry with the type system's static size, which is
// what unsafe.Sizeof reports for a value of the type. Order is preserved.
func Measure(entries []m3d.Entry) []Record {
	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = Record{Entry: e, Size: e.Type.Size()}
	}
	return records
}

// HeaderLine returns the package clause for pkg.
func HeaderLine(pkg string) string {
	return "package " + pkg
}

// AssertLine returns the size assertion for one record.
func AssertLine(r Record) string {
	return fmt.Sprintf("#assert(size_of(%s) == %d)", r.Binding, r.Size)
}

// Generate writes the header and one assertion per record to w.
func Generate(w io.Writer, pkg string, records []Record) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, HeaderLine(pkg)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range records {
		if _, err := fmt.Fprintln(bw, AssertLine(r)); err != nil {
			return fmt.Errorf("writing %s: %w", r.Binding, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing assertions: %w", err)
	}
	return nil
}

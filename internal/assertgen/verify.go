package assertgen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedAssertion is returned by Verify for lines it cannot parse.
var ErrMalformedAssertion = errors.New("malformed assertion file")

// DriftKind classifies a difference between a file and the current layouts.
type DriftKind int

const (
	DriftSize       DriftKind = iota // size differs
	DriftMissing                     // type in the catalogue, not in the file
	DriftUnexpected                  // type in the file, not in the catalogue
	DriftOrder                       // both present, different position
	DriftPackage                     // package clause differs
)

// String returns a short name for the kind.
func (k DriftKind) String() string {
	switch k {
	case DriftSize:
		return "size"
	case DriftMissing:
		return "missing"
	case DriftUnexpected:
		return "unexpected"
	case DriftOrder:
		return "order"
	case DriftPackage:
		return "package"
	default:
		return fmt.Sprintf("DriftKind(%d)", int(k))
	}
}

// Drift is one difference found by Verify.
type Drift struct {
	Kind    DriftKind
	Binding string // binding type, or package name for DriftPackage
	Line    int    // 1-based line in the file, 0 if absent from it
	Want    string
	Got     string
}

// String renders the drift for humans.
func (d Drift) String() string {
	switch d.Kind {
	case DriftMissing:
		return fmt.Sprintf("%s: missing (want %s)", d.Binding, d.Want)
	case DriftUnexpected:
		return fmt.Sprintf("line %d: %s: not in catalogue", d.Line, d.Binding)
	default:
		return fmt.Sprintf("line %d: %s: %s drift: want %s, got %s", d.Line, d.Binding, d.Kind, d.Want, d.Got)
	}
}

var (
	headerRe = regexp.MustCompile(`^package\s+([A-Za-z_][A-Za-z0-9_]*)$`)
	assertRe = regexp.MustCompile(`^#assert\(size_of\(([A-Za-z_][A-Za-z0-9_]*)\)\s*==\s*([0-9]+)\)$`)
)

// Assertion is one parsed assertion line.
type Assertion struct {
	Binding string
	Size    uintptr
	Line    int
}

// File is a parsed assertion file.
type File struct {
	Package     string
	PackageLine int
	Assertions  []Assertion
}

// Parse reads an assertion file. Blank lines and // comments are skipped.
func Parse(r io.Reader) (*File, error) {
	var (
		f      File
		lineNo int
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		if f.Package == "" {
			m := headerRe.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("%w: line %d: expected package clause, got %q", ErrMalformedAssertion, lineNo, line)
			}
			f.Package, f.PackageLine = m[1], lineNo
			continue
		}

		m := assertRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedAssertion, lineNo, line)
		}
		size, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: size %q: %v", ErrMalformedAssertion, lineNo, m[2], err)
		}
		f.Assertions = append(f.Assertions, Assertion{Binding: m[1], Size: uintptr(size), Line: lineNo})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading assertions: %w", err)
	}
	if f.Package == "" {
		return nil, fmt.Errorf("%w: no package clause", ErrMalformedAssertion)
	}
	return &f, nil
}

// Verify compares an existing assertion file against freshly measured
// records and reports every difference. An empty result means the file is
// exactly what Generate would write for pkg and records, modulo blank
// lines and comments.
func Verify(r io.Reader, pkg string, records []Record) ([]Drift, error) {
	f, err := Parse(r)
	if err != nil {
		return nil, err
	}
	assertions := f.Assertions

	var drifts []Drift
	if f.Package != pkg {
		drifts = append(drifts, Drift{Kind: DriftPackage, Binding: f.Package, Line: f.PackageLine, Want: pkg, Got: f.Package})
	}

	want := make(map[string]Record, len(records))
	for _, rec := range records {
		want[rec.Binding] = rec
	}

	seen := make(map[string]bool, len(assertions))
	var common []Assertion
	for _, a := range assertions {
		rec, ok := want[a.Binding]
		if !ok || seen[a.Binding] {
			drifts = append(drifts, Drift{Kind: DriftUnexpected, Binding: a.Binding, Line: a.Line})
			continue
		}
		seen[a.Binding] = true
		common = append(common, a)
		if rec.Size != a.Size {
			drifts = append(drifts, Drift{
				Kind:    DriftSize,
				Binding: a.Binding,
				Line:    a.Line,
				Want:    strconv.FormatUint(uint64(rec.Size), 10),
				Got:     strconv.FormatUint(uint64(a.Size), 10),
			})
		}
	}

	// Relative order of the names both sides share.
	var expected []string
	for _, rec := range records {
		if seen[rec.Binding] {
			expected = append(expected, rec.Binding)
		} else {
			drifts = append(drifts, Drift{Kind: DriftMissing, Binding: rec.Binding, Want: strconv.FormatUint(uint64(rec.Size), 10)})
		}
	}
	for i, a := range common {
		if expected[i] != a.Binding {
			drifts = append(drifts, Drift{
				Kind:    DriftOrder,
				Binding: a.Binding,
				Line:    a.Line,
				Want:    expected[i],
				Got:     a.Binding,
			})
		}
	}

	return drifts, nil
}

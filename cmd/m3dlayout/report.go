package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Faultbox/m3dabi/internal/assertgen"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	holeStyle   = cellStyle.Foreground(lipgloss.Color("214"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// report renders command output. Styled output uses rounded borders and
// colour; plain output (pipes, files) uses markdown tables without ANSI codes.
type report struct {
	w      io.Writer
	styled bool
}

func newReport(w io.Writer, styled bool) *report {
	return &report{w: w, styled: styled}
}

func (r *report) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

func (r *report) table(headers []string, rows [][]string, highlight func(row int) bool) string {
	t := table.New().Headers(headers...).Rows(rows...)
	if !r.styled {
		return t.Border(lipgloss.MarkdownBorder()).
			BorderTop(false).
			BorderBottom(false).
			StyleFunc(func(row, col int) lipgloss.Style { return cellStyle }).
			String()
	}
	return t.Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case highlight != nil && highlight(row):
				return holeStyle
			default:
				return cellStyle
			}
		}).
		String()
}

func (r *report) ok(msg string) {
	fmt.Fprintln(r.w, r.style(okStyle, msg))
}

func (r *report) catalogue(arch string, records []assertgen.Record) {
	fmt.Fprintln(r.w, r.style(titleStyle, fmt.Sprintf("M3D catalogue (%s, %d types)", arch, len(records))))

	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			rec.Native,
			rec.Binding,
			rec.Type.String(),
			strconv.FormatUint(uint64(rec.Size), 10),
		}
	}
	fmt.Fprintln(r.w, r.table([]string{"#", "Native", "Binding", "Go type", "Size"}, rows, nil))
}

func (r *report) layout(l assertgen.TypeLayout) {
	title := fmt.Sprintf("%s (%s): size %d, align %d", l.Entry.Native, l.Entry.Binding, l.Size, l.Align)
	if pad := l.Padding(); pad > 0 {
		title += fmt.Sprintf(", %d padding", pad)
	}
	fmt.Fprintln(r.w, r.style(titleStyle, title))
	if len(l.Fields) == 0 {
		fmt.Fprintln(r.w)
		return
	}

	// Fields and holes interleaved by offset.
	var (
		rows  [][]string
		holes = make(map[int]bool)
		hi    int
	)
	addHoles := func(upTo uintptr) {
		for hi < len(l.Holes) && l.Holes[hi].Offset < upTo {
			h := l.Holes[hi]
			holes[len(rows)] = true
			rows = append(rows, []string{strconv.FormatUint(uint64(h.Offset), 10), "(padding)", "", strconv.FormatUint(uint64(h.Size), 10), ""})
			hi++
		}
	}
	for _, f := range l.Fields {
		addHoles(f.Offset)
		rows = append(rows, []string{
			strconv.FormatUint(uint64(f.Offset), 10),
			f.Name,
			f.Type,
			strconv.FormatUint(uint64(f.Size), 10),
			strconv.FormatUint(uint64(f.Align), 10),
		})
	}
	addHoles(l.Size + 1)

	fmt.Fprintln(r.w, r.table([]string{"Offset", "Field", "Type", "Size", "Align"}, rows, func(row int) bool { return holes[row] }))
	fmt.Fprintln(r.w)
}

func (r *report) drifts(path string, drifts []assertgen.Drift) {
	fmt.Fprintln(r.w, r.style(badStyle, fmt.Sprintf("%s: %d differences", path, len(drifts))))

	rows := make([][]string, len(drifts))
	for i, d := range drifts {
		line := ""
		if d.Line > 0 {
			line = strconv.Itoa(d.Line)
		}
		rows[i] = []string{line, d.Kind.String(), d.Binding, d.Want, d.Got}
	}
	fmt.Fprintln(r.w, r.table([]string{"Line", "Kind", "Type", "Want", "Got"}, rows, nil))
}

// Package render prints tabular query results whose shape is only known at
// run time.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ErrRagged is returned for a result whose rows do not all have one cell
// per column.
var ErrRagged = errors.New("result rows do not match column count")

// Cell is a single result value. Null cells print as an empty field.
type Cell struct {
	Value string
	Null  bool
}

// Text returns a non-null cell.
func Text(s string) Cell {
	return Cell{Value: s}
}

// Null is the SQL NULL cell.
var Null = Cell{Null: true}

func (c Cell) String() string {
	if c.Null {
		return ""
	}
	return c.Value
}

// Result is a driver-independent query result.
type Result struct {
	Columns   []string
	Rows      [][]Cell
	Truncated bool // rows beyond the reader's limit were dropped
}

// Strings builds a Result from plain string rows.
func Strings(columns []string, rows ...[]string) Result {
	res := Result{Columns: columns}
	for _, row := range rows {
		cells := make([]Cell, len(row))
		for i, v := range row {
			cells[i] = Text(v)
		}
		res.Rows = append(res.Rows, cells)
	}
	return res
}

// Validate checks that every row has exactly one cell per column.
func (r Result) Validate() error {
	for i, row := range r.Rows {
		if len(row) != len(r.Columns) {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrRagged, i, len(row), len(r.Columns))
		}
	}
	return nil
}

// Style selects the output layout.
type Style int

const (
	// StyleTab prints tab separated lines: the header, then one line per row.
	StyleTab Style = iota
	// StyleBox prints a bordered grid with padded columns.
	StyleBox
)

// ParseStyle maps "tab" or "box" to a Style.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tab":
		return StyleTab, nil
	case "box", "table":
		return StyleBox, nil
	}
	return StyleTab, fmt.Errorf("unknown table style %q (want tab or box)", s)
}

func (s Style) String() string {
	if s == StyleBox {
		return "box"
	}
	return "tab"
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyle sets the layout.
func WithStyle(s Style) Option {
	return func(r *Renderer) { r.style = s }
}

// Renderer writes results to an io.Writer. It holds no per-result state, so
// rendering the same result twice produces the same output.
type Renderer struct {
	style Style
}

// New returns a tab-style renderer unless overridden.
func New(opts ...Option) *Renderer {
	r := &Renderer{style: StyleTab}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render prints the header followed by every row and returns the number of
// rows. The header is printed even when there are no rows.
func (r *Renderer) Render(w io.Writer, res Result) (int, error) {
	if err := res.Validate(); err != nil {
		return 0, err
	}
	var out string
	if r.style == StyleBox {
		out = formatBox(res)
	} else {
		out = formatTab(res)
	}
	if _, err := io.WriteString(w, out); err != nil {
		return 0, fmt.Errorf("write result: %w", err)
	}
	return len(res.Rows), nil
}

// controlEscaper keeps one result row on one line and one cell per column.
var controlEscaper = strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`)

func escape(s string) string {
	return controlEscaper.Replace(s)
}

func formatTab(res Result) string {
	var b strings.Builder
	for i, c := range res.Columns {
		if i > 0 {
			b.WriteByte('\t')
		}
		b.WriteString(escape(c))
	}
	b.WriteByte('\n')
	for _, row := range res.Rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(escape(cell.String()))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func formatBox(res Result) string {
	if len(res.Columns) == 0 {
		return ""
	}

	// Calculate column widths in terminal cells.
	widths := make([]int, len(res.Columns))
	for i, c := range res.Columns {
		widths[i] = runewidth.StringWidth(escape(c))
	}
	for _, row := range res.Rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(escape(cell.String())); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	sep := buildSeparator(widths)

	b.WriteString(sep)
	b.WriteByte('|')
	for i, c := range res.Columns {
		writeCell(&b, c, widths[i])
	}
	b.WriteByte('\n')
	b.WriteString(sep)

	for _, row := range res.Rows {
		b.WriteByte('|')
		for i, cell := range row {
			writeCell(&b, cell.String(), widths[i])
		}
		b.WriteByte('\n')
	}

	b.WriteString(sep)
	return b.String()
}

func writeCell(b *strings.Builder, s string, width int) {
	b.WriteByte(' ')
	b.WriteString(runewidth.FillRight(escape(s), width))
	b.WriteString(" |")
}

func buildSeparator(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}

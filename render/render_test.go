package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/bawdo/dbconsole/internal/testutil"
)

func renderString(t *testing.T, r *Renderer, res Result) (string, int) {
	t.Helper()
	var buf bytes.Buffer
	n, err := r.Render(&buf, res)
	testutil.AssertNoError(t, err)
	return buf.String(), n
}

func TestRenderTabRooms(t *testing.T) {
	t.Parallel()
	res := Strings([]string{"hotelID", "roomNo"}, []string{"3", "101"}, []string{"3", "102"})
	out, n := renderString(t, New(), res)

	testutil.AssertEqual(t, n, 2)
	testutil.AssertEqual(t, out, "hotelID\troomNo\n3\t101\n3\t102\n")
}

func TestRenderTabLineCount(t *testing.T) {
	t.Parallel()
	cols := []string{"a", "b", "c"}
	for rows := 0; rows <= 5; rows++ {
		res := Result{Columns: cols}
		for i := 0; i < rows; i++ {
			res.Rows = append(res.Rows, []Cell{Text("x"), Null, Text("")})
		}
		out, n := renderString(t, New(), res)
		testutil.AssertEqual(t, n, rows)
		testutil.AssertEqual(t, strings.Count(out, "\n"), rows+1)
	}
}

func TestRenderEmptyPrintsHeaderOnly(t *testing.T) {
	t.Parallel()
	out, n := renderString(t, New(), Result{Columns: []string{"roomNo"}})
	testutil.AssertEqual(t, n, 0)
	testutil.AssertEqual(t, out, "roomNo\n")
	testutil.AssertNotContains(t, out, "0 rows")
}

func TestRenderNullIsEmpty(t *testing.T) {
	t.Parallel()
	res := Result{
		Columns: []string{"reqID", "description"},
		Rows:    [][]Cell{{Text("1"), Null}},
	}
	out, _ := renderString(t, New(), res)
	testutil.AssertEqual(t, out, "reqID\tdescription\n1\t\n")
	testutil.AssertNotContains(t, out, "null")
	testutil.AssertNotContains(t, out, "NULL")
}

func TestRenderIsIdempotent(t *testing.T) {
	t.Parallel()
	res := Strings([]string{"name", "repairCount"}, []string{"Fixit", "4"}, []string{"Ünïcode Co", "1"})
	for _, style := range []Style{StyleTab, StyleBox} {
		r := New(WithStyle(style))
		first, n1 := renderString(t, r, res)
		second, n2 := renderString(t, r, res)
		testutil.AssertEqual(t, first, second)
		testutil.AssertEqual(t, n1, n2)
	}
}

func TestRenderRaggedRows(t *testing.T) {
	t.Parallel()
	res := Result{Columns: []string{"a", "b"}, Rows: [][]Cell{{Text("1")}}}
	var buf bytes.Buffer
	_, err := New().Render(&buf, res)
	if !errors.Is(err, ErrRagged) {
		t.Fatalf("expected ErrRagged, got %v", err)
	}
	testutil.AssertEqual(t, buf.Len(), 0)
}

func TestRenderBox(t *testing.T) {
	t.Parallel()
	res := Strings([]string{"id", "name"}, []string{"1", "Alice"}, []string{"22", "Bo"})
	out, n := renderString(t, New(WithStyle(StyleBox)), res)
	testutil.AssertEqual(t, n, 2)

	want := "+----+-------+\n" +
		"| id | name  |\n" +
		"+----+-------+\n" +
		"| 1  | Alice |\n" +
		"| 22 | Bo    |\n" +
		"+----+-------+\n"
	testutil.AssertEqual(t, out, want)
}

func TestRenderBoxWideRunes(t *testing.T) {
	t.Parallel()
	res := Strings([]string{"city"}, []string{"東京"}, []string{"Rome"})
	out, _ := renderString(t, New(WithStyle(StyleBox)), res)
	// 東京 occupies four terminal cells, the same as "Rome".
	testutil.AssertContains(t, out, "| 東京 |\n")
	testutil.AssertContains(t, out, "| Rome |\n")
}

func TestRenderBoxNoColumns(t *testing.T) {
	t.Parallel()
	out, n := renderString(t, New(WithStyle(StyleBox)), Result{})
	testutil.AssertEqual(t, n, 0)
	testutil.AssertEqual(t, out, "")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestRenderWriteError(t *testing.T) {
	t.Parallel()
	_, err := New().Render(failWriter{}, Strings([]string{"a"}, []string{"1"}))
	testutil.AssertError(t, err)
}

func TestParseStyle(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Style{"": StyleTab, "tab": StyleTab, "BOX": StyleBox, "table": StyleBox} {
		got, err := ParseStyle(in)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, got, want)
	}
	_, err := ParseStyle("csv")
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, StyleBox.String(), "box")
}

func TestRenderTabEscapesLineBreaks(t *testing.T) {
	t.Parallel()
	res := Strings([]string{"reqID", "description"},
		[]string{"1", "leaking pipe\nroom 101"},
		[]string{"2", "tab\there\r"},
	)
	out, n := renderString(t, New(), res)
	testutil.AssertEqual(t, n, 2)
	testutil.AssertEqual(t, strings.Count(out, "\n"), 3)
	testutil.AssertEqual(t, out, "reqID\tdescription\n1\tleaking pipe\\nroom 101\n2\ttab\\there\\r\n")
}

func TestRenderTabEscapesHeader(t *testing.T) {
	t.Parallel()
	out, _ := renderString(t, New(), Result{Columns: []string{"a\tb", "c"}})
	testutil.AssertEqual(t, out, "a\\tb\tc\n")
}

func TestRenderBoxEscapesLineBreaks(t *testing.T) {
	t.Parallel()
	res := Strings([]string{"d"}, []string{"x\ny"})
	out, _ := renderString(t, New(WithStyle(StyleBox)), res)
	testutil.AssertContains(t, out, "| x\\ny |\n")
	// Border, header, border, one row, border.
	testutil.AssertEqual(t, strings.Count(out, "\n"), 5)
}

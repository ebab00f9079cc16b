package prompter

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bawdo/dbconsole/catalog"
	"github.com/bawdo/dbconsole/internal/testutil"
)

func scripted(lines ...string) LineReader {
	return NewScanReader(strings.NewReader(strings.Join(lines, "\n")))
}

// interruptReader returns ErrInterrupt once, then delegates.
type interruptReader struct {
	fired bool
	next  LineReader
}

func (r *interruptReader) ReadLine() (string, error) {
	if !r.fired {
		r.fired = true
		return "", ErrInterrupt
	}
	return r.next.ReadLine()
}

// promptingReader records prompts set on it, like readline does.
type promptingReader struct {
	prompts []string
	next    LineReader
}

func (r *promptingReader) SetPrompt(p string)        { r.prompts = append(r.prompts, p) }
func (r *promptingReader) ReadLine() (string, error) { return r.next.ReadLine() }

type failingReader struct{}

func (failingReader) ReadLine() (string, error) { return "", errors.New("tty gone") }

var (
	intField  = catalog.Field{Name: "hotelID", Type: catalog.Integer, Prompt: "Enter hotel ID", Required: true}
	decField  = catalog.Field{Name: "price", Type: catalog.Decimal, Prompt: "Enter price", Required: true}
	dateField = catalog.Field{Name: "dob", Type: catalog.Date, Prompt: "Enter date", Required: true}
	textField = catalog.Field{Name: "fName", Type: catalog.Text, Prompt: "Enter first name", Required: true}
	enumField = catalog.Field{Name: "gender", Type: catalog.Enum, Prompt: "Enter gender",
		Options: []string{"Male", "Female", "Other"}, Required: true}
)

func TestParseValidValuesMatchFieldType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		field catalog.Field
		raw   string
		check func(t *testing.T, v any)
	}{
		{intField, "42", func(t *testing.T, v any) { testutil.AssertEqual(t, v.(int64), int64(42)) }},
		{intField, " -3 ", func(t *testing.T, v any) { testutil.AssertEqual(t, v.(int64), int64(-3)) }},
		{decField, "129.99", func(t *testing.T, v any) { testutil.AssertEqual(t, v.(catalog.Numeric), catalog.Numeric("129.99")) }},
		{decField, "-7", func(t *testing.T, v any) { testutil.AssertEqual(t, v.(catalog.Numeric), catalog.Numeric("-7")) }},
		{dateField, "1990-05-01", func(t *testing.T, v any) {
			testutil.AssertEqual(t, v.(time.Time).Format("2006-01-02"), "1990-05-01")
		}},
		{textField, "O'Brien", func(t *testing.T, v any) { testutil.AssertEqual(t, v.(string), "O'Brien") }},
		{textField, "  spaced  ", func(t *testing.T, v any) { testutil.AssertEqual(t, v.(string), "  spaced  ") }},
		{enumField, "female", func(t *testing.T, v any) { testutil.AssertEqual(t, v.(string), "Female") }},
		{enumField, "OTHER", func(t *testing.T, v any) { testutil.AssertEqual(t, v.(string), "Other") }},
	}
	for _, tt := range tests {
		t.Run(tt.field.Name+"/"+tt.raw, func(t *testing.T) {
			v, err := Parse(tt.field, tt.raw)
			testutil.AssertNoError(t, err)
			tt.check(t, v)
		})
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		field catalog.Field
		raw   string
	}{
		{intField, "abc"},
		{intField, "1.5"},
		{intField, ""},
		{intField, "99999999999999999999"},
		{decField, "12,50"},
		{decField, "1e3"},
		{decField, "."},
		{decField, "5."},
		{dateField, "05/01/1990"},
		{dateField, "1990-13-01"},
		{dateField, "1990-5-1"},
		{enumField, "robot"},
	}
	for _, tt := range tests {
		t.Run(tt.field.Name+"/"+tt.raw, func(t *testing.T) {
			_, err := Parse(tt.field, tt.raw)
			var ife *InputFormatError
			if !errors.As(err, &ife) {
				t.Fatalf("expected InputFormatError, got %v", err)
			}
			testutil.AssertEqual(t, ife.Field, tt.field.Name)
			testutil.AssertEqual(t, ife.Input, tt.raw)
		})
	}
}

func TestParseOptionalBlankIsNull(t *testing.T) {
	t.Parallel()
	f := catalog.Field{Name: "phNo", Type: catalog.Integer, Prompt: "Enter phone"}
	v, err := Parse(f, "   ")
	testutil.AssertNoError(t, err)
	if v != nil {
		t.Errorf("expected nil, got %#v", v)
	}
}

func TestParseRequiredBlankText(t *testing.T) {
	t.Parallel()
	v, err := Parse(textField, "")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v.(string), "")
}

func TestAcquireRepromptsOncePerInvalidLine(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	var rejected []string
	p := New(scripted("abc", "x1", "17"), &out, WithRejectHook(func(_ catalog.Field, e *InputFormatError) {
		rejected = append(rejected, e.Input)
	}))

	v, err := p.Acquire(intField)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v.(int64), int64(17))

	testutil.AssertEqual(t, strings.Count(out.String(), "\tEnter hotel ID: "), 3)
	testutil.AssertEqual(t, strings.Count(out.String(), "invalid input"), 2)
	testutil.AssertEqual(t, len(rejected), 2)
	testutil.AssertEqual(t, rejected[0], "abc")
	testutil.AssertEqual(t, rejected[1], "x1")
}

func TestAcquireAbortOnEOF(t *testing.T) {
	t.Parallel()
	p := New(scripted("nope"), io.Discard)
	_, err := p.Acquire(intField)
	if !errors.Is(err, ErrAbort) {
		t.Fatalf("expected ErrAbort, got %v", err)
	}
}

func TestAcquireInterruptAborts(t *testing.T) {
	t.Parallel()
	p := New(&interruptReader{next: scripted("5")}, io.Discard)
	_, err := p.Acquire(intField)
	if !errors.Is(err, ErrAbort) {
		t.Fatalf("expected ErrAbort, got %v", err)
	}
}

func TestAcquireReadFailure(t *testing.T) {
	t.Parallel()
	p := New(failingReader{}, io.Discard)
	_, err := p.Acquire(intField)
	testutil.AssertError(t, err)
	if errors.Is(err, ErrAbort) {
		t.Fatal("read failure should not look like an abort")
	}
	testutil.AssertContains(t, err.Error(), "tty gone")
}

func TestAcquireEnumPromptAndOptional(t *testing.T) {
	t.Parallel()
	r := &promptingReader{next: scripted("male", "")}
	p := New(r, io.Discard)

	v, err := p.Acquire(enumField)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v.(string), "Male")

	opt := catalog.Field{Name: "address", Type: catalog.Text, Prompt: "Enter address"}
	v, err = p.Acquire(opt)
	testutil.AssertNoError(t, err)
	if v != nil {
		t.Errorf("expected nil for blank optional field, got %#v", v)
	}

	testutil.AssertEqual(t, len(r.prompts), 2)
	testutil.AssertEqual(t, r.prompts[0], "\tEnter gender [Male/Female/Other]: ")
	testutil.AssertEqual(t, r.prompts[1], "\tEnter address (optional): ")
}

func TestAcquireFieldHook(t *testing.T) {
	t.Parallel()
	var seen []string
	p := New(scripted("Other"), io.Discard, WithFieldHook(func(f *catalog.Field) {
		if f == nil {
			seen = append(seen, "<done>")
			return
		}
		seen = append(seen, f.Name)
	}))
	_, err := p.Acquire(enumField)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, strings.Join(seen, ","), "gender,<done>")
}

func TestAcquireAll(t *testing.T) {
	t.Parallel()
	fields := []catalog.Field{intField, textField, dateField}
	p := New(scripted("three", "3", "O'Brien", "1990-05-01"), io.Discard)
	values, err := p.AcquireAll(fields)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(values), 3)
	testutil.AssertEqual(t, values["hotelID"].(int64), int64(3))
	testutil.AssertEqual(t, values["fName"].(string), "O'Brien")
}

func TestAcquireAllAbortReturnsNoValues(t *testing.T) {
	t.Parallel()
	p := New(scripted("3"), io.Discard)
	values, err := p.AcquireAll([]catalog.Field{intField, textField})
	if !errors.Is(err, ErrAbort) {
		t.Fatalf("expected ErrAbort, got %v", err)
	}
	if values != nil {
		t.Errorf("expected nil values, got %v", values)
	}
}

func TestScanReaderEOF(t *testing.T) {
	t.Parallel()
	r := NewScanReader(strings.NewReader("one\r\ntwo"))
	line, err := r.ReadLine()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, strings.TrimRight(line, "\r"), "one")
	line, err = r.ReadLine()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, line, "two")
	_, err = r.ReadLine()
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

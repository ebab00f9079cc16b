// Package prompter acquires typed field values from an operator, one line at
// a time, re-prompting until the text parses or input runs out.
package prompter

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bawdo/dbconsole/catalog"
	"github.com/bawdo/dbconsole/statement"
)

var (
	// ErrAbort is returned when input ends while a value is being collected.
	// It cancels the current command only.
	ErrAbort = errors.New("input aborted")

	// ErrInterrupt may be returned by a LineReader when the operator presses
	// Ctrl-C. Field prompting treats it like ErrAbort.
	ErrInterrupt = errors.New("interrupted")
)

// InputFormatError describes operator text that does not parse as the
// field's type. It never leaves Acquire; the operator is asked again.
type InputFormatError struct {
	Field  string
	Type   catalog.FieldType
	Input  string
	Reason string
}

func (e *InputFormatError) Error() string {
	return fmt.Sprintf("invalid input for %s (%s): %s", e.Field, e.Type, e.Reason)
}

// LineReader yields one line of operator input per call, without the
// trailing newline. io.EOF signals that no more input is available.
type LineReader interface {
	ReadLine() (string, error)
}

// promptSetter is implemented by interactive readers (readline) that draw
// the prompt themselves.
type promptSetter interface {
	SetPrompt(string)
}

// Option configures a Prompter.
type Option func(*Prompter)

// WithRejectHook registers fn to be called for every rejected line.
func WithRejectHook(fn func(catalog.Field, *InputFormatError)) Option {
	return func(p *Prompter) { p.onReject = fn }
}

// WithFieldHook registers fn to be called before each field is prompted for,
// and with nil once the field is done. Completers use it to offer enum
// members.
func WithFieldHook(fn func(*catalog.Field)) Option {
	return func(p *Prompter) { p.onField = fn }
}

// Prompter reads field values from an explicit input source.
type Prompter struct {
	in       LineReader
	out      io.Writer
	onReject func(catalog.Field, *InputFormatError)
	onField  func(*catalog.Field)
}

// New returns a prompter reading from in and writing prompts to out.
func New(in LineReader, out io.Writer, opts ...Option) *Prompter {
	if out == nil {
		out = io.Discard
	}
	p := &Prompter{in: in, out: out}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Line shows prompt and returns the next line of input. End of input is
// reported as ErrAbort; an interrupt as ErrInterrupt.
func (p *Prompter) Line(prompt string) (string, error) {
	if ps, ok := p.in.(promptSetter); ok {
		ps.SetPrompt(prompt)
	} else {
		_, _ = fmt.Fprint(p.out, prompt)
	}
	line, err := p.in.ReadLine()
	switch {
	case err == nil:
		return strings.TrimRight(line, "\r\n"), nil
	case errors.Is(err, io.EOF):
		return "", ErrAbort
	case errors.Is(err, ErrInterrupt):
		return "", ErrInterrupt
	default:
		return "", fmt.Errorf("read input: %w", err)
	}
}

// Acquire prompts for f until the operator supplies text that parses as
// f.Type. Malformed text is reported and asked for again without limit.
func (p *Prompter) Acquire(f catalog.Field) (any, error) {
	if p.onField != nil {
		p.onField(&f)
		defer p.onField(nil)
	}
	label := promptLabel(f)
	for {
		raw, err := p.Line(label)
		if errors.Is(err, ErrInterrupt) {
			return nil, ErrAbort
		}
		if err != nil {
			return nil, err
		}
		v, err := Parse(f, raw)
		if err == nil {
			return v, nil
		}
		var ife *InputFormatError
		if !errors.As(err, &ife) {
			return nil, err
		}
		_, _ = fmt.Fprintf(p.out, "\tinvalid input: %s\n", ife.Reason)
		if p.onReject != nil {
			p.onReject(f, ife)
		}
	}
}

// AcquireAll collects every field in order. The first error (usually
// ErrAbort) stops collection and no partial values are returned.
func (p *Prompter) AcquireAll(fields []catalog.Field) (statement.Values, error) {
	values := make(statement.Values, len(fields))
	for _, f := range fields {
		v, err := p.Acquire(f)
		if err != nil {
			return nil, err
		}
		values[f.Name] = v
	}
	return values, nil
}

func promptLabel(f catalog.Field) string {
	var b strings.Builder
	b.WriteByte('\t')
	b.WriteString(f.Prompt)
	if f.Type == catalog.Enum {
		b.WriteString(" [")
		b.WriteString(strings.Join(f.Options, "/"))
		b.WriteByte(']')
	}
	if !f.Required {
		b.WriteString(" (optional)")
	}
	b.WriteString(": ")
	return b.String()
}

// Parse converts raw operator text into the value type for f. A blank line
// for an optional field yields nil, which binds NULL.
func Parse(f catalog.Field, raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" && !f.Required {
		return nil, nil
	}
	bad := func(reason string) error {
		return &InputFormatError{Field: f.Name, Type: f.Type, Input: raw, Reason: reason}
	}

	switch f.Type {
	case catalog.Integer:
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, bad(fmt.Sprintf("%q is not an integer", trimmed))
		}
		return n, nil

	case catalog.Decimal:
		if !isDecimal(trimmed) {
			return nil, bad(fmt.Sprintf("%q is not a number", trimmed))
		}
		return catalog.Numeric(trimmed), nil

	case catalog.Date:
		d, err := time.Parse(statement.DateLayout, trimmed)
		if err != nil {
			return nil, bad(fmt.Sprintf("%q is not a date in YYYY-MM-DD form", trimmed))
		}
		return d, nil

	case catalog.Enum:
		for _, o := range f.Options {
			if strings.EqualFold(o, trimmed) {
				return o, nil
			}
		}
		return nil, bad(fmt.Sprintf("%q is not one of %s", trimmed, strings.Join(f.Options, ", ")))

	case catalog.Text:
		return raw, nil
	}
	return nil, fmt.Errorf("field %s: unsupported type %s", f.Name, f.Type)
}

// isDecimal matches -?[0-9]+(\.[0-9]+)?
func isDecimal(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if !allDigits(intPart) {
		return false
	}
	return !hasFrac || allDigits(frac)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

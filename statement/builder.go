package statement

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bawdo/dbconsole/catalog"
	"github.com/bawdo/dbconsole/internal/quoting"
)

// DateLayout is the ISO date format used for Date fields.
const DateLayout = "2006-01-02"

var numeral = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// Values maps field names to bound values. Integer fields hold int64, Decimal
// fields catalog.Numeric, Date fields time.Time, Text and Enum fields string.
// A nil value (or a missing key) binds NULL for optional fields.
type Values map[string]any

// Dialect selects how string literals are escaped.
type Dialect int

const (
	// Standard doubles single quotes only.
	Standard Dialect = iota
	// MySQL additionally escapes backslashes.
	MySQL
)

func (d Dialect) String() string {
	if d == MySQL {
		return "mysql"
	}
	return "standard"
}

// Option configures a Builder.
type Option func(*Builder)

// WithDialect sets the literal escaping dialect.
func WithDialect(d Dialect) Option {
	return func(b *Builder) { b.dialect = d }
}

// Builder renders templates into statements.
type Builder struct {
	dialect Dialect
}

// NewBuilder returns a builder using the Standard dialect unless overridden.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{dialect: Standard}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build fills every placeholder of t with the literal form of its bound value.
func (b *Builder) Build(t *Template, values Values) (Statement, error) {
	if t == nil {
		return Statement{}, &TemplateError{Reason: "nil template"}
	}
	rendered := make(map[string]string, len(t.names))
	for _, name := range t.names {
		lit, err := b.literal(t.fields[name], values)
		if err != nil {
			return Statement{}, err
		}
		rendered[name] = lit
	}

	var sb strings.Builder
	sb.Grow(len(t.sql) + 16*len(rendered))
	for _, seg := range t.segments {
		if seg.placeholder != "" {
			sb.WriteString(rendered[seg.placeholder])
			continue
		}
		sb.WriteString(seg.text)
	}
	return Statement{Text: sb.String(), Kind: t.kind}, nil
}

// Literal renders a single value for field f.
func (b *Builder) Literal(f catalog.Field, v any) (string, error) {
	return b.literal(f, Values{f.Name: v})
}

func (b *Builder) literal(f catalog.Field, values Values) (string, error) {
	v, ok := values[f.Name]
	if !ok || v == nil {
		if f.Required {
			return "", &TemplateError{Placeholder: f.Name, Reason: "no value bound for required field"}
		}
		return "NULL", nil
	}

	mismatch := func() error {
		return &TemplateError{
			Placeholder: f.Name,
			Reason:      fmt.Sprintf("%s field bound to %T", f.Type, v),
		}
	}

	switch f.Type {
	case catalog.Integer:
		var n int64
		switch x := v.(type) {
		case int64:
			n = x
		case int:
			n = int64(x)
		case int32:
			n = int64(x)
		default:
			return "", mismatch()
		}
		return checkNumeral(f, strconv.FormatInt(n, 10))

	case catalog.Decimal:
		switch x := v.(type) {
		case catalog.Numeric:
			return checkNumeral(f, string(x))
		case int64:
			return checkNumeral(f, strconv.FormatInt(x, 10))
		case float64:
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return "", &TemplateError{Placeholder: f.Name, Reason: "decimal value is not finite"}
			}
			return checkNumeral(f, strconv.FormatFloat(x, 'f', -1, 64))
		default:
			return "", mismatch()
		}

	case catalog.Date:
		switch x := v.(type) {
		case time.Time:
			return b.quote(x.Format(DateLayout)), nil
		default:
			return "", mismatch()
		}

	case catalog.Text:
		s, ok := v.(string)
		if !ok {
			return "", mismatch()
		}
		return b.quote(s), nil

	case catalog.Enum:
		s, ok := v.(string)
		if !ok {
			return "", mismatch()
		}
		if !isOption(f.Options, s) {
			return "", &TemplateError{Placeholder: f.Name, Reason: fmt.Sprintf("%q is not one of %s", s, strings.Join(f.Options, ", "))}
		}
		return b.quote(s), nil
	}
	return "", &TemplateError{Placeholder: f.Name, Reason: fmt.Sprintf("unsupported field type %s", f.Type)}
}

func (b *Builder) quote(s string) string {
	if b.dialect == MySQL {
		return quoting.MySQLLiteral(s)
	}
	return quoting.Literal(s)
}

func checkNumeral(f catalog.Field, s string) (string, error) {
	if !numeral.MatchString(s) {
		return "", &TemplateError{Placeholder: f.Name, Reason: fmt.Sprintf("%q is not a plain numeral", s)}
	}
	return s, nil
}

func isOption(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}

// Package statement turns a SQL template with named placeholders and a set of
// operator-supplied values into executable SQL. Every value is rendered as a
// literal according to its field type; operator text is never spliced into
// the statement without quoting.
package statement

import (
	"fmt"
	"strings"

	"github.com/bawdo/dbconsole/catalog"
)

// Statement is SQL with every literal already substituted.
type Statement struct {
	Text string
	Kind catalog.Kind
}

func (s Statement) String() string {
	return s.Text
}

// TemplateError reports a placeholder that cannot be filled: it has no
// descriptor, no value, or a value of the wrong type.
type TemplateError struct {
	Placeholder string
	Reason      string
}

func (e *TemplateError) Error() string {
	if e.Placeholder == "" {
		return "template: " + e.Reason
	}
	return fmt.Sprintf("template: placeholder :%s: %s", e.Placeholder, e.Reason)
}

// segment is either literal SQL text or a placeholder reference.
type segment struct {
	text        string
	placeholder string
}

// Template is a parsed SQL template whose placeholders are all backed by
// field descriptors.
type Template struct {
	sql      string
	kind     catalog.Kind
	segments []segment
	fields   map[string]catalog.Field
	names    []string
}

// Compile parses sql and checks that every :name placeholder has a matching
// descriptor in fields.
func Compile(sql string, kind catalog.Kind, fields []catalog.Field) (*Template, error) {
	t := &Template{
		sql:    sql,
		kind:   kind,
		fields: make(map[string]catalog.Field, len(fields)),
	}
	for _, f := range fields {
		t.fields[f.Name] = f
	}

	segs, err := scan(sql)
	if err != nil {
		return nil, err
	}
	t.segments = segs

	seen := make(map[string]bool)
	for _, seg := range segs {
		if seg.placeholder == "" {
			continue
		}
		if _, ok := t.fields[seg.placeholder]; !ok {
			return nil, &TemplateError{Placeholder: seg.placeholder, Reason: "no field describes this placeholder"}
		}
		if !seen[seg.placeholder] {
			seen[seg.placeholder] = true
			t.names = append(t.names, seg.placeholder)
		}
	}
	return t, nil
}

// CompileCommand compiles the template of cmd.
func CompileCommand(cmd catalog.Command) (*Template, error) {
	t, err := Compile(cmd.SQL, cmd.Kind, cmd.Fields)
	if err != nil {
		return nil, fmt.Errorf("command %d (%s): %w", cmd.ID, cmd.Label, err)
	}
	return t, nil
}

// SQL returns the template source.
func (t *Template) SQL() string {
	return t.sql
}

// Kind returns the kind of statements built from t.
func (t *Template) Kind() catalog.Kind {
	return t.kind
}

// Placeholders lists placeholder names in order of first appearance.
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// scan splits sql into text and placeholder segments. A placeholder is a
// colon followed by an identifier. Colons inside quoted strings or quoted
// identifiers, and the PostgreSQL cast operator ::, are left as text.
func scan(sql string) ([]segment, error) {
	var segs []segment
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			segs = append(segs, segment{text: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'' || c == '"':
			end := closingQuote(sql, i)
			if end < 0 {
				return nil, &TemplateError{Reason: fmt.Sprintf("unterminated %c quote at offset %d", c, i)}
			}
			text.WriteString(sql[i : end+1])
			i = end
		case c == ':' && i+1 < len(sql) && sql[i+1] == ':':
			text.WriteString("::")
			i++
		case c == ':' && i+1 < len(sql) && isIdentStart(sql[i+1]):
			j := i + 1
			for j < len(sql) && isIdentPart(sql[j]) {
				j++
			}
			flush()
			segs = append(segs, segment{placeholder: sql[i+1 : j]})
			i = j - 1
		default:
			text.WriteByte(c)
		}
	}
	flush()
	return segs, nil
}

// closingQuote returns the index of the quote that closes the one at start,
// treating a doubled quote as an escaped quote.
func closingQuote(sql string, start int) int {
	q := sql[start]
	for i := start + 1; i < len(sql); i++ {
		if sql[i] != q {
			continue
		}
		if i+1 < len(sql) && sql[i+1] == q {
			i++
			continue
		}
		return i
	}
	return -1
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

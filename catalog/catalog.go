// Package catalog describes the menu actions a console offers: which fields
// each action collects, the SQL template it fills and whether it mutates
// state or returns rows. A catalog is loaded once at startup and never
// changes afterwards.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidCatalog is wrapped by every validation failure.
var ErrInvalidCatalog = errors.New("invalid catalog")

// FieldType determines how operator text is parsed and how the resulting
// value is rendered as a SQL literal.
type FieldType int

const (
	Integer FieldType = iota + 1
	Text
	Decimal
	Date
	Enum
)

var fieldTypeNames = map[FieldType]string{
	Integer: "integer",
	Text:    "text",
	Decimal: "decimal",
	Date:    "date",
	Enum:    "enum",
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// ParseFieldType maps a catalog type name to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range fieldTypeNames {
		if name == s {
			return t, nil
		}
	}
	if s == "int" || s == "number" {
		return Integer, nil
	}
	return 0, fmt.Errorf("unknown field type %q", s)
}

// Kind distinguishes commands that change state from commands that return
// rows. Exit marks the command that stops the console.
type Kind int

const (
	Mutation Kind = iota + 1
	Query
	Exit
)

func (k Kind) String() string {
	switch k {
	case Mutation:
		return "mutation"
	case Query:
		return "query"
	case Exit:
		return "exit"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a catalog kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mutation", "update":
		return Mutation, nil
	case "query", "select":
		return Query, nil
	case "exit":
		return Exit, nil
	}
	return 0, fmt.Errorf("unknown command kind %q", s)
}

// Numeric is the value type bound for Decimal fields. It keeps the
// operator's digits exactly as typed instead of going through float64.
type Numeric string

// Field describes one value a command collects from the operator.
type Field struct {
	Name     string
	Type     FieldType
	Prompt   string
	Options  []string // members of an Enum field
	Required bool
}

// Command is one numbered menu action.
type Command struct {
	ID      int
	Label   string
	Kind    Kind
	Fields  []Field
	SQL     string
	Summary string // optional fmt format for the row count of a Query
}

// Field returns the descriptor with the given name.
func (c Command) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (c Command) clone() Command {
	if c.Fields == nil {
		return c
	}
	fields := make([]Field, len(c.Fields))
	for i, f := range c.Fields {
		if f.Options != nil {
			f.Options = append([]string(nil), f.Options...)
		}
		fields[i] = f
	}
	c.Fields = fields
	return c
}

// Catalog is an immutable, validated set of commands numbered 1..N where N
// is the exit command.
type Catalog struct {
	title    string
	commands []Command
	byID     map[int]int
}

// New validates cmds and builds a catalog from them.
func New(title string, cmds []Command) (*Catalog, error) {
	sorted := make([]Command, len(cmds))
	for i, cmd := range cmds {
		sorted[i] = cmd.clone()
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	if err := validate(sorted); err != nil {
		return nil, err
	}

	c := &Catalog{
		title:    title,
		commands: sorted,
		byID:     make(map[int]int, len(sorted)),
	}
	for i, cmd := range sorted {
		c.byID[cmd.ID] = i
	}
	return c, nil
}

func validate(cmds []Command) error {
	if len(cmds) == 0 {
		return fmt.Errorf("%w: no commands", ErrInvalidCatalog)
	}
	exits := 0
	for i, cmd := range cmds {
		if cmd.ID != i+1 {
			return fmt.Errorf("%w: command ids must be 1..%d without gaps or duplicates, found %d at position %d",
				ErrInvalidCatalog, len(cmds), cmd.ID, i+1)
		}
		if strings.TrimSpace(cmd.Label) == "" {
			return fmt.Errorf("%w: command %d has no label", ErrInvalidCatalog, cmd.ID)
		}
		switch cmd.Kind {
		case Exit:
			exits++
			if i != len(cmds)-1 {
				return fmt.Errorf("%w: exit command %d must have the highest id", ErrInvalidCatalog, cmd.ID)
			}
			continue
		case Mutation, Query:
		default:
			return fmt.Errorf("%w: command %d has invalid kind %v", ErrInvalidCatalog, cmd.ID, cmd.Kind)
		}
		if strings.TrimSpace(cmd.SQL) == "" {
			return fmt.Errorf("%w: command %d (%s) has no sql", ErrInvalidCatalog, cmd.ID, cmd.Label)
		}
		if cmd.Summary != "" && (cmd.Kind != Query || strings.Count(cmd.Summary, "%") != 1 || !strings.Contains(cmd.Summary, "%d")) {
			return fmt.Errorf("%w: command %d summary must be a query format with a single %%d", ErrInvalidCatalog, cmd.ID)
		}
		if err := validateFields(cmd); err != nil {
			return err
		}
	}
	if exits != 1 {
		return fmt.Errorf("%w: expected exactly one exit command, found %d", ErrInvalidCatalog, exits)
	}
	return nil
}

func validateFields(cmd Command) error {
	seen := make(map[string]bool, len(cmd.Fields))
	for _, f := range cmd.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: command %d has a field without a name", ErrInvalidCatalog, cmd.ID)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: command %d repeats field %q", ErrInvalidCatalog, cmd.ID, f.Name)
		}
		seen[f.Name] = true
		if _, ok := fieldTypeNames[f.Type]; !ok {
			return fmt.Errorf("%w: field %q of command %d has invalid type", ErrInvalidCatalog, f.Name, cmd.ID)
		}
		if f.Type == Enum && len(f.Options) == 0 {
			return fmt.Errorf("%w: enum field %q of command %d has no options", ErrInvalidCatalog, f.Name, cmd.ID)
		}
	}
	return nil
}

// Title is shown in the greeting banner.
func (c *Catalog) Title() string {
	return c.title
}

// Commands returns the commands ordered by id.
func (c *Catalog) Commands() []Command {
	out := make([]Command, len(c.commands))
	for i, cmd := range c.commands {
		out[i] = cmd.clone()
	}
	return out
}

// Lookup returns the command with the given id.
func (c *Catalog) Lookup(id int) (Command, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Command{}, false
	}
	return c.commands[i].clone(), true
}

// ExitID is the id of the command that stops the console.
func (c *Catalog) ExitID() int {
	return c.commands[len(c.commands)-1].ID
}

// Len is the number of commands, including exit.
func (c *Catalog) Len() int {
	return len(c.commands)
}

package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"
)

//go:embed hotel.yaml
var hotelYAML []byte

type fileYAML struct {
	Title    string        `yaml:"title"`
	Commands []commandYAML `yaml:"commands"`
}

type commandYAML struct {
	ID      int         `yaml:"id"`
	Label   string      `yaml:"label"`
	Kind    string      `yaml:"kind"`
	Fields  []fieldYAML `yaml:"fields"`
	SQL     string      `yaml:"sql"`
	Summary string      `yaml:"summary"`
}

type fieldYAML struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Prompt   string   `yaml:"prompt"`
	Options  []string `yaml:"options"`
	Required *bool    `yaml:"required"` // defaults to true
}

// Default returns the built-in hotel management catalog.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(hotelYAML))
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load parses and validates a YAML catalog.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var raw fileYAML
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	cmds := make([]Command, 0, len(raw.Commands))
	for _, rc := range raw.Commands {
		cmd, err := rc.command()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return New(raw.Title, cmds)
}

func (rc commandYAML) command() (Command, error) {
	kind, err := ParseKind(rc.Kind)
	if err != nil {
		return Command{}, fmt.Errorf("%w: command %d: %v", ErrInvalidCatalog, rc.ID, err)
	}
	cmd := Command{
		ID:      rc.ID,
		Label:   rc.Label,
		Kind:    kind,
		SQL:     rc.SQL,
		Summary: rc.Summary,
	}
	for _, rf := range rc.Fields {
		ft, err := ParseFieldType(rf.Type)
		if err != nil {
			return Command{}, fmt.Errorf("%w: command %d field %q: %v", ErrInvalidCatalog, rc.ID, rf.Name, err)
		}
		prompt := rf.Prompt
		if prompt == "" {
			prompt = "Enter " + rf.Name
		}
		cmd.Fields = append(cmd.Fields, Field{
			Name:     rf.Name,
			Type:     ft,
			Prompt:   prompt,
			Options:  rf.Options,
			Required: rf.Required == nil || *rf.Required,
		})
	}
	return cmd, nil
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/bawdo/dbconsole/internal/config"
	"github.com/bawdo/dbconsole/internal/sqldb"
)

// wizard asks for the connection details that configuration left open.
type wizard struct {
	in   lineSource
	out  io.Writer
	comp *consoleCompleter
}

// prompt prints a label with an optional default and returns the operator's
// input (or the default if they press enter).
func (w *wizard) prompt(label, defaultVal string) string {
	if w.in == nil {
		return defaultVal
	}
	if defaultVal != "" {
		w.in.SetPrompt(fmt.Sprintf("[Config]   %s [%s]: ", label, defaultVal))
	} else {
		w.in.SetPrompt(fmt.Sprintf("[Config]   %s: ", label))
	}
	line, err := w.in.ReadLine()
	if err != nil {
		return defaultVal
	}
	val := strings.TrimSpace(line)
	if val == "" {
		return defaultVal
	}
	return val
}

// run fills cfg.Database from the operator's answers and returns the DSN.
func (w *wizard) run(cfg *config.Config) (string, error) {
	if w.comp != nil {
		w.comp.setContext(contextEngine)
		defer w.comp.setContext(contextMenu)
	}
	engine := strings.ToLower(w.prompt("Select engine ("+strings.Join(sqldb.Engines, ", ")+")", cfg.Database.Engine))
	if !sqldb.IsValidEngine(engine) {
		_, _ = fmt.Fprintf(w.out, "Warning: unknown engine %q, defaulting to %s\n", engine, cfg.Database.Engine)
		engine = cfg.Database.Engine
	}
	cfg.Database.Engine = engine
	if w.comp != nil {
		w.comp.setContext(contextField)
	}

	p := &cfg.Database.Params
	switch engine {
	case "sqlite", "duckdb":
		_, _ = fmt.Fprintf(w.out, "[Config] %s connection setup:\n", engine)
		p.Name = w.prompt("Database path", ":memory:")
	default:
		_, _ = fmt.Fprintf(w.out, "[Config] %s connection setup:\n", engine)
		defaultUser := p.User
		if defaultUser == "" {
			defaultUser = engine
			if engine == "mysql" {
				defaultUser = "root"
			}
		}
		p.User = w.prompt("User", defaultUser)
		p.Password = w.prompt("Password", "")
		p.Host = w.prompt("Host", orDefault(p.Host, "localhost"))
		p.Port = w.prompt("Port", orDefault(p.Port, sqldb.DefaultPort(engine)))
		p.Name = w.prompt("Database", p.Name)
		if engine == "postgres" {
			p.SSLMode = w.prompt("SSL mode (disable/require/verify-full)", "disable")
		}
	}
	if p.Name == "" {
		return "", fmt.Errorf("no database given")
	}
	return sqldb.BuildDSN(engine, *p)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

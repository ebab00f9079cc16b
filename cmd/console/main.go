// Console binary: a numbered menu of catalog commands run against a
// relational database.
//
// Usage:
//
//	go run ./cmd/console [<dbname> <port> <user>]
//
// Connection and behaviour are configured through DBCONSOLE_* environment
// variables and DATABASE_URL; without them an interactive terminal is asked
// for the connection details.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/ergochat/readline"
	"golang.org/x/term"

	"github.com/bawdo/dbconsole/catalog"
	"github.com/bawdo/dbconsole/console"
	"github.com/bawdo/dbconsole/internal/config"
	"github.com/bawdo/dbconsole/internal/observability"
	"github.com/bawdo/dbconsole/internal/sqldb"
	"github.com/bawdo/dbconsole/prompter"
	"github.com/bawdo/dbconsole/render"
	"github.com/bawdo/dbconsole/statement"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	cfg, err := config.LoadFromEnv(args)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "dbconsole: %v\n", err)
		return 2
	}
	logger := observability.NewLogger(cfg, os.Stderr)

	cat, err := loadCatalog(cfg.Console.CatalogPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "dbconsole: %v\n", err)
		return 2
	}

	comp := newCompleter(cat)
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          "[Config] ",
		HistoryFile:     cfg.Console.HistoryFile,
		HistoryLimit:    500,
		AutoComplete:    comp,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "readline init: %v\n", err)
		return 1
	}
	defer func() { _ = rl.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	defer closeWhenDone(ctx, rl)()

	dsn, err := resolveDSN(&cfg, rl, out, comp, term.IsTerminal(int(os.Stdin.Fd())))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		return 1
	}

	_, _ = fmt.Fprint(out, "Connecting to database...")
	_, _ = fmt.Fprintf(out, "Connection URL: %s\n\n", sqldb.SanitizeDSN(dsn))
	db, err := sqldb.Open(ctx, cfg.Database.Engine, dsn,
		sqldb.WithMaxRows(cfg.Database.MaxRows),
		sqldb.WithLogger(logger))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error - Unable to connect to database: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, "Done")
	defer func() {
		_, _ = fmt.Fprint(out, "Disconnecting from database...")
		if err := db.Close(); err != nil {
			logger.Warn("close database", slog.String("error", err.Error()))
		}
		_, _ = fmt.Fprintln(out, "Done\n\nBye !")
	}()

	metrics := observability.NewMetrics()
	if addr := cfg.Observability.MetricsAddr; addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Warn("metrics listener disabled", slog.String("addr", addr), slog.String("error", err.Error()))
		} else {
			go func() {
				if err := metrics.Serve(ctx, ln, logger); err != nil {
					logger.Warn("metrics listener stopped", slog.String("error", err.Error()))
				}
			}()
		}
	}

	c, err := console.New(cat, db, readlineInput{rl: rl},
		console.WithOutput(out),
		console.WithLogger(logger),
		console.WithRecorder(metrics),
		console.WithRenderer(render.New(render.WithStyle(cfg.Console.TableStyle))),
		console.WithBuilder(statement.NewBuilder(statement.WithDialect(db.Dialect()))),
		console.WithPrompterOptions(prompter.WithFieldHook(comp.setField)),
	)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "dbconsole: %v\n", err)
		return 2
	}

	c.Greet()
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		_, _ = fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		return 1
	}
	return 0
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// closeWhenDone closes c when ctx ends, which makes a ReadLine blocked at
// the menu return io.EOF so the console stops and disconnects. The returned
// func cancels the watch.
func closeWhenDone(ctx context.Context, c io.Closer) func() bool {
	return context.AfterFunc(ctx, func() { _ = c.Close() })
}

// resolveDSN returns the configured DSN. When configuration names no
// database it asks the operator, but only on a terminal: piped input belongs
// to the menu.
func resolveDSN(cfg *config.Config, in lineSource, out io.Writer, comp *consoleCompleter, interactive bool) (string, error) {
	if cfg.HasTarget() {
		return cfg.ResolveDSN()
	}
	if !interactive {
		return "", errors.New("no database configured: set DATABASE_URL or DBCONSOLE_DB_NAME, or pass <dbname> <port> <user>")
	}
	w := &wizard{in: in, out: out, comp: comp}
	return w.run(cfg)
}

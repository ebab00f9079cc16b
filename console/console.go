// Package console runs the numbered-menu loop: it reads a choice, collects
// the chosen command's fields, builds the statement, executes it and prints
// the outcome. A failing command is reported and the loop carries on; only
// the exit command or end of input stops it.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bawdo/dbconsole/catalog"
	"github.com/bawdo/dbconsole/prompter"
	"github.com/bawdo/dbconsole/render"
	"github.com/bawdo/dbconsole/statement"
)

// Database executes finished statements. Errors are shown to the operator
// verbatim.
type Database interface {
	Query(ctx context.Context, stmt statement.Statement) (render.Result, error)
	Exec(ctx context.Context, stmt statement.Statement) (int64, error)
}

// DatabaseError wraps a failure reported by the Database.
type DatabaseError struct {
	Err error
}

func (e *DatabaseError) Error() string { return e.Err.Error() }
func (e *DatabaseError) Unwrap() error { return e.Err }

// Recorder receives command outcomes. observability.Metrics implements it.
type Recorder interface {
	CommandCompleted(command string, outcome Outcome, elapsed time.Duration)
	InputRejected(fieldType string)
	RowsReturned(n int)
}

// Outcome classifies how a command ended.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

type nopRecorder struct{}

func (nopRecorder) CommandCompleted(string, Outcome, time.Duration) {}
func (nopRecorder) InputRejected(string)                            {}
func (nopRecorder) RowsReturned(int)                                {}

// State is the dispatcher's position in its loop.
type State int

const (
	Running State = iota
	PromptingChoice
	Executing
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case PromptingChoice:
		return "prompting"
	case Executing:
		return "executing"
	case Stopped:
		return "stopped"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Option configures a Console.
type Option func(*Console)

// WithOutput sets the operator-facing writer (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(c *Console) { c.out = w }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Console) { c.logger = l }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(c *Console) { c.recorder = r }
}

// WithRenderer sets the result renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(c *Console) { c.renderer = r }
}

// WithBuilder sets the statement builder, e.g. one using the MySQL dialect.
func WithBuilder(b *statement.Builder) Option {
	return func(c *Console) { c.builder = b }
}

// WithPrompterOptions passes extra options to the field prompter.
func WithPrompterOptions(opts ...prompter.Option) Option {
	return func(c *Console) { c.prompterOpts = append(c.prompterOpts, opts...) }
}

// Console is the command dispatcher.
type Console struct {
	cat          *catalog.Catalog
	templates    map[int]*statement.Template
	db           Database
	in           prompter.LineReader
	out          io.Writer
	prompter     *prompter.Prompter
	prompterOpts []prompter.Option
	builder      *statement.Builder
	renderer     *render.Renderer
	logger       *slog.Logger
	recorder     Recorder
	state        State
}

// New compiles every command template of cat and returns a console reading
// operator input from in.
func New(cat *catalog.Catalog, db Database, in prompter.LineReader, opts ...Option) (*Console, error) {
	if cat == nil {
		return nil, errors.New("console: catalog is required")
	}
	if db == nil {
		return nil, errors.New("console: database is required")
	}
	if in == nil {
		return nil, errors.New("console: input is required")
	}
	c := &Console{
		cat:       cat,
		templates: make(map[int]*statement.Template),
		db:        db,
		in:        in,
		out:       os.Stdout,
		builder:   statement.NewBuilder(),
		renderer:  render.New(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, cmd := range cat.Commands() {
		if cmd.Kind == catalog.Exit {
			continue
		}
		tmpl, err := statement.CompileCommand(cmd)
		if err != nil {
			return nil, err
		}
		c.templates[cmd.ID] = tmpl
	}

	popts := append([]prompter.Option{
		prompter.WithRejectHook(func(f catalog.Field, e *prompter.InputFormatError) {
			c.recorder.InputRejected(f.Type.String())
			c.logger.Debug("input rejected", slog.String("field", f.Name), slog.String("reason", e.Reason))
		}),
	}, c.prompterOpts...)
	c.prompter = prompter.New(in, c.out, popts...)
	return c, nil
}

// State reports where the loop currently is.
func (c *Console) State() State {
	return c.state
}

// Greet prints the banner shown once at startup.
func (c *Console) Greet() {
	title := c.cat.Title()
	if title == "" {
		title = "User Interface"
	}
	bar := strings.Repeat("*", 55)
	_, _ = fmt.Fprintf(c.out, "\n\n%s\n%s\n%s\n\n", bar, centre(title, len(bar)), bar)
}

func centre(s string, width int) string {
	pad := (width - len(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

// PrintMenu lists every command with its id.
func (c *Console) PrintMenu() {
	var b strings.Builder
	b.WriteString("MAIN MENU\n")
	b.WriteString("---------\n")
	for _, cmd := range c.cat.Commands() {
		fmt.Fprintf(&b, "%d. %s\n", cmd.ID, cmd.Label)
	}
	_, _ = io.WriteString(c.out, b.String())
}

// ReadChoice prompts until the operator enters an integer. Out-of-range
// integers are returned as-is for Dispatch to reject. End of input yields
// prompter.ErrAbort.
func (c *Console) ReadChoice() (int, error) {
	for {
		line, err := c.prompter.Line("Please make your choice: ")
		if errors.Is(err, prompter.ErrInterrupt) {
			_, _ = fmt.Fprintln(c.out)
			continue
		}
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			_, _ = fmt.Fprintln(c.out, "Your input is invalid!")
			c.recorder.InputRejected("choice")
			continue
		}
		return n, nil
	}
}

// Run drives the loop until the exit command is chosen or input ends.
func (c *Console) Run(ctx context.Context) error {
	c.state = Running
	defer func() { c.state = Stopped }()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.PrintMenu()
		c.state = PromptingChoice
		choice, err := c.ReadChoice()
		if errors.Is(err, prompter.ErrAbort) {
			c.logger.Info("input closed at menu, stopping")
			return nil
		}
		if err != nil {
			return err
		}
		c.state = Executing
		if stop := c.Dispatch(ctx, choice); stop {
			return nil
		}
		c.state = Running
	}
}

// Dispatch runs the command registered under choice. It reports true only
// for the exit command. Every failure is printed as a single line and
// swallowed.
func (c *Console) Dispatch(ctx context.Context, choice int) bool {
	cmd, ok := c.cat.Lookup(choice)
	if !ok {
		_, _ = fmt.Fprintln(c.out, "Unrecognized choice!")
		c.logger.Debug("unrecognized choice", slog.Int("choice", choice))
		return false
	}
	if cmd.Kind == catalog.Exit {
		return true
	}

	start := time.Now()
	err := c.execute(ctx, cmd)
	elapsed := time.Since(start)

	outcome := OutcomeSuccess
	switch {
	case errors.Is(err, prompter.ErrAbort):
		outcome = OutcomeCancelled
		_, _ = fmt.Fprintln(c.out, "\n  Command cancelled.")
	case err != nil:
		outcome = OutcomeFailed
		_, _ = fmt.Fprintf(c.out, "  Error: %v\n", err)
		c.logger.Warn("command failed",
			slog.Int("command", cmd.ID),
			slog.String("label", cmd.Label),
			slog.String("error", err.Error()))
	default:
		c.logger.Info("command completed",
			slog.Int("command", cmd.ID),
			slog.String("label", cmd.Label),
			slog.Duration("elapsed", elapsed))
	}
	c.recorder.CommandCompleted(cmd.Label, outcome, elapsed)
	return false
}

func (c *Console) execute(ctx context.Context, cmd catalog.Command) error {
	tmpl, ok := c.templates[cmd.ID]
	if !ok {
		return fmt.Errorf("command %d has no compiled template", cmd.ID)
	}

	values, err := c.prompter.AcquireAll(cmd.Fields)
	if err != nil {
		return err
	}
	stmt, err := c.builder.Build(tmpl, values)
	if err != nil {
		return err
	}
	c.logger.Debug("executing statement", slog.Int("command", cmd.ID), slog.String("sql", stmt.Text))

	switch stmt.Kind {
	case catalog.Mutation:
		return c.mutate(ctx, stmt)
	case catalog.Query:
		return c.query(ctx, cmd, stmt)
	}
	return fmt.Errorf("command %d: cannot execute %s statement", cmd.ID, stmt.Kind)
}

func (c *Console) mutate(ctx context.Context, stmt statement.Statement) error {
	n, err := c.db.Exec(ctx, stmt)
	if err != nil {
		return &DatabaseError{Err: err}
	}
	_, _ = fmt.Fprintf(c.out, "  Success: %s affected.\n", plural(n, "row"))
	return nil
}

func (c *Console) query(ctx context.Context, cmd catalog.Command, stmt statement.Statement) error {
	res, err := c.db.Query(ctx, stmt)
	if err != nil {
		return &DatabaseError{Err: err}
	}
	n, err := c.renderer.Render(c.out, res)
	if err != nil {
		return err
	}
	c.recorder.RowsReturned(n)
	if res.Truncated {
		_, _ = fmt.Fprintf(c.out, "(truncated at %s)\n", plural(int64(n), "row"))
	}
	if cmd.Summary != "" {
		_, _ = fmt.Fprintf(c.out, cmd.Summary+"\n", n)
	} else {
		_, _ = fmt.Fprintf(c.out, "(%s)\n", plural(int64(n), "row"))
	}
	return nil
}

func plural(n int64, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.FormatInt(n, 10) + " " + noun + "s"
}

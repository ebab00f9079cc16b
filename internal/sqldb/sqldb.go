// Package sqldb executes console statements against a database/sql handle.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/bawdo/dbconsole/render"
	"github.com/bawdo/dbconsole/statement"
)

var driverName = map[string]string{
	"postgres": "pgx",
	"mysql":    "mysql",
	"sqlite":   "sqlite",
	"duckdb":   "duckdb",
}

// Engines lists the supported engine names.
var Engines = []string{"duckdb", "mysql", "postgres", "sqlite"}

// DefaultMaxRows caps how many rows a single query returns.
const DefaultMaxRows = 1000

// IsValidEngine reports whether engine has a registered driver.
func IsValidEngine(engine string) bool {
	_, ok := driverName[engine]
	return ok
}

// Option configures a DB.
type Option func(*DB)

// WithMaxRows caps query results; 0 disables the cap.
func WithMaxRows(n int) Option {
	return func(d *DB) { d.maxRows = n }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *DB) { d.logger = l }
}

// DB is the console's database handle.
type DB struct {
	db      *sql.DB
	dsn     string
	engine  string
	maxRows int
	logger  *slog.Logger
}

// Open connects to engine using dsn and verifies the connection.
func Open(ctx context.Context, engine, dsn string, opts ...Option) (*DB, error) {
	driver, ok := driverName[engine]
	if !ok {
		return nil, fmt.Errorf("no driver for engine %q", engine)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	// One operator, one statement at a time.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	d := New(db, engine, opts...)
	d.dsn = dsn
	return d, nil
}

// New wraps an already open handle.
func New(db *sql.DB, engine string, opts ...Option) *DB {
	d := &DB{
		db:      db,
		engine:  engine,
		maxRows: DefaultMaxRows,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Engine returns the engine name.
func (d *DB) Engine() string {
	return d.engine
}

// Target returns the DSN with any password masked.
func (d *DB) Target() string {
	return SanitizeDSN(d.dsn)
}

// Dialect returns the literal escaping dialect for the engine.
func (d *DB) Dialect() statement.Dialect {
	if d.engine == "mysql" {
		return statement.MySQL
	}
	return statement.Standard
}

// Close releases the handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// Exec runs a mutation and returns the number of affected rows. Drivers that
// cannot report it yield 0.
func (d *DB) Exec(ctx context.Context, stmt statement.Statement) (int64, error) {
	res, err := d.db.ExecContext(ctx, stmt.Text)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		d.logger.Debug("rows affected unavailable", slog.String("error", err.Error()))
		return 0, nil
	}
	return n, nil
}

// Query runs a statement and collects its rows as text.
func (d *DB) Query(ctx context.Context, stmt statement.Statement) (render.Result, error) {
	rows, err := d.db.QueryContext(ctx, stmt.Text)
	if err != nil {
		return render.Result{}, err
	}
	defer func() { _ = rows.Close() }()
	return collect(rows, d.maxRows)
}

func collect(rows *sql.Rows, maxRows int) (render.Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return render.Result{}, fmt.Errorf("columns: %w", err)
	}

	res := render.Result{Columns: columns}
	for rows.Next() {
		if maxRows > 0 && len(res.Rows) >= maxRows {
			res.Truncated = true
			break
		}
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return render.Result{}, fmt.Errorf("scan: %w", err)
		}
		row := make([]render.Cell, len(columns))
		for i, v := range vals {
			row[i] = cell(v)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return render.Result{}, fmt.Errorf("rows: %w", err)
	}
	return res, nil
}

// cell converts a scanned driver value to its display text.
func cell(v any) render.Cell {
	switch x := v.(type) {
	case nil:
		return render.Null
	case []byte:
		return render.Text(string(x))
	case string:
		return render.Text(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return render.Text(x.Format(statement.DateLayout))
		}
		return render.Text(x.Format("2006-01-02 15:04:05"))
	case float64:
		return render.Text(strconv.FormatFloat(x, 'f', -1, 64))
	case float32:
		return render.Text(strconv.FormatFloat(float64(x), 'f', -1, 32))
	case bool:
		return render.Text(strconv.FormatBool(x))
	default:
		return render.Text(fmt.Sprint(x))
	}
}

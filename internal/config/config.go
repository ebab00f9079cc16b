// Package config loads the console's settings from positional arguments and
// the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bawdo/dbconsole/internal/sqldb"
	"github.com/bawdo/dbconsole/render"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	Service       ServiceConfig
	Database      DatabaseConfig
	Console       ConsoleConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name string
}

type DatabaseConfig struct {
	Engine string
	// DSN, when set, is used as-is and Params are ignored.
	DSN     string
	Params  sqldb.Params
	MaxRows int
}

type ConsoleConfig struct {
	CatalogPath string
	TableStyle  render.Style
	HistoryFile string
}

type ObservabilityConfig struct {
	LogLevel    slog.Level
	LogJSON     bool
	MetricsAddr string
}

// HasTarget reports whether enough is known to connect without asking.
func (c Config) HasTarget() bool {
	return c.Database.DSN != "" || c.Database.Params.Name != ""
}

// ResolveDSN returns the configured DSN, building it from the parts when no
// full DSN was given.
func (c Config) ResolveDSN() (string, error) {
	if c.Database.DSN != "" {
		return c.Database.DSN, nil
	}
	return sqldb.BuildDSN(c.Database.Engine, c.Database.Params)
}

func LoadFromEnv(args []string) (Config, error) {
	return Load(args, os.LookupEnv)
}

// Load reads the environment through lookup, then applies the positional
// arguments <dbname> <port> <user>, which take precedence.
func Load(args []string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}
	if len(args) != 0 && len(args) != 3 {
		return Config{}, fmt.Errorf("usage: dbconsole [<dbname> <port> <user>], got %d arguments", len(args))
	}

	cfg := defaults(lookup)

	if err := applyEngine(lookup, "DBCONSOLE_ENGINE", &cfg.Database.Engine); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATABASE_URL", &cfg.Database.DSN); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DBCONSOLE_DB_NAME", &cfg.Database.Params.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DBCONSOLE_DB_HOST", &cfg.Database.Params.Host); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DBCONSOLE_DB_PORT", &cfg.Database.Params.Port); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DBCONSOLE_DB_USER", &cfg.Database.Params.User); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DBCONSOLE_DB_PASSWORD", &cfg.Database.Params.Password); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "DBCONSOLE_MAX_ROWS", &cfg.Database.MaxRows); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DBCONSOLE_CATALOG", &cfg.Console.CatalogPath); err != nil {
		return Config{}, err
	}
	if err := applyStyle(lookup, "DBCONSOLE_TABLE_STYLE", &cfg.Console.TableStyle); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DBCONSOLE_HISTORY_FILE", &cfg.Console.HistoryFile); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "DBCONSOLE_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "DBCONSOLE_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DBCONSOLE_METRICS_ADDR", &cfg.Observability.MetricsAddr); err != nil {
		return Config{}, err
	}

	if len(args) == 3 {
		cfg.Database.Params.Name = strings.TrimSpace(args[0])
		cfg.Database.Params.Port = strings.TrimSpace(args[1])
		cfg.Database.Params.User = strings.TrimSpace(args[2])
		// Explicit parts beat an inherited DATABASE_URL.
		cfg.Database.DSN = ""
	}

	if cfg.Database.MaxRows < 0 {
		return Config{}, fmt.Errorf("invalid DBCONSOLE_MAX_ROWS: must not be negative")
	}
	if port := cfg.Database.Params.Port; port != "" {
		if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
			return Config{}, fmt.Errorf("invalid port %q", port)
		}
	}
	return cfg, nil
}

func defaults(lookup LookupFunc) Config {
	cfg := Config{
		Service: ServiceConfig{Name: "dbconsole"},
		Database: DatabaseConfig{
			Engine:  "postgres",
			MaxRows: sqldb.DefaultMaxRows,
			Params:  sqldb.Params{Host: "localhost"},
		},
		Console: ConsoleConfig{
			TableStyle: render.StyleTab,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelWarn,
		},
	}
	if user, ok := lookup("USER"); ok {
		cfg.Database.Params.User = user
	}
	if home, ok := lookup("HOME"); ok && home != "" {
		cfg.Console.HistoryFile = filepath.Join(home, ".dbconsole_history")
	}
	return cfg
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyEngine(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	engine := strings.ToLower(strings.TrimSpace(raw))
	if !sqldb.IsValidEngine(engine) {
		return fmt.Errorf("invalid %s: %q (want one of %s)", key, raw, strings.Join(sqldb.Engines, ", "))
	}
	*dst = engine
	return nil
}

func applyStyle(lookup LookupFunc, key string, dst *render.Style) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	style, err := render.ParseStyle(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = style
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}

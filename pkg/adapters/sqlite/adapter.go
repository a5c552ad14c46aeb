// Package sqlite provides a SQLite schema adapter for leapcollect built on
// the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapcollect/pkg/adapter"
	litedialect "github.com/leapstack-labs/leapcollect/pkg/dialects/sqlite"

	_ "modernc.org/sqlite" // sqlite driver
)

// DefaultBusyTimeout is the busy_timeout pragma in milliseconds.
const DefaultBusyTimeout = 5000

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{
		BaseSQLAdapter: adapter.NewBase(litedialect.SQLite, logger),
	}
}

// Connect opens the database file at cfg.Path. An empty path or ":memory:"
// opens a private in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := BuildDSN(cfg)

	a.Logger.Debug("connecting to sqlite", slog.String("path", cfg.Path))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	if IsMemory(cfg.Path) {
		// Every new connection to :memory: is a fresh database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// IsMemory reports whether path names an in-memory database.
func IsMemory(path string) bool {
	return path == "" || path == ":memory:" || strings.Contains(path, "mode=memory")
}

// BuildDSN renders the modernc DSN with foreign keys enabled and a busy
// timeout. Extra pragmas come from cfg.Options.
func BuildDSN(cfg adapter.Config) string {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	timeout := fmt.Sprint(DefaultBusyTimeout)
	if v, ok := cfg.Options["busy_timeout"]; ok {
		timeout = v
	}

	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(" + timeout + ")",
	}
	if mode, ok := cfg.Options["journal_mode"]; ok {
		pragmas = append(pragmas, "_pragma=journal_mode("+mode+")")
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)

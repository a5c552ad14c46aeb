package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapcollect/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leapcollect/pkg/core"

	_ "github.com/go-sql-driver/mysql" // mysql driver
)

// Supported metadata drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Store on database/sql. Both supported drivers use
// "?" placeholders so the queries are shared.
type SQLStore struct {
	db     *sql.DB
	q      querier
	driver string
	logger *slog.Logger
	now    func() time.Time
}

// Open connects to the metadata database. For the sqlite driver dsn is a
// file path or ":memory:"; for mysql it is a go-sql-driver DSN.
// If logger is nil, a discard logger is used.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*SQLStore, error) {
	var db *sql.DB
	var err error

	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		db, err = sql.Open("sqlite", sqlite.BuildDSN(core.AdapterConfig{Path: dsn}))
		if err == nil && sqlite.IsMemory(dsn) {
			db.SetMaxOpenConns(1)
		}
	case DriverMySQL:
		db, err = sql.Open("mysql", dsn)
	default:
		return nil, fmt.Errorf("unsupported metadata driver %q (supported: sqlite, mysql)", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping metadata database: %w", err)
	}

	return New(db, driver, logger), nil
}

// New wraps an open database. The caller owns migrations; see Migrate.
func New(db *sql.DB, driver string, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLStore{
		db:     db,
		q:      db,
		driver: driver,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// DB returns the underlying database handle.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Driver returns the metadata driver name.
func (s *SQLStore) Driver() string {
	return s.driver
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Collections returns the collection repository.
func (s *SQLStore) Collections() CollectionRepository {
	return &collectionRepo{s}
}

// Fields returns the field repository.
func (s *SQLStore) Fields() FieldRepository {
	return &fieldRepo{s}
}

// Relationships returns the relationship repository.
func (s *SQLStore) Relationships() RelationshipRepository {
	return &relationshipRepo{s}
}

// WithTx runs fn inside a transaction. Calling WithTx on a store already
// bound to a transaction reuses it.
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := *s
	txStore.q = tx

	if err := fn(&txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", slog.String("error", rbErr.Error()))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) check() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	return nil
}

var _ Store = (*SQLStore)(nil)

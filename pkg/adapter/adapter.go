// Package adapter provides the schema builder contract that every database
// adapter implements, plus a database/sql base that renders DDL through a
// dialect.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves by name:
//
//	import _ "github.com/leapstack-labs/leapcollect/pkg/adapters/sqlite"
//
//	a, err := adapter.NewAdapter(adapter.Config{Type: "sqlite", Path: "app.db"}, logger)
package adapter

import (
	"context"

	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/leapstack-labs/leapcollect/pkg/dialect"
)

// Type aliases for the core types adapters exchange.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata
)

// SchemaBuilder creates, alters and describes physical tables.
// DDL failures are reported as *core.DDLError.
type SchemaBuilder interface {
	// HasTable reports whether the table exists.
	HasTable(ctx context.Context, table string) (bool, error)

	// CreateTable creates the table with its indexes and foreign keys.
	CreateTable(ctx context.Context, spec core.TableSpec) error

	// AddColumn adds a column to an existing table.
	AddColumn(ctx context.Context, table string, col core.ColumnSpec) error

	// DropColumn removes a column from an existing table.
	DropColumn(ctx context.Context, table, column string) error

	// DropTable drops the table if it exists.
	DropTable(ctx context.Context, table string) error

	// GetTableMetadata describes a table's live columns and row count.
	// A missing table yields a *core.NotFoundError.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)
}

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	SchemaBuilder

	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Dialect returns the DDL dialect used to render statements.
	Dialect() *dialect.Dialect
}

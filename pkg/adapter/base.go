package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/leapstack-labs/leapcollect/pkg/dialect"
)

// DDL operation names reported in core.DDLError.
const (
	OpCreateTable = "create_table"
	OpAddColumn   = "add_column"
	OpDropColumn  = "drop_column"
	OpDropTable   = "drop_table"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Concrete adapters embed it and only supply Connect.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
	DDL    *dialect.Dialect
}

// NewBase returns a base adapter rendering DDL with d.
// If logger is nil, a discard logger is used.
func NewBase(d *dialect.Dialect, logger *slog.Logger) BaseSQLAdapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return BaseSQLAdapter{DDL: d, Logger: logger}
}

// Dialect returns the DDL dialect.
func (b *BaseSQLAdapter) Dialect() *dialect.Dialect {
	return b.DDL
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		b.logger().Debug("closing database connection")
		err := b.DB.Close()
		b.DB = nil
		return err
	}
	return nil
}

// HasTable reports whether the table exists in the current schema.
func (b *BaseSQLAdapter) HasTable(ctx context.Context, table string) (bool, error) {
	if b.DB == nil {
		return false, fmt.Errorf("database connection not established")
	}
	var n int
	if err := b.DB.QueryRowContext(ctx, b.DDL.TableExistsQuery(), table).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return n > 0, nil
}

// CreateTable creates the table, its sequences and its indexes.
func (b *BaseSQLAdapter) CreateTable(ctx context.Context, spec core.TableSpec) error {
	return b.execDDL(ctx, OpCreateTable, spec.Name, b.DDL.CreateTable(spec))
}

// AddColumn adds a column to an existing table.
func (b *BaseSQLAdapter) AddColumn(ctx context.Context, table string, col core.ColumnSpec) error {
	return b.execDDL(ctx, OpAddColumn, table, []string{b.DDL.AddColumn(table, col)})
}

// DropColumn removes a column from an existing table.
func (b *BaseSQLAdapter) DropColumn(ctx context.Context, table, column string) error {
	return b.execDDL(ctx, OpDropColumn, table, []string{b.DDL.DropColumn(table, column)})
}

// DropTable drops the table if it exists.
func (b *BaseSQLAdapter) DropTable(ctx context.Context, table string) error {
	return b.execDDL(ctx, OpDropTable, table, b.DDL.DropTable(table))
}

// execDDL runs the statements in one transaction. Engines without
// transactional DDL (MySQL) commit each statement implicitly.
func (b *BaseSQLAdapter) execDDL(ctx context.Context, op, table string, stmts []string) error {
	if b.DB == nil {
		return &core.DDLError{Op: op, Table: table, Err: fmt.Errorf("database connection not established")}
	}

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return &core.DDLError{Op: op, Table: table, Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range stmts {
		b.logger().Debug("executing ddl", slog.String("op", op), slog.String("table", table), slog.String("sql", stmt))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return &core.DDLError{Op: op, Table: table, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &core.DDLError{Op: op, Table: table, Err: fmt.Errorf("failed to commit: %w", err)}
	}
	return nil
}

// GetTableMetadata describes the live columns of table using the dialect's
// introspection query.
func (b *BaseSQLAdapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := b.DB.QueryContext(ctx, b.DDL.ColumnsQuery(), table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var col core.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, core.NewNotFoundError("table", table)
	}

	// Drift reports use the count to flag columns holding data.
	var rowCount int64
	countQuery := "SELECT COUNT(*) FROM " + b.DDL.QuoteIdentifier(table)
	if err := b.DB.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		b.logger().Debug("row count unavailable", slog.String("table", table), slog.String("error", err.Error()))
		rowCount = 0
	}

	return &core.TableMetadata{
		Schema:   b.DDL.DefaultSchema,
		Name:     table,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

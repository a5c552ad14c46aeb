package adapter

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/leapstack-labs/leapcollect/pkg/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockBase(t *testing.T) (*BaseSQLAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	base := NewBase(sqlite.SQLite, nil)
	base.DB = db
	return &base, mock
}

func TestBaseSQLAdapter_CreateTable(t *testing.T) {
	spec := core.TableSpec{
		Name: "lc_articles",
		Columns: []core.ColumnSpec{
			{Name: "id", Type: "INT(10) UNSIGNED", Primary: true, AutoIncrement: true},
			{Name: "title", Type: "VARCHAR(255)", Nullable: true},
		},
		Indexes: []core.IndexSpec{{Columns: []string{"title"}}},
	}
	stmts := sqlite.SQLite.CreateTable(spec)
	require.Len(t, stmts, 2)

	t.Run("commits all statements", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectBegin()
		for _, s := range stmts {
			mock.ExpectExec(s).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectCommit()

		require.NoError(t, base.CreateTable(context.Background(), spec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectBegin()
		mock.ExpectExec(stmts[0]).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(stmts[1]).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err := base.CreateTable(context.Background(), spec)
		require.Error(t, err)
		assert.True(t, core.IsDDL(err))

		var ddlErr *core.DDLError
		require.ErrorAs(t, err, &ddlErr)
		assert.Equal(t, OpCreateTable, ddlErr.Op)
		assert.Equal(t, "lc_articles", ddlErr.Table)
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBaseSQLAdapter_AlterOps(t *testing.T) {
	col := core.ColumnSpec{Name: "summary", Type: "TEXT", Nullable: true}

	tests := []struct {
		name string
		stmt string
		op   string
		run  func(b *BaseSQLAdapter) error
	}{
		{
			name: "add column",
			stmt: sqlite.SQLite.AddColumn("lc_articles", col),
			op:   OpAddColumn,
			run: func(b *BaseSQLAdapter) error {
				return b.AddColumn(context.Background(), "lc_articles", col)
			},
		},
		{
			name: "drop column",
			stmt: sqlite.SQLite.DropColumn("lc_articles", "summary"),
			op:   OpDropColumn,
			run: func(b *BaseSQLAdapter) error {
				return b.DropColumn(context.Background(), "lc_articles", "summary")
			},
		},
		{
			name: "drop table",
			stmt: sqlite.SQLite.DropTable("lc_articles")[0],
			op:   OpDropTable,
			run: func(b *BaseSQLAdapter) error {
				return b.DropTable(context.Background(), "lc_articles")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, mock := newMockBase(t)
			mock.ExpectBegin()
			mock.ExpectExec(tt.stmt).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectCommit()
			require.NoError(t, tt.run(base))
			assert.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run(tt.name+" failure", func(t *testing.T) {
			base, mock := newMockBase(t)
			mock.ExpectBegin()
			mock.ExpectExec(tt.stmt).WillReturnError(assert.AnError)
			mock.ExpectRollback()

			err := tt.run(base)
			var ddlErr *core.DDLError
			require.ErrorAs(t, err, &ddlErr)
			assert.Equal(t, tt.op, ddlErr.Op)
		})
	}
}

func TestBaseSQLAdapter_NotConnected(t *testing.T) {
	base := NewBase(sqlite.SQLite, nil)
	ctx := context.Background()

	_, err := base.HasTable(ctx, "t")
	require.Error(t, err)

	err = base.CreateTable(ctx, core.TableSpec{Name: "t"})
	require.Error(t, err)
	assert.True(t, core.IsDDL(err))

	_, err = base.GetTableMetadata(ctx, "t")
	assert.EqualError(t, err, "database connection not established")
}

func TestBaseSQLAdapter_HasTable(t *testing.T) {
	base, mock := newMockBase(t)
	mock.ExpectQuery(sqlite.SQLite.TableExistsQuery()).
		WithArgs("lc_articles").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(sqlite.SQLite.TableExistsQuery()).
		WithArgs("lc_missing").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := base.HasTable(context.Background(), "lc_articles")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = base.HasTable(context.Background(), "lc_missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBaseSQLAdapter_GetTableMetadata(t *testing.T) {
	t.Run("columns and row count", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectQuery(sqlite.SQLite.ColumnsQuery()).
			WithArgs("lc_articles").
			WillReturnRows(sqlmock.NewRows([]string{"name", "type", "nullable", "position"}).
				AddRow("id", "INT", "NO", 1).
				AddRow("title", "VARCHAR(255)", "YES", 2))
		mock.ExpectQuery(`SELECT COUNT(*) FROM "lc_articles"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		meta, err := base.GetTableMetadata(context.Background(), "lc_articles")
		require.NoError(t, err)
		assert.Equal(t, "lc_articles", meta.Name)
		assert.Equal(t, "main", meta.Schema)
		assert.Equal(t, int64(7), meta.RowCount)
		require.Len(t, meta.Columns, 2)
		assert.False(t, meta.Columns[0].Nullable)
		assert.True(t, meta.Columns[1].Nullable)
		assert.True(t, meta.HasColumn("TITLE"))
	})

	t.Run("missing table", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectQuery(sqlite.SQLite.ColumnsQuery()).
			WithArgs("lc_missing").
			WillReturnRows(sqlmock.NewRows([]string{"name", "type", "nullable", "position"}))

		_, err := base.GetTableMetadata(context.Background(), "lc_missing")
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("row count failure is not fatal", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectQuery(sqlite.SQLite.ColumnsQuery()).
			WithArgs("lc_articles").
			WillReturnRows(sqlmock.NewRows([]string{"name", "type", "nullable", "position"}).
				AddRow("id", "INT", "NO", 1))
		mock.ExpectQuery(`SELECT COUNT(*) FROM "lc_articles"`).WillReturnError(assert.AnError)

		meta, err := base.GetTableMetadata(context.Background(), "lc_articles")
		require.NoError(t, err)
		assert.Equal(t, int64(0), meta.RowCount)
	})
}

func TestBaseSQLAdapter_Close(t *testing.T) {
	base, mock := newMockBase(t)
	mock.ExpectClose()

	require.NoError(t, base.Close())
	assert.Nil(t, base.DB, "DB is released after Close")
	require.NoError(t, mock.ExpectationsWereMet())

	// Closing twice is a no-op.
	assert.NoError(t, base.Close())
}

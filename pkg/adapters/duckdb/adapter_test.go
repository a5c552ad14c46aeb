package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapcollect/internal/testutil"
	"github.com/leapstack-labs/leapcollect/pkg/adapter"
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		params    map[string]any
		verify    func(t *testing.T, path string)
		wantErr   bool
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "test.duckdb")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
		{
			name: "with settings",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
			params: map[string]any{
				"settings": map[string]any{"memory_limit": "512MB"},
			},
		},
		{
			name: "invalid params",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
			params:  map[string]any{"bogus": true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(testutil.NewTestLogger(t))

			dbPath := tt.setupPath(t)
			err := adp.Connect(ctx, core.AdapterConfig{Path: dbPath, Params: tt.params})
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, adp.DB)
				return
			}
			require.NoError(t, err)
			defer func() { _ = adp.Close() }()

			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	_, err := adp.HasTable(ctx, "lc_articles")
	assert.Error(t, err)
	_, err = adp.GetTableMetadata(ctx, "lc_articles")
	assert.Error(t, err)
	assert.True(t, core.IsDDL(adp.DropTable(ctx, "lc_articles")))
}

func TestAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		connect bool
	}{
		{"close without connect", false},
		{"close after connect", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			if tt.connect {
				require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
			}

			assert.NoError(t, adp.Close())
		})
	}
}

func TestAdapter_SchemaLifecycle(t *testing.T) {
	ctx := context.Background()
	adp := New(testutil.NewTestLogger(t))
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	spec := core.TableSpec{
		Name: "lc_articles",
		Columns: []core.ColumnSpec{
			{Name: "id", Type: "INT(10) UNSIGNED", Primary: true, AutoIncrement: true},
			{Name: "title", Type: "VARCHAR(255)"},
			{Name: "views", Type: "INT", Nullable: true, Default: 0},
		},
	}
	require.NoError(t, adp.CreateTable(ctx, spec))

	ok, err := adp.HasTable(ctx, "lc_articles")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = adp.DB.ExecContext(ctx, `INSERT INTO lc_articles (title) VALUES ('first'), ('second')`)
	require.NoError(t, err)

	require.NoError(t, adp.AddColumn(ctx, "lc_articles", core.ColumnSpec{Name: "summary", Type: "TEXT"}))

	meta, err := adp.GetTableMetadata(ctx, "lc_articles")
	require.NoError(t, err)
	assert.Equal(t, int64(2), meta.RowCount)
	assert.True(t, meta.HasColumn("summary"))
	require.Len(t, meta.Columns, 4)
	assert.Equal(t, "UINTEGER", meta.Columns[0].Type)

	require.NoError(t, adp.DropColumn(ctx, "lc_articles", "summary"))
	meta, err = adp.GetTableMetadata(ctx, "lc_articles")
	require.NoError(t, err)
	assert.False(t, meta.HasColumn("summary"))

	require.NoError(t, adp.DropTable(ctx, "lc_articles"))
	ok, err = adp.HasTable(ctx, "lc_articles")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = adp.GetTableMetadata(ctx, "lc_articles")
	assert.True(t, core.IsNotFound(err))
}

func TestAdapter_Registry(t *testing.T) {
	adp, err := adapter.NewAdapter(adapter.Config{Type: "duckdb"}, nil)
	require.NoError(t, err)
	_, ok := adp.(*Adapter)
	assert.True(t, ok)
	assert.Equal(t, "duckdb", adp.Dialect().GetName())
}

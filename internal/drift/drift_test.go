package drift

import (
	"context"
	"errors"
	"testing"

	"github.com/leapstack-labs/leapcollect/internal/engine"
	"github.com/leapstack-labs/leapcollect/internal/store"
	"github.com/leapstack-labs/leapcollect/internal/testutil"
	"github.com/leapstack-labs/leapcollect/pkg/adapter"
	"github.com/leapstack-labs/leapcollect/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leapcollect/pkg/collection"
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/leapstack-labs/leapcollect/pkg/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine   *engine.Engine
	target   *sqlite.Adapter
	detector *Detector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := testutil.NewTestLogger(t)

	st, err := store.Open(ctx, store.DriverSQLite, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))

	target := sqlite.New(logger)
	require.NoError(t, target.Connect(ctx, adapter.Config{Path: ":memory:"}))
	t.Cleanup(func() { _ = target.Close() })

	e, err := engine.New(engine.Config{Store: st, Schema: target, Registry: field.NewRegistry(), Logger: logger})
	require.NoError(t, err)

	return &fixture{
		engine:   e,
		target:   target,
		detector: NewDetector(e.Collections, target, WithLogger(logger), WithWorkers(2)),
	}
}

func (fx *fixture) create(t *testing.T, name string, tenantID int64, fields ...string) *collection.Collection {
	t.Helper()
	c := fx.engine.Collections.New(name, tenantID)
	for _, n := range fields {
		f, err := fx.engine.Registry().Create(field.TypeString, n, map[string]any{"nullable": true})
		require.NoError(t, err)
		require.NoError(t, c.AddField(f))
	}
	require.NoError(t, fx.engine.Collections.Create(context.Background(), c))
	return c
}

func TestDetect_InSync(t *testing.T) {
	fx := newFixture(t)
	c := fx.create(t, "posts", 1, "title", "body")

	diff, err := fx.detector.Detect(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, diff.Empty())
	assert.Equal(t, "lc_posts", diff.Table)
}

func TestDetect_Changes(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	c := fx.create(t, "posts", 1, "title", "body")

	require.NoError(t, fx.target.DropColumn(ctx, "lc_posts", "body"))
	require.NoError(t, fx.target.AddColumn(ctx, "lc_posts", core.ColumnSpec{Name: "legacy", Type: "TEXT", Nullable: true}))
	require.NoError(t, fx.target.AddColumn(ctx, "lc_posts", core.ColumnSpec{Name: "deleted_at", Type: "TIMESTAMP", Nullable: true}))

	diff, err := fx.detector.Detect(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, []Change{
		{Kind: AddColumn, Table: "lc_posts", Column: "body", Type: "VARCHAR(255)"},
		{Kind: RemoveColumn, Table: "lc_posts", Column: "legacy", Type: "TEXT"},
	}, diff.Changes)
	assert.Zero(t, diff.RowCount)
	assert.Empty(t, diff.AtRisk())
}

func TestDetect_RowsAtRisk(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	c := fx.create(t, "posts", 1, "title")

	require.NoError(t, fx.target.AddColumn(ctx, "lc_posts", core.ColumnSpec{Name: "legacy", Type: "TEXT", Nullable: true}))
	_, err := fx.target.DB.ExecContext(ctx, `INSERT INTO lc_posts (tenant_id, title, legacy) VALUES (1, 'a', 'x'), (1, 'b', 'y')`)
	require.NoError(t, err)

	diff, err := fx.detector.Detect(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, int64(2), diff.RowCount)
	assert.Equal(t, []Change{{Kind: RemoveColumn, Table: "lc_posts", Column: "legacy", Type: "TEXT"}}, diff.AtRisk())
}

func TestDetect_CaseInsensitiveColumns(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	c := fx.create(t, "posts", 1, "title")

	// Declared "Summary" against the live "summary" column is not drift.
	f, err := fx.engine.Registry().Create(field.TypeString, "Summary", nil)
	require.NoError(t, err)
	require.NoError(t, c.AddField(f))
	require.NoError(t, fx.target.AddColumn(ctx, "lc_posts", core.ColumnSpec{Name: "summary", Type: "VARCHAR(255)", Nullable: true}))

	diff, err := fx.detector.Detect(ctx, c)
	require.NoError(t, err)
	assert.True(t, diff.Empty(), "%+v", diff.Changes)
}

func TestDetect_MissingTable(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	c := fx.create(t, "posts", 1, "title")
	require.NoError(t, fx.target.DropTable(ctx, "lc_posts"))

	diff, err := fx.detector.Detect(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, []Change{{Kind: CreateTable, Table: "lc_posts"}}, diff.Changes)
}

func TestDetectAll_KeepsOrder(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	names := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	for _, n := range names {
		fx.create(t, n, 2, "title")
	}
	require.NoError(t, fx.target.DropTable(ctx, "lc_gamma"))
	fx.create(t, "other_tenant", 3)

	report, err := fx.detector.DetectAll(ctx, 2)
	require.NoError(t, err)
	require.Len(t, report.Diffs, len(names))
	for i, n := range names {
		assert.Equal(t, n, report.Diffs[i].Collection)
	}
	assert.True(t, report.HasChanges())
	changed := report.Changed()
	require.Len(t, changed, 1)
	assert.Equal(t, "gamma", changed[0].Collection)

	empty, err := fx.detector.DetectAll(ctx, 99)
	require.NoError(t, err)
	assert.False(t, empty.HasChanges())
}

func TestDetectCollection_NotFound(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.detector.DetectCollection(context.Background(), "nope", 1)
	assert.True(t, core.IsNotFound(err))
}

type brokenSchema struct {
	adapter.SchemaBuilder
}

func (brokenSchema) HasTable(context.Context, string) (bool, error) {
	return false, errors.New("connection reset")
}

func TestDetectAll_IntrospectionError(t *testing.T) {
	fx := newFixture(t)
	fx.create(t, "posts", 1)

	d := NewDetector(fx.engine.Collections, brokenSchema{fx.target})
	_, err := d.DetectAll(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestReconcile_AdditiveOnly(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	posts := fx.create(t, "posts", 1, "title", "body")
	fx.create(t, "tags", 1, "label")

	require.NoError(t, fx.target.DropColumn(ctx, "lc_posts", "body"))
	require.NoError(t, fx.target.AddColumn(ctx, "lc_posts", core.ColumnSpec{Name: "legacy", Type: "TEXT", Nullable: true}))
	require.NoError(t, fx.target.DropTable(ctx, "lc_tags"))

	results, err := fx.detector.ReconcileAll(ctx, 1)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []Change{{Kind: AddColumn, Table: "lc_posts", Column: "body", Type: "VARCHAR(255)"}}, results[0].Applied)
	assert.Equal(t, []Change{{Kind: RemoveColumn, Table: "lc_posts", Column: "legacy", Type: "TEXT"}}, results[0].Skipped)
	assert.Equal(t, []Change{{Kind: CreateTable, Table: "lc_tags"}}, results[1].Applied)

	meta, err := fx.target.GetTableMetadata(ctx, "lc_posts")
	require.NoError(t, err)
	assert.True(t, meta.HasColumn("body"))
	assert.True(t, meta.HasColumn("legacy"))

	diff, err := fx.detector.Detect(ctx, posts)
	require.NoError(t, err)
	assert.Equal(t, []Change{{Kind: RemoveColumn, Table: "lc_posts", Column: "legacy", Type: "TEXT"}}, diff.Changes)

	ok, err := fx.target.HasTable(ctx, "lc_tags")
	require.NoError(t, err)
	assert.True(t, ok)
}

package loader

import (
	"context"
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

func newEngine(t *testing.T) (*engine.Engine, *sqlite.Adapter) {
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
	return e, target
}

func TestApply(t *testing.T) {
	e, target := newEngine(t)
	ctx := context.Background()
	dir := t.TempDir()
	// posts sorts before tags, so its relationship targets a collection
	// created later in the same run.
	writeFile(t, dir, "posts.yaml", postsYAML)
	writeFile(t, dir, "tags.yaml", "name: tags\nfields:\n  - name: label\n    type: string\n")

	a := NewApplier(e, 5, testutil.NewTestLogger(t))
	res, err := a.ApplyDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"posts", "tags"}, res.Created)
	assert.Equal(t, []string{"posts.tags"}, res.RelationshipsAdded)
	assert.True(t, res.Changed())

	posts, err := e.Collections.Require(ctx, "posts", 5)
	require.NoError(t, err)
	assert.Len(t, posts.Fields(), 3)
	r, ok := posts.Relationship("tags")
	require.True(t, ok)
	assert.Equal(t, core.BelongsToMany, r.Type)

	ok, err = target.HasTable(ctx, "lc_pivot_posts_tags")
	require.NoError(t, err)
	assert.True(t, ok)

	// Re-applying is a no-op.
	res, err = a.ApplyDir(ctx, dir)
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Equal(t, []string{"posts", "tags"}, res.Unchanged)

	// A new field in a definition is added to the table.
	writeFile(t, dir, "tags.yaml", "name: tags\nfields:\n  - name: label\n    type: string\n  - name: color\n    type: string\n    nullable: true\n")
	res, err = a.ApplyDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"tags.color"}, res.FieldsAdded)

	meta, err := target.GetTableMetadata(ctx, "lc_tags")
	require.NoError(t, err)
	assert.True(t, meta.HasColumn("color"))
}

func TestApply_InvalidDefinition(t *testing.T) {
	e, _ := newEngine(t)
	files := []File{{Path: "bad.yaml", Definition: mustParse(t, "name: bad\nfields:\n  - name: x\n    type: hologram\n")}}

	_, err := NewApplier(e, 1, nil).Apply(context.Background(), files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
	var unknown *field.UnknownFieldTypeError
	assert.ErrorAs(t, err, &unknown)
}

func mustParse(t *testing.T, content string) collection.Definition {
	t.Helper()
	d, err := ParseDefinition([]byte(content), "")
	require.NoError(t, err)
	return d
}

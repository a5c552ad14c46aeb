package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/leapstack-labs/leapcollect/internal/cache"
	"github.com/leapstack-labs/leapcollect/internal/events"
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

type testEnv struct {
	engine *Engine
	store  *store.SQLStore
	schema adapter.SchemaBuilder
	cache  *cache.Memory
	events *events.Recorder
}

// failingDrop wraps a schema builder whose DropTable always fails.
type failingDrop struct {
	adapter.SchemaBuilder
}

func (failingDrop) DropTable(_ context.Context, table string) error {
	return &core.DDLError{Op: adapter.OpDropTable, Table: table, Err: errors.New("disk I/O error")}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

func newTestEnvWith(t *testing.T, wrap func(adapter.SchemaBuilder) adapter.SchemaBuilder) *testEnv {
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

	var schema adapter.SchemaBuilder = target
	if wrap != nil {
		schema = wrap(target)
	}

	env := &testEnv{store: st, schema: target, cache: cache.NewMemory(), events: &events.Recorder{}}
	env.engine, err = New(Config{
		Store:    st,
		Schema:   schema,
		Registry: field.NewRegistry(),
		Cache:    env.cache,
		Events:   env.events,
		Logger:   logger,
	})
	require.NoError(t, err)
	return env
}

func (env *testEnv) newField(t *testing.T, typ field.Type, name string, options map[string]any) field.Field {
	t.Helper()
	f, err := env.engine.Registry().Create(typ, name, options)
	require.NoError(t, err)
	return f
}

func (env *testEnv) createPosts(t *testing.T, tenantID int64) *collection.Collection {
	t.Helper()
	c := env.engine.Collections.New("posts", tenantID)
	c.Description = "Blog posts"
	require.NoError(t, c.AddField(env.newField(t, field.TypeString, "title", map[string]any{"max_length": 120})))
	require.NoError(t, c.AddField(env.newField(t, field.TypeInteger, "views", map[string]any{"default": 0, "unsigned": true})))
	require.NoError(t, c.AddField(env.newField(t, field.TypeSelect, "status", map[string]any{"enum": []any{"draft", "published"}, "nullable": true})))
	require.NoError(t, env.engine.Collections.Create(context.Background(), c))
	return c
}

func (env *testEnv) hasTable(t *testing.T, table string) bool {
	t.Helper()
	ok, err := env.schema.HasTable(context.Background(), table)
	require.NoError(t, err)
	return ok
}

func columnNames(t *testing.T, env *testEnv, table string) []string {
	t.Helper()
	meta, err := env.schema.GetTableMetadata(context.Background(), table)
	require.NoError(t, err)
	names := make([]string, len(meta.Columns))
	for i, c := range meta.Columns {
		names[i] = c.Name
	}
	return names
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.EqualError(t, err, "engine: metadata store is required")

	e, err := New(Config{Store: &store.SQLStore{}, Schema: sqlite.New(nil), Registry: field.NewRegistry()})
	require.NoError(t, err)
	assert.Equal(t, collection.DefaultNaming, e.Naming())
}

func TestCollections_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.createPosts(t, 1)
	assert.NotZero(t, created.ID)
	assert.True(t, env.hasTable(t, "lc_posts"))
	assert.Equal(t,
		[]string{"id", "tenant_id", "site_id", "title", "views", "status", "created_at", "updated_at"},
		columnNames(t, env, "lc_posts"))
	assert.Equal(t, []string{core.EventCollectionCreated}, env.events.Names())

	// Create populated the cache.
	hit, err := env.engine.Collections.Get(ctx, "posts", 1)
	require.NoError(t, err)
	require.NotNil(t, hit)

	require.NoError(t, env.cache.Clear(ctx))
	miss, err := env.engine.Collections.Get(ctx, "posts", 1)
	require.NoError(t, err)
	require.NotNil(t, miss)

	assert.Equal(t, miss.Definition(), hit.Definition())
	assert.Equal(t, created.ID, miss.ID)
	assert.Equal(t, "Blog posts", miss.Description)
	assert.Equal(t, []string{"title", "views", "status"}, fieldNames(miss))

	views, ok := miss.Field("views")
	require.True(t, ok)
	assert.Equal(t, int64(0), views.Default())
	assert.Equal(t, 1, env.cache.Len())
}

func fieldNames(c *collection.Collection) []string {
	var names []string
	for _, f := range c.Fields() {
		names = append(names, f.Name())
	}
	return names
}

func TestCollections_GetMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := env.engine.Collections.Get(ctx, "nope", 1)
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = env.engine.Collections.Require(ctx, "nope", 1)
	assert.True(t, core.IsNotFound(err))
}

func TestCollections_CreateDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createPosts(t, 1)
	env.events.Reset()

	dup := env.engine.Collections.New("posts", 1)
	err := env.engine.Collections.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, core.IsConflict(err))
	assert.Zero(t, dup.ID)
	assert.Empty(t, env.events.Names())

	// Same name in another tenant shares the physical table name, so the
	// table already exists and the DDL fails without recording metadata.
	other := env.engine.Collections.New("posts", 2)
	err = env.engine.Collections.Create(ctx, other)
	require.Error(t, err)
	assert.True(t, core.IsDDL(err))

	got, err := env.engine.Collections.Get(ctx, "posts", 2)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCollections_CreateInvalid(t *testing.T) {
	env := newTestEnv(t)

	c := env.engine.Collections.New("bad name", 1)
	err := env.engine.Collections.Create(context.Background(), c)
	require.Error(t, err)
	assert.True(t, core.IsInvalidDefinition(err))
	assert.False(t, env.hasTable(t, c.TableName))
}

func TestCollections_TenantIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c := env.engine.Collections.New("notes", 7)
	c.TableName = "lc_tenant7_notes"
	require.NoError(t, env.engine.Collections.Create(ctx, c))

	got, err := env.engine.Collections.Get(ctx, "notes", 8)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = env.engine.Collections.Get(ctx, "notes", 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "lc_tenant7_notes", got.TableName)

	err = env.engine.Collections.Delete(ctx, "notes", true, 8)
	assert.True(t, core.IsNotFound(err))
	assert.True(t, env.hasTable(t, "lc_tenant7_notes"))
}

func TestCollections_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.createPosts(t, 1)
	before := columnNames(t, env, "lc_posts")
	env.events.Reset()

	c, err := env.engine.Collections.Require(ctx, "posts", 1)
	require.NoError(t, err)
	c.Title = "Articles"
	require.NoError(t, c.RemoveField("status"))
	require.NoError(t, c.AddField(env.newField(t, field.TypeText, "body", nil)))
	require.NoError(t, env.engine.Collections.Update(ctx, c))

	got, err := env.engine.Collections.Require(ctx, "posts", 1)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Articles", got.Title)
	assert.Equal(t, []string{"title", "views", "body"}, fieldNames(got))
	assert.Equal(t, []string{core.EventCollectionUpdated}, env.events.Names())

	// The physical table is left alone.
	assert.Equal(t, before, columnNames(t, env, "lc_posts"))
}

func TestCollections_UpdateRequiresID(t *testing.T) {
	env := newTestEnv(t)

	err := env.engine.Collections.Update(context.Background(), env.engine.Collections.New("posts", 1))
	assert.True(t, core.IsInvalidDefinition(err))
}

func TestCollections_UpdateOtherTenantID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createPosts(t, 1)

	theirs := env.engine.Collections.New("posts", 2)
	theirs.TableName = "lc_t2_posts"
	require.NoError(t, theirs.AddField(env.newField(t, field.TypeString, "headline", nil)))
	require.NoError(t, env.engine.Collections.Create(ctx, theirs))
	env.events.Reset()

	mine, err := env.engine.Collections.Require(ctx, "posts", 1)
	require.NoError(t, err)
	mine.ID = theirs.ID
	mine.Title = "hijacked"

	err = env.engine.Collections.Update(ctx, mine)
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
	assert.Empty(t, env.events.Names())

	got, err := env.engine.Collections.Require(ctx, "posts", 2)
	require.NoError(t, err)
	assert.NotEqual(t, "hijacked", got.Title)
	assert.Equal(t, []string{"headline"}, fieldNames(got))
}

func TestCollections_CreateWithIDRejectedBeforeDDL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createPosts(t, 1)
	require.NoError(t, env.engine.Collections.Delete(ctx, "posts", true, 1))
	require.False(t, env.hasTable(t, "lc_posts"))

	err := env.engine.Collections.Create(ctx, c)
	require.Error(t, err)
	assert.True(t, core.IsInvalidDefinition(err))
	assert.False(t, env.hasTable(t, "lc_posts"))

	// A fresh aggregate still works.
	c.ID = 0
	require.NoError(t, env.engine.Collections.Create(ctx, c))
	assert.True(t, env.hasTable(t, "lc_posts"))
	got, err := env.engine.Collections.Get(ctx, "posts", 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"title", "views", "status"}, fieldNames(got))
}

func TestCollections_Delete(t *testing.T) {
	tests := []struct {
		name      string
		dropTable bool
	}{
		{name: "keep table", dropTable: false},
		{name: "drop table", dropTable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			created := env.createPosts(t, 1)
			env.events.Reset()

			require.NoError(t, env.engine.Collections.Delete(ctx, "posts", tt.dropTable, 1))

			got, err := env.engine.Collections.Get(ctx, "posts", 1)
			require.NoError(t, err)
			assert.Nil(t, got)
			assert.Equal(t, !tt.dropTable, env.hasTable(t, "lc_posts"))

			fields, err := env.store.Fields().FindByCollectionID(ctx, created.ID)
			require.NoError(t, err)
			assert.Empty(t, fields)

			events := env.events.Events()
			require.Len(t, events, 1)
			assert.Equal(t, core.EventCollectionDeleted, events[0].Name)
			assert.Equal(t, tt.dropTable, events[0].Payload["dropped_table"])
		})
	}
}

func TestCollections_DeleteDropFailureKeepsMetadata(t *testing.T) {
	env := newTestEnvWith(t, func(s adapter.SchemaBuilder) adapter.SchemaBuilder { return failingDrop{s} })
	ctx := context.Background()
	env.createPosts(t, 1)
	env.events.Reset()

	err := env.engine.Collections.Delete(ctx, "posts", true, 1)
	require.Error(t, err)
	assert.True(t, core.IsDDL(err))
	assert.Empty(t, env.events.Names())

	require.NoError(t, env.cache.Clear(ctx))
	got, err := env.engine.Collections.Get(ctx, "posts", 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Fields(), 3)
	assert.True(t, env.hasTable(t, "lc_posts"))
}

func TestCollections_ListAndAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, name := range []string{"alpha", "beta", "gamma"} {
		require.NoError(t, env.engine.Collections.Create(ctx, env.engine.Collections.New(name, 3)))
	}

	res, err := env.engine.Collections.List(ctx, 3, ListFilter{Search: "a"}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Len(t, res.Items, 2)

	all, err := env.engine.Collections.All(ctx, 3)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "gamma", all[2].Name)

	none, err := env.engine.Collections.All(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCollections_CorruptCacheEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createPosts(t, 1)

	key := cache.Key(cache.DefaultPrefix, 1, "posts")
	require.NoError(t, env.cache.Set(ctx, key, []byte("not msgpack"), cache.DefaultTTL))

	got, err := env.engine.Collections.Get(ctx, "posts", 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Fields(), 3)
}

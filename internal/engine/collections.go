package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapcollect/internal/cache"
	"github.com/leapstack-labs/leapcollect/internal/events"
	"github.com/leapstack-labs/leapcollect/internal/store"
	"github.com/leapstack-labs/leapcollect/pkg/adapter"
	"github.com/leapstack-labs/leapcollect/pkg/collection"
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/leapstack-labs/leapcollect/pkg/field"
)

// CollectionManager owns the collection lifecycle. It holds no locks:
// metadata atomicity comes from store transactions, and concurrent creates
// of one (tenant, name) are settled by the store's unique index.
type CollectionManager struct {
	store    store.Store
	schema   adapter.SchemaBuilder
	registry *field.Registry
	naming   collection.Naming
	cache    cache.Cache
	codec    cache.Codec
	ttl      time.Duration
	prefix   string
	events   events.Publisher
	logger   *slog.Logger
}

// NewCollectionManager creates a collection manager.
func NewCollectionManager(cfg Config) (*CollectionManager, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &CollectionManager{
		store:    cfg.Store,
		schema:   cfg.Schema,
		registry: cfg.Registry,
		naming:   *cfg.Naming,
		cache:    cfg.Cache,
		codec:    cache.MsgpackCodec{},
		ttl:      cfg.CacheTTL,
		prefix:   cfg.CachePrefix,
		events:   cfg.Events,
		logger:   cfg.Logger,
	}, nil
}

// New returns an empty collection named with this manager's naming rules.
func (m *CollectionManager) New(name string, tenantID int64) *collection.Collection {
	c := collection.New(name, m.naming)
	c.TenantID = tenantID
	return c
}

// Create materializes the table of c and records its metadata.
//
// The (tenant, name) conflict check runs before any DDL, so a duplicate
// leaves no table behind. The table is created before the metadata
// transaction; if the transaction fails the table stays and drift
// detection reports it. On success c.ID is set.
func (m *CollectionManager) Create(ctx context.Context, c *collection.Collection) error {
	if c == nil {
		return &core.DefinitionError{Kind: "collection", Reason: "nil collection"}
	}
	if c.ID != 0 {
		return &core.DefinitionError{Kind: "collection", Name: c.Name, Reason: fmt.Sprintf("already has id %d; use Update", c.ID)}
	}
	if err := c.Validate(); err != nil {
		return err
	}

	_, err := m.store.Collections().FindByName(ctx, c.TenantID, c.Name)
	if err == nil {
		return &core.MetadataConflictError{Kind: "collection", Name: c.Name, Reason: fmt.Sprintf("tenant %d", c.TenantID)}
	}
	if !core.IsNotFound(err) {
		return fmt.Errorf("failed to check collection %s: %w", c.Name, err)
	}

	snap, err := records(c)
	if err != nil {
		return err
	}

	m.logger.Debug("creating collection table", slog.String("collection", c.Name), slog.String("table", c.TableName))
	if err := m.schema.CreateTable(ctx, c.TableSpec()); err != nil {
		return err
	}

	err = m.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Collections().Save(ctx, &snap.Collection); err != nil {
			return err
		}
		for i := range snap.Fields {
			snap.Fields[i].CollectionID = snap.Collection.ID
			if err := tx.Fields().Save(ctx, &snap.Fields[i]); err != nil {
				return err
			}
		}
		for i := range snap.Relationships {
			snap.Relationships[i].CollectionID = snap.Collection.ID
			if err := tx.Relationships().Save(ctx, &snap.Relationships[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		m.logger.Warn("collection metadata not saved, table left in place",
			slog.String("collection", c.Name),
			slog.String("table", c.TableName),
			slog.String("error", err.Error()))
		return err
	}

	c.ID = snap.Collection.ID
	m.writeCache(ctx, snap)
	m.events.Trigger(ctx, core.EventCollectionCreated, payload(c))
	return nil
}

// Get returns the named collection of a tenant, or (nil, nil) when it does
// not exist. Reads go to the cache first.
func (m *CollectionManager) Get(ctx context.Context, name string, tenantID int64) (*collection.Collection, error) {
	key := cache.Key(m.prefix, tenantID, name)

	if snap, ok := m.readCache(ctx, key); ok {
		c, err := assemble(m.registry, m.naming, snap)
		if err == nil {
			return c, nil
		}
		m.logger.Warn("discarding unreadable cache entry", slog.String("key", key), slog.String("error", err.Error()))
		m.invalidateKey(ctx, key)
	}

	m.logger.Debug("collection cache miss", slog.String("key", key))
	snap, err := m.load(ctx, m.store, name, tenantID)
	if core.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c, err := assemble(m.registry, m.naming, snap)
	if err != nil {
		return nil, err
	}
	m.writeCache(ctx, snap)
	return c, nil
}

// Require is Get with absence reported as a NotFoundError.
func (m *CollectionManager) Require(ctx context.Context, name string, tenantID int64) (*collection.Collection, error) {
	c, err := m.Get(ctx, name, tenantID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &core.NotFoundError{Kind: "collection", Name: name, TenantID: tenantID}
	}
	return c, nil
}

// Update replaces the title, description, field and relationship metadata
// of the collection with c.ID. The id must belong to c.TenantID. The physical table and the table name are
// left as they are; use the field and relationship managers, or drift
// reconcile, to change the table.
func (m *CollectionManager) Update(ctx context.Context, c *collection.Collection) error {
	if c == nil || c.ID == 0 {
		name := ""
		if c != nil {
			name = c.Name
		}
		return &core.DefinitionError{Kind: "collection", Name: name, Reason: "id is required for update"}
	}

	existing, err := m.store.Collections().FindByID(ctx, c.ID)
	if err != nil {
		return err
	}
	if existing.TenantID != c.TenantID {
		return &core.NotFoundError{Kind: "collection", Name: c.Name, TenantID: c.TenantID}
	}

	snap, err := records(c)
	if err != nil {
		return err
	}

	rec := *existing
	rec.Title = c.Title
	rec.Description = c.Description
	rec.SiteID = c.SiteID
	rec.SchemaJSON = snap.Collection.SchemaJSON

	err = m.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Collections().Save(ctx, &rec); err != nil {
			return err
		}
		if err := tx.Fields().DeleteByCollectionID(ctx, rec.ID); err != nil {
			return err
		}
		for i := range snap.Fields {
			if err := tx.Fields().Save(ctx, &snap.Fields[i]); err != nil {
				return err
			}
		}
		if err := tx.Relationships().DeleteByCollectionID(ctx, rec.ID); err != nil {
			return err
		}
		for i := range snap.Relationships {
			if err := tx.Relationships().Save(ctx, &snap.Relationships[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.invalidate(ctx, existing.TenantID, existing.Name)
	m.events.Trigger(ctx, core.EventCollectionUpdated, events.Payload{
		"collection": existing.Name,
		"tenant_id":  existing.TenantID,
		"table":      existing.TableName,
		"id":         existing.ID,
	})
	return nil
}

// Delete removes the collection's metadata and, when dropTable is set, its
// table. The drop runs inside the metadata transaction so a failed drop
// keeps the metadata.
func (m *CollectionManager) Delete(ctx context.Context, name string, dropTable bool, tenantID int64) error {
	snap, err := m.load(ctx, m.store, name, tenantID)
	if err != nil {
		return err
	}
	rec := snap.Collection

	err = m.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Relationships().DeleteByCollectionID(ctx, rec.ID); err != nil {
			return err
		}
		if err := tx.Fields().DeleteByCollectionID(ctx, rec.ID); err != nil {
			return err
		}
		if err := tx.Collections().Delete(ctx, rec.ID); err != nil {
			return err
		}
		if dropTable {
			m.logger.Debug("dropping collection table", slog.String("collection", name), slog.String("table", rec.TableName))
			return m.schema.DropTable(ctx, rec.TableName)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.invalidate(ctx, tenantID, name)
	m.events.Trigger(ctx, core.EventCollectionDeleted, events.Payload{
		"collection":    name,
		"tenant_id":     tenantID,
		"table":         rec.TableName,
		"id":            rec.ID,
		"dropped_table": dropTable,
	})
	return nil
}

// ListFilter narrows a listing.
type ListFilter struct {
	// Search matches collection names by substring.
	Search string
	// SiteID restricts to one site when set.
	SiteID *int64
}

// List pages through a tenant's collections. Page defaults to 1 and page
// size to 20, capped at 200.
func (m *CollectionManager) List(ctx context.Context, tenantID int64, filter ListFilter, page, pageSize int) (*store.ListResult, error) {
	return m.store.Collections().List(ctx, tenantID, store.ListOptions{
		Search:   filter.Search,
		SiteID:   filter.SiteID,
		Page:     page,
		PageSize: pageSize,
	})
}

// All returns every collection of a tenant, in id order.
func (m *CollectionManager) All(ctx context.Context, tenantID int64) ([]*collection.Collection, error) {
	var out []*collection.Collection
	for page := 1; ; page++ {
		res, err := m.List(ctx, tenantID, ListFilter{}, page, store.MaxPageSize)
		if err != nil {
			return nil, err
		}
		for _, rec := range res.Items {
			c, err := m.Get(ctx, rec.Name, tenantID)
			if err != nil {
				return nil, err
			}
			if c != nil {
				out = append(out, c)
			}
		}
		if int64(page*res.PageSize) >= res.Total || len(res.Items) == 0 {
			return out, nil
		}
	}
}

// load reads the collection row and its children from st.
func (m *CollectionManager) load(ctx context.Context, st store.Store, name string, tenantID int64) (snapshot, error) {
	var s snapshot

	rec, err := st.Collections().FindByName(ctx, tenantID, name)
	if err != nil {
		return s, err
	}
	s.Collection = *rec

	if s.Fields, err = st.Fields().FindByCollectionID(ctx, rec.ID); err != nil {
		return s, err
	}
	if s.Relationships, err = st.Relationships().FindByCollectionID(ctx, rec.ID); err != nil {
		return s, err
	}
	return s, nil
}

// touch refreshes the schema snapshot on the collection row after a field
// or relationship change.
func (m *CollectionManager) touch(ctx context.Context, tx store.Store, c *collection.Collection) error {
	rec, err := tx.Collections().FindByID(ctx, c.ID)
	if err != nil {
		return err
	}
	if rec.SchemaJSON, err = schemaJSON(c); err != nil {
		return err
	}
	return tx.Collections().Save(ctx, rec)
}

func (m *CollectionManager) readCache(ctx context.Context, key string) (snapshot, bool) {
	var s snapshot
	data, err := m.cache.Get(ctx, key)
	if err != nil {
		m.logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		return s, false
	}
	if data == nil {
		return s, false
	}
	if err := m.codec.Unmarshal(data, &s); err != nil {
		m.logger.Warn("discarding undecodable cache entry", slog.String("key", key), slog.String("error", err.Error()))
		m.invalidateKey(ctx, key)
		return s, false
	}
	return s, true
}

// writeCache stores the snapshot. The cache is disposable, so failures are
// logged and the write is skipped.
func (m *CollectionManager) writeCache(ctx context.Context, s snapshot) {
	key := cache.Key(m.prefix, s.Collection.TenantID, s.Collection.Name)
	data, err := m.codec.Marshal(s)
	if err == nil {
		err = m.cache.Set(ctx, key, data, m.ttl)
	}
	if err != nil {
		m.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (m *CollectionManager) invalidate(ctx context.Context, tenantID int64, name string) {
	m.invalidateKey(ctx, cache.Key(m.prefix, tenantID, name))
}

func (m *CollectionManager) invalidateKey(ctx context.Context, key string) {
	if err := m.cache.Delete(ctx, key); err != nil {
		m.logger.Warn("cache invalidation failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func payload(c *collection.Collection) events.Payload {
	return events.Payload{
		"collection": c.Name,
		"tenant_id":  c.TenantID,
		"table":      c.TableName,
		"id":         c.ID,
	}
}

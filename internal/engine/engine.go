// Package engine implements the collection lifecycle: the collection,
// field and relationship managers that keep the metadata store, the
// physical schema and the cache in step.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapcollect/internal/cache"
	"github.com/leapstack-labs/leapcollect/internal/events"
	"github.com/leapstack-labs/leapcollect/internal/store"
	"github.com/leapstack-labs/leapcollect/pkg/adapter"
	"github.com/leapstack-labs/leapcollect/pkg/collection"
	"github.com/leapstack-labs/leapcollect/pkg/field"
)

// Config wires the managers to their collaborators. Store, Schema and
// Registry are required; the rest have defaults.
type Config struct {
	Store    store.Store
	Schema   adapter.SchemaBuilder
	Registry *field.Registry

	// Naming derives table and pivot names (default lc_ / lc_pivot_).
	Naming *collection.Naming

	// Cache holds assembled collections (default: in-memory).
	Cache       cache.Cache
	CacheTTL    time.Duration
	CachePrefix string

	// Events receives lifecycle events (default: discarded).
	Events events.Publisher

	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine bundles the three managers over one configuration.
type Engine struct {
	Collections   *CollectionManager
	Fields        *FieldManager
	Relationships *RelationshipManager
}

// New creates the managers.
func New(cfg Config) (*Engine, error) {
	cm, err := NewCollectionManager(cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{
		Collections:   cm,
		Fields:        NewFieldManager(cm),
		Relationships: NewRelationshipManager(cm),
	}, nil
}

// Registry returns the field registry the managers build fields with.
func (e *Engine) Registry() *field.Registry {
	return e.Collections.registry
}

// Naming returns the naming rules in use.
func (e *Engine) Naming() collection.Naming {
	return e.Collections.naming
}

func (cfg Config) withDefaults() (Config, error) {
	if cfg.Store == nil {
		return cfg, fmt.Errorf("engine: metadata store is required")
	}
	if cfg.Schema == nil {
		return cfg, fmt.Errorf("engine: schema builder is required")
	}
	if cfg.Registry == nil {
		return cfg, fmt.Errorf("engine: field registry is required")
	}
	if cfg.Naming == nil {
		n := collection.DefaultNaming
		cfg.Naming = &n
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemory()
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = cache.DefaultPrefix
	}
	if cfg.Events == nil {
		cfg.Events = events.Noop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return cfg, nil
}

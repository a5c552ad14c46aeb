// Package store persists collection, field and relationship metadata.
//
// The store is the durable owner of record for collection definitions. It
// holds flat records; assembling them into collection aggregates is the
// engine's job. SQLite and MySQL back the same SQL implementation.
package store

import (
	"context"
	"time"
)

// Store groups the metadata repositories and scopes them to transactions.
type Store interface {
	Collections() CollectionRepository
	Fields() FieldRepository
	Relationships() RelationshipRepository

	// WithTx runs fn with a Store bound to one transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Close() error
}

// CollectionRepository stores collection rows.
type CollectionRepository interface {
	// Save inserts the record when ID is zero and updates it otherwise.
	Save(ctx context.Context, rec *CollectionRecord) error
	FindByName(ctx context.Context, tenantID int64, name string) (*CollectionRecord, error)
	FindByID(ctx context.Context, id int64) (*CollectionRecord, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, tenantID int64, opts ListOptions) (*ListResult, error)
}

// FieldRepository stores field rows.
type FieldRepository interface {
	Save(ctx context.Context, rec *FieldRecord) error
	// FindByCollectionID returns the fields ordered by sort.
	FindByCollectionID(ctx context.Context, collectionID int64) ([]FieldRecord, error)
	DeleteByCollectionID(ctx context.Context, collectionID int64) error
	Delete(ctx context.Context, collectionID int64, name string) error
}

// RelationshipRepository stores relationship rows.
type RelationshipRepository interface {
	Save(ctx context.Context, rec *RelationshipRecord) error
	FindByCollectionID(ctx context.Context, collectionID int64) ([]RelationshipRecord, error)
	DeleteByCollectionID(ctx context.Context, collectionID int64) error
	Delete(ctx context.Context, collectionID int64, name string) error
}

// CollectionRecord is one row of the collections table.
type CollectionRecord struct {
	ID          int64
	Name        string
	TableName   string
	Title       string
	Description string
	SchemaJSON  string
	TenantID    int64
	SiteID      int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FieldRecord is one row of the fields table. DefaultJSON is empty when the
// field has no default.
type FieldRecord struct {
	ID           int64
	CollectionID int64
	Name         string
	Type         string
	DBType       string
	Title        string
	Nullable     bool
	DefaultJSON  string
	OptionsJSON  string
	Sort         int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RelationshipRecord is one row of the relationships table.
type RelationshipRecord struct {
	ID               int64
	CollectionID     int64
	Name             string
	Type             string
	TargetCollection string
	ForeignKey       string
	LocalKey         string
	OptionsJSON      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Pagination defaults.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// ListOptions filters and pages a collection listing.
type ListOptions struct {
	// Search matches collection names by substring.
	Search string
	// SiteID restricts the listing to one site when set.
	SiteID   *int64
	Page     int
	PageSize int
}

// Normalize applies the page defaults and caps the page size.
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = DefaultPage
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	return o
}

// Offset is the row offset of the page.
func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.PageSize
}

// ListResult is one page of collections.
type ListResult struct {
	Items    []CollectionRecord
	Total    int64
	Page     int
	PageSize int
}

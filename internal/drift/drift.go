// Package drift compares the declared collections with the live tables and
// reports, renders and (additively) repairs the differences.
package drift

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapcollect/pkg/adapter"
	"github.com/leapstack-labs/leapcollect/pkg/collection"
	"golang.org/x/sync/errgroup"
)

// ChangeKind names one kind of difference.
type ChangeKind string

// Change kinds.
const (
	CreateTable  ChangeKind = "create_table"
	AddColumn    ChangeKind = "add_column"
	RemoveColumn ChangeKind = "remove_column"
)

// DefaultWorkers bounds concurrent table introspection in tenant-wide runs.
const DefaultWorkers = 4

// Change is one difference between a collection and its table.
type Change struct {
	Kind   ChangeKind `json:"kind"`
	Table  string     `json:"table"`
	Column string     `json:"column,omitempty"`
	// Type is the declared column type for add_column and the live type
	// for remove_column.
	Type string `json:"type,omitempty"`
}

// Diff is the change set of one collection. An empty Changes means the
// table matches its definition.
type Diff struct {
	Collection string `json:"collection"`
	TenantID   int64  `json:"tenant_id"`
	Table      string `json:"table"`
	// RowCount is the number of rows in the live table, zero when the
	// table is missing.
	RowCount int64    `json:"row_count"`
	Changes  []Change `json:"changes"`
}

// AtRisk returns the remove_column changes of a table that holds rows.
// Dropping those columns would lose data.
func (d Diff) AtRisk() []Change {
	if d.RowCount == 0 {
		return nil
	}
	var out []Change
	for _, ch := range d.Changes {
		if ch.Kind == RemoveColumn {
			out = append(out, ch)
		}
	}
	return out
}

// Empty reports whether the table matches its definition.
func (d Diff) Empty() bool {
	return len(d.Changes) == 0
}

// Report is the result of one detection run, in collection order.
type Report struct {
	TenantID int64  `json:"tenant_id"`
	Diffs    []Diff `json:"diffs"`
}

// HasChanges reports whether any diff is non-empty.
func (r *Report) HasChanges() bool {
	for _, d := range r.Diffs {
		if !d.Empty() {
			return true
		}
	}
	return false
}

// Changed returns only the non-empty diffs.
func (r *Report) Changed() []Diff {
	var out []Diff
	for _, d := range r.Diffs {
		if !d.Empty() {
			out = append(out, d)
		}
	}
	return out
}

// Source supplies declared collections.
type Source interface {
	Require(ctx context.Context, name string, tenantID int64) (*collection.Collection, error)
	All(ctx context.Context, tenantID int64) ([]*collection.Collection, error)
}

// Detector finds drift between a Source and the live schema.
type Detector struct {
	source  Source
	schema  adapter.SchemaBuilder
	workers int
	logger  *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithWorkers sets the introspection concurrency of tenant-wide runs.
func WithWorkers(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDetector creates a detector.
func NewDetector(source Source, schema adapter.SchemaBuilder, opts ...Option) *Detector {
	d := &Detector{
		source:  source,
		schema:  schema,
		workers: DefaultWorkers,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect computes the diff of c against its table.
func (d *Detector) Detect(ctx context.Context, c *collection.Collection) (Diff, error) {
	diff := Diff{Collection: c.Name, TenantID: c.TenantID, Table: c.TableName, Changes: []Change{}}

	exists, err := d.schema.HasTable(ctx, c.TableName)
	if err != nil {
		return diff, fmt.Errorf("failed to check table %s: %w", c.TableName, err)
	}
	if !exists {
		diff.Changes = append(diff.Changes, Change{Kind: CreateTable, Table: c.TableName})
		return diff, nil
	}

	meta, err := d.schema.GetTableMetadata(ctx, c.TableName)
	if err != nil {
		return diff, fmt.Errorf("failed to describe table %s: %w", c.TableName, err)
	}
	diff.RowCount = meta.RowCount

	live := make(map[string]bool, len(meta.Columns))
	for _, col := range meta.Columns {
		live[strings.ToLower(col.Name)] = true
	}
	declared := make(map[string]bool)
	for _, f := range c.Fields() {
		declared[strings.ToLower(f.Name())] = true
		if !live[strings.ToLower(f.Name())] {
			diff.Changes = append(diff.Changes, Change{Kind: AddColumn, Table: c.TableName, Column: f.Name(), Type: f.DBType()})
		}
	}
	for _, col := range meta.Columns {
		if declared[strings.ToLower(col.Name)] || collection.IsSystemColumn(col.Name) {
			continue
		}
		diff.Changes = append(diff.Changes, Change{Kind: RemoveColumn, Table: c.TableName, Column: col.Name, Type: col.Type})
	}

	d.logger.Debug("drift detected",
		slog.String("collection", c.Name),
		slog.String("table", c.TableName),
		slog.Int("changes", len(diff.Changes)))
	return diff, nil
}

// DetectCollection computes the diff of one named collection.
func (d *Detector) DetectCollection(ctx context.Context, name string, tenantID int64) (*Report, error) {
	c, err := d.source.Require(ctx, name, tenantID)
	if err != nil {
		return nil, err
	}
	diff, err := d.Detect(ctx, c)
	if err != nil {
		return nil, err
	}
	return &Report{TenantID: tenantID, Diffs: []Diff{diff}}, nil
}

// DetectAll computes the diffs of every collection of a tenant. Tables are
// introspected concurrently; the report keeps collection order.
func (d *Detector) DetectAll(ctx context.Context, tenantID int64) (*Report, error) {
	collections, err := d.source.All(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	diffs := make([]Diff, len(collections))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, c := range collections {
		g.Go(func() error {
			diff, err := d.Detect(ctx, c)
			if err != nil {
				return err
			}
			diffs[i] = diff
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Report{TenantID: tenantID, Diffs: diffs}, nil
}

// Result records what a reconcile did with one collection's diff.
type Result struct {
	Collection string   `json:"collection"`
	Table      string   `json:"table"`
	Applied    []Change `json:"applied"`
	// Skipped holds the destructive changes, which are never executed.
	Skipped []Change `json:"skipped"`
}

// Reconcile applies the additive part of c's diff: it creates a missing
// table or adds missing columns. Undeclared columns are reported in Skipped
// and left in place.
func (d *Detector) Reconcile(ctx context.Context, c *collection.Collection) (Result, error) {
	res := Result{Collection: c.Name, Table: c.TableName, Applied: []Change{}, Skipped: []Change{}}

	diff, err := d.Detect(ctx, c)
	if err != nil {
		return res, err
	}

	for _, ch := range diff.Changes {
		switch ch.Kind {
		case CreateTable:
			d.logger.Info("creating missing table", slog.String("collection", c.Name), slog.String("table", c.TableName))
			if err := d.schema.CreateTable(ctx, c.TableSpec()); err != nil {
				return res, err
			}
		case AddColumn:
			f, ok := c.Field(ch.Column)
			if !ok {
				continue
			}
			d.logger.Info("adding missing column", slog.String("table", c.TableName), slog.String("column", ch.Column))
			if err := d.schema.AddColumn(ctx, c.TableName, f.Column()); err != nil {
				return res, err
			}
		default:
			res.Skipped = append(res.Skipped, ch)
			continue
		}
		res.Applied = append(res.Applied, ch)
	}
	return res, nil
}

// ReconcileAll reconciles every collection of a tenant in order.
func (d *Detector) ReconcileAll(ctx context.Context, tenantID int64) ([]Result, error) {
	collections, err := d.source.All(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(collections))
	for _, c := range collections {
		res, err := d.Reconcile(ctx, c)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

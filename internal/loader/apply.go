package loader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapcollect/internal/engine"
	"github.com/leapstack-labs/leapcollect/pkg/collection"
)

// Result summarizes one Apply run.
type Result struct {
	Created            []string `json:"created"`
	FieldsAdded        []string `json:"fields_added"`
	RelationshipsAdded []string `json:"relationships_added"`
	Unchanged          []string `json:"unchanged"`
}

// Changed reports whether the run changed anything.
func (r *Result) Changed() bool {
	return len(r.Created)+len(r.FieldsAdded)+len(r.RelationshipsAdded) > 0
}

// Applier applies definition files to an engine. Apply is additive: it
// creates missing collections and adds missing fields and relationships,
// but never removes or alters what already exists.
type Applier struct {
	engine   *engine.Engine
	tenantID int64
	logger   *slog.Logger
}

// NewApplier creates an applier. Definitions without a tenant_id are
// applied to tenantID.
func NewApplier(e *engine.Engine, tenantID int64, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Applier{engine: e, tenantID: tenantID, logger: logger}
}

// Apply runs in two passes so relationships can target collections
// declared later in the same set: collections and fields first, then
// relationships.
func (a *Applier) Apply(ctx context.Context, files []File) (*Result, error) {
	res := &Result{}
	defs := make([]collection.Definition, len(files))

	for i, f := range files {
		d := f.Definition
		if d.TenantID == 0 {
			d.TenantID = a.tenantID
		}
		defs[i] = d

		changed, err := a.applyFields(ctx, d, res)
		if err != nil {
			return res, fmt.Errorf("%s: %w", f.Path, err)
		}
		if !changed {
			res.Unchanged = append(res.Unchanged, d.Name)
		}
	}

	for i, d := range defs {
		if err := a.applyRelationships(ctx, d, res); err != nil {
			return res, fmt.Errorf("%s: %w", files[i].Path, err)
		}
	}
	return res, nil
}

func (a *Applier) applyFields(ctx context.Context, d collection.Definition, res *Result) (bool, error) {
	existing, err := a.engine.Collections.Get(ctx, d.Name, d.TenantID)
	if err != nil {
		return false, err
	}

	if existing == nil {
		bare := d
		bare.Relationships = nil
		c, err := collection.FromDefinition(a.engine.Registry(), bare, a.engine.Naming())
		if err != nil {
			return false, err
		}
		if err := a.engine.Collections.Create(ctx, c); err != nil {
			return false, err
		}
		a.logger.Info("collection created", slog.String("collection", c.Name), slog.String("table", c.TableName))
		res.Created = append(res.Created, c.Name)
		return true, nil
	}

	changed := false
	for _, fd := range d.Fields {
		if existing.HasField(fd.Name) {
			continue
		}
		f, err := a.engine.Registry().FromDefinition(fd)
		if err != nil {
			return false, err
		}
		if err := a.engine.Fields.Add(ctx, d.Name, d.TenantID, f); err != nil {
			return false, err
		}
		a.logger.Info("field added", slog.String("collection", d.Name), slog.String("field", fd.Name))
		res.FieldsAdded = append(res.FieldsAdded, d.Name+"."+fd.Name)
		changed = true
	}
	return changed, nil
}

func (a *Applier) applyRelationships(ctx context.Context, d collection.Definition, res *Result) error {
	if len(d.Relationships) == 0 {
		return nil
	}
	existing, err := a.engine.Collections.Require(ctx, d.Name, d.TenantID)
	if err != nil {
		return err
	}
	for _, r := range d.Relationships {
		if _, ok := existing.Relationship(r.Name); ok {
			continue
		}
		if _, err := a.engine.Relationships.Add(ctx, d.Name, d.TenantID, r); err != nil {
			return err
		}
		a.logger.Info("relationship added", slog.String("collection", d.Name), slog.String("relationship", r.Name))
		res.RelationshipsAdded = append(res.RelationshipsAdded, d.Name+"."+r.Name)
	}
	return nil
}

// ApplyDir loads dir and applies it.
func (a *Applier) ApplyDir(ctx context.Context, dir string) (*Result, error) {
	files, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return a.Apply(ctx, files)
}

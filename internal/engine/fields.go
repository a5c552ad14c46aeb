package engine

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapcollect/internal/events"
	"github.com/leapstack-labs/leapcollect/internal/store"
	"github.com/leapstack-labs/leapcollect/pkg/collection"
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/leapstack-labs/leapcollect/pkg/field"
)

// FieldManager adds, changes and removes fields of existing collections.
type FieldManager struct {
	cm *CollectionManager
}

// NewFieldManager creates a field manager over cm.
func NewFieldManager(cm *CollectionManager) *FieldManager {
	return &FieldManager{cm: cm}
}

// Add adds the column for f, then records the field at the end of the
// collection.
func (m *FieldManager) Add(ctx context.Context, collectionName string, tenantID int64, f field.Field) error {
	c, err := m.cm.Require(ctx, collectionName, tenantID)
	if err != nil {
		return err
	}
	// Duplicate and reserved names fail here, before any DDL.
	if err := c.AddField(f); err != nil {
		return err
	}

	m.cm.logger.Debug("adding field column",
		slog.String("collection", c.Name),
		slog.String("field", f.Name()),
		slog.String("type", f.DBType()))
	if err := m.cm.schema.AddColumn(ctx, c.TableName, f.Column()); err != nil {
		return err
	}

	rec, err := fieldRecord(c.ID, f, c.Position(f.Name()))
	if err != nil {
		return err
	}
	err = m.cm.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Fields().Save(ctx, &rec); err != nil {
			return err
		}
		return m.cm.touch(ctx, tx, c)
	})
	if err != nil {
		return err
	}

	m.cm.invalidate(ctx, tenantID, c.Name)
	m.cm.events.Trigger(ctx, core.EventFieldAdded, fieldPayload(c, f))
	return nil
}

// FieldChanges describes a metadata update of one field. Nil members keep
// the current value.
type FieldChanges struct {
	Type     *field.Type
	Title    *string
	Nullable *bool
	// Default replaces the default when non-nil; ClearDefault removes it.
	Default      any
	ClearDefault bool
	// Options are merged over the current options; a nil value removes the key.
	Options map[string]any
}

// Update changes a field's metadata and rebuilds it through the registry so
// its column type stays derivable from type and options. The physical
// column is not altered.
func (m *FieldManager) Update(ctx context.Context, collectionName string, tenantID int64, fieldName string, changes FieldChanges) (field.Field, error) {
	c, err := m.cm.Require(ctx, collectionName, tenantID)
	if err != nil {
		return nil, err
	}
	current, ok := c.Field(fieldName)
	if !ok {
		return nil, core.NewNotFoundError("field", fieldName)
	}

	d := current.Definition()
	if changes.Type != nil {
		d.Type = *changes.Type
	}
	if changes.Title != nil {
		d.Title = *changes.Title
	}
	if changes.Nullable != nil {
		d.Nullable = *changes.Nullable
	}
	if changes.ClearDefault {
		d.Default = nil
	} else if changes.Default != nil {
		d.Default = changes.Default
	}
	if len(changes.Options) > 0 {
		merged := make(map[string]any, len(d.Options)+len(changes.Options))
		for k, v := range d.Options {
			merged[k] = v
		}
		for k, v := range changes.Options {
			if v == nil {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
		d.Options = merged
	}

	updated, err := m.cm.registry.FromDefinition(d)
	if err != nil {
		return nil, err
	}
	if err := c.ReplaceField(updated); err != nil {
		return nil, err
	}

	err = m.cm.store.WithTx(ctx, func(tx store.Store) error {
		rec, err := fieldRecord(c.ID, updated, c.Position(fieldName))
		if err != nil {
			return err
		}
		if rec.ID, err = fieldRecordID(ctx, tx, c.ID, fieldName); err != nil {
			return err
		}
		if err := tx.Fields().Save(ctx, &rec); err != nil {
			return err
		}
		return m.cm.touch(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}

	m.cm.invalidate(ctx, tenantID, c.Name)
	m.cm.events.Trigger(ctx, core.EventFieldUpdated, fieldPayload(c, updated))
	return updated, nil
}

// Remove drops the field's column, then its metadata.
func (m *FieldManager) Remove(ctx context.Context, collectionName string, tenantID int64, fieldName string) error {
	c, err := m.cm.Require(ctx, collectionName, tenantID)
	if err != nil {
		return err
	}
	f, ok := c.Field(fieldName)
	if !ok {
		return core.NewNotFoundError("field", fieldName)
	}

	m.cm.logger.Debug("dropping field column", slog.String("collection", c.Name), slog.String("field", fieldName))
	if err := m.cm.schema.DropColumn(ctx, c.TableName, fieldName); err != nil {
		return err
	}
	if err := c.RemoveField(fieldName); err != nil {
		return err
	}

	err = m.cm.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Fields().Delete(ctx, c.ID, fieldName); err != nil {
			return err
		}
		return m.cm.touch(ctx, tx, c)
	})
	if err != nil {
		return err
	}

	m.cm.invalidate(ctx, tenantID, c.Name)
	m.cm.events.Trigger(ctx, core.EventFieldRemoved, fieldPayload(c, f))
	return nil
}

func fieldRecordID(ctx context.Context, tx store.Store, collectionID int64, name string) (int64, error) {
	recs, err := tx.Fields().FindByCollectionID(ctx, collectionID)
	if err != nil {
		return 0, err
	}
	for _, r := range recs {
		if r.Name == name {
			return r.ID, nil
		}
	}
	return 0, core.NewNotFoundError("field", name)
}

func fieldPayload(c *collection.Collection, f field.Field) events.Payload {
	return events.Payload{
		"collection": c.Name,
		"tenant_id":  c.TenantID,
		"table":      c.TableName,
		"field":      f.Name(),
		"type":       string(f.Type()),
	}
}

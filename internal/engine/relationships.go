package engine

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapcollect/internal/events"
	"github.com/leapstack-labs/leapcollect/internal/store"
	"github.com/leapstack-labs/leapcollect/pkg/collection"
	"github.com/leapstack-labs/leapcollect/pkg/core"
)

// RelationshipManager adds and removes relationships between collections.
// Only many-to-many relationships touch the schema, through their pivot table.
type RelationshipManager struct {
	cm *CollectionManager
}

// NewRelationshipManager creates a relationship manager over cm.
func NewRelationshipManager(cm *CollectionManager) *RelationshipManager {
	return &RelationshipManager{cm: cm}
}

// Add records r on the source collection. Blank keys and the pivot table
// name are filled in by convention; the pivot table is created when it does
// not exist yet. The resolved relationship is returned.
func (m *RelationshipManager) Add(ctx context.Context, collectionName string, tenantID int64, r core.Relationship) (core.Relationship, error) {
	rt, err := core.ParseRelationType(string(r.Type))
	if err != nil {
		return r, err
	}
	r.Type = rt
	if err := core.ValidateIdentifier("relationship", r.Name); err != nil {
		return r, err
	}
	if r.TargetCollection == "" {
		return r, &core.DefinitionError{Kind: "relationship", Name: r.Name, Reason: "target collection is required"}
	}

	source, err := m.cm.Require(ctx, collectionName, tenantID)
	if err != nil {
		return r, err
	}
	target, err := m.cm.Require(ctx, r.TargetCollection, tenantID)
	if err != nil {
		return r, err
	}
	if _, exists := source.Relationship(r.Name); exists {
		return r, &core.MetadataConflictError{Kind: "relationship", Name: r.Name, Reason: "already defined on collection " + source.Name}
	}

	r = m.cm.naming.ResolveRelationship(r, source.TableName, target.TableName)
	if err := validateKeys(r); err != nil {
		return r, err
	}

	if r.Type == core.BelongsToMany {
		if err := m.ensurePivot(ctx, r, source, target); err != nil {
			return r, err
		}
	}

	if err := source.AddRelationship(r); err != nil {
		return r, err
	}
	rec, err := relationshipRecord(source.ID, r)
	if err != nil {
		return r, err
	}
	err = m.cm.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Relationships().Save(ctx, &rec); err != nil {
			return err
		}
		return m.cm.touch(ctx, tx, source)
	})
	if err != nil {
		return r, err
	}

	m.cm.invalidate(ctx, tenantID, source.Name)
	m.cm.events.Trigger(ctx, core.EventRelationshipAdded, relationshipPayload(source, r))
	return r, nil
}

// Remove deletes the named relationship. For many-to-many relationships the
// pivot table is dropped too when dropPivot is set and the table exists.
func (m *RelationshipManager) Remove(ctx context.Context, collectionName string, tenantID int64, relName string, dropPivot bool) error {
	source, err := m.cm.Require(ctx, collectionName, tenantID)
	if err != nil {
		return err
	}
	r, ok := source.Relationship(relName)
	if !ok {
		return core.NewNotFoundError("relationship", relName)
	}

	if r.Type == core.BelongsToMany && dropPivot {
		if pivot := r.PivotTable(); pivot != "" {
			exists, err := m.cm.schema.HasTable(ctx, pivot)
			if err != nil {
				return err
			}
			if exists {
				m.cm.logger.Debug("dropping pivot table", slog.String("relationship", relName), slog.String("table", pivot))
				if err := m.cm.schema.DropTable(ctx, pivot); err != nil {
					return err
				}
			}
		}
	}

	if err := source.RemoveRelationship(relName); err != nil {
		return err
	}
	err = m.cm.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Relationships().Delete(ctx, source.ID, relName); err != nil {
			return err
		}
		return m.cm.touch(ctx, tx, source)
	})
	if err != nil {
		return err
	}

	m.cm.invalidate(ctx, tenantID, source.Name)
	m.cm.events.Trigger(ctx, core.EventRelationshipRemoved, relationshipPayload(source, r))
	return nil
}

func (m *RelationshipManager) ensurePivot(ctx context.Context, r core.Relationship, source, target *collection.Collection) error {
	pivot := r.PivotTable()
	exists, err := m.cm.schema.HasTable(ctx, pivot)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	m.cm.logger.Debug("creating pivot table", slog.String("relationship", r.Name), slog.String("table", pivot))
	return m.cm.schema.CreateTable(ctx, collection.PivotSpec(pivot, r.LocalKey, source.TableName, r.ForeignKey, target.TableName))
}

func validateKeys(r core.Relationship) error {
	if err := core.ValidateIdentifier("foreign key", r.ForeignKey); err != nil {
		return err
	}
	if err := core.ValidateIdentifier("local key", r.LocalKey); err != nil {
		return err
	}
	if r.Type == core.BelongsToMany {
		return core.ValidateIdentifier("pivot table", r.PivotTable())
	}
	return nil
}

func relationshipPayload(c *collection.Collection, r core.Relationship) events.Payload {
	p := events.Payload{
		"collection":   c.Name,
		"tenant_id":    c.TenantID,
		"relationship": r.Name,
		"type":         string(r.Type),
		"target":       r.TargetCollection,
	}
	if pivot := r.PivotTable(); pivot != "" {
		p["pivot_table"] = pivot
	}
	return p
}

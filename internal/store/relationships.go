package store

import (
	"context"
	"fmt"
)

type relationshipRepo struct {
	s *SQLStore
}

func (r *relationshipRepo) Save(ctx context.Context, rec *RelationshipRecord) error {
	if err := r.s.check(); err != nil {
		return err
	}

	now := r.s.now()
	if rec.OptionsJSON == "" {
		rec.OptionsJSON = "{}"
	}

	if rec.ID == 0 {
		res, err := r.s.q.ExecContext(ctx,
			`INSERT INTO relationships (collection_id, name, type, target_collection, foreign_key, local_key, options_json, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.CollectionID, rec.Name, rec.Type, rec.TargetCollection, rec.ForeignKey, rec.LocalKey, rec.OptionsJSON, now, now,
		)
		if err != nil {
			return conflictOr(err, "relationship", rec.Name, "failed to insert relationship")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read relationship id: %w", err)
		}
		rec.ID = id
		rec.CreatedAt = now
		rec.UpdatedAt = now
		return nil
	}

	_, err := r.s.q.ExecContext(ctx,
		`UPDATE relationships SET name = ?, type = ?, target_collection = ?, foreign_key = ?, local_key = ?, options_json = ?, updated_at = ?
		 WHERE id = ? AND collection_id = ?`,
		rec.Name, rec.Type, rec.TargetCollection, rec.ForeignKey, rec.LocalKey, rec.OptionsJSON, now, rec.ID, rec.CollectionID,
	)
	if err != nil {
		return conflictOr(err, "relationship", rec.Name, "failed to update relationship")
	}
	rec.UpdatedAt = now
	return nil
}

func (r *relationshipRepo) FindByCollectionID(ctx context.Context, collectionID int64) ([]RelationshipRecord, error) {
	if err := r.s.check(); err != nil {
		return nil, err
	}

	rows, err := r.s.q.QueryContext(ctx,
		`SELECT id, collection_id, name, type, target_collection, foreign_key, local_key, options_json, created_at, updated_at
		 FROM relationships WHERE collection_id = ? ORDER BY id`,
		collectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get relationships: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RelationshipRecord
	for rows.Next() {
		var rec RelationshipRecord
		if err := rows.Scan(&rec.ID, &rec.CollectionID, &rec.Name, &rec.Type, &rec.TargetCollection,
			&rec.ForeignKey, &rec.LocalKey, &rec.OptionsJSON, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating relationships: %w", err)
	}
	return out, nil
}

func (r *relationshipRepo) DeleteByCollectionID(ctx context.Context, collectionID int64) error {
	if err := r.s.check(); err != nil {
		return err
	}
	if _, err := r.s.q.ExecContext(ctx, `DELETE FROM relationships WHERE collection_id = ?`, collectionID); err != nil {
		return fmt.Errorf("failed to delete relationships: %w", err)
	}
	return nil
}

func (r *relationshipRepo) Delete(ctx context.Context, collectionID int64, name string) error {
	if err := r.s.check(); err != nil {
		return err
	}
	if _, err := r.s.q.ExecContext(ctx, `DELETE FROM relationships WHERE collection_id = ? AND name = ?`, collectionID, name); err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

type fieldRepo struct {
	s *SQLStore
}

// Save inserts the field, or updates the row matching (collection_id, name)
// when rec.ID is set.
func (r *fieldRepo) Save(ctx context.Context, rec *FieldRecord) error {
	if err := r.s.check(); err != nil {
		return err
	}

	now := r.s.now()
	if rec.OptionsJSON == "" {
		rec.OptionsJSON = "{}"
	}
	def := sql.NullString{String: rec.DefaultJSON, Valid: rec.DefaultJSON != ""}

	if rec.ID == 0 {
		r.s.logger.Debug("inserting field", slog.Int64("collection_id", rec.CollectionID), slog.String("name", rec.Name))
		res, err := r.s.q.ExecContext(ctx,
			`INSERT INTO fields (collection_id, name, type, db_type, title, nullable, default_value, options_json, sort, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.CollectionID, rec.Name, rec.Type, rec.DBType, rec.Title, rec.Nullable, def, rec.OptionsJSON, rec.Sort, now, now,
		)
		if err != nil {
			return conflictOr(err, "field", rec.Name, "failed to insert field")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read field id: %w", err)
		}
		rec.ID = id
		rec.CreatedAt = now
		rec.UpdatedAt = now
		return nil
	}

	_, err := r.s.q.ExecContext(ctx,
		`UPDATE fields SET name = ?, type = ?, db_type = ?, title = ?, nullable = ?, default_value = ?, options_json = ?, sort = ?, updated_at = ?
		 WHERE id = ? AND collection_id = ?`,
		rec.Name, rec.Type, rec.DBType, rec.Title, rec.Nullable, def, rec.OptionsJSON, rec.Sort, now, rec.ID, rec.CollectionID,
	)
	if err != nil {
		return conflictOr(err, "field", rec.Name, "failed to update field")
	}
	rec.UpdatedAt = now
	return nil
}

func (r *fieldRepo) FindByCollectionID(ctx context.Context, collectionID int64) ([]FieldRecord, error) {
	if err := r.s.check(); err != nil {
		return nil, err
	}

	rows, err := r.s.q.QueryContext(ctx,
		`SELECT id, collection_id, name, type, db_type, title, nullable, default_value, options_json, sort, created_at, updated_at
		 FROM fields WHERE collection_id = ? ORDER BY sort, id`,
		collectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []FieldRecord
	for rows.Next() {
		var rec FieldRecord
		var def sql.NullString
		if err := rows.Scan(&rec.ID, &rec.CollectionID, &rec.Name, &rec.Type, &rec.DBType, &rec.Title, &rec.Nullable,
			&def, &rec.OptionsJSON, &rec.Sort, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		rec.DefaultJSON = def.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fields: %w", err)
	}
	return out, nil
}

func (r *fieldRepo) DeleteByCollectionID(ctx context.Context, collectionID int64) error {
	if err := r.s.check(); err != nil {
		return err
	}
	if _, err := r.s.q.ExecContext(ctx, `DELETE FROM fields WHERE collection_id = ?`, collectionID); err != nil {
		return fmt.Errorf("failed to delete fields: %w", err)
	}
	return nil
}

func (r *fieldRepo) Delete(ctx context.Context, collectionID int64, name string) error {
	if err := r.s.check(); err != nil {
		return err
	}
	if _, err := r.s.q.ExecContext(ctx, `DELETE FROM fields WHERE collection_id = ? AND name = ?`, collectionID, name); err != nil {
		return fmt.Errorf("failed to delete field: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapcollect/pkg/core"
)

type collectionRepo struct {
	s *SQLStore
}

const collectionColumns = `id, name, table_name, title, description, schema_json, tenant_id, site_id, created_at, updated_at`

func (r *collectionRepo) Save(ctx context.Context, rec *CollectionRecord) error {
	if err := r.s.check(); err != nil {
		return err
	}

	now := r.s.now()
	if rec.SchemaJSON == "" {
		rec.SchemaJSON = "{}"
	}

	if rec.ID == 0 {
		r.s.logger.Debug("inserting collection", slog.String("name", rec.Name), slog.Int64("tenant_id", rec.TenantID))
		res, err := r.s.q.ExecContext(ctx,
			`INSERT INTO collections (name, table_name, title, description, schema_json, tenant_id, site_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Name, rec.TableName, rec.Title, rec.Description, rec.SchemaJSON, rec.TenantID, rec.SiteID, now, now,
		)
		if err != nil {
			return conflictOr(err, "collection", rec.Name, "failed to insert collection")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read collection id: %w", err)
		}
		rec.ID = id
		rec.CreatedAt = now
		rec.UpdatedAt = now
		return nil
	}

	res, err := r.s.q.ExecContext(ctx,
		`UPDATE collections SET name = ?, table_name = ?, title = ?, description = ?, schema_json = ?, site_id = ?, updated_at = ?
		 WHERE id = ?`,
		rec.Name, rec.TableName, rec.Title, rec.Description, rec.SchemaJSON, rec.SiteID, now, rec.ID,
	)
	if err != nil {
		return conflictOr(err, "collection", rec.Name, "failed to update collection")
	}
	// MySQL reports 0 affected rows for an unchanged row, so confirm absence.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.FindByID(ctx, rec.ID); err != nil {
			return err
		}
	}
	rec.UpdatedAt = now
	return nil
}

func (r *collectionRepo) FindByName(ctx context.Context, tenantID int64, name string) (*CollectionRecord, error) {
	if err := r.s.check(); err != nil {
		return nil, err
	}

	row := r.s.q.QueryRowContext(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE tenant_id = ? AND name = ?`,
		tenantID, name,
	)
	rec, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Kind: "collection", Name: name, TenantID: tenantID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return rec, nil
}

func (r *collectionRepo) FindByID(ctx context.Context, id int64) (*CollectionRecord, error) {
	if err := r.s.check(); err != nil {
		return nil, err
	}

	row := r.s.q.QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id = ?`, id)
	rec, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("collection", fmt.Sprintf("id=%d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return rec, nil
}

func (r *collectionRepo) Delete(ctx context.Context, id int64) error {
	if err := r.s.check(); err != nil {
		return err
	}
	if _, err := r.s.q.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

func (r *collectionRepo) List(ctx context.Context, tenantID int64, opts ListOptions) (*ListResult, error) {
	if err := r.s.check(); err != nil {
		return nil, err
	}
	opts = opts.Normalize()

	where := []string{"tenant_id = ?"}
	args := []any{tenantID}
	if opts.Search != "" {
		where = append(where, "name LIKE ? ESCAPE '!'")
		args = append(args, "%"+escapeLike(opts.Search)+"%")
	}
	if opts.SiteID != nil {
		where = append(where, "site_id = ?")
		args = append(args, *opts.SiteID)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM collections WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count collections: %w", err)
	}

	rows, err := r.s.q.QueryContext(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE `+cond+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, opts.PageSize, opts.Offset())...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := &ListResult{Total: total, Page: opts.Page, PageSize: opts.PageSize}
	for rows.Next() {
		rec, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		result.Items = append(result.Items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collections: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCollection(sc scanner) (*CollectionRecord, error) {
	rec := &CollectionRecord{}
	err := sc.Scan(&rec.ID, &rec.Name, &rec.TableName, &rec.Title, &rec.Description, &rec.SchemaJSON,
		&rec.TenantID, &rec.SiteID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

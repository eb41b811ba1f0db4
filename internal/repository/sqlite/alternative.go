package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/repository"
)

var _ repository.AlternativeRepository = (*DB)(nil)

const alternativeColumns = `id, name, slug, description, website_url, favicon_url,
	is_featured, is_open_source, created_at, updated_at`

var alternativeList = listing[model.Alternative]{
	table:   "alternative",
	columns: alternativeColumns,
	search:  [2]string{"name", "description"},
	scan:    scanAlternative,
}

func scanAlternative(s scanner) (model.Alternative, error) {
	var a model.Alternative
	err := s.Scan(
		&a.ID, &a.Name, &a.Slug, &a.Description, &a.WebsiteURL, &a.FaviconURL,
		&a.IsFeatured, &a.IsOpenSource, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (db *DB) CreateAlternative(ctx context.Context, in model.NewAlternative) (*model.Alternative, error) {
	now := time.Now().UTC()
	a := &model.Alternative{
		ID:           xid.New().String(),
		Name:         in.Name,
		Slug:         in.Slug,
		Description:  in.Description,
		WebsiteURL:   in.WebsiteURL,
		FaviconURL:   in.FaviconURL,
		IsFeatured:   in.IsFeatured != nil && *in.IsFeatured,
		IsOpenSource: in.IsOpenSource == nil || *in.IsOpenSource,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO alternative (id, name, slug, description, website_url, favicon_url,
			is_featured, is_open_source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Slug, a.Description, a.WebsiteURL, a.FaviconURL,
		a.IsFeatured, a.IsOpenSource, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError(err, constraint{resource: "Alternative", key: "slug", value: in.Slug}); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("sqlite: creating alternative: %w", err)
	}
	return a, nil
}

func (db *DB) FindAlternative(ctx context.Context, id string) (*model.Alternative, error) {
	return findAlternative(ctx, db.conn, id)
}

func findAlternative(ctx context.Context, q querier, id string) (*model.Alternative, error) {
	row := q.QueryRowContext(ctx, `SELECT `+alternativeColumns+` FROM alternative WHERE id = ?`, id)
	a, err := scanAlternative(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting alternative %s: %w", id, err)
	}
	return &a, nil
}

func (db *DB) ListAlternatives(ctx context.Context, opts repository.ListOptions) (*model.Page[model.Alternative], error) {
	return list(ctx, db.conn, alternativeList, opts)
}

func (db *DB) UpdateAlternative(ctx context.Context, id string, patch model.AlternativePatch) (*model.Alternative, error) {
	var set setList
	set.addString("name", patch.Name)
	set.addString("slug", patch.Slug)
	set.addString("website_url", patch.WebsiteURL)
	set.addString("description", patch.Description)
	set.addString("favicon_url", patch.FaviconURL)
	set.addBool("is_featured", patch.IsFeatured)
	set.addBool("is_open_source", patch.IsOpenSource)
	set.add("updated_at", time.Now().UTC())

	var updated *model.Alternative
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := set.exec(ctx, tx, "alternative", id)
		if err != nil {
			if cerr := constraintError(err, constraint{resource: "Alternative", key: "slug", value: deref(patch.Slug)}); cerr != nil {
				return cerr
			}
			return fmt.Errorf("sqlite: updating alternative %s: %w", id, err)
		}
		if err := expectOne(res, "Alternative", id); err != nil {
			return err
		}
		updated, err = findAlternative(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteAlternative removes the alternative; its tool links cascade.
func (db *DB) DeleteAlternative(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM alternative WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting alternative %s: %w", id, err)
	}
	return expectOne(res, "Alternative", id)
}

// ListAlternativeTools pages through the tools linked to an alternative.
// Total is the number of links of that alternative, regardless of Query.
func (db *DB) ListAlternativeTools(ctx context.Context, alternativeID string, opts repository.ListOptions) (*model.Page[model.Tool], error) {
	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alternatives_to_tools WHERE alternative_id = ?`, alternativeID,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting tools of alternative %s: %w", alternativeID, err)
	}

	stmt := `SELECT ` + qualifiedToolColumns + `
		FROM tool t
		JOIN alternatives_to_tools att ON att.tool_id = t.id
		WHERE att.alternative_id = ?`
	args := []any{alternativeID}
	if opts.Query != "" {
		stmt += ` AND (t.name LIKE ? ESCAPE '\' OR t.description LIKE ? ESCAPE '\')`
		pattern := likePattern(opts.Query)
		args = append(args, pattern, pattern)
	}
	stmt += ` ORDER BY t.created_at DESC, t.id DESC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset())

	rows, err := db.conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tools of alternative %s: %w", alternativeID, err)
	}
	defer rows.Close()

	tools, err := collect(rows, scanTool)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tools of alternative %s: %w", alternativeID, err)
	}
	return &model.Page[model.Tool]{Data: tools, Total: total, Page: opts.Page, PageSize: opts.Limit}, nil
}

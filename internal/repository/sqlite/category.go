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

var _ repository.CategoryRepository = (*DB)(nil)

const categoryColumns = `id, name, slug, label, created_at, updated_at`

var categoryList = listing[model.Category]{
	table:   "category",
	columns: categoryColumns,
	search:  [2]string{"name", "label"},
	scan:    scanCategory,
}

func scanCategory(s scanner) (model.Category, error) {
	var c model.Category
	err := s.Scan(&c.ID, &c.Name, &c.Slug, &c.Label, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (db *DB) CreateCategory(ctx context.Context, in model.NewCategory) (*model.Category, error) {
	now := time.Now().UTC()
	c := &model.Category{
		ID:        xid.New().String(),
		Name:      in.Name,
		Slug:      in.Slug,
		Label:     in.Label,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO category (id, name, slug, label, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Slug, c.Label, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError(err, constraint{resource: "Category", key: "slug", value: in.Slug}); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("sqlite: creating category: %w", err)
	}
	return c, nil
}

func (db *DB) FindCategory(ctx context.Context, id string) (*model.Category, error) {
	return findCategory(ctx, db.conn, id)
}

func findCategory(ctx context.Context, q querier, id string) (*model.Category, error) {
	row := q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM category WHERE id = ?`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting category %s: %w", id, err)
	}
	return &c, nil
}

func (db *DB) ListCategories(ctx context.Context, opts repository.ListOptions) (*model.Page[model.Category], error) {
	return list(ctx, db.conn, categoryList, opts)
}

func (db *DB) UpdateCategory(ctx context.Context, id string, patch model.CategoryPatch) (*model.Category, error) {
	var set setList
	set.addString("name", patch.Name)
	set.addString("slug", patch.Slug)
	set.addString("label", patch.Label)
	set.add("updated_at", time.Now().UTC())

	var updated *model.Category
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := set.exec(ctx, tx, "category", id)
		if err != nil {
			if cerr := constraintError(err, constraint{resource: "Category", key: "slug", value: deref(patch.Slug)}); cerr != nil {
				return cerr
			}
			return fmt.Errorf("sqlite: updating category %s: %w", id, err)
		}
		if err := expectOne(res, "Category", id); err != nil {
			return err
		}
		updated, err = findCategory(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (db *DB) DeleteCategory(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM category WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting category %s: %w", id, err)
	}
	return expectOne(res, "Category", id)
}

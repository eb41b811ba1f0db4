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

var _ repository.ToolRepository = (*DB)(nil)

const toolColumns = `id, name, slug, website_url, screenshot_url, description, favicon_url,
	content, tagline, is_open_source, is_featured, submitter_name, submitter_email,
	page_views, category_id, account_id, created_at, updated_at`

// qualifiedToolColumns is toolColumns for queries that join on tool as t.
const qualifiedToolColumns = `t.id, t.name, t.slug, t.website_url, t.screenshot_url, t.description,
	t.favicon_url, t.content, t.tagline, t.is_open_source, t.is_featured, t.submitter_name,
	t.submitter_email, t.page_views, t.category_id, t.account_id, t.created_at, t.updated_at`

var toolList = listing[model.Tool]{
	table:   "tool",
	columns: toolColumns,
	search:  [2]string{"name", "description"},
	scan:    scanTool,
}

func scanTool(s scanner) (model.Tool, error) {
	var t model.Tool
	err := s.Scan(
		&t.ID, &t.Name, &t.Slug, &t.WebsiteURL, &t.ScreenshotURL, &t.Description, &t.FaviconURL,
		&t.Content, &t.Tagline, &t.IsOpenSource, &t.IsFeatured, &t.SubmitterName, &t.SubmitterEmail,
		&t.PageViews, &t.CategoryID, &t.AccountID, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// CreateTool inserts the tool and its optional alternative link in one
// transaction. A failed link leaves no tool behind.
func (db *DB) CreateTool(ctx context.Context, in model.NewTool) (*model.Tool, error) {
	now := time.Now().UTC()
	t := &model.Tool{
		ID:             xid.New().String(),
		Name:           in.Name,
		Slug:           in.Slug,
		WebsiteURL:     in.WebsiteURL,
		ScreenshotURL:  in.ScreenshotURL,
		Description:    in.Description,
		FaviconURL:     in.FaviconURL,
		Content:        in.Content,
		Tagline:        in.Tagline,
		IsOpenSource:   in.IsOpenSource == nil || *in.IsOpenSource,
		IsFeatured:     in.IsFeatured != nil && *in.IsFeatured,
		SubmitterName:  in.SubmitterName,
		SubmitterEmail: in.SubmitterEmail,
		CategoryID:     in.CategoryID,
		AccountID:      in.AccountID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tool (id, name, slug, website_url, screenshot_url, description, favicon_url,
				content, tagline, is_open_source, is_featured, submitter_name, submitter_email,
				page_views, category_id, account_id, description_search, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)`,
			t.ID, t.Name, t.Slug, t.WebsiteURL, t.ScreenshotURL, t.Description, t.FaviconURL,
			t.Content, t.Tagline, t.IsOpenSource, t.IsFeatured, t.SubmitterName, t.SubmitterEmail,
			t.CategoryID, t.AccountID, t.SearchText(), t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			if cerr := constraintError(err, constraint{resource: "Tool", key: "slug", value: in.Slug, refField: "categoryId"}); cerr != nil {
				return cerr
			}
			return fmt.Errorf("sqlite: creating tool: %w", err)
		}

		if in.AlternativeID == nil || *in.AlternativeID == "" {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO alternatives_to_tools (alternative_id, tool_id) VALUES (?, ?)`,
			*in.AlternativeID, t.ID,
		)
		if err != nil {
			if cerr := constraintError(err, constraint{resource: "Tool", key: "slug", value: in.Slug, refField: "alternativeId"}); cerr != nil {
				return cerr
			}
			return fmt.Errorf("sqlite: linking tool to alternative %s: %w", *in.AlternativeID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (db *DB) FindTool(ctx context.Context, id string) (*model.Tool, error) {
	return findTool(ctx, db.conn, "id", id)
}

func (db *DB) FindToolBySlug(ctx context.Context, slug string) (*model.Tool, error) {
	return findTool(ctx, db.conn, "slug", slug)
}

// findTool looks a tool up by one of its unique columns.
func findTool(ctx context.Context, q querier, col, value string) (*model.Tool, error) {
	row := q.QueryRowContext(ctx, `SELECT `+toolColumns+` FROM tool WHERE `+col+` = ?`, value)
	t, err := scanTool(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting tool by %s %s: %w", col, value, err)
	}
	return &t, nil
}

func (db *DB) ListTools(ctx context.Context, opts repository.ListOptions) (*model.Page[model.Tool], error) {
	return list(ctx, db.conn, toolList, opts)
}

// UpdateTool applies the patch and refreshes description_search from the
// resulting row.
func (db *DB) UpdateTool(ctx context.Context, id string, patch model.ToolPatch) (*model.Tool, error) {
	var set setList
	set.addString("name", patch.Name)
	set.addString("slug", patch.Slug)
	set.addString("website_url", patch.WebsiteURL)
	set.addString("screenshot_url", patch.ScreenshotURL)
	set.addString("description", patch.Description)
	set.addString("favicon_url", patch.FaviconURL)
	set.addString("content", patch.Content)
	set.addString("tagline", patch.Tagline)
	set.addBool("is_open_source", patch.IsOpenSource)
	set.addBool("is_featured", patch.IsFeatured)
	set.addString("submitter_name", patch.SubmitterName)
	set.addString("submitter_email", patch.SubmitterEmail)
	if patch.PageViews != nil {
		set.add("page_views", *patch.PageViews)
	}
	set.addString("category_id", patch.CategoryID)
	set.add("updated_at", time.Now().UTC())

	var updated *model.Tool
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := set.exec(ctx, tx, "tool", id)
		if err != nil {
			if cerr := constraintError(err, constraint{resource: "Tool", key: "slug", value: deref(patch.Slug), refField: "categoryId"}); cerr != nil {
				return cerr
			}
			return fmt.Errorf("sqlite: updating tool %s: %w", id, err)
		}
		if err := expectOne(res, "Tool", id); err != nil {
			return err
		}
		updated, err = findTool(ctx, tx, "id", id)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE tool SET description_search = ? WHERE id = ?`, updated.SearchText(), id)
		if err != nil {
			return fmt.Errorf("sqlite: updating search text of tool %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTool removes the tool; links and likes cascade.
func (db *DB) DeleteTool(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM tool WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting tool %s: %w", id, err)
	}
	return expectOne(res, "Tool", id)
}

// ListToolAlternatives returns every alternative linked to the tool, by name.
func (db *DB) ListToolAlternatives(ctx context.Context, toolID string) ([]model.Alternative, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT a.id, a.name, a.slug, a.description, a.website_url, a.favicon_url,
			a.is_featured, a.is_open_source, a.created_at, a.updated_at
		 FROM alternative a
		 JOIN alternatives_to_tools att ON att.alternative_id = a.id
		 WHERE att.tool_id = ?
		 ORDER BY a.name`, toolID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing alternatives of tool %s: %w", toolID, err)
	}
	defer rows.Close()

	alts, err := collect(rows, scanAlternative)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing alternatives of tool %s: %w", toolID, err)
	}
	return alts, nil
}

// ListSitemapTools returns every tool, newest first.
func (db *DB) ListSitemapTools(ctx context.Context) ([]model.Tool, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+toolColumns+` FROM tool ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing sitemap tools: %w", err)
	}
	defer rows.Close()

	tools, err := collect(rows, scanTool)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing sitemap tools: %w", err)
	}
	return tools, nil
}

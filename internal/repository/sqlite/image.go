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

var _ repository.ImageRepository = (*DB)(nil)

const imageColumns = `id, url, thumbnail_url, file_id, filename, original_name, size, mime_type,
	created_at, updated_at`

var imageList = listing[model.Image]{
	table:   "image",
	columns: imageColumns,
	search:  [2]string{"original_name", "filename"},
	scan:    scanImage,
}

func scanImage(s scanner) (model.Image, error) {
	var img model.Image
	err := s.Scan(
		&img.ID, &img.URL, &img.ThumbnailURL, &img.FileID, &img.Filename, &img.OriginalName,
		&img.Size, &img.MimeType, &img.CreatedAt, &img.UpdatedAt,
	)
	return img, err
}

func (db *DB) CreateImage(ctx context.Context, in model.NewImage) (*model.Image, error) {
	now := time.Now().UTC()
	img := &model.Image{
		ID:           xid.New().String(),
		URL:          in.URL,
		ThumbnailURL: in.ThumbnailURL,
		FileID:       in.FileID,
		Filename:     in.Filename,
		OriginalName: in.OriginalName,
		Size:         in.Size,
		MimeType:     in.MimeType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO image (id, url, thumbnail_url, file_id, filename, original_name, size, mime_type,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		img.ID, img.URL, img.ThumbnailURL, img.FileID, img.Filename, img.OriginalName,
		img.Size, img.MimeType, img.CreatedAt, img.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError(err, constraint{resource: "Image", key: "url", value: in.URL}); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("sqlite: creating image: %w", err)
	}
	return img, nil
}

func (db *DB) FindImage(ctx context.Context, id string) (*model.Image, error) {
	return findImage(ctx, db.conn, id)
}

func findImage(ctx context.Context, q querier, id string) (*model.Image, error) {
	row := q.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM image WHERE id = ?`, id)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting image %s: %w", id, err)
	}
	return &img, nil
}

func (db *DB) ListImages(ctx context.Context, opts repository.ListOptions) (*model.Page[model.Image], error) {
	return list(ctx, db.conn, imageList, opts)
}

func (db *DB) UpdateImage(ctx context.Context, id string, patch model.ImagePatch) (*model.Image, error) {
	var set setList
	set.addString("url", patch.URL)
	set.addString("thumbnail_url", patch.ThumbnailURL)
	set.addString("file_id", patch.FileID)
	set.addString("filename", patch.Filename)
	set.addString("original_name", patch.OriginalName)
	if patch.Size != nil {
		set.add("size", *patch.Size)
	}
	set.addString("mime_type", patch.MimeType)
	set.add("updated_at", time.Now().UTC())

	var updated *model.Image
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := set.exec(ctx, tx, "image", id)
		if err != nil {
			if cerr := constraintError(err, constraint{resource: "Image", key: "url", value: deref(patch.URL)}); cerr != nil {
				return cerr
			}
			return fmt.Errorf("sqlite: updating image %s: %w", id, err)
		}
		if err := expectOne(res, "Image", id); err != nil {
			return err
		}
		updated, err = findImage(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (db *DB) DeleteImage(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM image WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting image %s: %w", id, err)
	}
	return expectOne(res, "Image", id)
}

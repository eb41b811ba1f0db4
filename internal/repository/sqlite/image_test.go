package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/repository"
)

func TestImageCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	size := int64(2048)

	img, err := db.CreateImage(ctx, model.NewImage{URL: "https://cdn.example.com/a.png", Size: &size})
	if err != nil {
		t.Fatalf("CreateImage() error = %v", err)
	}

	found, err := db.FindImage(ctx, img.ID)
	if err != nil || found == nil {
		t.Fatalf("FindImage() = %v, %v", found, err)
	}
	if found.Size == nil || *found.Size != 2048 {
		t.Errorf("Size = %v, want 2048", found.Size)
	}
	if found.ThumbnailURL != nil {
		t.Errorf("ThumbnailURL = %v, want nil", *found.ThumbnailURL)
	}

	mime := "image/png"
	updated, err := db.UpdateImage(ctx, img.ID, model.ImagePatch{MimeType: &mime})
	if err != nil {
		t.Fatalf("UpdateImage() error = %v", err)
	}
	if updated.MimeType == nil || *updated.MimeType != mime {
		t.Errorf("MimeType = %v, want %s", updated.MimeType, mime)
	}

	page, err := db.ListImages(ctx, repository.ListOptions{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListImages() error = %v", err)
	}
	if page.Total != 1 {
		t.Errorf("Total = %d, want 1", page.Total)
	}

	if err := db.DeleteImage(ctx, img.ID); err != nil {
		t.Fatalf("DeleteImage() error = %v", err)
	}
	if err := db.DeleteImage(ctx, img.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteImage() error = %v, want ErrNotFound", err)
	}
}

func TestCreateImage_DuplicateURL(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if _, err := db.CreateImage(ctx, model.NewImage{URL: "https://cdn.example.com/a.png"}); err != nil {
		t.Fatalf("CreateImage() error = %v", err)
	}

	_, err := db.CreateImage(ctx, model.NewImage{URL: "https://cdn.example.com/a.png"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateImage() error = %v, want ErrConflict", err)
	}
}

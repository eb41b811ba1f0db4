package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/repository"
	"github.com/sakif/altdirectory/internal/storage"
	"github.com/sakif/altdirectory/internal/validation"
)

// MaxUploadSize is the largest image accepted by Upload.
const MaxUploadSize = 5 << 20

// uploadExtensions maps the accepted MIME types to the stored extension.
var uploadExtensions = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

type ImageService struct {
	repo   repository.ImageRepository
	store  storage.ObjectStore // nil when no bucket is configured
	logger *slog.Logger
}

func NewImageService(repo repository.ImageRepository, store storage.ObjectStore, logger *slog.Logger) *ImageService {
	return &ImageService{repo: repo, store: store, logger: logger}
}

func (s *ImageService) Create(ctx context.Context, in model.NewImage) (*model.Image, error) {
	if err := validation.CreateImage(&in); err != nil {
		return nil, err
	}

	img, err := s.repo.CreateImage(ctx, in)
	if err != nil {
		s.logger.Error("failed to create image", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating image: %w", err)
	}

	s.logger.Info("image created", slog.String("id", img.ID))
	return img, nil
}

func (s *ImageService) List(ctx context.Context, opts repository.ListOptions) (*model.Page[model.Image], error) {
	page, err := s.repo.ListImages(ctx, listDefaults(opts))
	if err != nil {
		s.logger.Error("failed to list images", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing images: %w", err)
	}
	return page, nil
}

func (s *ImageService) Get(ctx context.Context, id string) (*model.Image, error) {
	img, err := s.repo.FindImage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting image: %w", err)
	}
	if img == nil {
		return nil, apperror.NotFound("Image", "id", id)
	}
	return img, nil
}

func (s *ImageService) Update(ctx context.Context, id string, patch model.ImagePatch) (*model.Image, error) {
	if err := validation.UpdateImage(&patch); err != nil {
		return nil, err
	}

	img, err := s.repo.UpdateImage(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("updating image: %w", err)
	}

	s.logger.Info("image updated", slog.String("id", id))
	return img, nil
}

// Delete removes the row, then the stored object when we host it. A failed
// object delete is logged and otherwise ignored.
func (s *ImageService) Delete(ctx context.Context, id string) error {
	img, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteImage(ctx, id); err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	s.logger.Info("image deleted", slog.String("id", id))

	if img.FileID != nil && *img.FileID != "" && s.store != nil {
		if err := s.store.Delete(ctx, *img.FileID); err != nil {
			s.logger.Warn("failed to delete stored object",
				slog.String("key", *img.FileID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// Upload stores an image file and records it. size must be the exact byte
// count of r.
func (s *ImageService) Upload(ctx context.Context, filename, contentType string, size int64, r io.Reader) (*model.Image, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := uploadExtensions[contentType]
	if !ok {
		return nil, apperror.ValidationFailed("file", "No valid image file found. Supported formats: JPEG, PNG, GIF, WebP, and SVG")
	}
	if size <= 0 {
		return nil, apperror.ValidationFailed("file", "File is empty")
	}
	if size > MaxUploadSize {
		return nil, apperror.ValidationFailed("file", "File too large. Maximum file size is 5MB")
	}

	original := path.Base(strings.TrimSpace(filename))
	if original == "." || original == "/" {
		original = "unknown"
	}

	return s.put(ctx, "images/"+uuid.NewString()+"."+ext, r, size, model.NewImage{
		OriginalName: &original,
		MimeType:     &contentType,
	})
}

// put uploads r under key and inserts the Image row for it. When the insert
// fails the object is removed again.
func (s *ImageService) put(ctx context.Context, key string, r io.Reader, size int64, in model.NewImage) (*model.Image, error) {
	if s.store == nil {
		return nil, apperror.Upstream("Object storage not configured", nil)
	}

	ct := ""
	if in.MimeType != nil {
		ct = *in.MimeType
	}
	if err := s.store.Put(ctx, key, r, size, ct); err != nil {
		return nil, apperror.Upstream("Failed to upload image", err)
	}
	url, err := s.store.URL(ctx, key)
	if err != nil {
		return nil, apperror.Upstream("Failed to resolve image URL", err)
	}

	filename := path.Base(key)
	in.URL = url
	in.FileID = &key
	in.Filename = &filename
	in.Size = &size

	img, err := s.repo.CreateImage(ctx, in)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned object", slog.String("key", key), slog.String("error", delErr.Error()))
		}
		return nil, fmt.Errorf("recording image: %w", err)
	}

	s.logger.Info("image stored", slog.String("id", img.ID), slog.String("key", key), slog.Int64("size", size))
	return img, nil
}

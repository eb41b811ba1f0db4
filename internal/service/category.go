package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/repository"
	"github.com/sakif/altdirectory/internal/validation"
)

type CategoryService struct {
	repo   repository.CategoryRepository
	logger *slog.Logger
}

func NewCategoryService(repo repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{repo: repo, logger: logger}
}

func (s *CategoryService) Create(ctx context.Context, in model.NewCategory) (*model.Category, error) {
	if err := validation.CreateCategory(&in); err != nil {
		return nil, err
	}

	c, err := s.repo.CreateCategory(ctx, in)
	if err != nil {
		s.logger.Error("failed to create category", slog.String("slug", in.Slug), slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating category: %w", err)
	}

	s.logger.Info("category created", slog.String("id", c.ID), slog.String("slug", c.Slug))
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, opts repository.ListOptions) (*model.Page[model.Category], error) {
	page, err := s.repo.ListCategories(ctx, listDefaults(opts))
	if err != nil {
		s.logger.Error("failed to list categories", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return page, nil
}

// Get returns apperror.ErrNotFound when no category has this id.
func (s *CategoryService) Get(ctx context.Context, id string) (*model.Category, error) {
	c, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	if c == nil {
		return nil, apperror.NotFound("Category", "id", id)
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, patch model.CategoryPatch) (*model.Category, error) {
	if err := validation.UpdateCategory(&patch); err != nil {
		return nil, err
	}

	c, err := s.repo.UpdateCategory(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("updating category: %w", err)
	}

	s.logger.Info("category updated", slog.String("id", id))
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}

	s.logger.Info("category deleted", slog.String("id", id))
	return nil
}

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

// AlternativeService manages alternatives and their links to tools.
type AlternativeService struct {
	repo   repository.AlternativeRepository
	links  repository.LinkRepository
	logger *slog.Logger
}

func NewAlternativeService(repo repository.AlternativeRepository, links repository.LinkRepository, logger *slog.Logger) *AlternativeService {
	return &AlternativeService{repo: repo, links: links, logger: logger}
}

func (s *AlternativeService) Create(ctx context.Context, in model.NewAlternative) (*model.Alternative, error) {
	if err := validation.CreateAlternative(&in); err != nil {
		return nil, err
	}

	a, err := s.repo.CreateAlternative(ctx, in)
	if err != nil {
		s.logger.Error("failed to create alternative", slog.String("slug", in.Slug), slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating alternative: %w", err)
	}

	s.logger.Info("alternative created", slog.String("id", a.ID), slog.String("slug", a.Slug))
	return a, nil
}

func (s *AlternativeService) List(ctx context.Context, opts repository.ListOptions) (*model.Page[model.Alternative], error) {
	page, err := s.repo.ListAlternatives(ctx, listDefaults(opts))
	if err != nil {
		s.logger.Error("failed to list alternatives", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing alternatives: %w", err)
	}
	return page, nil
}

func (s *AlternativeService) Get(ctx context.Context, id string) (*model.Alternative, error) {
	a, err := s.repo.FindAlternative(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting alternative: %w", err)
	}
	if a == nil {
		return nil, apperror.NotFound("Alternative", "id", id)
	}
	return a, nil
}

func (s *AlternativeService) Update(ctx context.Context, id string, patch model.AlternativePatch) (*model.Alternative, error) {
	if err := validation.UpdateAlternative(&patch); err != nil {
		return nil, err
	}

	a, err := s.repo.UpdateAlternative(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("updating alternative: %w", err)
	}

	s.logger.Info("alternative updated", slog.String("id", id))
	return a, nil
}

// Delete removes the alternative; its tool links go with it.
func (s *AlternativeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteAlternative(ctx, id); err != nil {
		return fmt.Errorf("deleting alternative: %w", err)
	}

	s.logger.Info("alternative deleted", slog.String("id", id))
	return nil
}

// LinkTool records that toolID is an alternative to alternativeID.
// Linking twice is a no-op.
func (s *AlternativeService) LinkTool(ctx context.Context, alternativeID, toolID string) error {
	if err := s.links.LinkTool(ctx, alternativeID, toolID); err != nil {
		return fmt.Errorf("linking tool: %w", err)
	}

	s.logger.Info("tool linked", slog.String("alternativeID", alternativeID), slog.String("toolID", toolID))
	return nil
}

func (s *AlternativeService) UnlinkTool(ctx context.Context, alternativeID, toolID string) error {
	if err := s.links.UnlinkTool(ctx, alternativeID, toolID); err != nil {
		return fmt.Errorf("unlinking tool: %w", err)
	}

	s.logger.Info("tool unlinked", slog.String("alternativeID", alternativeID), slog.String("toolID", toolID))
	return nil
}

// Tools lists the tools linked to an alternative. Total counts every link
// of the alternative, ignoring the search query.
func (s *AlternativeService) Tools(ctx context.Context, alternativeID string, opts repository.ListOptions) (*model.Page[model.Tool], error) {
	if _, err := s.Get(ctx, alternativeID); err != nil {
		return nil, err
	}

	page, err := s.repo.ListAlternativeTools(ctx, alternativeID, listDefaults(opts))
	if err != nil {
		return nil, fmt.Errorf("listing alternative tools: %w", err)
	}
	return page, nil
}

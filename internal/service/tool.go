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

const (
	sitemapChangeFreq = "weekly"
	sitemapPriority   = 0.8
)

type ToolService struct {
	repo   repository.ToolRepository
	links  repository.LinkRepository
	logger *slog.Logger
}

func NewToolService(repo repository.ToolRepository, links repository.LinkRepository, logger *slog.Logger) *ToolService {
	return &ToolService{repo: repo, links: links, logger: logger}
}

// Create inserts the tool. When in.AlternativeID is set the link is written
// in the same transaction, so a bad alternative id leaves no tool behind.
func (s *ToolService) Create(ctx context.Context, in model.NewTool) (*model.Tool, error) {
	if err := validation.CreateTool(&in); err != nil {
		return nil, err
	}

	t, err := s.repo.CreateTool(ctx, in)
	if err != nil {
		s.logger.Error("failed to create tool", slog.String("slug", in.Slug), slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating tool: %w", err)
	}

	s.logger.Info("tool created", slog.String("id", t.ID), slog.String("slug", t.Slug))
	return t, nil
}

func (s *ToolService) List(ctx context.Context, opts repository.ListOptions) (*model.Page[model.Tool], error) {
	page, err := s.repo.ListTools(ctx, listDefaults(opts))
	if err != nil {
		s.logger.Error("failed to list tools", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing tools: %w", err)
	}
	return page, nil
}

func (s *ToolService) Get(ctx context.Context, id string) (*model.Tool, error) {
	t, err := s.repo.FindTool(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting tool: %w", err)
	}
	if t == nil {
		return nil, apperror.NotFound("Tool", "id", id)
	}
	return t, nil
}

func (s *ToolService) GetBySlug(ctx context.Context, slug string) (*model.Tool, error) {
	t, err := s.repo.FindToolBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("getting tool by slug: %w", err)
	}
	if t == nil {
		return nil, apperror.NotFound("Tool", "slug", slug)
	}
	return t, nil
}

func (s *ToolService) Update(ctx context.Context, id string, patch model.ToolPatch) (*model.Tool, error) {
	if err := validation.UpdateTool(&patch); err != nil {
		return nil, err
	}

	t, err := s.repo.UpdateTool(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("updating tool: %w", err)
	}

	s.logger.Info("tool updated", slog.String("id", id))
	return t, nil
}

func (s *ToolService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteTool(ctx, id); err != nil {
		return fmt.Errorf("deleting tool: %w", err)
	}

	s.logger.Info("tool deleted", slog.String("id", id))
	return nil
}

func (s *ToolService) LinkAlternative(ctx context.Context, toolID, alternativeID string) error {
	if err := s.links.LinkTool(ctx, alternativeID, toolID); err != nil {
		return fmt.Errorf("linking alternative: %w", err)
	}

	s.logger.Info("alternative linked", slog.String("toolID", toolID), slog.String("alternativeID", alternativeID))
	return nil
}

// Alternatives lists what the tool is an alternative to, by name.
func (s *ToolService) Alternatives(ctx context.Context, toolID string) ([]model.Alternative, error) {
	if _, err := s.Get(ctx, toolID); err != nil {
		return nil, err
	}

	alts, err := s.repo.ListToolAlternatives(ctx, toolID)
	if err != nil {
		return nil, fmt.Errorf("listing tool alternatives: %w", err)
	}
	return alts, nil
}

// Sitemap lists every tool page, newest first. A storage failure is logged
// and yields an empty feed; crawlers retry later.
func (s *ToolService) Sitemap(ctx context.Context) []model.SitemapEntry {
	tools, err := s.repo.ListSitemapTools(ctx)
	if err != nil {
		s.logger.Error("failed to build sitemap", slog.String("error", err.Error()))
		return []model.SitemapEntry{}
	}

	entries := make([]model.SitemapEntry, 0, len(tools))
	for _, t := range tools {
		entries = append(entries, model.SitemapEntry{
			Loc:        "/t/" + t.Slug,
			LastMod:    t.UpdatedAt,
			ChangeFreq: sitemapChangeFreq,
			Priority:   sitemapPriority,
		})
	}
	return entries
}

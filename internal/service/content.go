package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/llm"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/resilience"
	"github.com/sakif/altdirectory/internal/scrape"
	"github.com/sakif/altdirectory/internal/validation"
)

// Generation stages reported to a ProgressFunc, in order.
const (
	StageScraping   = "scraping"
	StageGenerating = "generating"
	StageDone       = "done"
)

const (
	maxTaglineRunes     = 60
	maxDescriptionRunes = 160
	maxContentRunes     = 1000

	// maxPageRunes bounds the scraped markdown sent to the model.
	maxPageRunes = 20000
)

const contentSystemPrompt = `You are an expert content creator specializing in reactjs and vuejs alternatives. Your task is to generate high quality, engaging content to display on a directory website. You do not use any catchphrases or marketing speak like "best" or "top", "Empower", "Unleash", "Revolutionize", "Streamline" etc.`

const contentOutputFormat = `Respond with a single JSON object and nothing else, with these string fields:
- "tagline": a compelling tagline (max 60 chars) that captures the tool's unique value proposition. Avoid the tool name, focus on benefits.
- "description": a concise meta description (max 160 chars) highlighting key features and benefits. Use active voice and avoid the tool name.
- "content": a detailed longer description with key benefits (up to 1000 chars). Markdown formatted, starting with a paragraph and using no headings. Highlight important points with bold text, use correct Markdown list syntax and end with a brief conclusion paragraph.`

// ProgressFunc receives each stage as generation moves through it.
type ProgressFunc func(stage string)

// ContentService writes tool page copy from the tool's own website.
type ContentService struct {
	scraper       scrape.Scraper
	generator     llm.TextGenerator
	scrapeBreaker *resilience.Breaker
	llmBreaker    *resilience.Breaker
	logger        *slog.Logger
}

func NewContentService(scraper scrape.Scraper, generator llm.TextGenerator, logger *slog.Logger) *ContentService {
	return &ContentService{
		scraper:       scraper,
		generator:     generator,
		scrapeBreaker: resilience.NewBreaker("scrape", 5, 30*time.Second),
		llmBreaker:    resilience.NewBreaker("llm", 5, 30*time.Second),
		logger:        logger,
	}
}

// WithBreakers replaces the default breakers.
func (s *ContentService) WithBreakers(scraper, generator *resilience.Breaker) *ContentService {
	s.scrapeBreaker = scraper
	s.llmBreaker = generator
	return s
}

// Generate scrapes url and asks the model for a tagline, a description and
// markdown content. progress may be nil.
func (s *ContentService) Generate(ctx context.Context, url string, progress ProgressFunc) (*model.GeneratedContent, error) {
	url, err := validation.SourceURL(url)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(string) {}
	}

	progress(StageScraping)
	var page string
	err = upstream(s.scrapeBreaker, "Failed to scrape website", func() error {
		var err error
		page, err = s.scraper.Scrape(ctx, url)
		return err
	})
	if err != nil {
		s.logger.Error("scrape failed", slog.String("url", url), slog.String("error", err.Error()))
		return nil, err
	}

	progress(StageGenerating)
	var raw string
	err = upstream(s.llmBreaker, "Failed to generate content", func() error {
		var err error
		raw, err = s.generator.GenerateText(ctx, contentSystemPrompt, contentPrompt(page))
		return err
	})
	if err != nil {
		s.logger.Error("generation failed", slog.String("url", url), slog.String("error", err.Error()))
		return nil, err
	}

	out, err := parseGenerated(raw)
	if err != nil {
		s.logger.Error("unusable model output", slog.String("url", url), slog.String("error", err.Error()))
		return nil, apperror.Upstream("Failed to generate content", err)
	}

	progress(StageDone)
	s.logger.Info("content generated", slog.String("url", url))
	return out, nil
}

func contentPrompt(page string) string {
	return fmt.Sprintf("Provide me details for the following website content:\n\n%s\n\n%s",
		clampRunes(page, maxPageRunes), contentOutputFormat)
}

// parseGenerated decodes the model's JSON, tolerating a markdown code fence
// around it, and clamps each field to its limit.
func parseGenerated(raw string) (*model.GeneratedContent, error) {
	var out model.GeneratedContent
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		return nil, fmt.Errorf("decoding model output: %w", err)
	}

	out.Tagline = clampRunes(strings.TrimSpace(out.Tagline), maxTaglineRunes)
	out.Description = clampRunes(strings.TrimSpace(out.Description), maxDescriptionRunes)
	out.Content = clampRunes(strings.TrimSpace(out.Content), maxContentRunes)

	if out.Tagline == "" && out.Description == "" && out.Content == "" {
		return nil, errors.New("model output has no content")
	}
	return &out, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // language tag
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func clampRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/cache"
	"github.com/sakif/altdirectory/internal/favicon"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/render"
	"github.com/sakif/altdirectory/internal/resilience"
	"github.com/sakif/altdirectory/internal/validation"
)

// FaviconFetcher downloads the icon of a domain. *favicon.Fetcher
// implements it.
type FaviconFetcher interface {
	Fetch(ctx context.Context, domain string) (*favicon.Icon, error)
}

// MediaDeps are the collaborators of a MediaService. Cache and the
// breakers are optional.
type MediaDeps struct {
	Favicons          FaviconFetcher
	Renderer          render.Renderer // nil disables screenshots
	Images            *ImageService
	Cache             *cache.Cache
	FaviconTTL        time.Duration
	FaviconBreaker    *resilience.Breaker
	ScreenshotBreaker *resilience.Breaker
	Logger            *slog.Logger
}

// MediaService fetches favicons and screenshots for tool pages and hosts
// them in object storage.
type MediaService struct {
	favicons    FaviconFetcher
	renderer    render.Renderer
	images      *ImageService
	cache       *cache.Cache
	faviconTTL  time.Duration
	group       singleflight.Group
	favBreaker  *resilience.Breaker
	shotBreaker *resilience.Breaker
	logger      *slog.Logger
}

func NewMediaService(d MediaDeps) *MediaService {
	s := &MediaService{
		favicons:    d.Favicons,
		renderer:    d.Renderer,
		images:      d.Images,
		cache:       d.Cache,
		faviconTTL:  d.FaviconTTL,
		favBreaker:  d.FaviconBreaker,
		shotBreaker: d.ScreenshotBreaker,
		logger:      d.Logger,
	}
	if s.renderer == nil {
		s.renderer = render.Disabled{}
	}
	if s.faviconTTL <= 0 {
		s.faviconTTL = 24 * time.Hour
	}
	if s.favBreaker == nil {
		s.favBreaker = resilience.NewBreaker("favicon", 5, 30*time.Second)
	}
	if s.shotBreaker == nil {
		s.shotBreaker = resilience.NewBreaker("screenshot", 5, 30*time.Second)
	}
	return s
}

// Favicon returns the hosted URL of the favicon for websiteURL.
//
// Results are cached per domain, and concurrent requests for the same domain
// share one fetch.
func (s *MediaService) Favicon(ctx context.Context, websiteURL string) (string, error) {
	websiteURL, err := validation.SourceURL(websiteURL)
	if err != nil {
		return "", err
	}
	domain, err := favicon.Domain(websiteURL)
	if err != nil {
		return "", apperror.ValidationFailed("url", "Invalid URL")
	}

	key := "favicon:" + domain
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			s.logger.Debug("favicon cache hit", slog.String("domain", domain))
			return string(v), nil
		}
	}

	// The fetch is shared, so it must not die with the caller that started it.
	v, err, shared := s.group.Do(domain, func() (any, error) {
		return s.fetchFavicon(context.WithoutCancel(ctx), domain)
	})
	if err != nil {
		return "", err
	}
	url := v.(string)
	if shared {
		s.logger.Debug("favicon fetch shared", slog.String("domain", domain))
	}

	if s.cache != nil {
		s.cache.Set(key, []byte(url), s.faviconTTL)
	}
	return url, nil
}

func (s *MediaService) fetchFavicon(ctx context.Context, domain string) (string, error) {
	var icon *favicon.Icon
	err := s.favBreaker.Execute(func() error {
		var err error
		icon, err = s.favicons.Fetch(ctx, domain)
		return err
	})
	if err != nil {
		var allFailed *favicon.AllFailedError
		switch {
		case errors.As(err, &allFailed):
			return "", apperror.Upstream("Failed to fetch favicon from all providers. Last error", allFailed.Last)
		case errors.Is(err, resilience.ErrCircuitOpen):
			return "", apperror.Upstream("Favicon providers unavailable", err)
		}
		return "", apperror.Upstream("Failed to fetch favicon", err)
	}

	originalName := domain + "-favicon"
	img, err := s.images.put(ctx, "favicons/"+uuid.NewString()+".png",
		bytes.NewReader(icon.Data), int64(len(icon.Data)),
		model.NewImage{OriginalName: &originalName, MimeType: model.Ptr("image/png")},
	)
	if err != nil {
		return "", err
	}

	s.logger.Info("favicon stored", slog.String("domain", domain), slog.String("provider", icon.Provider))
	return img.URL, nil
}

// Screenshot captures websiteURL and returns the hosted image URL.
func (s *MediaService) Screenshot(ctx context.Context, websiteURL string) (string, error) {
	websiteURL, err := validation.SourceURL(websiteURL)
	if err != nil {
		return "", err
	}
	if _, off := s.renderer.(render.Disabled); off {
		return "", apperror.Upstream("Screenshot provider not configured", nil)
	}

	var shot *render.Screenshot
	err = s.shotBreaker.Execute(func() error {
		var err error
		shot, err = s.renderer.Capture(ctx, websiteURL, render.DefaultOptions())
		return err
	})
	if err != nil {
		s.logger.Error("screenshot failed", slog.String("url", websiteURL), slog.String("error", err.Error()))
		switch {
		case errors.Is(err, render.ErrNotConfigured):
			return "", apperror.Upstream("Screenshot provider not configured", nil)
		case errors.Is(err, resilience.ErrCircuitOpen):
			return "", apperror.Upstream("Screenshot provider unavailable", err)
		}
		return "", apperror.Upstream("Screenshot provider error", err)
	}

	ct := shot.ContentType
	if ct == "" {
		ct = "image/jpeg"
	}
	originalName := "screenshot.jpg"
	if domain, err := favicon.Domain(websiteURL); err == nil {
		originalName = domain + "-screenshot.jpg"
	}

	img, err := s.images.put(ctx, "screenshots/"+uuid.NewString()+".jpg",
		bytes.NewReader(shot.Data), int64(len(shot.Data)),
		model.NewImage{OriginalName: &originalName, MimeType: &ct},
	)
	if err != nil {
		return "", err
	}

	s.logger.Info("screenshot stored", slog.String("url", websiteURL), slog.String("id", img.ID))
	return img.URL, nil
}

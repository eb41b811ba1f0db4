package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/altdirectory/internal/auth"
	"github.com/sakif/altdirectory/internal/cache"
	"github.com/sakif/altdirectory/internal/config"
	"github.com/sakif/altdirectory/internal/favicon"
	"github.com/sakif/altdirectory/internal/httpclient"
	"github.com/sakif/altdirectory/internal/llm"
	"github.com/sakif/altdirectory/internal/middleware"
	"github.com/sakif/altdirectory/internal/ratelimit"
	"github.com/sakif/altdirectory/internal/render"
	"github.com/sakif/altdirectory/internal/render/chrome"
	"github.com/sakif/altdirectory/internal/render/screenshotone"
	"github.com/sakif/altdirectory/internal/resilience"
	"github.com/sakif/altdirectory/internal/scrape"
	"github.com/sakif/altdirectory/internal/server"
	"github.com/sakif/altdirectory/internal/service"
	"github.com/sakif/altdirectory/internal/storage"
)

// runServe is the composition root: every collaborator is built here once
// and injected. Optional providers that are not configured are logged and
// left out; the endpoints depending on them answer with an upstream error.
func runServe(ctx context.Context, configPath string) error {
	cfg, logger, err := setup(configPath)
	if err != nil {
		return err
	}

	// Closers run in reverse order on the way out.
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("close failed", slog.String("error", err.Error()))
			}
		}
	}()

	// === DATABASE ===
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	closers = append(closers, db)

	// === SHARED INFRASTRUCTURE ===
	client := httpclient.New(cfg.HTTPClient.Timeout)

	c, err := cache.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}
	defer c.Close()

	var limiter middleware.Limiter
	if cfg.Redis.Addr != "" {
		l, err := ratelimit.NewFixedWindowLimiter(ratelimit.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			Prefix:   cfg.Redis.KeyPrefix,
			Limit:    cfg.Redis.RateLimit,
			Window:   cfg.Redis.RateWindow,
			Timeout:  cfg.Redis.DialTimeout,
		})
		if err != nil {
			return fmt.Errorf("creating rate limiter: %w", err)
		}
		closers = append(closers, l)
		limiter = l
	} else {
		logger.Warn("REDIS_ADDR not set, rate limiting is disabled")
	}

	var store storage.ObjectStore
	if cfg.Storage.Endpoint != "" {
		s, err := storage.NewMinioStore(ctx, storage.Options{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("connecting object storage: %w", err)
		}
		store = s
	} else {
		logger.Warn("object storage not configured, uploads and media endpoints will fail")
	}

	renderer, err := newRenderer(cfg, client, logger)
	if err != nil {
		return err
	}
	if cl, ok := renderer.(io.Closer); ok {
		closers = append(closers, cl)
	}

	generator, err := newGenerator(ctx, cfg, client)
	if err != nil {
		return err
	}

	breaker := func(name string) *resilience.Breaker {
		return resilience.NewBreaker(name, cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	}

	// === SERVICES ===
	accounts := service.NewAccountService(db, logger)
	images := service.NewImageService(db, store, logger)
	tools := service.NewToolService(db, db, logger)

	deps := server.Deps{
		Categories:   service.NewCategoryService(db, logger),
		Alternatives: service.NewAlternativeService(db, db, logger),
		Tools:        tools,
		Images:       images,
		Accounts:     accounts,
		Likes:        service.NewLikeService(db, db, logger),
		Media: service.NewMediaService(service.MediaDeps{
			Favicons:          favicon.NewFetcher(client, favicon.DefaultProviders(), logger),
			Renderer:          renderer,
			Images:            images,
			Cache:             c,
			FaviconTTL:        cfg.Cache.FaviconTTL,
			FaviconBreaker:    breaker("favicon"),
			ScreenshotBreaker: breaker("screenshot"),
			Logger:            logger,
		}),
		Content: service.NewContentService(newScraper(cfg, client), generator, logger).
			WithBreakers(breaker("scrape"), breaker("llm")),
		Policy:  auth.NewPolicy(accounts),
		Limiter: limiter,
		Cache:   c,
		DB:      db,
	}

	// === AUTH ===
	var sessions auth.SessionVerifier
	if cfg.Auth.JWKSURL != "" {
		v, err := auth.NewJWKSVerifier(auth.JWKSConfig{
			URL:        cfg.Auth.JWKSURL,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			HTTPClient: client,
		})
		if err != nil {
			return fmt.Errorf("creating session verifier: %w", err)
		}
		sessions = v
	}

	var tokens *auth.TokenService
	if cfg.Auth.JWTSecret != "" {
		tokens, err = auth.NewTokenService(cfg.Auth.JWTSecret)
		if err != nil {
			return err
		}
		if cfg.Auth.GitHubClientID != "" {
			deps.GitHub = auth.NewGitHubProvider(cfg.Auth.GitHubClientID, cfg.Auth.GitHubClientSecret, cfg.Auth.GitHubCallbackURL, client)
			deps.Login = service.NewAuthService(accounts, tokens, logger)
		}
	}
	if sessions == nil && tokens == nil {
		logger.Warn("no identity source configured, member and admin routes will answer 401")
	}
	deps.Authenticator = auth.NewAuthenticator(sessions, tokens, logger)

	// === SERVER ===
	srv := server.New(server.Config{
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		SitemapTTL:      cfg.Cache.SitemapTTL,
		SecureCookies:   cfg.Auth.SecureCookies,
	}, deps, logger)

	return srv.Start()
}

func newRenderer(cfg *config.Config, client *http.Client, logger *slog.Logger) (render.Renderer, error) {
	switch cfg.Screenshot.Provider {
	case "screenshotone":
		return screenshotone.New(client, "", cfg.Screenshot.AccessKey, cfg.Screenshot.SecretKey), nil
	case "chrome":
		ccfg := chrome.DefaultConfig()
		ccfg.Bin = cfg.Screenshot.ChromeBin
		if cfg.Screenshot.PoolSize > 0 {
			ccfg.PoolSize = cfg.Screenshot.PoolSize
		}
		r, err := chrome.New(ccfg, logger)
		if err != nil {
			return nil, fmt.Errorf("starting chrome renderer: %w", err)
		}
		return r, nil
	case "":
		logger.Warn("screenshot provider not configured")
		return render.Disabled{}, nil
	}
	return nil, fmt.Errorf("unknown screenshot provider %q", cfg.Screenshot.Provider)
}

func newScraper(cfg *config.Config, client *http.Client) scrape.Scraper {
	if cfg.Scrape.Provider == "firecrawl" {
		return scrape.NewFirecrawl(client, "", cfg.Scrape.APIKey)
	}
	return scrape.NewJina(client, "", cfg.Scrape.APIKey)
}

func newGenerator(ctx context.Context, cfg *config.Config, client *http.Client) (llm.TextGenerator, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		g, err := llm.NewGemini(ctx, client, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		return g, nil
	case "openrouter", "openai":
		return llm.NewOpenAICompat(client, cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.Server.BaseURL), nil
	}
	return nil, errors.New("unknown llm provider " + cfg.LLM.Provider)
}

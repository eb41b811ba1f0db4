// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It decides which URL patterns map to
// which handler, what access level each route declares, and how the server
// starts and stops.
//
// DEPENDENCY INJECTION FLOW:
// cmd/server builds every collaborator (database, storage, renderers,
// services) and hands them over in Deps. New builds the handlers from the
// services and mounts them; nothing here constructs infrastructure.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sakif/altdirectory/internal/auth"
	"github.com/sakif/altdirectory/internal/cache"
	"github.com/sakif/altdirectory/internal/handler"
	"github.com/sakif/altdirectory/internal/middleware"
	"github.com/sakif/altdirectory/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port            int
	ShutdownTimeout time.Duration
	SitemapTTL      time.Duration
	SecureCookies   bool
}

// Deps are the collaborators the routes are built from. GitHub, Limiter
// and Cache may be nil.
type Deps struct {
	Categories   *service.CategoryService
	Alternatives *service.AlternativeService
	Tools        *service.ToolService
	Images       *service.ImageService
	Accounts     *service.AccountService
	Likes        *service.LikeService
	Media        *service.MediaService
	Content      *service.ContentService
	Login        *service.AuthService

	Authenticator *auth.Authenticator
	Policy        *auth.Policy
	GitHub        *auth.GitHubProvider
	Limiter       middleware.Limiter
	Cache         *cache.Cache
	DB            handler.Pinger
}

// Server represents the HTTP server and its router.
type Server struct {
	router  *chi.Mux
	handler http.Handler
	config  Config
	logger  *slog.Logger
}

// route is one row of the route table. Every route declares its access
// level; there is no other place where protection is decided.
type route struct {
	method  string
	pattern string
	access  auth.Access
	limit   string // rate limit scope, "" for none
	handle  http.HandlerFunc
}

func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	s.setupRoutes(deps)
	s.handler = otelhttp.NewHandler(s.router, "altdirectory")
	return s
}

// Handler returns the root handler, instrumented for tracing.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures middleware and mounts the route table.
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: unique id per request, picked up by the logger
//  2. RealIP: client IP from proxy headers, used by the rate limiter
//  3. Logger
//  4. Recoverer: a panic becomes a 500 instead of a crash
//  5. Authenticator: resolves the identity, never rejects
//
// Per route: Gate (access level), then RateLimit.
func (s *Server) setupRoutes(deps Deps) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	if deps.Authenticator != nil {
		s.router.Use(deps.Authenticator.Middleware)
	}

	s.router.NotFound(handler.NotFound)
	s.router.MethodNotAllowed(handler.MethodNotAllowed)

	for _, rt := range s.routes(deps) {
		mws := []func(http.Handler) http.Handler{middleware.Gate(deps.Policy, rt.access)}
		if rt.limit != "" {
			mws = append(mws, middleware.RateLimit(deps.Limiter, rt.limit, s.logger))
		}
		s.router.With(mws...).Method(rt.method, rt.pattern, rt.handle)
	}
}

func (s *Server) routes(deps Deps) []route {
	categories := handler.NewCategoryHandler(deps.Categories, s.logger)
	alternatives := handler.NewAlternativeHandler(deps.Alternatives, s.logger)
	tools := handler.NewToolHandler(deps.Tools, deps.Accounts, s.logger)
	images := handler.NewImageHandler(deps.Images, s.logger)
	likes := handler.NewLikeHandler(deps.Likes, s.logger)
	media := handler.NewMediaHandler(deps.Media, s.logger)
	generate := handler.NewGenerateHandler(deps.Content, s.logger)
	accounts := handler.NewAuthHandler(deps.Accounts, deps.Login, deps.GitHub, s.config.SecureCookies, s.logger)
	public := handler.NewPublicHandler(deps.Tools, deps.DB, deps.Cache, s.config.SitemapTTL, s.logger)

	const (
		get   = http.MethodGet
		post  = http.MethodPost
		put   = http.MethodPut
		patch = http.MethodPatch
		del   = http.MethodDelete
	)
	pub, member, admin := auth.Public, auth.Member, auth.Admin

	routes := []route{
		{get, "/healthz", pub, "", public.HandleHealth},

		// Tools
		{get, "/api/tools", pub, "", tools.HandleList},
		{post, "/api/tools", admin, "", tools.HandleCreate},
		{post, "/api/tools/generate", admin, "generate", generate.HandleGenerate},
		{get, "/api/tools/slug/{slug}", pub, "", tools.HandleGetBySlug},
		{get, "/api/tools/{id}", pub, "", tools.HandleGet},
		{patch, "/api/tools/{id}", admin, "", tools.HandleUpdate},
		{del, "/api/tools/{id}", admin, "", tools.HandleDelete},
		{get, "/api/tools/{id}/alternatives", pub, "", tools.HandleAlternatives},
		{put, "/api/tools/{id}/alternatives/{alternativeId}", admin, "", tools.HandleLinkAlternative},
		{get, "/api/tools/{id}/likes", pub, "", likes.HandleCount},
		{post, "/api/tools/{id}/like", member, "", likes.HandleLike},
		{del, "/api/tools/{id}/like", member, "", likes.HandleUnlike},

		// Alternatives
		{get, "/api/alternatives", pub, "", alternatives.HandleList},
		{post, "/api/alternatives", admin, "", alternatives.HandleCreate},
		{get, "/api/alternatives/{id}", pub, "", alternatives.HandleGet},
		{patch, "/api/alternatives/{id}", admin, "", alternatives.HandleUpdate},
		{del, "/api/alternatives/{id}", admin, "", alternatives.HandleDelete},
		{get, "/api/alternatives/{id}/tools", pub, "", alternatives.HandleTools},
		{put, "/api/alternatives/{id}/tools/{toolId}", admin, "", alternatives.HandleLinkTool},
		{del, "/api/alternatives/{id}/tools/{toolId}", admin, "", alternatives.HandleUnlinkTool},

		// Categories
		{get, "/api/categories", pub, "", categories.HandleList},
		{post, "/api/categories", admin, "", categories.HandleCreate},
		{get, "/api/categories/{id}", pub, "", categories.HandleGet},
		{patch, "/api/categories/{id}", admin, "", categories.HandleUpdate},
		{del, "/api/categories/{id}", admin, "", categories.HandleDelete},

		// Images
		{get, "/api/images", admin, "", images.HandleList},
		{post, "/api/images", admin, "", images.HandleCreate},
		{post, "/api/images/upload", admin, "upload", images.HandleUpload},
		{get, "/api/images/{id}", admin, "", images.HandleGet},
		{patch, "/api/images/{id}", admin, "", images.HandleUpdate},
		{del, "/api/images/{id}", admin, "", images.HandleDelete},

		// Media
		{post, "/api/media/favicon", admin, "favicon", media.HandleFavicon},
		{post, "/api/media/screenshot", admin, "screenshot", media.HandleScreenshot},

		// Accounts
		{post, "/api/auth/sync", member, "", accounts.HandleSync},
		{get, "/api/auth/me", member, "", accounts.HandleMe},
		{post, "/auth/logout", pub, "", accounts.HandleLogout},

		// Public and legacy surfaces
		{get, "/api/public/tools", pub, "", tools.HandleList},
		{get, "/api/public/tools/slug/{slug}", pub, "", tools.HandleGetBySlug},
		{get, "/api/public/alternatives", pub, "", alternatives.HandleList},
		{get, "/api/get-tool", pub, "", public.HandleGetTool},
		{get, "/api/__sitemap__/tools", pub, "", public.HandleSitemap},
	}

	if deps.GitHub != nil && deps.Login != nil {
		routes = append(routes,
			route{get, "/auth/github/login", pub, "", accounts.HandleGitHubLogin},
			route{get, "/auth/github/callback", pub, "", accounts.HandleGitHubCallback},
		)
	} else {
		s.logger.Warn("GitHub login not configured, /auth/github routes disabled")
	}
	return routes
}

// Start runs the HTTP server until SIGINT or SIGTERM, then shuts down
// gracefully: new connections stop, in-flight requests get
// ShutdownTimeout to finish.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Generation streams for up to a couple of minutes.
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

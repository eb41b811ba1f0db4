package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/cache"
	"github.com/sakif/altdirectory/internal/model"
)

const sitemapCacheKey = "sitemap:tools"

// SitemapSource lists the entries of the tools sitemap.
type SitemapSource interface {
	Sitemap(ctx context.Context) []model.SitemapEntry
}

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PublicHandler serves the crawler and legacy surfaces: the sitemap feed,
// the old get-tool redirect and the health check.
type PublicHandler struct {
	tools      SitemapSource
	db         Pinger
	cache      *cache.Cache // optional
	sitemapTTL time.Duration
	logger     *slog.Logger
}

func NewPublicHandler(tools SitemapSource, db Pinger, c *cache.Cache, sitemapTTL time.Duration, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{tools: tools, db: db, cache: c, sitemapTTL: sitemapTTL, logger: logger}
}

// HandleSitemap returns every tool page for the sitemap module.
//
// HTTP: GET /api/__sitemap__/tools
// RESPONSE: [{"loc": "/t/pinia", "lastmod": "...", "changefreq": "weekly", "priority": 0.8}]
//
// The encoded feed is cached for sitemapTTL; crawlers hit it far more often
// than tools change.
func (h *PublicHandler) HandleSitemap(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if b, ok := h.cache.Get(sitemapCacheKey); ok {
			writeRawJSON(w, b)
			return
		}
	}

	b, err := json.Marshal(h.tools.Sitemap(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}
	if h.cache != nil && h.sitemapTTL > 0 {
		h.cache.Set(sitemapCacheKey, b, h.sitemapTTL)
	}
	writeRawJSON(w, b)
}

// HandleGetTool is the legacy lookup kept for old links.
//
// HTTP: GET /api/get-tool?slug=pinia → 302 /api/tools/slug/pinia
func (h *PublicHandler) HandleGetTool(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.URL.Query().Get("slug"))
	if slug == "" {
		WriteError(w, apperror.ValidationFailed("slug", "Slug is required"))
		return
	}
	http.Redirect(w, r, "/api/tools/slug/"+url.PathEscape(slug), http.StatusFound)
}

// HandleHealth reports liveness and database reachability.
//
// HTTP: GET /healthz
func (h *PublicHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeRawJSON(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

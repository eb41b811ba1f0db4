package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// MediaFetcher is the part of service.MediaService the handler needs.
type MediaFetcher interface {
	Favicon(ctx context.Context, websiteURL string) (string, error)
	Screenshot(ctx context.Context, websiteURL string) (string, error)
}

// urlRequest is the body shared by the media and generate endpoints.
type urlRequest struct {
	URL string `json:"url"`
}

// MediaHandler fetches favicons and screenshots and answers with the hosted
// image URL.
type MediaHandler struct {
	media  MediaFetcher
	logger *slog.Logger
}

func NewMediaHandler(media MediaFetcher, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{media: media, logger: logger}
}

// HandleFavicon returns the hosted favicon URL for a website.
//
// HTTP: POST /api/media/favicon
// REQUEST BODY: {"url": "https://pinia.vuejs.org"}
// RESPONSE: {"success": true, "data": "https://cdn.../favicons/<uuid>.png", ...}
func (h *MediaHandler) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	url, err := h.media.Favicon(r.Context(), req.URL)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, url, "Favicon fetched successfully")
}

// HandleScreenshot captures a website and returns the hosted image URL.
//
// HTTP: POST /api/media/screenshot
// REQUEST BODY: {"url": "https://pinia.vuejs.org"}
func (h *MediaHandler) HandleScreenshot(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	url, err := h.media.Screenshot(r.Context(), req.URL)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, url, "Screenshot captured successfully")
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/service"
	"github.com/sakif/altdirectory/internal/validation"
)

// ContentGenerator is the part of service.ContentService the handler needs.
type ContentGenerator interface {
	Generate(ctx context.Context, url string, progress service.ProgressFunc) (*model.GeneratedContent, error)
}

// GenerateHandler drafts tool copy from a website.
type GenerateHandler struct {
	content ContentGenerator
	logger  *slog.Logger
}

func NewGenerateHandler(content ContentGenerator, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{content: content, logger: logger}
}

// HandleGenerate scrapes the url and returns {tagline, description, content}.
//
// HTTP: POST /api/tools/generate
// REQUEST BODY: {"url": "https://pinia.vuejs.org"}
//
// STREAMING:
// Generation takes several seconds. A client sending
// "Accept: text/event-stream" gets Server-Sent Events instead of one JSON
// body:
//
//	event: progress   data: {"stage":"scraping"}
//	event: progress   data: {"stage":"generating"}
//	event: progress   data: {"stage":"done"}
//	event: result     data: {"tagline":"...","description":"...","content":"..."}
//
// or, on failure, a single "error" event carrying statusCode and message.
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	// Checked before the stream opens so a bad url still gets its 400.
	url, err := validation.SourceURL(req.URL)
	if err != nil {
		WriteError(w, err)
		return
	}

	if !wantsEventStream(r) {
		out, err := h.content.Generate(r.Context(), url, nil)
		if err != nil {
			WriteError(w, err)
			return
		}
		writeData(w, http.StatusOK, out, "Content generated successfully")
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(event string, data any) {
		if err := writeEvent(w, event, data); err != nil {
			h.logger.Debug("sse write failed", slog.String("event", event), slog.String("error", err.Error()))
			return
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			h.logger.Debug("sse flush failed", slog.String("error", err.Error()))
		}
	}

	out, err := h.content.Generate(r.Context(), url, func(stage string) {
		send("progress", map[string]string{"stage": stage})
	})
	if err != nil {
		status, message := eventError(err)
		send("error", map[string]any{"statusCode": status, "message": message})
		return
	}
	send("result", out)
}

func wantsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
	return err
}

// eventError mirrors WriteError for a stream whose status line is already
// sent.
func eventError(err error) (int, string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		slog.Error("unhandled error", slog.String("error", err.Error()))
		return http.StatusInternalServerError, "An internal error occurred"
	}
	return statusFor(appErr), appErr.Message
}

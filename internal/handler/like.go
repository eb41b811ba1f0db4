package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/auth"
	"github.com/sakif/altdirectory/internal/service"
)

type LikeHandler struct {
	likes  *service.LikeService
	logger *slog.Logger
}

func NewLikeHandler(likes *service.LikeService, logger *slog.Logger) *LikeHandler {
	return &LikeHandler{likes: likes, logger: logger}
}

// HTTP: GET /api/tools/{id}/likes
// RESPONSE: {"success": true, "data": {"count": 3}, ...}
func (h *LikeHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	n, err := h.likes.Count(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"count": n}, "Likes retrieved successfully")
}

// HandleLike records a like from the caller. The caller must have synced an
// account first.
//
// HTTP: POST /api/tools/{id}/like
func (h *LikeHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	toolID, userID, ok := h.ids(w, r)
	if !ok {
		return
	}
	like, err := h.likes.Like(r.Context(), userID, toolID)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, like, "Like created successfully")
}

// HTTP: DELETE /api/tools/{id}/like
func (h *LikeHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	toolID, userID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if err := h.likes.Unlike(r.Context(), userID, toolID); err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "Like deleted successfully")
}

func (h *LikeHandler) ids(w http.ResponseWriter, r *http.Request) (toolID, userID string, ok bool) {
	toolID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return "", "", false
	}
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, apperror.Unauthorized("Unauthorized"))
		return "", "", false
	}
	return toolID, id.UserID, true
}

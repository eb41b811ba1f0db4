package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/service"
	"github.com/sakif/altdirectory/internal/validation"
)

// AlternativeHandler serves alternatives and their tool links.
type AlternativeHandler struct {
	alternatives *service.AlternativeService
	logger       *slog.Logger
}

func NewAlternativeHandler(alternatives *service.AlternativeService, logger *slog.Logger) *AlternativeHandler {
	return &AlternativeHandler{alternatives: alternatives, logger: logger}
}

// HandleList returns one page of alternatives. It backs both the admin
// listing and /api/public/alternatives.
//
// HTTP: GET /api/alternatives?page=&limit=&q=
func (h *AlternativeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := validation.Pagination(r.URL.Query())
	if err != nil {
		WriteError(w, err)
		return
	}
	page, err := h.alternatives.List(r.Context(), opts)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HTTP: GET /api/alternatives/{id}
func (h *AlternativeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	a, err := h.alternatives.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, a, "Alternative retrieved successfully")
}

// HTTP: POST /api/alternatives
func (h *AlternativeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewAlternative
	if err := decodeJSON(w, r, &in); err != nil {
		WriteError(w, err)
		return
	}
	a, err := h.alternatives.Create(r.Context(), in)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, a, "Alternative created successfully")
}

// HTTP: PATCH /api/alternatives/{id}
func (h *AlternativeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	var patch model.AlternativePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		WriteError(w, err)
		return
	}
	a, err := h.alternatives.Update(r.Context(), id, patch)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, a, "Alternative updated successfully")
}

// HTTP: DELETE /api/alternatives/{id}
func (h *AlternativeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.alternatives.Delete(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "Alternative deleted successfully")
}

// HandleTools lists the tools linked to an alternative.
//
// HTTP: GET /api/alternatives/{id}/tools?page=&limit=
func (h *AlternativeHandler) HandleTools(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	opts, err := validation.Pagination(r.URL.Query())
	if err != nil {
		WriteError(w, err)
		return
	}
	page, err := h.alternatives.Tools(r.Context(), id, opts)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleLinkTool links an existing tool. Linking twice is a no-op.
//
// HTTP: PUT /api/alternatives/{id}/tools/{toolId}
func (h *AlternativeHandler) HandleLinkTool(w http.ResponseWriter, r *http.Request) {
	altID, toolID, ok := h.linkIDs(w, r)
	if !ok {
		return
	}
	if err := h.alternatives.LinkTool(r.Context(), altID, toolID); err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "Tool linked successfully")
}

// HTTP: DELETE /api/alternatives/{id}/tools/{toolId}
func (h *AlternativeHandler) HandleUnlinkTool(w http.ResponseWriter, r *http.Request) {
	altID, toolID, ok := h.linkIDs(w, r)
	if !ok {
		return
	}
	if err := h.alternatives.UnlinkTool(r.Context(), altID, toolID); err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "Tool unlinked successfully")
}

func (h *AlternativeHandler) linkIDs(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	altID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return "", "", false
	}
	toolID, err := pathID(r, "toolId")
	if err != nil {
		WriteError(w, err)
		return "", "", false
	}
	return altID, toolID, true
}

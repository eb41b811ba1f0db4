package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/altdirectory/internal/auth"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/service"
	"github.com/sakif/altdirectory/internal/validation"
)

// ToolHandler serves the tool catalogue.
type ToolHandler struct {
	tools    *service.ToolService
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewToolHandler creates a ToolHandler. accounts is used to record the
// submitting account on create.
func NewToolHandler(tools *service.ToolService, accounts *service.AccountService, logger *slog.Logger) *ToolHandler {
	return &ToolHandler{tools: tools, accounts: accounts, logger: logger}
}

// HandleList returns one page of tools. It backs both the admin listing and
// /api/public/tools.
//
// HTTP: GET /api/tools?page=&limit=&q=
func (h *ToolHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := validation.Pagination(r.URL.Query())
	if err != nil {
		WriteError(w, err)
		return
	}
	page, err := h.tools.List(r.Context(), opts)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HTTP: GET /api/tools/{id}
func (h *ToolHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	t, err := h.tools.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, t, "Tool retrieved successfully")
}

// HandleGetBySlug is the lookup used by tool pages.
//
// HTTP: GET /api/tools/slug/{slug}
func (h *ToolHandler) HandleGetBySlug(w http.ResponseWriter, r *http.Request) {
	slug, err := validation.Slug(chi.URLParam(r, "slug"))
	if err != nil {
		WriteError(w, err)
		return
	}
	t, err := h.tools.GetBySlug(r.Context(), slug)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, t, "Tool retrieved successfully")
}

// HandleCreate adds a tool, optionally linked to an alternative in the same
// write.
//
// HTTP: POST /api/tools
// REQUEST BODY: {"name": "Pinia", "slug": "pinia", "websiteUrl": "https://pinia.vuejs.org", "alternativeId": "..."}
func (h *ToolHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewTool
	if err := decodeJSON(w, r, &in); err != nil {
		WriteError(w, err)
		return
	}
	in.AccountID = h.submitter(r)
	t, err := h.tools.Create(r.Context(), in)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, t, "Tool created successfully")
}

// HTTP: PATCH /api/tools/{id}
func (h *ToolHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	var patch model.ToolPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		WriteError(w, err)
		return
	}
	t, err := h.tools.Update(r.Context(), id, patch)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, t, "Tool updated successfully")
}

// HTTP: DELETE /api/tools/{id}
func (h *ToolHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.tools.Delete(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "Tool deleted successfully")
}

// HandleAlternatives lists the alternatives a tool is linked to.
//
// HTTP: GET /api/tools/{id}/alternatives
func (h *ToolHandler) HandleAlternatives(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	alts, err := h.tools.Alternatives(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, alts, "Alternatives retrieved successfully")
}

// HandleLinkAlternative links the tool to an existing alternative. Linking
// twice is a no-op.
//
// HTTP: PUT /api/tools/{id}/alternatives/{alternativeId}
func (h *ToolHandler) HandleLinkAlternative(w http.ResponseWriter, r *http.Request) {
	toolID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	altID, err := pathID(r, "alternativeId")
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.tools.LinkAlternative(r.Context(), toolID, altID); err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "Alternative linked successfully")
}

// submitter returns the account id of the caller, or nil when the caller
// has not synced an account.
func (h *ToolHandler) submitter(r *http.Request) *string {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok || h.accounts == nil {
		return nil
	}
	a, err := h.accounts.FindByUserID(r.Context(), id.UserID)
	if err != nil {
		h.logger.Debug("tool submitter not recorded", slog.String("userID", id.UserID), slog.String("error", err.Error()))
		return nil
	}
	return &a.ID
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/service"
	"github.com/sakif/altdirectory/internal/validation"
)

// CategoryHandler manages CRUD operations for categories.
//
// Every handler in this package follows the same order:
//  1. validate the path id
//  2. validate the query or decode the body (the service checks the fields)
//  3. call the service
//  4. absence is already a NotFound error from the service
//  5. wrap the result in the envelope
type CategoryHandler struct {
	categories *service.CategoryService
	logger     *slog.Logger
}

func NewCategoryHandler(categories *service.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

// HandleList returns one page of categories.
//
// HTTP: GET /api/categories?page=1&limit=20&q=state
func (h *CategoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := validation.Pagination(r.URL.Query())
	if err != nil {
		WriteError(w, err)
		return
	}
	page, err := h.categories.List(r.Context(), opts)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleGet returns a single category.
//
// HTTP: GET /api/categories/{id}
func (h *CategoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	c, err := h.categories.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, c, "Category retrieved successfully")
}

// HandleCreate adds a category.
//
// HTTP: POST /api/categories
// REQUEST BODY: {"name": "State Management", "slug": "state-management"}
func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewCategory
	if err := decodeJSON(w, r, &in); err != nil {
		WriteError(w, err)
		return
	}
	c, err := h.categories.Create(r.Context(), in)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, c, "Category created successfully")
}

// HandleUpdate applies a partial update.
//
// HTTP: PATCH /api/categories/{id}
func (h *CategoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	var patch model.CategoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		WriteError(w, err)
		return
	}
	c, err := h.categories.Update(r.Context(), id, patch)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, c, "Category updated successfully")
}

// HandleDelete removes a category. Tools in it keep existing with a null
// categoryId.
//
// HTTP: DELETE /api/categories/{id}
func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.categories.Delete(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "Category deleted successfully")
}

// pathID reads and validates a URL parameter holding a record id.
func pathID(r *http.Request, name string) (string, error) {
	return validation.ID(chi.URLParam(r, name))
}

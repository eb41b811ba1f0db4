package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/service"
	"github.com/sakif/altdirectory/internal/validation"
)

// multipartOverhead is the room left for boundaries and part headers on top
// of the file itself.
const multipartOverhead = 512 << 10

// ImageHandler serves image records and file uploads. All routes are admin
// only.
type ImageHandler struct {
	images *service.ImageService
	logger *slog.Logger
}

func NewImageHandler(images *service.ImageService, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{images: images, logger: logger}
}

// HTTP: GET /api/images?page=&limit=&q=
func (h *ImageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := validation.Pagination(r.URL.Query())
	if err != nil {
		WriteError(w, err)
		return
	}
	page, err := h.images.List(r.Context(), opts)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HTTP: GET /api/images/{id}
func (h *ImageHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	img, err := h.images.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, img, "Image retrieved successfully")
}

// HandleCreate records an image hosted elsewhere.
//
// HTTP: POST /api/images
func (h *ImageHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewImage
	if err := decodeJSON(w, r, &in); err != nil {
		WriteError(w, err)
		return
	}
	img, err := h.images.Create(r.Context(), in)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, img, "Image created successfully")
}

// HTTP: PATCH /api/images/{id}
func (h *ImageHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	var patch model.ImagePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		WriteError(w, err)
		return
	}
	img, err := h.images.Update(r.Context(), id, patch)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, img, "Image updated successfully")
}

// HandleDelete removes the record and, for hosted files, the stored object.
//
// HTTP: DELETE /api/images/{id}
func (h *ImageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.images.Delete(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "Image deleted successfully")
}

// HandleUpload stores the multipart part named "file".
//
// HTTP: POST /api/images/upload
// CONTENT TYPE: multipart/form-data
//
// The body is capped before parsing so an oversized upload is refused
// without being buffered to disk.
func (h *ImageHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, apperror.ValidationFailed("file", "File too large. Maximum file size is 5MB"))
			return
		}
		WriteError(w, apperror.ValidationFailed("file", "No form data provided"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, apperror.ValidationFailed("file", "No form data provided"))
		return
	}
	defer file.Close()

	img, err := h.images.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, img, "Image uploaded successfully")
}

package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/altdirectory/internal/handler"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/service"
)

// uploadRequest builds a multipart body with one "file" part.
func uploadRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImageHandler_Upload(t *testing.T) {
	db := newTestDB(t)
	store := newMemStore()
	h := handler.NewImageHandler(service.NewImageService(db, store, testLogger), testLogger)

	rr := do(t, http.MethodPost, "/api/images/upload", h.HandleUpload,
		uploadRequest(t, "file", "logo.png", "image/png", []byte("\x89PNG fake")))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var img model.Image
	env := decodeEnvelope(t, rr, &img)
	assert.Equal(t, "Image uploaded successfully", env.Message)

	keys := store.keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "images/"))
	assert.True(t, strings.HasSuffix(keys[0], ".png"))
	assert.Equal(t, "https://cdn.test/"+keys[0], img.URL)
	require.NotNil(t, img.OriginalName)
	assert.Equal(t, "logo.png", *img.OriginalName)
	require.NotNil(t, img.Size)
	assert.Equal(t, int64(9), *img.Size)
}

func TestImageHandler_UploadRejects(t *testing.T) {
	db := newTestDB(t)
	store := newMemStore()
	h := handler.NewImageHandler(service.NewImageService(db, store, testLogger), testLogger)

	tests := []struct {
		name    string
		req     *http.Request
		message string
	}{
		{
			name:    "unsupported type",
			req:     uploadRequest(t, "file", "notes.txt", "text/plain", []byte("hello")),
			message: "No valid image file found. Supported formats: JPEG, PNG, GIF, WebP, and SVG",
		},
		{
			name:    "empty file",
			req:     uploadRequest(t, "file", "empty.png", "image/png", nil),
			message: "File is empty",
		},
		{
			name:    "wrong field",
			req:     uploadRequest(t, "image", "logo.png", "image/png", []byte("png")),
			message: "No form data provided",
		},
		{
			name:    "not multipart",
			req:     jsonRequest(http.MethodPost, "/api/images/upload", `{"url":"x"}`),
			message: "No form data provided",
		},
		{
			name:    "too large",
			req:     uploadRequest(t, "file", "huge.png", "image/png", bytes.Repeat([]byte{'x'}, service.MaxUploadSize+1<<20)),
			message: "File too large. Maximum file size is 5MB",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, http.MethodPost, "/api/images/upload", h.HandleUpload, tt.req)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			body := decodeError(t, rr)
			assert.Equal(t, tt.message, body.Message)
			require.NotNil(t, body.Data)
			assert.Equal(t, "file", body.Data.Errors[0].Field)
		})
	}
	assert.Empty(t, store.keys(), "nothing is stored for a rejected upload")
}

func TestImageHandler_DeleteRemovesObject(t *testing.T) {
	db := newTestDB(t)
	store := newMemStore()
	h := handler.NewImageHandler(service.NewImageService(db, store, testLogger), testLogger)

	rr := do(t, http.MethodPost, "/api/images/upload", h.HandleUpload,
		uploadRequest(t, "file", "logo.webp", "image/webp", []byte("webp")))
	require.Equal(t, http.StatusOK, rr.Code)
	var img model.Image
	decodeEnvelope(t, rr, &img)

	rr = do(t, http.MethodDelete, "/api/images/{id}", h.HandleDelete,
		jsonRequest(http.MethodDelete, "/api/images/"+img.ID, ""))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, store.keys())
}

func TestImageHandler_CreateFromURL(t *testing.T) {
	db := newTestDB(t)
	h := handler.NewImageHandler(service.NewImageService(db, nil, testLogger), testLogger)

	rr := do(t, http.MethodPost, "/api/images", h.HandleCreate,
		jsonRequest(http.MethodPost, "/api/images", `{"url":"https://cdn.test/a.png","size":-1}`))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, http.MethodPost, "/api/images", h.HandleCreate,
		jsonRequest(http.MethodPost, "/api/images", `{"url":"https://cdn.test/a.png"}`))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

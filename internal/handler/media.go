package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/msomdec/socialfeed/internal/domain"
	"github.com/msomdec/socialfeed/internal/service"
)

// MediaHandler uploads and serves images.
type MediaHandler struct {
	responder
	media *service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(media *service.MediaService, debug bool) *MediaHandler {
	return &MediaHandler{responder: responder{debug: debug}, media: media}
}

// HandleUpload stores up to five images from the "images" form field.
// POST /media
// Response: {"media": [{"id":"...","url":"..."}]}
func (h *MediaHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxPostMedia*service.MaxMediaSize+maxJSONBody)
	if err := r.ParseMultipartForm(service.MaxMediaSize); err != nil {
		h.writeServiceError(w, r, fmt.Errorf("%w: malformed multipart body", domain.ErrInvalidInput))
		return
	}

	headers := r.MultipartForm.File["images"]
	switch {
	case len(headers) == 0:
		h.writeServiceError(w, r, &domain.ValidationError{Fields: []domain.FieldError{{Field: "images", Message: "no files uploaded"}}})
		return
	case len(headers) > service.MaxPostMedia:
		h.writeServiceError(w, r, &domain.ValidationError{Fields: []domain.FieldError{{
			Field:   "images",
			Message: fmt.Sprintf("at most %d images per upload", service.MaxPostMedia),
		}}})
		return
	}

	files := make([]domain.MediaFile, len(headers))
	for i, fh := range headers {
		f, err := readFormFile(fh)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		files[i] = f
	}

	assets, err := h.media.UploadMany(r.Context(), caller, domain.FolderPosts, files)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Media uploaded successfully", map[string]any{"media": toMediaDTOs(assets)})
}

// HandleServe streams a stored image. Keys are random and never reused,
// so responses are cacheable indefinitely.
// GET /media/{key...}
func (h *MediaHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.media.Open(r.Context(), r.PathValue("key"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

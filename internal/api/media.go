package api

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/soundscapelab/soundscape/internal/mediastore"
	"github.com/soundscapelab/soundscape/internal/models"
	"github.com/soundscapelab/soundscape/internal/noteservice"
)

const maxImageBytes = 20 << 20 // 20 MB

// MediaHandler serves stored media files and accepts image imports.
type MediaHandler struct {
	store mediastore.Provider
	svc   *noteservice.Service
}

// NewMediaHandler creates a handler backed by the media store.
func NewMediaHandler(store mediastore.Provider, svc *noteservice.Service) *MediaHandler {
	return &MediaHandler{store: store, svc: svc}
}

// ServeFile handles GET /media/{category}/{filename}. The store resolves the
// reference inside its root, so traversal attempts fail before any disk I/O.
func (h *MediaHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	cat := models.Category(chi.URLParam(r, "category"))
	if !cat.Valid() {
		http.Error(w, "unknown media category", http.StatusBadRequest)
		return
	}
	ref := models.MediaReference{Category: cat, Name: chi.URLParam(r, "filename")}

	abs, err := h.store.Abs(ref)
	if err != nil {
		http.Error(w, "invalid filename", http.StatusBadRequest)
		return
	}
	if !h.store.Exists(ref) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// ImportImage handles POST /api/media/images (multipart/form-data, field "file").
//
//	@Summary		Import an image for later attachment to a note
//	@Tags			media
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Image file"
//	@Success		201		{object}	ImageImportResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/media/images [post]
func (h *MediaHandler) ImportImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	ref, err := h.svc.ImportImage(r.Context(), file, filepath.Ext(header.Filename))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ImageImportResponse{
		Image: toMediaRef(ref),
		URL:   "/media/" + ref.String(),
	})
}

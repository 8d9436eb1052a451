package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-finder/internal/database"
)

// PhotosHandler serves photo metadata
type PhotosHandler struct {
	photos database.PhotoReader
	logger *slog.Logger
}

// NewPhotosHandler creates a new photos handler
func NewPhotosHandler(photos database.PhotoReader, logger *slog.Logger) *PhotosHandler {
	return &PhotosHandler{photos: photos, logger: logger}
}

// PhotoResponse represents a photo in API responses
type PhotoResponse struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	IndexedAt time.Time `json:"indexed_at"`
}

// Get returns metadata for a single photo
func (h *PhotosHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid photo id")
		return
	}

	photo, err := h.photos.GetPhoto(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get photo", "photo_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if photo == nil {
		respondError(w, http.StatusNotFound, "photo not found")
		return
	}

	respondJSON(w, http.StatusOK, PhotoResponse{
		ID:        photo.ID,
		Filename:  photo.Filename,
		Path:      photo.Path,
		Width:     photo.Width,
		Height:    photo.Height,
		IndexedAt: photo.IndexedAt,
	})
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"

	"github.com/kozaktomas/face-finder/internal/config"
	"github.com/kozaktomas/face-finder/internal/database"
	"github.com/kozaktomas/face-finder/internal/detector"
	"github.com/kozaktomas/face-finder/internal/facematch"
)

// FaceDetector detects faces in an image and returns their embeddings
type FaceDetector interface {
	DetectFaces(ctx context.Context, imageData []byte) (*detector.FaceResponse, error)
}

// FacesHandler handles face detection, temp storage and similarity search
type FacesHandler struct {
	engine   *facematch.Engine
	detector FaceDetector
	photos   database.PhotoReader
	upload   config.UploadConfig
	logger   *slog.Logger
}

// NewFacesHandler creates a new faces handler
func NewFacesHandler(engine *facematch.Engine, det FaceDetector, photos database.PhotoReader, upload config.UploadConfig, logger *slog.Logger) *FacesHandler {
	return &FacesHandler{
		engine:   engine,
		detector: det,
		photos:   photos,
		upload:   upload,
		logger:   logger,
	}
}

// DetectedFace is a face found in an uploaded image, searchable by TempID
type DetectedFace struct {
	TempID string        `json:"temp_id"`
	BBox   database.BBox `json:"bbox"`
	Score  float64       `json:"score"`
}

// ImageSize holds the dimensions of the uploaded image
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DetectResponse represents the response of the detect endpoint
type DetectResponse struct {
	Faces     []DetectedFace `json:"faces"`
	ImageSize ImageSize      `json:"image_size"`
}

// Detect accepts a multipart image upload, detects faces and stores each
// face embedding as a temp face.
func (h *FacesHandler) Detect(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.upload.MaxSize {
		respondError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxSize)
	if err := r.ParseMultipartForm(h.upload.MaxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	width, height, err := detector.DecodeImageSize(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid image file")
		return
	}

	result, err := h.detector.DetectFaces(r.Context(), data)
	if err != nil {
		h.logger.Error("face detection failed", "error", err)
		respondError(w, http.StatusBadGateway, "face detection failed")
		return
	}
	if result == nil || len(result.Faces) == 0 {
		respondError(w, http.StatusBadRequest, "no faces detected in the image")
		return
	}

	faces := make([]DetectedFace, 0, len(result.Faces))
	for _, face := range result.Faces {
		bbox, ok := facematch.ClampBBox(face.BBox, width, height)
		if !ok || facematch.IsTooSmall(bbox, h.upload.MinFaceSize) {
			continue
		}

		tempID, err := h.engine.StoreTempFace(face.Embedding)
		if err != nil {
			h.logger.Error("detector returned unusable embedding",
				"face_index", face.FaceIndex, "dim", len(face.Embedding), "error", err)
			respondError(w, http.StatusBadGateway, "face detector returned invalid embedding")
			return
		}

		faces = append(faces, DetectedFace{
			TempID: tempID,
			BBox:   bbox,
			Score:  face.DetScore,
		})
	}

	if len(faces) == 0 {
		respondError(w, http.StatusBadRequest, "no valid faces detected (faces too small)")
		return
	}

	facematch.SortLeftToRight(faces, func(f DetectedFace) database.BBox { return f.BBox })

	h.logger.Info("faces detected", "count", len(faces), "width", width, "height", height)

	respondJSON(w, http.StatusOK, DetectResponse{
		Faces:     faces,
		ImageSize: ImageSize{Width: width, Height: height},
	})
}

// StoreTempRequest carries a raw embedding from a client-side detector
type StoreTempRequest struct {
	Embedding []float32 `json:"embedding"`
}

// StoreTempResponse returns the key of the stored temp face
type StoreTempResponse struct {
	TempID string `json:"temp_id"`
}

// StoreTemp stores a raw embedding as a temp face
func (h *FacesHandler) StoreTemp(w http.ResponseWriter, r *http.Request) {
	var req StoreTempRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	tempID, err := h.engine.StoreTempFace(req.Embedding)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, StoreTempResponse{TempID: tempID})
}

// SearchRequest represents a similarity search for a temp face
type SearchRequest struct {
	TempFaceID string  `json:"temp_face_id"`
	Threshold  float64 `json:"threshold"`
	Limit      int     `json:"limit"`
}

// MatchResponse is a single matched photo
type MatchResponse struct {
	PhotoID    int64   `json:"photo_id"`
	FaceID     int64   `json:"face_id"`
	Similarity float64 `json:"similarity"`
	Filename   string  `json:"filename"`
}

// SearchResponse represents the response of the search endpoint
type SearchResponse struct {
	Matches []MatchResponse `json:"matches"`
	Total   int             `json:"total"`
}

// Search finds photos whose faces are similar to a temp face
func (h *FacesHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.TempFaceID == "" {
		respondError(w, http.StatusBadRequest, "temp_face_id is required")
		return
	}

	if req.Limit < 0 {
		respondError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}

	// Zero means "not set" for both fields; any non-zero threshold is used as given.
	threshold, limit := h.engine.Defaults()
	if req.Threshold != 0 {
		threshold = req.Threshold
	}
	if req.Limit > 0 {
		limit = req.Limit
	}

	results, err := h.engine.Search(req.TempFaceID, threshold, limit)
	if err != nil {
		h.logger.Error("face search failed", "temp_face_id", sanitizeForLog(req.TempFaceID), "error", err)
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}

	matches := make([]MatchResponse, 0, len(results))
	for _, res := range results {
		photo, err := h.photos.GetPhoto(r.Context(), res.PhotoID)
		if err != nil {
			h.logger.Warn("failed to load matched photo", "photo_id", res.PhotoID, "error", err)
			continue
		}
		if photo == nil {
			continue
		}
		matches = append(matches, MatchResponse{
			PhotoID:    res.PhotoID,
			FaceID:     res.FaceID,
			Similarity: math.Round(res.Similarity*1000) / 1000,
			Filename:   photo.Filename,
		})
	}

	respondJSON(w, http.StatusOK, SearchResponse{
		Matches: matches,
		Total:   len(matches),
	})
}

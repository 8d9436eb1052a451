package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-finder/internal/config"
	"github.com/kozaktomas/face-finder/internal/database"
	"github.com/kozaktomas/face-finder/internal/database/mock"
	"github.com/kozaktomas/face-finder/internal/detector"
	"github.com/kozaktomas/face-finder/internal/facematch"
)

type noFaces struct{}

func (noFaces) DetectFaces(ctx context.Context, imageData []byte) (*detector.FaceResponse, error) {
	return &detector.FaceResponse{}, nil
}

func newTestServer(t *testing.T) (*Server, *mock.MockSource) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	src := mock.NewMockSource()
	src.AddFace(1, 10, []float32{1, 0, 0, 0})
	src.AddFace(2, 20, []float32{0.6, 0.8, 0, 0})
	src.AddPhoto(database.Photo{ID: 10, Filename: "ten.jpg"})
	src.AddPhoto(database.Photo{ID: 20, Filename: "twenty.jpg"})

	store := facematch.NewStore(src, 4, facematch.WithStoreLogger(logger))
	if _, err := store.Reload(t.Context()); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	engine := facematch.NewEngine(store, facematch.WithLogger(logger))

	cfg := &config.Config{
		Upload: config.UploadConfig{MaxSize: 1 << 20, MinFaceSize: 30},
		Web:    config.WebConfig{Host: "127.0.0.1", Port: 0},
	}
	return NewServer(cfg, engine, src, noFaces{}, logger), src
}

func serve(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, httptest.NewRequest(method, path, reader))
	return recorder
}

func TestServer_Routes(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/api/v1/health", http.StatusOK},
		{"GET", "/api/v1/stats", http.StatusOK},
		{"GET", "/api/v1/photos/10", http.StatusOK},
		{"GET", "/api/v1/photos/99", http.StatusNotFound},
		{"POST", "/api/v1/index/reload", http.StatusOK},
		{"POST", "/api/v1/faces/search", http.StatusBadRequest},
		{"GET", "/api/v1/faces/search", http.StatusMethodNotAllowed},
		{"GET", "/api/v1/unknown", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			recorder := serve(t, s, tc.method, tc.path, nil)
			if recorder.Code != tc.want {
				t.Errorf("expected status %d, got %d\nBody: %s", tc.want, recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestServer_StoreThenSearch(t *testing.T) {
	s, _ := newTestServer(t)

	recorder := serve(t, s, "POST", "/api/v1/faces/temp", map[string]any{"embedding": []float32{1, 0, 0, 0}})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d\nBody: %s", recorder.Code, recorder.Body.String())
	}
	var stored struct {
		TempID string `json:"temp_id"`
	}
	json.Unmarshal(recorder.Body.Bytes(), &stored)

	recorder = serve(t, s, "POST", "/api/v1/faces/search", map[string]any{"temp_face_id": stored.TempID, "threshold": 0.5})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d\nBody: %s", recorder.Code, recorder.Body.String())
	}

	var result struct {
		Matches []struct {
			PhotoID    int64   `json:"photo_id"`
			Similarity float64 `json:"similarity"`
			Filename   string  `json:"filename"`
		} `json:"matches"`
		Total int `json:"total"`
	}
	json.Unmarshal(recorder.Body.Bytes(), &result)

	if result.Total != 2 {
		t.Fatalf("expected 2 matches, got %d", result.Total)
	}
	if result.Matches[0].Filename != "ten.jpg" || result.Matches[1].Similarity != 0.6 {
		t.Errorf("unexpected matches %+v", result.Matches)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/faces/search", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected localhost origin to be allowed, got '%s'", got)
	}
}

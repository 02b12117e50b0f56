package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/db"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/geo"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
)

// submitSampleRequest is the wire body accepted on POST /api/samples.
type submitSampleRequest struct {
	Coordinates geo.Coordinate `json:"coordinates"`
	Rating      string         `json:"rating"`
	ImageData   string         `json:"imageData"`
	UserID      string         `json:"userId"`
}

// sampleResponse is the acknowledgement for a stored sample.
type sampleResponse struct {
	ID          string         `json:"id"`
	Coordinates geo.Coordinate `json:"coordinates"`
	Rating      string         `json:"rating"`
	Timestamp   time.Time      `json:"timestamp"`
}

// sampleListEntry is one archived sample for map rendering; image payloads
// are omitted and only their size is reported.
type sampleListEntry struct {
	ID          string         `json:"id"`
	Coordinates geo.Coordinate `json:"coordinates"`
	Rating      string         `json:"rating"`
	UserID      string         `json:"user_id,omitempty"`
	CapturedAt  time.Time      `json:"captured_at"`
	CreatedAt   time.Time      `json:"created_at"`
	ImageBytes  int            `json:"image_bytes"`
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.submitSample(w, r)
	case http.MethodGet:
		s.listSamples(w, r)
	default:
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// decodeImageData accepts either raw base64 or a data URL
// ("data:image/jpeg;base64,...") and returns the image bytes.
func decodeImageData(imageData string) ([]byte, error) {
	if idx := strings.Index(imageData, ";base64,"); idx >= 0 && strings.HasPrefix(imageData, "data:") {
		imageData = imageData[idx+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(imageData)
}

func (s *Server) submitSample(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req submitSampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if !req.Coordinates.Valid() {
		s.writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid coordinates: %s", req.Coordinates))
		return
	}
	rating, err := road.ParseQuality(req.Rating)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid rating: %v", err))
		return
	}
	if req.ImageData == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing imageData")
		return
	}
	image, err := decodeImageData(req.ImageData)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid imageData: %v", err))
		return
	}

	record := &db.SampleRecord{
		ID:         uuid.NewString(),
		Latitude:   req.Coordinates.Lat,
		Longitude:  req.Coordinates.Lng,
		Rating:     string(rating),
		Image:      image,
		UserID:     req.UserID,
		CapturedAt: time.Now().UTC(),
	}
	if err := s.db.InsertSample(record); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to store sample: %v", err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sampleResponse{
		ID:          record.ID,
		Coordinates: req.Coordinates,
		Rating:      record.Rating,
		Timestamp:   record.CapturedAt,
	})
}

func (s *Server) listSamples(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	limit := 500 // default
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	samples, err := s.db.ListSamples(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve samples: %v", err))
		return
	}

	entries := make([]sampleListEntry, len(samples))
	for i, sample := range samples {
		entries[i] = sampleListEntry{
			ID:          sample.ID,
			Coordinates: geo.Coordinate{Lat: sample.Latitude, Lng: sample.Longitude},
			Rating:      sample.Rating,
			UserID:      sample.UserID,
			CapturedAt:  sample.CapturedAt,
			CreatedAt:   sample.CreatedAt,
			ImageBytes:  sample.ImageSize,
		}
	}

	if err := json.NewEncoder(w).Encode(entries); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write samples")
		return
	}
}

// handleSampleImage serves GET /api/samples/{id}/image.
func (s *Server) handleSampleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/samples/")
	id, suffix, found := strings.Cut(rest, "/")
	if !found || suffix != "image" || id == "" {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound, "Not found")
		return
	}

	image, err := s.db.GetSampleImage(id)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Failed to load image: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(image)
}

package classify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/framesource"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/httputil"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
)

// HTTPClassifier calls the networked detection model service. The wire
// contract is the model server's /analyze endpoint: a JSON body with a
// data-URL image field, answered with a defect list and count.
type HTTPClassifier struct {
	endpoint   string
	client     httputil.HTTPClient
	thresholds road.Thresholds
	timeout    time.Duration
}

// NewHTTPClassifier creates a classifier client for the given base endpoint
// (e.g. "http://localhost:5000"). A nil client falls back to the standard
// HTTP client.
func NewHTTPClassifier(endpoint string, client httputil.HTTPClient, thresholds road.Thresholds, timeout time.Duration) *HTTPClassifier {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClassifier{
		endpoint:   strings.TrimRight(endpoint, "/"),
		client:     client,
		thresholds: thresholds,
		timeout:    timeout,
	}
}

type analyzeRequest struct {
	Image string `json:"image"`
}

type analyzeDefect struct {
	BBox       []float64 `json:"bbox"` // [x, y, width, height]
	Confidence float64   `json:"confidence"`
	Type       string    `json:"type"`
}

type analyzeResponse struct {
	Success     bool            `json:"success"`
	Defects     []analyzeDefect `json:"defects"`
	DefectCount int             `json:"defectCount"`
	Error       string          `json:"error"`
}

// Classify posts the frame to the model service and decodes the result.
// Any failure (transport, server error, success=false) is returned as an
// error; the capture session treats these as retryable skips.
func (c *HTTPClassifier) Classify(ctx context.Context, frame *framesource.Frame) (road.Detection, error) {
	if !frame.Ready() {
		return road.Detection{}, fmt.Errorf("cannot classify frame without dimensions")
	}

	// The model service expects a browser-style data URL.
	payload := analyzeRequest{
		Image: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(frame.Data),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return road.Detection{}, fmt.Errorf("failed to encode analyze request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/analyze", bytes.NewReader(body))
	if err != nil {
		return road.Detection{}, fmt.Errorf("failed to build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return road.Detection{}, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return road.Detection{}, fmt.Errorf("failed to read classifier response: %w", err)
	}

	var decoded analyzeResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return road.Detection{}, fmt.Errorf("failed to decode classifier response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || !decoded.Success {
		msg := decoded.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return road.Detection{}, fmt.Errorf("classifier rejected frame: %s", msg)
	}

	defects := make([]road.Defect, 0, len(decoded.Defects))
	for _, d := range decoded.Defects {
		var box road.BoundingBox
		if len(d.BBox) == 4 {
			box = road.BoundingBox{X: d.BBox[0], Y: d.BBox[1], Width: d.BBox[2], Height: d.BBox[3]}
		}
		defects = append(defects, road.Defect{Type: d.Type, Confidence: d.Confidence, Box: box})
	}

	count := decoded.DefectCount
	if count == 0 {
		count = len(defects)
	}

	return road.Detection{
		DefectCount: count,
		Defects:     defects,
		Quality:     c.thresholds.Grade(count),
	}, nil
}

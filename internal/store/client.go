// Package store is the sample submission boundary: a client that posts
// captured samples to the archive service, trying a fixed priority order of
// endpoints before treating the call as failed.
package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/framesource"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/geo"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/httputil"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
)

// StoredSample is the canonical record returned by the archive once a
// submission has been accepted.
type StoredSample struct {
	ID         string            `json:"id"`
	Coordinate geo.Coordinate    `json:"coordinates"`
	Rating     road.QualityLabel `json:"rating"`
	Timestamp  time.Time         `json:"timestamp"`
}

// submitRequest is the wire body for sample submission.
type submitRequest struct {
	Coordinates geo.Coordinate `json:"coordinates"`
	Rating      string         `json:"rating"`
	ImageData   string         `json:"imageData"`
	UserID      string         `json:"userId"`
}

// Client submits samples to the archive. Endpoints are tried in the
// configured order until one accepts; the session-level policy for what
// happens when all fail lives in the capture package.
type Client struct {
	endpoints []string
	userID    string
	client    httputil.HTTPClient
	timeout   time.Duration
}

// NewClient creates a submission client. Endpoints are base URLs tried in
// priority order.
func NewClient(endpoints []string, userID string, client httputil.HTTPClient, timeout time.Duration) (*Client, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("at least one submit endpoint is required")
	}
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	normalized := make([]string, len(endpoints))
	for i, e := range endpoints {
		normalized[i] = strings.TrimRight(e, "/")
	}
	return &Client{
		endpoints: normalized,
		userID:    userID,
		client:    client,
		timeout:   timeout,
	}, nil
}

// Submit posts one sample to the first endpoint that accepts it. When every
// endpoint fails, the joined per-endpoint errors are returned.
func (c *Client) Submit(ctx context.Context, coord geo.Coordinate, quality road.QualityLabel, frame *framesource.Frame) (StoredSample, error) {
	if !coord.Valid() {
		return StoredSample{}, fmt.Errorf("refusing to submit invalid coordinate %v", coord)
	}
	if !quality.Valid() {
		return StoredSample{}, fmt.Errorf("refusing to submit invalid quality label %q", quality)
	}

	body, err := json.Marshal(submitRequest{
		Coordinates: coord,
		Rating:      string(quality),
		ImageData:   base64.StdEncoding.EncodeToString(frame.Data),
		UserID:      c.userID,
	})
	if err != nil {
		return StoredSample{}, fmt.Errorf("failed to encode sample: %w", err)
	}

	var attemptErrs []error
	for _, endpoint := range c.endpoints {
		stored, err := c.submitTo(ctx, endpoint, body)
		if err == nil {
			return stored, nil
		}
		attemptErrs = append(attemptErrs, fmt.Errorf("%s: %w", endpoint, err))

		// Stop early when the caller is gone; later endpoints would
		// fail the same way.
		if ctx.Err() != nil {
			break
		}
	}

	return StoredSample{}, fmt.Errorf("all submit endpoints failed: %w", errors.Join(attemptErrs...))
}

func (c *Client) submitTo(ctx context.Context, endpoint string, body []byte) (StoredSample, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/api/samples", bytes.NewReader(body))
	if err != nil {
		return StoredSample{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return StoredSample{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return StoredSample{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return StoredSample{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var stored StoredSample
	if err := json.Unmarshal(data, &stored); err != nil {
		return StoredSample{}, fmt.Errorf("failed to decode stored sample: %w", err)
	}
	if stored.ID == "" {
		return StoredSample{}, fmt.Errorf("archive response missing sample id")
	}
	return stored, nil
}

package road

import (
	"fmt"
	"sync"
	"time"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/geo"
)

// ErrOutOfOrder is returned when a sample's capture time precedes the most
// recently appended sample. The capture loop serializes ticks, so this only
// fires on caller bugs.
var ErrOutOfOrder = fmt.Errorf("sample capture time precedes the last appended sample")

// Sample is one location + image + quality observation. Samples are value
// types and are treated as immutable once appended to a track.
type Sample struct {
	ID         string         `json:"id"`
	Coordinate geo.Coordinate `json:"coordinates"`
	Quality    QualityLabel   `json:"quality"`
	Image      []byte         `json:"-"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	CapturedAt time.Time      `json:"captured_at"`
	Defects    []Defect       `json:"defects,omitempty"`

	// Stored is false when the remote submission failed and the sample is
	// kept locally with a generated placeholder id.
	Stored bool `json:"stored"`
}

// Track is the ordered, session-scoped list of captured samples. Appends
// happen from the single capture loop goroutine; reads may come from
// observers or the report builder, so access is guarded by a mutex.
type Track struct {
	mu      sync.Mutex
	samples []Sample
}

// NewTrack returns an empty track.
func NewTrack() *Track {
	return &Track{}
}

// Append adds a sample to the end of the track. Appends must arrive in
// capture order: a sample stamped before the current tail is rejected.
func (t *Track) Append(s Sample) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.samples); n > 0 && s.CapturedAt.Before(t.samples[n-1].CapturedAt) {
		return fmt.Errorf("append sample %s at %v: %w", s.ID, s.CapturedAt, ErrOutOfOrder)
	}
	t.samples = append(t.samples, s)
	return nil
}

// Len returns the number of samples in the track.
func (t *Track) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.samples)
}

// Samples returns a copy of the track contents in capture order.
func (t *Track) Samples() []Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Sample, len(t.samples))
	copy(out, t.samples)
	return out
}

// Coordinates returns the track's coordinates in capture order.
func (t *Track) Coordinates() []geo.Coordinate {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]geo.Coordinate, len(t.samples))
	for i, s := range t.samples {
		out[i] = s.Coordinate
	}
	return out
}

// Package capture runs geotagged road-quality capture sessions: a periodic
// loop that pairs camera frames with GPS fixes, classifies the road surface
// and accumulates the results into a session track.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/framesource"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/geo"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/location"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/report"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/store"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/timeutil"
)

// DefaultInterval is the capture tick interval when none is configured.
const DefaultInterval = 2 * time.Second

// Geolocator supplies the most recent usable position fix. Staleness policy
// belongs to the provider: Current returns false when no fresh fix exists.
type Geolocator interface {
	Current() (location.Fix, bool)
}

// Classifier grades the road surface visible in a frame.
type Classifier interface {
	Classify(ctx context.Context, frame *framesource.Frame) (road.Detection, error)
}

// Submitter sends a classified sample to remote storage.
type Submitter interface {
	Submit(ctx context.Context, coord geo.Coordinate, quality road.QualityLabel, frame *framesource.Frame) (store.StoredSample, error)
}

// State is the session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateCapturing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrAlreadyCapturing is returned by Start when a session is running.
var ErrAlreadyCapturing = errors.New("capture session already running")

// PreconditionError reports a missing capability that prevented a session
// from starting. Capability is "geolocator" or "frame source".
type PreconditionError struct {
	Capability string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("capture precondition failed: %s not ready", e.Capability)
}

// Stats counts tick outcomes for one session run.
type Stats struct {
	Ticks            int `json:"ticks"`
	Appended         int `json:"appended"`
	NoFixSkips       int `json:"no_fix_skips"`
	FrameSkips       int `json:"frame_skips"`
	ClassifyFailures int `json:"classify_failures"`
	SubmitFailures   int `json:"submit_failures"`
}

// ReportResult is delivered on Results after a session stops.
type ReportResult struct {
	Report *report.SessionReport
	Err    error
}

// SessionConfig contains configuration for a Session.
type SessionConfig struct {
	// Geolocator supplies position fixes.
	Geolocator Geolocator
	// Frames supplies camera frames; closed when the session stops.
	Frames framesource.Source
	// Classifier grades each frame.
	Classifier Classifier
	// Submitter stores each classified sample remotely.
	Submitter Submitter
	// Interval between capture ticks; defaults to DefaultInterval.
	Interval time.Duration
	// Thresholds regrade a detection whose quality came back unset.
	Thresholds road.Thresholds
	// Clock is optional; if nil, uses the real clock.
	Clock timeutil.Clock
	// Operator is recorded on the session report.
	Operator string
	// Logf is optional; if nil, uses log.Printf.
	Logf func(format string, v ...interface{})
}

// Session is a capture state machine. All ticks run on a single loop
// goroutine, so samples enter the track serialized in capture order. A tick
// whose work outlives the interval causes later ticks to be dropped by the
// ticker, never queued.
type Session struct {
	cfg SessionConfig

	mu       sync.Mutex
	results  chan ReportResult
	state    State
	id       string
	track    *road.Track
	observer func(road.Sample)
	stats    Stats
	startAt  time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSession creates an idle session. All four collaborators are required.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Geolocator == nil || cfg.Frames == nil || cfg.Classifier == nil || cfg.Submitter == nil {
		return nil, errors.New("capture: geolocator, frame source, classifier and submitter are all required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		cfg.Thresholds = road.DefaultThresholds()
	}
	return &Session{
		cfg:     cfg,
		results: make(chan ReportResult, 1),
		track:   road.NewTrack(),
	}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ID returns the current session id, empty before the first Start.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Stats returns a snapshot of the tick counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Track returns the session track.
func (s *Session) Track() *road.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

// Results delivers the ReportResult of the current run. Each Start replaces
// the channel, so read it after Stop and before the next Start; an undrained
// result from an earlier run is discarded with its channel.
func (s *Session) Results() <-chan ReportResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// SetObserver registers a hook called once per appended sample, on the
// capture loop goroutine. Pass nil to clear.
func (s *Session) SetObserver(fn func(road.Sample)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Start checks that a location fix and a usable probe frame are available,
// then begins the capture loop. A missing capability returns a
// *PreconditionError and leaves the session idle.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCapturing {
		return ErrAlreadyCapturing
	}

	if _, ok := s.cfg.Geolocator.Current(); !ok {
		return &PreconditionError{Capability: "geolocator"}
	}
	probe, err := s.cfg.Frames.Capture(ctx)
	if err != nil || !probe.Ready() {
		return &PreconditionError{Capability: "frame source"}
	}

	s.id = uuid.NewString()
	s.track = road.NewTrack()
	s.results = make(chan ReportResult, 1)
	s.stats = Stats{}
	s.startAt = s.cfg.Clock.Now()
	s.state = StateCapturing
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	ticker := s.cfg.Clock.NewTicker(s.cfg.Interval)
	go s.loop(ctx, ticker)
	return nil
}

func (s *Session) loop(ctx context.Context, ticker timeutil.Ticker) {
	defer close(s.doneCh)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.tick(ctx)
		}
	}
}

// tick performs one capture cycle: fix, frame, classification, submission,
// append. Skips are silent for missing inputs and logged for failures.
func (s *Session) tick(ctx context.Context) {
	s.mu.Lock()
	s.stats.Ticks++
	s.mu.Unlock()

	fix, ok := s.cfg.Geolocator.Current()
	if !ok {
		s.count(func(st *Stats) { st.NoFixSkips++ })
		return
	}

	frame, err := s.cfg.Frames.Capture(ctx)
	if err != nil || !frame.Ready() {
		if err != nil && !errors.Is(err, framesource.ErrNotReady) {
			s.cfg.Logf("capture: frame source: %v", err)
		}
		s.count(func(st *Stats) { st.FrameSkips++ })
		return
	}

	detection, err := s.cfg.Classifier.Classify(ctx, frame)
	if err != nil {
		s.cfg.Logf("capture: classify frame at (%.5f, %.5f): %v", fix.Coordinate.Lat, fix.Coordinate.Lng, err)
		s.count(func(st *Stats) { st.ClassifyFailures++ })
		return
	}
	if !detection.Quality.Valid() {
		detection.Quality = s.cfg.Thresholds.Grade(detection.DefectCount)
	}

	sample := road.Sample{
		Coordinate: fix.Coordinate,
		Quality:    detection.Quality,
		Image:      frame.Data,
		Width:      frame.Width,
		Height:     frame.Height,
		CapturedAt: s.cfg.Clock.Now(),
		Defects:    detection.Defects,
	}
	stored, err := s.cfg.Submitter.Submit(ctx, fix.Coordinate, detection.Quality, frame)
	if err != nil {
		// Keep the sample locally so the session track stays complete.
		sample.ID = "local-" + uuid.NewString()
		sample.Stored = false
		s.cfg.Logf("capture: submit sample: %v (kept locally as %s)", err, sample.ID)
		s.count(func(st *Stats) { st.SubmitFailures++ })
	} else {
		sample.ID = stored.ID
		sample.Stored = true
	}

	s.mu.Lock()
	track := s.track
	observer := s.observer
	s.mu.Unlock()

	if err := track.Append(sample); err != nil {
		s.cfg.Logf("capture: drop sample %s: %v", sample.ID, err)
		return
	}
	s.count(func(st *Stats) { st.Appended++ })
	if observer != nil {
		observer(sample)
	}
}

func (s *Session) count(update func(*Stats)) {
	s.mu.Lock()
	update(&s.stats)
	s.mu.Unlock()
}

// Stop ends the capture loop, waits for any in-flight tick to finish (its
// sample still appends), releases the frame source and geolocator, and
// builds the session report asynchronously. A second Stop is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state != StateCapturing {
		s.mu.Unlock()
		return nil
	}
	s.state = StateIdle
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh

	if err := s.cfg.Frames.Close(); err != nil {
		s.cfg.Logf("capture: close frame source: %v", err)
	}
	if closer, ok := s.cfg.Geolocator.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.cfg.Logf("capture: release geolocator: %v", err)
		}
	}

	s.mu.Lock()
	id, operator := s.id, s.cfg.Operator
	samples := s.track.Samples()
	generatedAt := s.cfg.Clock.Now()
	results := s.results
	s.mu.Unlock()

	// results belongs to this run and holds one slot, so the send cannot
	// block even if nobody drains it.
	go func() {
		r, err := report.Build(samples, report.Options{
			SessionID:   id,
			Operator:    operator,
			GeneratedAt: generatedAt,
		})
		results <- ReportResult{Report: r, Err: err}
	}()
	return nil
}

// Package location supplies position fixes for the capture session: a
// latest-value watcher with a bounded staleness policy, plus fix sources
// for serial NMEA receivers, recorded captures, and a simulated walker.
package location

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/geo"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/timeutil"
)

// Fix is one position observation from a geolocation source.
type Fix struct {
	Coordinate geo.Coordinate `json:"coordinates"`
	Accuracy   float64        `json:"accuracy"` // estimated error radius in meters, 0 if unknown
	At         time.Time      `json:"at"`
}

// Watcher caches the most recent fix from a source and fans it out to
// subscribers. Current enforces a max-age staleness bound so the capture
// loop never acts on a fix from a receiver that has gone quiet.
type Watcher struct {
	mu          sync.Mutex
	fix         Fix
	hasFix      bool
	maxAge      time.Duration
	clock       timeutil.Clock
	subscribers map[string]chan Fix
}

// NewWatcher creates a watcher. Fixes older than maxAge are treated as
// unavailable; maxAge <= 0 disables the staleness check.
func NewWatcher(maxAge time.Duration, clock timeutil.Clock) *Watcher {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Watcher{
		maxAge:      maxAge,
		clock:       clock,
		subscribers: make(map[string]chan Fix),
	}
}

// randomID generates a random subscriber ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Update records a new fix and notifies subscribers. Slow subscribers are
// skipped rather than blocking the source.
func (w *Watcher) Update(f Fix) {
	w.mu.Lock()
	w.fix = f
	w.hasFix = true
	subs := make([]chan Fix, 0, len(w.subscribers))
	for _, ch := range w.subscribers {
		subs = append(subs, ch)
	}
	w.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- f:
		default:
		}
	}
}

// Current returns the latest fix. The second return value is false when no
// fix has arrived yet or the latest fix is older than the max age.
func (w *Watcher) Current() (Fix, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.hasFix {
		return Fix{}, false
	}
	if w.maxAge > 0 && w.clock.Since(w.fix.At) > w.maxAge {
		return Fix{}, false
	}
	return w.fix, true
}

// Subscribe creates a buffered channel receiving every fix update. The
// returned ID identifies the channel for Unsubscribe.
func (w *Watcher) Subscribe() (string, chan Fix) {
	id := randomID()
	ch := make(chan Fix, 1)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (w *Watcher) Unsubscribe(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ch, ok := w.subscribers[id]; ok {
		close(ch)
		delete(w.subscribers, id)
	}
}

// Run pumps fixes from a source channel into the watcher until the context
// is cancelled or the channel is closed.
func (w *Watcher) Run(ctx context.Context, fixes <-chan Fix) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-fixes:
			if !ok {
				return
			}
			w.Update(f)
		}
	}
}

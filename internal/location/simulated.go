package location

import (
	"context"
	"time"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/geo"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/timeutil"
)

// Simulated walks a deterministic path from a start coordinate along a
// fixed bearing at a fixed speed. It is the dev-mode geolocator and the
// default fixture in tests.
type Simulated struct {
	Start      geo.Coordinate
	BearingDeg float64
	SpeedMPS   float64
	Interval   time.Duration
	Accuracy   float64

	clock timeutil.Clock
	out   chan Fix
}

// NewSimulated creates a walker emitting a fix every interval.
func NewSimulated(start geo.Coordinate, bearingDeg, speedMPS float64, interval time.Duration, clock timeutil.Clock) *Simulated {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Simulated{
		Start:      start,
		BearingDeg: bearingDeg,
		SpeedMPS:   speedMPS,
		Interval:   interval,
		Accuracy:   5,
		clock:      clock,
		out:        make(chan Fix, 1),
	}
}

// Fixes returns the channel of generated fixes.
func (s *Simulated) Fixes() <-chan Fix { return s.out }

// Run emits fixes until the context is cancelled. The first fix is emitted
// immediately so sessions can start without waiting a full interval.
func (s *Simulated) Run(ctx context.Context) error {
	defer close(s.out)

	pos := s.Start
	step := s.SpeedMPS * s.Interval.Seconds()

	emit := func() bool {
		select {
		case s.out <- Fix{Coordinate: pos, Accuracy: s.Accuracy, At: s.clock.Now()}:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !emit() {
		return ctx.Err()
	}

	ticker := s.clock.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			pos = geo.Destination(pos, s.BearingDeg, step)
			if !emit() {
				return ctx.Err()
			}
		}
	}
}

// Package classify provides defect classifiers for captured frames: a
// deterministic simulated classifier for dev mode and tests, and an HTTP
// client for the networked detection model service. The capture session is
// agnostic to which implementation it is given.
package classify

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/framesource"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
)

// Simulated is a seeded pseudo-random defect generator. A given seed
// produces the same detection sequence, which keeps dev-mode runs and
// tests reproducible.
type Simulated struct {
	mu         sync.Mutex
	rng        *rand.Rand
	thresholds road.Thresholds

	// MaxDefects bounds the generated defect count per frame.
	MaxDefects int
}

// NewSimulated creates a simulated classifier.
func NewSimulated(seed int64, thresholds road.Thresholds) *Simulated {
	return &Simulated{
		rng:        rand.New(rand.NewSource(seed)),
		thresholds: thresholds,
		MaxDefects: 8,
	}
}

// Classify generates a bounded random defect list for the frame and grades
// it with the configured thresholds.
func (s *Simulated) Classify(ctx context.Context, frame *framesource.Frame) (road.Detection, error) {
	if err := ctx.Err(); err != nil {
		return road.Detection{}, err
	}
	if !frame.Ready() {
		return road.Detection{}, fmt.Errorf("cannot classify frame without dimensions")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.rng.Intn(s.MaxDefects + 1)
	defects := make([]road.Defect, 0, count)
	for i := 0; i < count; i++ {
		w := 10 + s.rng.Float64()*float64(frame.Width)/4
		h := 10 + s.rng.Float64()*float64(frame.Height)/4
		defects = append(defects, road.Defect{
			Type:       road.DefectClasses[s.rng.Intn(len(road.DefectClasses))],
			Confidence: 0.5 + s.rng.Float64()*0.5,
			Box: road.BoundingBox{
				X:      s.rng.Float64() * (float64(frame.Width) - w),
				Y:      s.rng.Float64() * (float64(frame.Height) - h),
				Width:  w,
				Height: h,
			},
		})
	}

	return road.Detection{
		DefectCount: count,
		Defects:     defects,
		Quality:     s.thresholds.Grade(count),
	}, nil
}

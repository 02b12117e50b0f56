package framesource

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/timeutil"
)

// Synthetic generates test-pattern JPEG frames. It is the default source in
// dev mode and in tests where no camera or clip is available.
type Synthetic struct {
	mu     sync.Mutex
	width  int
	height int
	clock  timeutil.Clock
	seq    uint64
	closed bool

	// WarmupFrames, when positive, makes the first N captures return
	// ErrNotReady to mimic a camera stream that has not settled yet.
	WarmupFrames int
}

// NewSynthetic creates a synthetic source producing width x height frames.
func NewSynthetic(width, height int, clock timeutil.Clock) *Synthetic {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Synthetic{width: width, height: height, clock: clock}
}

// Capture returns the next generated frame.
func (s *Synthetic) Capture(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("synthetic source is closed")
	}

	s.seq++
	if s.WarmupFrames > 0 && s.seq <= uint64(s.WarmupFrames) {
		return nil, ErrNotReady
	}

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	// Diagonal gradient shifted by the frame counter so consecutive
	// frames differ.
	shift := int(s.seq % 256)
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x + shift) % 256),
				G: uint8((y + shift) % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("failed to encode synthetic frame: %w", err)
	}

	return &Frame{
		Data:       buf.Bytes(),
		Width:      s.width,
		Height:     s.height,
		CapturedAt: s.clock.Now(),
		Seq:        s.seq,
	}, nil
}

// Close marks the source closed. Subsequent captures fail.
func (s *Synthetic) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

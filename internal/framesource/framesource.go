// Package framesource abstracts still-frame acquisition from a live camera
// device, a decoded video timeline on disk, or a synthetic test pattern.
package framesource

import (
	"context"
	"errors"
	"time"
)

// ErrNotReady is returned by Capture when the source has no usable frame
// yet. The capture loop treats it as a silent skip, not a failure.
var ErrNotReady = errors.New("frame source not ready")

// ErrEndOfTimeline is returned by finite sources once all frames have been
// played back.
var ErrEndOfTimeline = errors.New("end of frame timeline")

// Frame is one still image pulled from a source. Data is JPEG-encoded.
type Frame struct {
	Data       []byte
	Width      int
	Height     int
	CapturedAt time.Time
	Seq        uint64
}

// Ready reports whether the frame has usable pixel dimensions.
func (f *Frame) Ready() bool {
	return f != nil && f.Width > 0 && f.Height > 0
}

// Source produces still frames on request.
type Source interface {
	// Capture returns the current frame, ErrNotReady when the stream is
	// not delivering usable frames yet, or ErrEndOfTimeline for finite
	// sources that have been exhausted.
	Capture(ctx context.Context) (*Frame, error)

	// Close releases the underlying stream or device.
	Close() error
}

//go:build gocv
// +build gocv

package framesource

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/timeutil"
)

// Camera captures live frames from a video device via OpenCV. Requires the
// gocv build tag; without it the stub constructor in camera_stub.go is
// compiled instead.
type Camera struct {
	mu    sync.Mutex
	cap   *gocv.VideoCapture
	clock timeutil.Clock
	seq   uint64
}

// OpenCamera opens the video device at the given index.
func OpenCamera(device int, clock timeutil.Clock) (*Camera, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	cap, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera device %d: %w", device, err)
	}
	return &Camera{cap: cap, clock: clock}, nil
}

// Capture reads one frame from the device and encodes it as JPEG.
func (c *Camera) Capture(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cap == nil {
		return nil, fmt.Errorf("camera is closed")
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := c.cap.Read(&mat); !ok || mat.Empty() {
		return nil, ErrNotReady
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode camera frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	c.seq++
	return &Frame{
		Data:       data,
		Width:      mat.Cols(),
		Height:     mat.Rows(),
		CapturedAt: c.clock.Now(),
		Seq:        c.seq,
	}, nil
}

// Close releases the video device.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cap == nil {
		return nil
	}
	err := c.cap.Close()
	c.cap = nil
	return err
}

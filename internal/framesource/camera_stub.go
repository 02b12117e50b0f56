//go:build !gocv
// +build !gocv

package framesource

import (
	"context"
	"fmt"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/timeutil"
)

// Camera is a stub when OpenCV support is not compiled in.
type Camera struct{}

// OpenCamera returns an error when the gocv build tag is not enabled.
func OpenCamera(device int, clock timeutil.Clock) (*Camera, error) {
	return nil, fmt.Errorf("camera capture support not compiled in (requires gocv build tag)")
}

// Capture always fails on the stub.
func (c *Camera) Capture(ctx context.Context) (*Frame, error) {
	return nil, fmt.Errorf("camera capture support not compiled in (requires gocv build tag)")
}

// Close is a no-op on the stub.
func (c *Camera) Close() error { return nil }

package framesource

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/timeutil"
)

// Dir plays back a finite video timeline that has been decoded to a
// directory of JPEG stills. Frames are served in filename order, one per
// capture, and ErrEndOfTimeline is returned once the clip is exhausted.
type Dir struct {
	mu    sync.Mutex
	files []string
	pos   int
	clock timeutil.Clock
	seq   uint64
}

// NewDir builds a timeline source from the *.jpg/*.jpeg files in dir.
func NewDir(dir string, clock timeutil.Clock) (*Dir, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no JPEG frames found in %s", dir)
	}
	sort.Strings(files)

	return &Dir{files: files, clock: clock}, nil
}

// Len returns the number of frames in the timeline.
func (d *Dir) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.files)
}

// Capture returns the next frame of the timeline.
func (d *Dir) Capture(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pos >= len(d.files) {
		return nil, ErrEndOfTimeline
	}

	path := d.files[d.pos]
	d.pos++
	d.seq++

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %s: %w", path, err)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}

	return &Frame{
		Data:       data,
		Width:      cfg.Width,
		Height:     cfg.Height,
		CapturedAt: d.clock.Now(),
		Seq:        d.seq,
	}, nil
}

// Rewind restarts the timeline from the first frame.
func (d *Dir) Rewind() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pos = 0
}

// Close is a no-op for directory sources.
func (d *Dir) Close() error { return nil }

package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/framesource"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/geo"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/location"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/store"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/timeutil"
)

var testStart = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type fakeGeolocator struct {
	mu     sync.Mutex
	fix    location.Fix
	hasFix bool
	closes int
}

func (g *fakeGeolocator) Current() (location.Fix, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fix, g.hasFix
}

func (g *fakeGeolocator) set(fix location.Fix) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fix, g.hasFix = fix, true
}

func (g *fakeGeolocator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closes++
	return nil
}

func (g *fakeGeolocator) closeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closes
}

type fakeFrames struct {
	mu     sync.Mutex
	seq    int
	errs   map[int]error // 1-based capture index -> error
	closes int
}

func (f *fakeFrames) Capture(ctx context.Context) (*framesource.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if err, ok := f.errs[f.seq]; ok {
		return nil, err
	}
	return &framesource.Frame{
		Data:   []byte(fmt.Sprintf("jpeg-%d", f.seq)),
		Width:  640,
		Height: 480,
		Seq:    uint64(f.seq),
	}, nil
}

func (f *fakeFrames) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeFrames) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

type fakeClassifier struct {
	mu   sync.Mutex
	call int
	errs map[int]error // 1-based classify index -> error
}

func (c *fakeClassifier) Classify(ctx context.Context, frame *framesource.Frame) (road.Detection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.call++
	if err, ok := c.errs[c.call]; ok {
		return road.Detection{}, err
	}
	return road.Detection{Quality: road.QualityGood}, nil
}

type fakeSubmitter struct {
	mu   sync.Mutex
	call int
	errs map[int]error // 1-based submit index -> error
}

func (s *fakeSubmitter) Submit(ctx context.Context, coord geo.Coordinate, quality road.QualityLabel, frame *framesource.Frame) (store.StoredSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.call++
	if err, ok := s.errs[s.call]; ok {
		return store.StoredSample{}, err
	}
	return store.StoredSample{ID: fmt.Sprintf("remote-%d", s.call), Coordinate: coord, Rating: quality}, nil
}

type harness struct {
	session    *Session
	clock      *timeutil.MockClock
	geolocator *fakeGeolocator
	frames     *fakeFrames
	classifier *fakeClassifier
	submitter  *fakeSubmitter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:      timeutil.NewMockClock(testStart),
		geolocator: &fakeGeolocator{},
		frames:     &fakeFrames{},
		classifier: &fakeClassifier{},
		submitter:  &fakeSubmitter{},
	}
	h.geolocator.set(location.Fix{
		Coordinate: geo.Coordinate{Lat: 28.6139, Lng: 77.2090},
		Accuracy:   5,
		At:         testStart,
	})
	session, err := NewSession(SessionConfig{
		Geolocator: h.geolocator,
		Frames:     h.frames,
		Classifier: h.classifier,
		Submitter:  h.submitter,
		Interval:   2 * time.Second,
		Clock:      h.clock,
		Operator:   "op-test",
		Logf:       t.Logf,
	})
	require.NoError(t, err)
	h.session = session
	return h
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// runTicks advances the clock tick by tick, waiting for each tick to be
// consumed so the single-slot mock ticker never coalesces.
func (h *harness) runTicks(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		want := h.session.Stats().Ticks + 1
		h.clock.Advance(h.session.cfg.Interval)
		waitFor(t, func() bool { return h.session.Stats().Ticks >= want }, fmt.Sprintf("tick %d", want))
	}
}

func TestStartRequiresLocationFix(t *testing.T) {
	h := newHarness(t)
	h.geolocator.mu.Lock()
	h.geolocator.hasFix = false
	h.geolocator.mu.Unlock()

	err := h.session.Start(context.Background())
	var pre *PreconditionError
	require.True(t, errors.As(err, &pre))
	assert.Equal(t, "geolocator", pre.Capability)
	assert.Equal(t, StateIdle, h.session.State())
}

func TestStartRequiresUsableFrame(t *testing.T) {
	h := newHarness(t)
	h.frames.errs = map[int]error{1: framesource.ErrNotReady}

	err := h.session.Start(context.Background())
	var pre *PreconditionError
	require.True(t, errors.As(err, &pre))
	assert.Equal(t, "frame source", pre.Capability)
	assert.Equal(t, StateIdle, h.session.State())
	assert.Equal(t, 0, h.frames.closeCount(), "probe failure must not release the frame source")
}

func TestStartWhileCapturing(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Start(context.Background()))
	defer h.session.Stop()

	assert.ErrorIs(t, h.session.Start(context.Background()), ErrAlreadyCapturing)
}

func TestCaptureLoopAppendsSamples(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Start(context.Background()))
	assert.Equal(t, StateCapturing, h.session.State())

	h.runTicks(t, 3)
	require.NoError(t, h.session.Stop())

	samples := h.session.Track().Samples()
	require.Len(t, samples, 3)
	for i, s := range samples {
		assert.Equal(t, fmt.Sprintf("remote-%d", i+1), s.ID)
		assert.True(t, s.Stored)
		assert.Equal(t, road.QualityGood, s.Quality)
		assert.Equal(t, 28.6139, s.Coordinate.Lat)
		if i > 0 {
			assert.False(t, s.CapturedAt.Before(samples[i-1].CapturedAt), "timestamps must be non-decreasing")
		}
	}

	st := h.session.Stats()
	assert.Equal(t, 3, st.Ticks)
	assert.Equal(t, 3, st.Appended)
}

func TestClassifierFailureSkipsTickOnly(t *testing.T) {
	h := newHarness(t)
	h.classifier.errs = map[int]error{3: errors.New("model timeout")}

	require.NoError(t, h.session.Start(context.Background()))
	h.runTicks(t, 5)
	assert.Equal(t, StateCapturing, h.session.State(), "classifier failure must not stop the session")
	require.NoError(t, h.session.Stop())

	assert.Equal(t, 4, h.session.Track().Len())
	st := h.session.Stats()
	assert.Equal(t, 5, st.Ticks)
	assert.Equal(t, 1, st.ClassifyFailures)
	assert.Equal(t, 4, st.Appended)
}

func TestSubmitFailureKeepsSampleLocally(t *testing.T) {
	h := newHarness(t)
	h.submitter.errs = map[int]error{2: errors.New("backend unreachable")}

	require.NoError(t, h.session.Start(context.Background()))
	h.runTicks(t, 3)
	require.NoError(t, h.session.Stop())

	samples := h.session.Track().Samples()
	require.Len(t, samples, 3)
	assert.True(t, samples[0].Stored)
	assert.False(t, samples[1].Stored)
	assert.True(t, strings.HasPrefix(samples[1].ID, "local-"), "got id %q", samples[1].ID)
	assert.True(t, samples[2].Stored)

	st := h.session.Stats()
	assert.Equal(t, 1, st.SubmitFailures)
	assert.Equal(t, 3, st.Appended, "a locally kept sample still counts as appended")
}

func TestMissingFixSkipsSilently(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Start(context.Background()))

	h.geolocator.mu.Lock()
	h.geolocator.hasFix = false
	h.geolocator.mu.Unlock()
	h.runTicks(t, 2)

	h.geolocator.set(location.Fix{Coordinate: geo.Coordinate{Lat: 28.6, Lng: 77.2}, At: h.clock.Now()})
	h.runTicks(t, 1)
	require.NoError(t, h.session.Stop())

	assert.Equal(t, 1, h.session.Track().Len())
	st := h.session.Stats()
	assert.Equal(t, 2, st.NoFixSkips)
	assert.Equal(t, 0, st.ClassifyFailures)
}

func TestStopIsIdempotentAndReleasesOnce(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Start(context.Background()))
	h.runTicks(t, 2)

	require.NoError(t, h.session.Stop())
	require.NoError(t, h.session.Stop())
	assert.Equal(t, StateIdle, h.session.State())
	assert.Equal(t, 1, h.frames.closeCount())
	assert.Equal(t, 1, h.geolocator.closeCount())

	select {
	case res := <-h.session.Results():
		require.NoError(t, res.Err)
		require.NotNil(t, res.Report)
		assert.Equal(t, h.session.ID(), res.Report.SessionID)
		assert.Equal(t, "op-test", res.Report.Operator)
		assert.Equal(t, 2, res.Report.TotalSamples)
	case <-time.After(2 * time.Second):
		t.Fatal("no report result delivered")
	}

	// Exactly one result per run.
	select {
	case res := <-h.session.Results():
		t.Fatalf("unexpected second result: %+v", res)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestObserverSeesEachAppendedSample(t *testing.T) {
	h := newHarness(t)
	var mu sync.Mutex
	var seen []string
	h.session.SetObserver(func(s road.Sample) {
		mu.Lock()
		seen = append(seen, s.ID)
		mu.Unlock()
	})
	h.classifier.errs = map[int]error{2: errors.New("blur")}

	require.NoError(t, h.session.Start(context.Background()))
	h.runTicks(t, 3)
	require.NoError(t, h.session.Stop())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"remote-1", "remote-2"}, seen)
}

func TestRestartYieldsFreshSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Start(context.Background()))
	firstID := h.session.ID()
	h.runTicks(t, 2)
	require.NoError(t, h.session.Stop())
	<-h.session.Results()

	require.NoError(t, h.session.Start(context.Background()))
	assert.NotEqual(t, firstID, h.session.ID())
	assert.Equal(t, 0, h.session.Track().Len(), "restart clears the track")
	assert.Equal(t, Stats{}, h.session.Stats())
	require.NoError(t, h.session.Stop())
}

func TestUndrainedResultDoesNotBlockNextRun(t *testing.T) {
	h := newHarness(t)

	// First run stops without anyone reading Results.
	require.NoError(t, h.session.Start(context.Background()))
	h.runTicks(t, 1)
	require.NoError(t, h.session.Stop())

	require.NoError(t, h.session.Start(context.Background()))
	secondID := h.session.ID()
	h.runTicks(t, 3)
	require.NoError(t, h.session.Stop())

	// The second run's result arrives on its own channel.
	select {
	case res := <-h.session.Results():
		require.NoError(t, res.Err)
		assert.Equal(t, secondID, res.Report.SessionID)
		assert.Equal(t, 3, res.Report.TotalSamples)
	case <-time.After(2 * time.Second):
		t.Fatal("second run's report never delivered")
	}
}

package location

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/geo"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/timeutil"
)

func TestWatcherCurrentBeforeAnyFix(t *testing.T) {
	w := NewWatcher(10*time.Second, timeutil.NewMockClock(parseNow))
	if _, ok := w.Current(); ok {
		t.Error("Current reported a fix before any update")
	}
}

func TestWatcherStaleness(t *testing.T) {
	clock := timeutil.NewMockClock(parseNow)
	w := NewWatcher(10*time.Second, clock)

	fix := Fix{Coordinate: geo.Coordinate{Lat: 28.6, Lng: 77.2}, At: clock.Now()}
	w.Update(fix)

	got, ok := w.Current()
	if !ok {
		t.Fatal("fresh fix not available")
	}
	if got.Coordinate != fix.Coordinate {
		t.Errorf("Current = %v, want %v", got.Coordinate, fix.Coordinate)
	}

	clock.Advance(9 * time.Second)
	if _, ok := w.Current(); !ok {
		t.Error("fix within max age reported stale")
	}

	clock.Advance(2 * time.Second)
	if _, ok := w.Current(); ok {
		t.Error("fix older than max age still available")
	}

	// A new fix recovers availability.
	w.Update(Fix{Coordinate: fix.Coordinate, At: clock.Now()})
	if _, ok := w.Current(); !ok {
		t.Error("new fix after staleness not available")
	}
}

func TestWatcherZeroMaxAgeDisablesStaleness(t *testing.T) {
	clock := timeutil.NewMockClock(parseNow)
	w := NewWatcher(0, clock)
	w.Update(Fix{At: clock.Now()})

	clock.Advance(24 * time.Hour)
	if _, ok := w.Current(); !ok {
		t.Error("staleness applied with maxAge=0")
	}
}

func TestWatcherSubscribe(t *testing.T) {
	w := NewWatcher(0, timeutil.NewMockClock(parseNow))
	id, ch := w.Subscribe()

	fix := Fix{Coordinate: geo.Coordinate{Lat: 1, Lng: 2}, At: parseNow}
	w.Update(fix)

	select {
	case got := <-ch:
		if got.Coordinate != fix.Coordinate {
			t.Errorf("subscriber got %v, want %v", got.Coordinate, fix.Coordinate)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never notified")
	}

	w.Unsubscribe(id)
	if _, open := <-ch; open {
		t.Error("channel not closed after Unsubscribe")
	}
}

func TestWatcherRunPumpsFixes(t *testing.T) {
	clock := timeutil.NewMockClock(parseNow)
	w := NewWatcher(0, clock)

	fixes := make(chan Fix, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(context.Background(), fixes)
	}()

	fixes <- Fix{Coordinate: geo.Coordinate{Lat: 28.6, Lng: 77.2}, At: clock.Now()}
	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := w.Current(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Run never delivered the fix")
		}
		time.Sleep(time.Millisecond)
	}

	close(fixes)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after channel close")
	}
}

func TestSerialNMEAEmitsFixes(t *testing.T) {
	pr, pw := io.Pipe()
	src := NewSerialNMEA(readWriteCloser{pr}, timeutil.NewMockClock(parseNow))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- src.Run(ctx) }()

	go func() {
		pw.Write([]byte("$GPGSV,3,1,11,03,03,111,00,04,15,270,00*74\r\n"))
		pw.Write([]byte("$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A\r\n"))
	}()

	select {
	case fix := <-src.Fixes():
		if fix.Coordinate.Lat < 48 || fix.Coordinate.Lat > 49 {
			t.Errorf("unexpected fix %v", fix.Coordinate)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no fix emitted")
	}

	pw.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after pipe close")
	}
}

func TestSimulatedWalker(t *testing.T) {
	start := geo.Coordinate{Lat: 28.6139, Lng: 77.2090}
	sim := NewSimulated(start, 0, 10, 100*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sim.Run(ctx)

	first := <-sim.Fixes()
	if first.Coordinate != start {
		t.Errorf("first fix = %v, want start %v", first.Coordinate, start)
	}

	second := <-sim.Fixes()
	if second.Coordinate.Lat <= first.Coordinate.Lat {
		t.Errorf("northward walker did not move north: %v -> %v", first.Coordinate, second.Coordinate)
	}
	if d := geo.Distance(first.Coordinate, second.Coordinate); d < 0.5 || d > 2 {
		t.Errorf("step distance = %.2f m, want ~1 m", d)
	}
}

// readWriteCloser adapts a PipeReader into the port interface.
type readWriteCloser struct{ *io.PipeReader }

func (r readWriteCloser) Write(p []byte) (int, error) { return len(p), nil }

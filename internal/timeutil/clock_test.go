package timeutil

import (
	"testing"
	"time"
)

func TestRealClockNow(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()
	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, want between %v and %v", now, before, after)
	}
}

func TestRealClockSince(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)
	d := clock.Since(past)
	if d < time.Second {
		t.Errorf("Since() = %v, want at least 1s", d)
	}
}

func TestRealClockTicker(t *testing.T) {
	clock := RealClock{}
	ticker := clock.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("ticker did not fire")
	}
}

func TestMockClockNow(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)
	if !clock.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", clock.Now(), start)
	}
}

func TestMockClockSet(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	newTime := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	clock.Set(newTime)
	if !clock.Now().Equal(newTime) {
		t.Errorf("Now() = %v, want %v", clock.Now(), newTime)
	}
}

func TestMockClockAdvance(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)
	clock.Advance(time.Hour)

	expected := start.Add(time.Hour)
	if !clock.Now().Equal(expected) {
		t.Errorf("Now() = %v, want %v", clock.Now(), expected)
	}
}

func TestMockClockSince(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)
	past := start.Add(-30 * time.Minute)
	d := clock.Since(past)
	if d != 30*time.Minute {
		t.Errorf("Since() = %v, want 30m", d)
	}
}

func TestMockTickerFiresOnAdvance(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	ticker := clock.NewTicker(time.Minute)
	defer ticker.Stop()

	select {
	case <-ticker.C():
		t.Fatal("ticker fired before its interval elapsed")
	default:
	}

	clock.Advance(time.Minute)

	select {
	case <-ticker.C():
	default:
		t.Fatal("ticker did not fire after Advance")
	}
}

func TestMockTickerDropsTicksWhenFull(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	// Nobody draining the channel: repeated advances leave exactly one
	// pending tick, the rest are dropped.
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
	}

	count := 0
	for {
		select {
		case <-ticker.C():
			count++
		default:
			if count != 1 {
				t.Errorf("pending ticks = %d, want 1", count)
			}
			return
		}
	}
}

func TestMockTickerFiresEachInterval(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	// A drained consumer sees one tick per interval advanced.
	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		select {
		case <-ticker.C():
		default:
			t.Fatalf("no tick after advance %d", i+1)
		}
	}
}

func TestMockTickerStop(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	ticker := clock.NewTicker(time.Second)
	ticker.Stop()

	clock.Advance(5 * time.Second)

	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestMockTickerTrigger(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	ticker := clock.NewTicker(time.Hour).(*MockTicker)
	defer ticker.Stop()

	now := clock.Now()
	ticker.Trigger(now)

	select {
	case ts := <-ticker.C():
		if !ts.Equal(now) {
			t.Errorf("tick time = %v, want %v", ts, now)
		}
	default:
		t.Fatal("Trigger did not deliver a tick")
	}
}

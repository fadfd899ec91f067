package anim

import (
	"math"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return epoch.Add(time.Duration(ms) * time.Millisecond) }

func TestEasingEndpoints(t *testing.T) {
	for name, ease := range map[string]Easing{
		"Linear":    Linear,
		"QuintOut":  QuintOut,
		"QuadInOut": QuadInOut,
	} {
		if got := ease(0); got != 0 {
			t.Errorf("%s(0) = %v, want 0", name, got)
		}
		if got := ease(1); got != 1 {
			t.Errorf("%s(1) = %v, want 1", name, got)
		}
	}
	if got := QuintOut(0.5); math.Abs(got-0.96875) > 1e-9 {
		t.Errorf("QuintOut(0.5) = %v, want 0.96875", got)
	}
}

func TestTweenReachesTargetExactly(t *testing.T) {
	clock := NewClock(epoch)
	var c Carrier
	var updates []float64
	completed := 0

	tw := clock.Tween(&c, 1, time.Second, TweenOptions{
		OnUpdate:   func(v float64) { updates = append(updates, v) },
		OnComplete: func() { completed++ },
	})

	for ms := 100; ms <= 1300; ms += 100 {
		clock.Advance(at(ms))
	}

	if c.Value != 1 {
		t.Errorf("carrier = %v, want 1", c.Value)
	}
	if completed != 1 {
		t.Errorf("OnComplete called %d times, want 1", completed)
	}
	if len(updates) != 10 {
		t.Errorf("got %d updates, want 10", len(updates))
	}
	for i := 1; i < len(updates); i++ {
		if updates[i] < updates[i-1] {
			t.Errorf("update %d = %v decreased from %v", i, updates[i], updates[i-1])
		}
	}
	select {
	case <-tw.Done():
	default:
		t.Error("Done() not closed after completion")
	}
	if clock.Active() != 0 {
		t.Errorf("Active() = %d, want 0", clock.Active())
	}
}

func TestTweenFromOverride(t *testing.T) {
	clock := NewClock(epoch)
	c := Carrier{Value: 0.7}
	from := 0.0

	clock.Tween(&c, 1, time.Second, TweenOptions{From: &from})
	if c.Value != 0 {
		t.Fatalf("carrier = %v after fromTo start, want 0", c.Value)
	}
	clock.Advance(at(500))
	if math.Abs(c.Value-0.5) > 1e-9 {
		t.Errorf("carrier = %v at half time, want 0.5", c.Value)
	}
}

func TestSupersededTweenStopsQuietly(t *testing.T) {
	clock := NewClock(epoch)
	var c Carrier
	oldUpdates, oldCompleted := 0, 0

	first := clock.Tween(&c, 1, time.Second, TweenOptions{
		OnUpdate:   func(float64) { oldUpdates++ },
		OnComplete: func() { oldCompleted++ },
	})
	clock.Advance(at(200))

	second := clock.Tween(&c, -1, time.Second, TweenOptions{})
	if first.Generation() == c.Generation() {
		t.Fatal("carrier generation did not change")
	}
	for ms := 400; ms <= 1400; ms += 200 {
		clock.Advance(at(ms))
	}

	if oldUpdates != 1 {
		t.Errorf("superseded tween updated %d times, want 1", oldUpdates)
	}
	if oldCompleted != 0 {
		t.Errorf("superseded tween completed %d times, want 0", oldCompleted)
	}
	if !first.Superseded() || first.Finished() {
		t.Errorf("first: superseded=%v finished=%v", first.Superseded(), first.Finished())
	}
	if !second.Finished() || c.Value != -1 {
		t.Errorf("second: finished=%v value=%v", second.Finished(), c.Value)
	}
	select {
	case <-first.Done():
		t.Error("Done() closed for a superseded tween")
	default:
	}
}

func TestIndependentCarriers(t *testing.T) {
	clock := NewClock(epoch)
	var a, b Carrier
	clock.Tween(&a, 10, time.Second, TweenOptions{})
	clock.Tween(&b, 20, 2*time.Second, TweenOptions{})

	clock.Advance(at(1000))
	if a.Value != 10 || b.Value != 10 {
		t.Errorf("a=%v b=%v, want 10 10", a.Value, b.Value)
	}
	clock.Advance(at(2000))
	if b.Value != 20 {
		t.Errorf("b=%v, want 20", b.Value)
	}
}

func TestChainedTweensStartOnNextAdvance(t *testing.T) {
	clock := NewClock(epoch)
	var c Carrier
	var second *Tween

	clock.Tween(&c, 1, 100*time.Millisecond, TweenOptions{
		OnComplete: func() {
			second = clock.Tween(&c, 0, 100*time.Millisecond, TweenOptions{})
		},
	})

	clock.Advance(at(100))
	if second == nil || c.Value != 1 {
		t.Fatalf("first tween did not complete: value=%v", c.Value)
	}
	clock.Advance(at(150))
	if math.Abs(c.Value-0.5) > 1e-9 {
		t.Errorf("value = %v halfway through the chained tween, want 0.5", c.Value)
	}
	clock.Advance(at(200))
	if !second.Finished() || c.Value != 0 {
		t.Errorf("chained tween: finished=%v value=%v", second.Finished(), c.Value)
	}
}

func TestZeroDurationCompletesOnFirstStep(t *testing.T) {
	clock := NewClock(epoch)
	var c Carrier
	tw := clock.Tween(&c, 3, 0, TweenOptions{})
	clock.Advance(epoch)
	if !tw.Finished() || c.Value != 3 {
		t.Errorf("finished=%v value=%v, want true 3", tw.Finished(), c.Value)
	}
}

func TestInterval(t *testing.T) {
	clock := NewClock(epoch)
	fired := 0
	iv := clock.Every(500*time.Millisecond, func() { fired++ })

	clock.Advance(at(499))
	if fired != 0 {
		t.Errorf("fired %d times before the first period", fired)
	}
	clock.Advance(at(500))
	clock.Advance(at(1600))
	if fired != 3 {
		t.Errorf("fired %d times by 1.6s, want 3", fired)
	}

	iv.Stop()
	clock.Advance(at(5000))
	if fired != 3 {
		t.Errorf("fired %d times after Stop, want 3", fired)
	}
}

func TestClockIgnoresTimeGoingBackwards(t *testing.T) {
	clock := NewClock(epoch)
	clock.Advance(at(1000))
	clock.Advance(at(500))
	if !clock.Now().Equal(at(1000)) {
		t.Errorf("Now() = %v, want %v", clock.Now(), at(1000))
	}
}

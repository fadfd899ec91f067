package anim

import "time"

// Carrier is a tweenable value. Starting a tween on a carrier bumps its
// generation, and tweens holding an older generation stop on their next
// step without calling back.
type Carrier struct {
	Value      float64
	generation uint64
}

func (c *Carrier) Generation() uint64 { return c.generation }

// TweenOptions configures a single tween. Zero values mean: start from
// the carrier's current value, linear easing, no callbacks.
type TweenOptions struct {
	From       *float64
	Ease       Easing
	OnUpdate   func(v float64)
	OnComplete func()
}

type Tween struct {
	carrier    *Carrier
	generation uint64
	from, to   float64
	start      time.Time
	duration   time.Duration
	ease       Easing
	onUpdate   func(v float64)
	onComplete func()
	done       chan struct{}
	finished   bool
	superseded bool
}

// Done is closed after the final step and the completion callback.
// It is never closed for a superseded tween.
func (t *Tween) Done() <-chan struct{} { return t.done }

func (t *Tween) Finished() bool { return t.finished }

// Generation is the carrier generation captured when the tween started.
func (t *Tween) Generation() uint64 { return t.generation }

func (t *Tween) Superseded() bool {
	return t.superseded || (!t.finished && t.carrier.generation != t.generation)
}

// Target is the value the tween ends on.
func (t *Tween) Target() float64 { return t.to }

// step advances the tween to now and reports whether it is still running.
func (t *Tween) step(now time.Time) bool {
	if t.carrier.generation != t.generation {
		t.superseded = true
		return false
	}

	progress := 1.0
	if t.duration > 0 {
		progress = float64(now.Sub(t.start)) / float64(t.duration)
	}
	if progress < 0 {
		progress = 0
	}

	value := t.to
	if progress < 1 {
		value = t.from + (t.to-t.from)*t.ease(progress)
	}
	t.carrier.Value = value
	if t.onUpdate != nil {
		t.onUpdate(value)
	}
	if progress < 1 {
		return true
	}

	t.finished = true
	if t.onComplete != nil {
		t.onComplete()
	}
	close(t.done)
	return false
}

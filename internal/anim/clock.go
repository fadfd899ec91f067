package anim

import "time"

// Clock drives tweens and intervals from the frame loop. It owns no
// goroutines: nothing moves until Advance is called, and every callback
// runs inside Advance on the caller's goroutine.
type Clock struct {
	now       time.Time
	tweens    []*Tween
	intervals []*Interval
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time { return c.now }

// Tween starts animating carrier towards to. Any tween already running on
// the same carrier is superseded.
func (c *Clock) Tween(carrier *Carrier, to float64, duration time.Duration, opts TweenOptions) *Tween {
	carrier.generation++

	from := carrier.Value
	if opts.From != nil {
		from = *opts.From
		carrier.Value = from
	}
	ease := opts.Ease
	if ease == nil {
		ease = Linear
	}

	t := &Tween{
		carrier:    carrier,
		generation: carrier.generation,
		from:       from,
		to:         to,
		start:      c.now,
		duration:   duration,
		ease:       ease,
		onUpdate:   opts.OnUpdate,
		onComplete: opts.OnComplete,
		done:       make(chan struct{}),
	}
	c.tweens = append(c.tweens, t)
	return t
}

// Every calls fn once per elapsed interval, measured from now.
func (c *Clock) Every(interval time.Duration, fn func()) *Interval {
	iv := &Interval{period: interval, next: c.now.Add(interval), fn: fn}
	c.intervals = append(c.intervals, iv)
	return iv
}

// Advance moves the clock to now, stepping every running tween once and
// firing due intervals. Tweens started from callbacks take their first
// step on the following Advance.
func (c *Clock) Advance(now time.Time) {
	if now.Before(c.now) {
		now = c.now
	}
	c.now = now

	running := c.tweens
	c.tweens = nil
	var kept []*Tween
	for _, t := range running {
		if t.step(now) {
			kept = append(kept, t)
		}
	}
	c.tweens = append(kept, c.tweens...)

	due := c.intervals
	c.intervals = nil
	var live []*Interval
	for _, iv := range due {
		for iv.period > 0 && !iv.stopped && !iv.next.After(now) {
			iv.next = iv.next.Add(iv.period)
			iv.fn()
		}
		if !iv.stopped {
			live = append(live, iv)
		}
	}
	c.intervals = append(live, c.intervals...)
}

// Active reports how many tweens are still scheduled.
func (c *Clock) Active() int { return len(c.tweens) }

type Interval struct {
	period  time.Duration
	next    time.Time
	fn      func()
	stopped bool
}

func (iv *Interval) Stop() { iv.stopped = true }

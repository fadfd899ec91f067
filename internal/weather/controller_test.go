package weather

import (
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"rainfx/internal/anim"
	"rainfx/internal/raindrops"
)

type composite struct {
	fg, bg image.Image
	alpha  float64
}

type fakeCompositor struct{ calls []composite }

func (f *fakeCompositor) Composite(fg, bg image.Image, alpha float64) {
	f.calls = append(f.calls, composite{fg, bg, alpha})
}

type fakeDisplay struct {
	updates  int
	parallax [][2]float64
}

func (f *fakeDisplay) UpdateTextures() { f.updates++ }
func (f *fakeDisplay) SetParallax(x, y float64) {
	f.parallax = append(f.parallax, [2]float64{x, y})
}

type fakeDroplets struct {
	resets  int
	configs []raindrops.Params
}

func (f *fakeDroplets) Reset()                       { f.resets++ }
func (f *fakeDroplets) Configure(p raindrops.Params) { f.configs = append(f.configs, p) }

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type harness struct {
	c        *Controller
	clock    *anim.Clock
	comp     *fakeCompositor
	display  *fakeDisplay
	droplets *fakeDroplets
	images   Images
	now      time.Time
}

func newHarness(t *testing.T, cfg func(*Config, Images)) *harness {
	t.Helper()
	h := &harness{
		clock:    anim.NewClock(t0),
		comp:     &fakeCompositor{},
		display:  &fakeDisplay{},
		droplets: &fakeDroplets{},
		images:   testImages(),
		now:      t0,
	}
	conf := DefaultConfig(NewCatalog(h.images))
	conf.Seed = 1
	if cfg != nil {
		cfg(&conf, h.images)
	}
	c, err := NewController(conf, h.clock, h.comp, h.display, h.droplets)
	if err != nil {
		t.Fatal(err)
	}
	h.c = c
	return h
}

// run advances the clock in steps until d has elapsed.
func (h *harness) run(d, step time.Duration) {
	end := h.now.Add(d)
	for h.now.Before(end) {
		h.now = h.now.Add(step)
		h.clock.Advance(h.now)
	}
}

func (h *harness) flashComposites() int {
	n := 0
	for _, c := range h.comp.calls {
		if c.fg == h.images.LightningForeground {
			n++
		}
	}
	return n
}

func TestNewControllerComposesInitialPreset(t *testing.T) {
	h := newHarness(t, nil)
	if len(h.comp.calls) != 1 {
		t.Fatalf("composites = %d, want 1", len(h.comp.calls))
	}
	first := h.comp.calls[0]
	if first.fg != h.images.RainForeground || first.alpha != 1 {
		t.Errorf("initial composite = %+v", first)
	}
	if h.c.Active().Name != Rain || h.c.Blend() != 1 || h.display.updates != 1 {
		t.Errorf("active = %s blend = %v updates = %d", h.c.Active().Name, h.c.Blend(), h.display.updates)
	}
}

func TestTransitionBlendsAndSettles(t *testing.T) {
	h := newHarness(t, nil)
	h.comp.calls = nil

	if err := h.c.SelectPreset(Storm); err != nil {
		t.Fatal(err)
	}
	if h.droplets.resets != 1 || h.droplets.configs[len(h.droplets.configs)-1].MaxR != 55 {
		t.Errorf("droplets not reset for storm: %+v", h.droplets)
	}
	if p, ok := h.c.Pending(); !ok || p.Name != Storm {
		t.Errorf("Pending() = %s, %v", p.Name, ok)
	}

	h.run(500*time.Millisecond, 250*time.Millisecond)
	if h.c.Active().Name != Rain {
		t.Errorf("settled on %s before the blend finished", h.c.Active().Name)
	}
	h.run(500*time.Millisecond, 250*time.Millisecond)

	want := []float64{0.25, 0.5, 0.75, 1}
	if len(h.comp.calls) != len(want) {
		t.Fatalf("composites = %+v", h.comp.calls)
	}
	for i, c := range h.comp.calls {
		if c.alpha != want[i] {
			t.Errorf("step %d alpha = %v, want %v", i, c.alpha, want[i])
		}
	}
	if h.c.Active().Name != Storm || h.c.Blend() != 1 {
		t.Errorf("active = %s blend = %v", h.c.Active().Name, h.c.Blend())
	}
	if _, ok := h.c.Pending(); ok {
		t.Error("still pending after completion")
	}
	if h.c.Stats().Transitions != 1 {
		t.Errorf("transitions = %d", h.c.Stats().Transitions)
	}
}

func TestSelectUnknownPresetKeepsActive(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.c.SelectPreset("hail"); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("SelectPreset(hail) = %v", err)
	}
	if h.c.Active().Name != Rain || h.droplets.resets != 0 {
		t.Error("unknown preset changed state")
	}
	if _, ok := h.c.Pending(); ok {
		t.Error("unknown preset started a transition")
	}
}

func TestSupersededTransitionNeverSettles(t *testing.T) {
	h := newHarness(t, nil)
	h.c.SelectPreset(Storm)
	h.run(500*time.Millisecond, 100*time.Millisecond)
	h.c.SelectPreset(Drizzle)
	h.run(1500*time.Millisecond, 100*time.Millisecond)

	if h.c.Active().Name != Drizzle {
		t.Errorf("active = %s, want drizzle", h.c.Active().Name)
	}
	if h.c.Stats().Transitions != 1 {
		t.Errorf("transitions = %d, want 1", h.c.Stats().Transitions)
	}
	last := 0.0
	for _, c := range h.comp.calls[1:] {
		if c.fg == h.images.DrizzleForeground {
			if c.alpha < last {
				t.Fatalf("drizzle blend went backwards: %v after %v", c.alpha, last)
			}
			last = c.alpha
		}
	}
	if last != 1 {
		t.Errorf("drizzle blend ended at %v", last)
	}
}

func TestUpdateWeatherFallsBackToFirstSlide(t *testing.T) {
	h := newHarness(t, nil)
	h.c.SelectPreset(Storm)
	h.run(2*time.Second, 100*time.Millisecond)

	slide, err := h.c.UpdateWeather("#slide-42")
	if err != nil {
		t.Fatal(err)
	}
	if slide.ID != "slide-1" {
		t.Errorf("slide = %+v", slide)
	}
	if p, _ := h.c.Pending(); p.Name != Rain {
		t.Errorf("pending = %s, want rain", p.Name)
	}
}

func TestFlashChanceOneFlashes(t *testing.T) {
	h := newHarness(t, func(cfg *Config, images Images) {
		base := Defaults()
		base.Foreground, base.Background = images.RainForeground, images.RainBackground
		cfg.Catalog = NewCatalogFrom(base, []NamedOverrides{
			{Rain, Overrides{}},
			{Storm, Overrides{
				FlashForeground: images.LightningForeground,
				FlashBackground: images.LightningBackground,
				FlashChance:     Ptr(1.0),
			}},
		})
		cfg.Slides = Slides{{ID: "storm", Weather: Storm}}
		cfg.FlashInterval = 100 * time.Millisecond
	})
	if err := h.c.Start("#storm"); err != nil {
		t.Fatal(err)
	}
	h.run(3*time.Second, 20*time.Millisecond)

	s := h.c.Stats()
	if s.FlashesStarted == 0 || s.FlashesCompleted == 0 {
		t.Fatalf("stats = %+v", s)
	}
	if s.FlashesStarted-s.FlashesCompleted > 1 {
		t.Errorf("overlapping flashes: %+v", s)
	}
	if s.FlashesDropped == 0 {
		t.Error("checks during a running flash were not dropped")
	}
	if n := len(s.LastFlash); n < 4 || n > 9 {
		t.Errorf("last flash has %d steps", n)
	}

	for i, c := range h.comp.calls {
		if c.fg != h.images.LightningForeground {
			continue
		}
		prev := h.comp.calls[i-1]
		if prev.fg != h.images.RainForeground || prev.alpha != 1 {
			t.Fatalf("flash composite %d not preceded by the base at full alpha: %+v", i, prev)
		}
		if c.alpha < 0 || c.alpha > 1 {
			t.Fatalf("flash alpha %v out of range", c.alpha)
		}
	}
}

func TestFlashChanceZeroNeverFlashes(t *testing.T) {
	h := newHarness(t, func(cfg *Config, _ Images) {
		cfg.FlashInterval = 50 * time.Millisecond
	})
	if err := h.c.Start("#slide-1"); err != nil {
		t.Fatal(err)
	}
	h.run(10*time.Second, 50*time.Millisecond)

	if s := h.c.Stats(); s.FlashesStarted != 0 || s.FlashChecks != 0 {
		t.Errorf("stats = %+v", s)
	}
	if n := h.flashComposites(); n != 0 {
		t.Errorf("%d flash composites", n)
	}
}

func TestFlashEndsAtZero(t *testing.T) {
	h := newHarness(t, nil)
	h.c.SelectPreset(Storm)
	h.run(time.Second, 100*time.Millisecond)
	h.comp.calls = nil

	if !h.c.Flash() {
		t.Fatal("Flash() refused to start")
	}
	if h.c.Flash() {
		t.Error("second Flash() started while one was running")
	}
	if h.c.Stats().FlashesDropped != 1 {
		t.Errorf("dropped = %d", h.c.Stats().FlashesDropped)
	}
	h.run(2*time.Second, 10*time.Millisecond)

	if h.c.Flashing() {
		t.Fatal("flash still running after 2s")
	}
	last := h.comp.calls[len(h.comp.calls)-1]
	if last.fg != h.images.LightningForeground || last.alpha != 0 {
		t.Errorf("last composite = %+v, want the flash at alpha 0", last)
	}
	if h.c.Stats().FlashesCompleted != 1 {
		t.Errorf("completed = %d", h.c.Stats().FlashesCompleted)
	}
}

func TestTransitionCancelsFlash(t *testing.T) {
	h := newHarness(t, nil)
	h.c.SelectPreset(Storm)
	h.run(time.Second, 100*time.Millisecond)

	h.c.Flash()
	h.run(50*time.Millisecond, 10*time.Millisecond)
	h.c.SelectPreset(Sunny)
	h.comp.calls = nil
	h.run(2*time.Second, 10*time.Millisecond)

	if n := h.flashComposites(); n != 0 {
		t.Errorf("%d flash composites after the transition started", n)
	}
	if h.c.Flashing() || h.c.Active().Name != Sunny {
		t.Errorf("flashing = %v active = %s", h.c.Flashing(), h.c.Active().Name)
	}
}

func TestTrackPointer(t *testing.T) {
	h := newHarness(t, nil)
	h.c.SetSurfaceSize(800, 600)

	h.c.TrackPointer(800, 0)
	h.run(time.Second, 100*time.Millisecond)
	if x, y := h.c.Parallax(); x != 1 || y != -1 {
		t.Fatalf("parallax = %v, %v; want 1, -1", x, y)
	}

	h.c.TrackPointer(-100, 900)
	h.run(500*time.Millisecond, 500*time.Millisecond)
	x, y := h.c.Parallax()
	// QuintOut(0.5) = 0.96875 of the way from (1, -1) to the clamped (-1, 1).
	if math.Abs(x+0.9375) > 1e-9 || math.Abs(y-0.9375) > 1e-9 {
		t.Errorf("halfway parallax = %v, %v", x, y)
	}
	h.run(time.Second, 100*time.Millisecond)
	if x, y := h.c.Parallax(); x != -1 || y != 1 {
		t.Errorf("parallax = %v, %v; want -1, 1", x, y)
	}

	for _, p := range h.display.parallax {
		if math.Abs(p[0]) > 1 || math.Abs(p[1]) > 1 {
			t.Fatalf("parallax %v left [-1, 1]", p)
		}
	}
}

func TestTrackPointerWithoutSurfaceIsIgnored(t *testing.T) {
	h := newHarness(t, nil)
	h.c.TrackPointer(10, 10)
	h.run(time.Second, 100*time.Millisecond)
	if len(h.display.parallax) != 0 {
		t.Errorf("parallax updates = %v", h.display.parallax)
	}
}

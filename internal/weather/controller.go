package weather

import (
	"fmt"
	"image"
	"math/rand/v2"
	"time"

	"rainfx/internal/anim"
	"rainfx/internal/raindrops"
	"rainfx/internal/utils"
)

// Compositor blends a foreground/background pair onto the offscreen
// surfaces.
type Compositor interface {
	Composite(fg, bg image.Image, alpha float64)
}

// Display is the part of the renderer the controller drives.
type Display interface {
	UpdateTextures()
	SetParallax(x, y float64)
}

// Droplets is the droplet simulation as seen by the controller.
type Droplets interface {
	Reset()
	Configure(raindrops.Params)
}

type Config struct {
	Catalog *Catalog
	Slides  Slides

	// Initial is composited at full alpha before anything else runs.
	Initial string

	TransitionDuration time.Duration
	FlashInterval      time.Duration
	ParallaxDuration   time.Duration

	Seed uint64
	// Rand overrides Seed when set.
	Rand *rand.Rand
}

func DefaultConfig(catalog *Catalog) Config {
	return Config{
		Catalog:            catalog,
		Slides:             DefaultSlides(),
		Initial:            Rain,
		TransitionDuration: time.Second,
		FlashInterval:      500 * time.Millisecond,
		ParallaxDuration:   time.Second,
	}
}

type Stats struct {
	Transitions      int
	FlashChecks      int
	FlashesStarted   int
	FlashesCompleted int
	FlashesDropped   int
	LastFlash        FlashSequence
}

// Controller owns the active weather preset and every time-based effect:
// preset crossfades, lightning and pointer parallax. It is driven by the
// clock it is given and is not safe for concurrent use.
type Controller struct {
	cfg      Config
	clock    *anim.Clock
	comp     Compositor
	display  Display
	droplets Droplets
	rng      *rand.Rand

	active  Preset
	pending *Preset
	blend   anim.Carrier

	flashTicker *anim.Interval
	flashing    bool
	flashID     uint64
	flash       anim.Carrier

	width, height float64
	parallax      [2]float64
	parallaxFrom  [2]float64
	parallaxTo    [2]float64
	parallaxTween anim.Carrier
	parallaxRun   *anim.Tween

	stats Stats
}

func NewController(cfg Config, clock *anim.Clock, comp Compositor, display Display, droplets Droplets) (*Controller, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("weather: no preset catalog")
	}
	if cfg.Initial == "" {
		cfg.Initial = Rain
	}
	initial, err := cfg.Catalog.Lookup(cfg.Initial)
	if err != nil {
		return nil, err
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	}

	c := &Controller{
		cfg:      cfg,
		clock:    clock,
		comp:     comp,
		display:  display,
		droplets: droplets,
		rng:      rng,
		active:   initial,
	}
	c.blend.Value = 1

	comp.Composite(initial.Foreground, initial.Background, 1)
	display.UpdateTextures()
	droplets.Configure(initial.DropletParams())

	utils.Debug("Weather: initial preset %s", initial.Name)
	return c, nil
}

// Start resolves the selection, transitions to it and begins the
// periodic lightning check.
func (c *Controller) Start(selection string) error {
	if c.flashTicker == nil && c.cfg.FlashInterval > 0 {
		c.flashTicker = c.clock.Every(c.cfg.FlashInterval, c.checkFlash)
	}
	_, err := c.UpdateWeather(selection)
	return err
}

// Stop cancels the lightning check. Running tweens finish normally.
func (c *Controller) Stop() {
	if c.flashTicker != nil {
		c.flashTicker.Stop()
		c.flashTicker = nil
	}
}

// UpdateWeather switches to the preset of the selected slide. Unknown
// selections fall back to the first slide.
func (c *Controller) UpdateWeather(selection string) (Slide, error) {
	slide, matched := c.cfg.Slides.Resolve(selection)
	if slide.Weather == "" {
		return slide, fmt.Errorf("weather: no slides configured")
	}
	if !matched && selection != "" {
		utils.Warn("Weather: unknown slide %q, using %s", selection, slide.ID)
	}
	return slide, c.SelectPreset(slide.Weather)
}

// SelectPreset starts a transition to the named preset. Unknown names
// return ErrUnknownPreset and leave the active preset alone.
func (c *Controller) SelectPreset(name string) error {
	p, err := c.cfg.Catalog.Lookup(name)
	if err != nil {
		utils.Warn("Weather: %v", err)
		return err
	}
	c.TransitionTo(p)
	return nil
}

// TransitionTo resets the droplets for p and crossfades the surfaces to
// its textures. A transition started while another runs supersedes it.
func (c *Controller) TransitionTo(p Preset) *anim.Tween {
	utils.Info("Weather: -> %s", p.Name)

	c.droplets.Reset()
	c.droplets.Configure(p.DropletParams())
	c.cancelFlash()

	next := p
	c.pending = &next

	zero := 0.0
	return c.clock.Tween(&c.blend, 1, c.cfg.TransitionDuration, anim.TweenOptions{
		From: &zero,
		OnUpdate: func(v float64) {
			c.comp.Composite(next.Foreground, next.Background, v)
			c.display.UpdateTextures()
		},
		OnComplete: func() {
			c.active = next
			c.pending = nil
			c.stats.Transitions++
			utils.Debug("Weather: settled on %s", next.Name)
		},
	})
}

// Active is the settled preset.
func (c *Controller) Active() Preset { return c.active }

// Pending is the preset being faded in, if any.
func (c *Controller) Pending() (Preset, bool) {
	if c.pending == nil {
		return Preset{}, false
	}
	return *c.pending, true
}

// Current is the preset that governs effects: the pending one during a
// transition, otherwise the active one.
func (c *Controller) Current() Preset {
	if c.pending != nil {
		return *c.pending
	}
	return c.active
}

// Blend is the crossfade progress of the current transition, 1 when
// settled.
func (c *Controller) Blend() float64 { return c.blend.Value }

func (c *Controller) Flashing() bool { return c.flashing }

func (c *Controller) Stats() Stats { return c.stats }

func (c *Controller) checkFlash() {
	p := c.Current()
	if !p.CanFlash() {
		return
	}
	c.stats.FlashChecks++
	if c.rng.Float64() >= p.FlashChance {
		return
	}
	c.Flash()
}

// Flash starts a lightning strike for the current preset. It is dropped
// when a strike is already running or the preset has no lightning
// textures.
func (c *Controller) Flash() bool {
	p := c.Current()
	if p.FlashForeground == nil || p.FlashBackground == nil {
		return false
	}
	if c.flashing {
		c.stats.FlashesDropped++
		utils.Debug("Weather: flash dropped, one is already running")
		return false
	}

	seq := NewFlashSequence(c.rng)
	c.flashing = true
	c.flashID++
	c.flash.Value = 0
	c.stats.FlashesStarted++
	c.stats.LastFlash = seq
	utils.Debug("Weather: flash with %d steps over %v", len(seq), seq.Duration())

	c.runFlashStep(c.flashID, p, seq, 0)
	return true
}

// cancelFlash abandons a running strike so it cannot paint over a new
// preset.
func (c *Controller) cancelFlash() {
	if c.flashing {
		c.flashID++
		c.flashing = false
	}
}

func (c *Controller) runFlashStep(id uint64, p Preset, seq FlashSequence, i int) {
	step := seq[i]
	c.clock.Tween(&c.flash, step.Alpha, step.Duration, anim.TweenOptions{
		Ease: anim.QuintOut,
		OnUpdate: func(v float64) {
			if id != c.flashID {
				return
			}
			c.comp.Composite(p.Foreground, p.Background, 1)
			c.comp.Composite(p.FlashForeground, p.FlashBackground, v)
			c.display.UpdateTextures()
		},
		OnComplete: func() {
			if id != c.flashID {
				return
			}
			if i+1 < len(seq) {
				c.runFlashStep(id, p, seq, i+1)
				return
			}
			c.flashing = false
			c.stats.FlashesCompleted++
		},
	})
}

// SetSurfaceSize sets the extent pointer coordinates are measured in.
func (c *Controller) SetSurfaceSize(width, height int) {
	c.width, c.height = float64(width), float64(height)
}

// TrackPointer eases the parallax offset towards the pointer position,
// given in surface pixels. The offset stays within [-1, 1] on both axes.
func (c *Controller) TrackPointer(x, y float64) {
	if c.width <= 0 || c.height <= 0 {
		return
	}
	to := [2]float64{
		clamp((x/c.width)*2-1, -1, 1),
		clamp((y/c.height)*2-1, -1, 1),
	}
	if to == c.parallaxTo && c.parallaxRun != nil {
		return
	}
	c.parallaxFrom = c.parallax
	c.parallaxTo = to

	zero := 0.0
	c.parallaxRun = c.clock.Tween(&c.parallaxTween, 1, c.cfg.ParallaxDuration, anim.TweenOptions{
		From: &zero,
		Ease: anim.QuintOut,
		OnUpdate: func(v float64) {
			for i := range c.parallax {
				c.parallax[i] = c.parallaxFrom[i] + (c.parallaxTo[i]-c.parallaxFrom[i])*v
			}
			c.display.SetParallax(c.parallax[0], c.parallax[1])
		},
	})
}

// Parallax is the current eased offset.
func (c *Controller) Parallax() (x, y float64) { return c.parallax[0], c.parallax[1] }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

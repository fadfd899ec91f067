package pipeline

import (
	"fmt"
	"image"
	"time"

	"rainfx/internal/anim"
	"rainfx/internal/assets"
	"rainfx/internal/compositor"
	"rainfx/internal/gpu"
	"rainfx/internal/raindrops"
	"rainfx/internal/renderer"
	"rainfx/internal/utils"
	"rainfx/internal/weather"
)

type Config struct {
	Width, Height int
	// Scale is the device pixel ratio the droplet simulation runs at.
	Scale float64
	// DropletResolution sizes the droplet raster relative to the surface.
	DropletResolution float64

	Context  gpu.ContextOptions
	Renderer renderer.Options

	// Weather is the initial selection: a preset name or a slide id.
	Weather       string
	FlashInterval time.Duration
	Seed          uint64
	Start         time.Time
}

func DefaultConfig(width, height int) Config {
	return Config{
		Width:             width,
		Height:            height,
		Scale:             1,
		DropletResolution: raindrops.DefaultResolution,
		Renderer:          renderer.DefaultOptions(),
		Weather:           weather.Rain,
		Start:             time.Now(),
	}
}

type Stats struct {
	Renderer renderer.Stats
	Weather  weather.Stats
}

type surface struct{ w, h int }

func (s surface) Size() (int, int) { return s.w, s.h }

// Pipeline owns one instance of every component and drives them from the
// frame loop. Pipelines share nothing, so several can run side by side.
type Pipeline struct {
	clock      *anim.Clock
	comp       *compositor.Compositor
	program    *gpu.Program
	renderer   *renderer.Renderer
	controller *weather.Controller
	drops      raindrops.Source
	ownsDrops  *raindrops.Simulation
	slides     weather.Slides
	catalog    *weather.Catalog

	last   time.Time
	closed bool
}

// New validates the asset set, then builds the GPU program, renderer and
// weather controller on dev. When drops is nil a Simulation is created
// from the drop sprite assets.
func New(cfg Config, dev gpu.Device, images assets.Set, drops raindrops.Source) (*Pipeline, error) {
	if err := images.Validate(); err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("pipeline: invalid surface size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Now()
	}

	p := &Pipeline{
		clock: anim.NewClock(cfg.Start),
		comp:  compositor.New(),
		last:  cfg.Start,
	}

	if drops == nil {
		sim := raindrops.New(cfg.Width, cfg.Height, raindrops.Options{
			Scale:      cfg.Scale,
			Resolution: cfg.DropletResolution,
			ColorMap:   images[assets.DropColor],
			AlphaMap:   images[assets.DropAlpha],
			Seed:       cfg.Seed,
		})
		p.ownsDrops = sim
		drops = sim
	}
	p.drops = drops

	p.program = gpu.NewProgram(dev)
	if err := p.program.Initialize(surface{cfg.Width, cfg.Height}, cfg.Context, renderer.VertexShader, renderer.FragmentShader); err != nil {
		p.Close()
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	utils.Info("Pipeline: %s context, %dx%d", p.program.Context(), cfg.Width, cfg.Height)

	rend, err := renderer.New(p.program, drops, p.comp, images[assets.Shine], cfg.Renderer, cfg.Start)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	p.renderer = rend

	p.catalog = weather.NewCatalog(weatherImages(images))
	wcfg := weather.DefaultConfig(p.catalog)
	if cfg.FlashInterval > 0 {
		wcfg.FlashInterval = cfg.FlashInterval
	}
	wcfg.Seed = cfg.Seed
	p.slides = wcfg.Slides

	p.controller, err = weather.NewController(wcfg, p.clock, p.comp, rend, drops)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	p.controller.SetSurfaceSize(cfg.Width, cfg.Height)

	if err := p.controller.Start(p.selection(cfg.Weather)); err != nil {
		p.Close()
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return p, nil
}

func weatherImages(s assets.Set) weather.Images {
	return weather.Images{
		RainForeground:      s[assets.RainForeground],
		RainBackground:      s[assets.RainBackground],
		LightningForeground: s[assets.LightningForeground],
		LightningBackground: s[assets.LightningBackground],
		FalloutForeground:   s[assets.FalloutForeground],
		FalloutBackground:   s[assets.FalloutBackground],
		DrizzleForeground:   s[assets.DrizzleForeground],
		DrizzleBackground:   s[assets.DrizzleBackground],
		SunForeground:       s[assets.SunForeground],
		SunBackground:       s[assets.SunBackground],
	}
}

// selection turns a preset name into its slide id; anything else is
// passed through as a slide selection.
func (p *Pipeline) selection(weatherOrSlide string) string {
	for _, s := range p.slides {
		if s.Weather == weatherOrSlide {
			return "#" + s.ID
		}
	}
	return weatherOrSlide
}

// Frame advances every animation to now, steps the droplets and draws.
func (p *Pipeline) Frame(now time.Time) error {
	if p.closed {
		return gpu.ErrReleased
	}
	dt := now.Sub(p.last)
	if dt < 0 {
		dt = 0
	}
	p.last = now

	p.clock.Advance(now)
	p.drops.Update(dt)
	return p.renderer.Render(now)
}

// UpdateWeather switches to the weather of the selected slide, falling
// back to the first slide for unknown selections.
func (p *Pipeline) UpdateWeather(selection string) (weather.Slide, error) {
	return p.controller.UpdateWeather(selection)
}

func (p *Pipeline) SelectPreset(name string) error {
	return p.controller.SelectPreset(name)
}

// TrackPointer takes pointer coordinates in surface pixels.
func (p *Pipeline) TrackPointer(x, y float64) {
	p.controller.TrackPointer(x, y)
}

func (p *Pipeline) Resize(width, height int) error {
	if err := p.renderer.Resize(width, height); err != nil {
		return err
	}
	p.controller.SetSurfaceSize(width, height)
	return nil
}

func (p *Pipeline) Active() weather.Preset { return p.controller.Active() }

func (p *Pipeline) Presets() []string { return p.catalog.Names() }

func (p *Pipeline) Slides() weather.Slides { return p.slides }

func (p *Pipeline) Stats() Stats {
	return Stats{Renderer: p.renderer.Stats(), Weather: p.controller.Stats()}
}

// Surfaces exposes the composited foreground and background, for debug
// views.
func (p *Pipeline) Surfaces() (fg, bg image.Image) {
	return p.comp.Foreground().Image(), p.comp.Background().Image()
}

// Close releases GPU objects and offscreen surfaces. It is safe to call
// more than once.
func (p *Pipeline) Close() {
	if p.closed {
		return
	}
	p.closed = true
	if p.controller != nil {
		p.controller.Stop()
	}
	if p.program != nil {
		p.program.Release()
	}
	p.comp.Close()
	if p.ownsDrops != nil {
		p.ownsDrops.Close()
	}
}

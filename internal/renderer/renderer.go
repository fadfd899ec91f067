package renderer

import (
	"fmt"
	"image"
	"time"

	"rainfx/internal/compositor"
	"rainfx/internal/gpu"
	"rainfx/internal/utils"
)

// Sampler units. Each logical sampler keeps its unit for the life of the
// renderer.
const (
	WaterMapUnit   = 0
	ShineUnit      = 1
	ForegroundUnit = 2
	BackgroundUnit = 3
)

type Options struct {
	Brightness    float32
	AlphaMultiply float32
	AlphaSubtract float32
	MinRefraction float32
	MaxRefraction float32
	RenderShine   bool
	RenderShadow  bool
	ParallaxBg    float32
	ParallaxFg    float32
}

func DefaultOptions() Options {
	return Options{
		Brightness:    1.04,
		AlphaMultiply: 6,
		AlphaSubtract: 3,
		MinRefraction: 256,
		MaxRefraction: 512,
		ParallaxBg:    5,
		ParallaxFg:    20,
	}
}

// TextureSource provides the droplet displacement map.
type TextureSource interface {
	Image() image.Image
}

// VersionedSource is a TextureSource that counts its frames. The water map
// is only re-uploaded when the version moves.
type VersionedSource interface {
	TextureSource
	Version() uint64
}

type Stats struct {
	Frames           uint64
	TextureUploads   uint64
	LastUploadFrame  uint64
	WaterMapUploads  uint64
	LastParallaxSent [2]float32
}

type Renderer struct {
	program    *gpu.Program
	droplets   TextureSource
	compositor *compositor.Compositor
	opts       Options
	start      time.Time

	waterMap *gpu.Texture
	shine    *gpu.Texture
	fg       *gpu.Texture
	bg       *gpu.Texture

	parallaxX, parallaxY float64
	texturesChanged      bool
	waterVersion         uint64
	width, height        int
	stats                Stats
}

// New binds the droplet map, an optional shine texture and the two
// composited surfaces to their samplers and uploads the static uniforms.
func New(program *gpu.Program, droplets TextureSource, comp *compositor.Compositor, shine image.Image, opts Options, start time.Time) (*Renderer, error) {
	r := &Renderer{
		program:    program,
		droplets:   droplets,
		compositor: comp,
		opts:       opts,
		start:      start,
	}

	if shine == nil {
		shine = image.NewNRGBA(image.Rect(0, 0, 1, 1))
	}

	var err error
	if v, ok := droplets.(VersionedSource); ok {
		r.waterVersion = v.Version()
	}
	if r.waterMap, err = program.CreateTexture(droplets.Image(), WaterMapUnit); err != nil {
		return nil, fmt.Errorf("water map texture: %w", err)
	}
	if r.shine, err = program.CreateTexture(shine, ShineUnit); err != nil {
		return nil, fmt.Errorf("shine texture: %w", err)
	}
	if r.fg, err = program.CreateTexture(comp.Foreground().Image(), ForegroundUnit); err != nil {
		return nil, fmt.Errorf("foreground texture: %w", err)
	}
	if r.bg, err = program.CreateTexture(comp.Background().Image(), BackgroundUnit); err != nil {
		return nil, fmt.Errorf("background texture: %w", err)
	}

	if err := r.setStaticUniforms(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) setStaticUniforms() error {
	bg := r.compositor.Background()
	r.width, r.height = r.program.Size()

	uniforms := []struct {
		kind   gpu.UniformKind
		name   string
		values []float32
	}{
		{gpu.Uniform1i, "waterMap", []float32{WaterMapUnit}},
		{gpu.Uniform1i, "textureShine", []float32{ShineUnit}},
		{gpu.Uniform1i, "textureFg", []float32{ForegroundUnit}},
		{gpu.Uniform1i, "textureBg", []float32{BackgroundUnit}},
		{gpu.Uniform2f, "resolution", []float32{float32(r.width), float32(r.height)}},
		{gpu.Uniform1f, "textureRatio", []float32{float32(bg.Width()) / float32(bg.Height())}},
		{gpu.Uniform1i, "renderShine", []float32{boolToFloat(r.opts.RenderShine)}},
		{gpu.Uniform1i, "renderShadow", []float32{boolToFloat(r.opts.RenderShadow)}},
		{gpu.Uniform1f, "minRefraction", []float32{r.opts.MinRefraction}},
		{gpu.Uniform1f, "refractionDelta", []float32{r.opts.MaxRefraction - r.opts.MinRefraction}},
		{gpu.Uniform1f, "brightness", []float32{r.opts.Brightness}},
		{gpu.Uniform1f, "alphaMultiply", []float32{r.opts.AlphaMultiply}},
		{gpu.Uniform1f, "alphaSubtract", []float32{r.opts.AlphaSubtract}},
		{gpu.Uniform1f, "parallaxBg", []float32{r.opts.ParallaxBg}},
		{gpu.Uniform1f, "parallaxFg", []float32{r.opts.ParallaxFg}},
	}

	if err := r.program.Use(); err != nil {
		return err
	}
	for _, u := range uniforms {
		if err := r.program.SetUniform(u.kind, u.name, u.values...); err != nil {
			return err
		}
	}
	return nil
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// SetParallax stores the offset sent with the next frame.
func (r *Renderer) SetParallax(x, y float64) {
	r.parallaxX, r.parallaxY = x, y
}

func (r *Renderer) Parallax() (float64, float64) { return r.parallaxX, r.parallaxY }

// UpdateTextures marks the composited surfaces as changed. They are
// uploaded once at the start of the next frame, however many composites
// happened in between.
func (r *Renderer) UpdateTextures() {
	r.texturesChanged = true
}

// Resize tracks a new surface size.
func (r *Renderer) Resize(width, height int) error {
	if width == r.width && height == r.height {
		return nil
	}
	r.width, r.height = width, height
	r.program.Resize(width, height)
	if err := r.program.Use(); err != nil {
		return err
	}
	return r.program.SetUniform(gpu.Uniform2f, "resolution", float32(width), float32(height))
}

// Render draws one frame: pending texture uploads, then per-frame
// uniforms, then the draw call.
func (r *Renderer) Render(now time.Time) error {
	if err := r.program.Use(); err != nil {
		return err
	}
	r.stats.Frames++

	if r.texturesChanged {
		if err := r.program.UpdateTexture(r.fg, r.compositor.Foreground().Image()); err != nil {
			return err
		}
		if err := r.program.UpdateTexture(r.bg, r.compositor.Background().Image()); err != nil {
			return err
		}
		r.texturesChanged = false
		r.stats.TextureUploads++
		r.stats.LastUploadFrame = r.stats.Frames
	}
	if err := r.uploadWaterMap(); err != nil {
		return err
	}

	px, py := float32(r.parallaxX), float32(r.parallaxY)
	if err := r.program.SetUniform(gpu.Uniform2f, "parallax", px, py); err != nil {
		return err
	}
	r.stats.LastParallaxSent = [2]float32{px, py}
	if err := r.program.SetUniform(gpu.Uniform1f, "time", float32(now.Sub(r.start).Seconds())); err != nil {
		return err
	}

	if err := r.program.Draw(); err != nil {
		return err
	}
	if r.stats.Frames == 1 {
		utils.Debug("Renderer: first frame at %dx%d", r.width, r.height)
	}
	return nil
}

func (r *Renderer) uploadWaterMap() error {
	if v, ok := r.droplets.(VersionedSource); ok {
		version := v.Version()
		if version == r.waterVersion {
			return nil
		}
		r.waterVersion = version
	}
	if err := r.program.UpdateTexture(r.waterMap, r.droplets.Image()); err != nil {
		return err
	}
	r.stats.WaterMapUploads++
	return nil
}

func (r *Renderer) Stats() Stats { return r.stats }

package raindrops

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"time"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"

	"rainfx/internal/utils"
)

const (
	tick = time.Second / 60

	maxDrops        = 900
	maxDroplets     = 4000
	dropFallFactor  = 1.0
	trailSpawnDelay = 1.0

	spriteSize     = 64
	maxSpriteCache = 1024

	// DefaultResolution is the raster size relative to the simulated
	// surface. The renderer samples the map with linear filtering.
	DefaultResolution = 0.5
)

type drop struct {
	x, y      float64
	r         float64
	momentum  float64
	momentumX float64
	spreadX   float64
	spreadY   float64
	lastTrail float64
	nextTrail float64
	shrink    float64
	parent    *drop
	killed    bool
}

type droplet struct {
	x, y, r float64
}

// Simulation is a small droplet model rasterized into a gg pixmap:
// falling drops with trails, collisions that merge drops, and static specks
// that falling drops wipe away. Each pixel carries the drop normal in
// red/green, its depth in blue and coverage in alpha, premultiplied.
//
// Physics runs in surface pixels; the raster is Resolution times smaller.
type Simulation struct {
	width, height int
	scale         float64
	area          float64
	resolution    float64

	canvas  *gg.Pixmap
	frame   *image.RGBA
	sprite  *image.NRGBA
	sprites map[spriteKey][]byte
	version uint64
	blank   bool

	params Params
	rng    *rand.Rand

	drops    []*drop
	droplets []droplet

	dropletsCounter float64
}

type Options struct {
	// Scale is the device pixel ratio; drop radii are multiplied by it.
	Scale float64
	// Resolution of the raster relative to the surface, in (0, 1].
	// Zero means DefaultResolution.
	Resolution float64
	// ColorMap and AlphaMap shape the drop sprite; either may be nil.
	ColorMap, AlphaMap image.Image
	Seed               uint64
}

type spriteKey struct{ w, h int }

// New creates a simulation of a width x height surface.
func New(width, height int, opts Options) *Simulation {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Resolution <= 0 || opts.Resolution > 1 {
		opts.Resolution = DefaultResolution
	}
	rw := max(1, int(math.Ceil(float64(width)*opts.Resolution)))
	rh := max(1, int(math.Ceil(float64(height)*opts.Resolution)))

	canvas := gg.NewPixmap(rw, rh)
	s := &Simulation{
		width:      width,
		height:     height,
		scale:      opts.Scale,
		area:       math.Sqrt(float64(width*height)) / math.Sqrt(1024*768),
		resolution: opts.Resolution,
		canvas:     canvas,
		frame:      &image.RGBA{Pix: canvas.Data(), Stride: 4 * rw, Rect: image.Rect(0, 0, rw, rh)},
		sprite:     DropSprite(opts.ColorMap, opts.AlphaMap, spriteSize),
		sprites:    make(map[spriteKey][]byte),
		blank:      true,
		params:     DefaultParams(),
		rng:        rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeefcafe)),
	}
	utils.Debug("Raindrops: %dx%d simulation, %dx%d raster at scale %.2f", width, height, rw, rh, opts.Scale)
	return s
}

// DropSprite builds a size x size drop image. Missing inputs fall back to
// a hemisphere normal map with a round mask.
func DropSprite(colorMap, alphaMap image.Image, size int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, size, size))
	half := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			nx := (float64(x) + 0.5 - half) / half
			ny := (float64(y) + 0.5 - half) / half

			c := color.NRGBA{
				R: uint8(clamp01(nx*0.5+0.5) * 255),
				G: uint8(clamp01(ny*0.5+0.5) * 255),
			}
			if colorMap != nil {
				c = sample(colorMap, x, y, size)
			}
			a := uint8(0)
			if nx*nx+ny*ny <= 1 {
				a = 255
			}
			if alphaMap != nil {
				a = sample(alphaMap, x, y, size).A
			}
			c.B = 255
			c.A = a
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

func sample(img image.Image, x, y, size int) color.NRGBA {
	b := img.Bounds()
	sx := b.Min.X + x*b.Dx()/size
	sy := b.Min.Y + y*b.Dy()/size
	return color.NRGBAModel.Convert(img.At(sx, sy)).(color.NRGBA)
}

func (s *Simulation) Configure(p Params) {
	s.params = p
}

func (s *Simulation) Params() Params { return s.params }

// Reset discards every drop and droplet.
func (s *Simulation) Reset() {
	s.drops = s.drops[:0]
	s.droplets = s.droplets[:0]
	s.dropletsCounter = 0
	clear(s.canvas.Data())
	s.blank = true
	s.version++
}

func (s *Simulation) Drops() int    { return len(s.drops) }
func (s *Simulation) Droplets() int { return len(s.droplets) }

// Image returns the raster. It is redrawn in place by Update and Reset.
func (s *Simulation) Image() image.Image { return s.frame }

// Version changes every time the raster is redrawn.
func (s *Simulation) Version() uint64 { return s.version }

// Close drops the cached sprites.
func (s *Simulation) Close() {
	clear(s.sprites)
}

func (s *Simulation) random(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func (s *Simulation) chance(p float64) bool {
	return s.rng.Float64() <= p
}

// Update advances the simulation by dt and redraws the frame.
func (s *Simulation) Update(dt time.Duration) {
	if dt <= 0 {
		return
	}
	timeScale := float64(dt) / float64(tick)
	if timeScale > 1.1 {
		timeScale = 1.1
	}

	s.spawnDroplets(timeScale)
	s.spawnRain(timeScale)
	s.moveDrops(timeScale)
	s.draw()
}

func (s *Simulation) spawnDroplets(timeScale float64) {
	p := s.params
	if !p.Raining || p.DropletsRate <= 0 {
		return
	}
	s.dropletsCounter += p.DropletsRate * timeScale * s.area
	for ; s.dropletsCounter >= 1; s.dropletsCounter-- {
		if len(s.droplets) >= maxDroplets {
			continue
		}
		s.droplets = append(s.droplets, droplet{
			x: s.random(0, float64(s.width)),
			y: s.random(0, float64(s.height)),
			r: s.random(p.DropletsSize[0], p.DropletsSize[1]) * s.scale / 2,
		})
	}
}

func (s *Simulation) spawnRain(timeScale float64) {
	p := s.params
	if !p.Raining || p.RainLimit <= 0 {
		return
	}
	limit := int(float64(p.RainLimit) * timeScale * s.area)
	if limit < 1 {
		limit = 1
	}
	for count := 0; count < limit && len(s.drops) < maxDrops && s.chance(p.RainChance*timeScale*s.area); count++ {
		// Cubed so small drops dominate.
		u := s.rng.Float64()
		r := p.MinR + (p.MaxR-p.MinR)*u*u*u
		s.drops = append(s.drops, &drop{
			x:        s.random(0, float64(s.width)),
			y:        s.random(-r, float64(s.height)*0.95),
			r:        r * s.scale / 2,
			momentum: 1 + (r-p.MinR)*0.1 + s.random(0, 2),
			spreadX:  1.5,
			spreadY:  1.5,
		})
	}
}

func (s *Simulation) moveDrops(timeScale float64) {
	p := s.params
	minR := p.MinR * s.scale / 2
	maxR := p.MaxR * s.scale / 2
	deltaR := math.Max(maxR-minR, 1)

	var trails []*drop
	for i, d := range s.drops {
		if d.killed {
			continue
		}

		if d.momentum == 0 && s.chance((d.r-minR*dropFallFactor)*(0.1/deltaR)*timeScale) {
			d.momentum = s.random(0, (d.r/maxR)*4)
		}
		if d.r <= minR && s.chance(0.05*timeScale) {
			d.shrink += 0.01
		}
		d.r -= d.shrink * timeScale
		if d.r <= 0 {
			d.killed = true
			continue
		}

		if p.TrailRate > 0 && d.momentum > 0 {
			d.lastTrail += d.momentum * timeScale * p.TrailRate
			if d.lastTrail > d.nextTrail {
				trails = append(trails, &drop{
					x:       d.x + s.random(-d.r, d.r)*0.1,
					y:       d.y - d.r*0.01,
					r:       d.r * s.random(p.TrailScaleRange[0], p.TrailScaleRange[1]),
					spreadY: d.momentum * 0.1,
					parent:  d,
				})
				d.r *= math.Pow(0.97, timeScale)
				d.lastTrail = 0
				d.nextTrail = s.random(minR, maxR) - d.momentum*2*p.TrailRate + (maxR - d.r)
				if d.nextTrail < trailSpawnDelay {
					d.nextTrail = trailSpawnDelay
				}
			}
		}

		d.spreadX *= math.Pow(0.4, timeScale)
		d.spreadY *= math.Pow(0.7, timeScale)

		moved := d.momentum > 0
		if moved {
			d.y += d.momentum
			d.x += d.momentumX
			if d.y > float64(s.height)+d.r {
				d.killed = true
				continue
			}
			s.cleanDroplets(d, p.DropletsCleaningRadiusMultiplier)
		}

		if moved || d.parent == nil {
			s.collide(i, d, timeScale)
		}

		d.momentum -= math.Max(1, minR*0.5-d.momentum) * 0.1 * timeScale
		if d.momentum < 0 {
			d.momentum = 0
		}
		d.momentumX *= math.Pow(0.7, timeScale)
	}

	live := s.drops[:0]
	for _, d := range s.drops {
		if !d.killed {
			live = append(live, d)
		}
	}
	for _, t := range trails {
		if len(live) < maxDrops {
			live = append(live, t)
		}
	}
	s.drops = live
}

// collide merges d with every later drop it overlaps. The bigger drop
// absorbs the smaller one.
func (s *Simulation) collide(i int, d *drop, timeScale float64) {
	p := s.params
	maxR := p.MaxR * s.scale / 2
	for _, o := range s.drops[i+1:] {
		if o == d || o.killed || o.parent == d || d.parent == o {
			continue
		}
		dx, dy := o.x-d.x, o.y-d.y
		dist := math.Hypot(dx, dy)
		reach := (d.r + o.r) * (p.CollisionRadius + d.momentum*p.CollisionRadiusIncrease*timeScale)
		if dist >= reach {
			continue
		}

		big, small := d, o
		if o.r > d.r {
			big, small = o, d
		}
		big.r = math.Min(maxR, math.Sqrt(big.r*big.r+small.r*small.r*0.8))
		big.momentumX += dx * 0.1
		big.momentum = math.Max(big.momentum, small.momentum) + 1
		big.spreadX, big.spreadY = 0, 0
		small.killed = true
		if small == d {
			return
		}
	}
}

func (s *Simulation) cleanDroplets(d *drop, multiplier float64) {
	reach := d.r * multiplier * 2
	if reach <= 0 {
		return
	}
	kept := s.droplets[:0]
	for _, dl := range s.droplets {
		if math.Abs(dl.x-d.x) < reach && math.Abs(dl.y-d.y) < reach {
			continue
		}
		kept = append(kept, dl)
	}
	s.droplets = kept
}

func (s *Simulation) draw() {
	if len(s.drops) == 0 && len(s.droplets) == 0 && s.blank {
		return
	}
	clear(s.canvas.Data())
	s.blank = len(s.drops) == 0 && len(s.droplets) == 0
	for _, dl := range s.droplets {
		s.stamp(dl.x, dl.y, dl.r, 1, 1, 0.6)
	}
	for _, d := range s.drops {
		s.stamp(d.x, d.y, d.r, 1+d.spreadX, 1+d.spreadY, 1)
	}
	s.canvas.NotifyPixelsChanged()
	s.version++
}

// stamp composites the drop sprite centered on (x, y), in surface pixels,
// over the raster.
func (s *Simulation) stamp(x, y, r, sx, sy, alpha float64) {
	w := int(math.Round(r * 2 * sx * s.resolution))
	h := int(math.Round(r * 2 * sy * 1.5 * s.resolution))
	if w < 1 || h < 1 {
		return
	}
	w, h = min(w, 4*spriteSize), min(h, 4*spriteSize)
	x0 := int(math.Round(x*s.resolution)) - w/2
	y0 := int(math.Round(y*s.resolution)) - h/2
	blend(s.frame, s.scaledSprite(w, h), x0, y0, w, h, uint32(alpha*255+0.5))
}

// scaledSprite returns premultiplied w x h sprite pixels, resampled once
// per size.
func (s *Simulation) scaledSprite(w, h int) []byte {
	key := spriteKey{w, h}
	if pix, ok := s.sprites[key]; ok {
		return pix
	}
	if len(s.sprites) >= maxSpriteCache {
		clear(s.sprites)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), s.sprite, s.sprite.Bounds(), xdraw.Src, nil)
	s.sprites[key] = dst.Pix
	return dst.Pix
}

// blend draws premultiplied src (w x h, tightly packed) at (x0, y0) over
// dst with source-over, scaled by opacity in [0, 255].
func blend(dst *image.RGBA, src []byte, x0, y0, w, h int, opacity uint32) {
	b := dst.Bounds()
	minX, minY := max(x0, b.Min.X), max(y0, b.Min.Y)
	maxX, maxY := min(x0+w, b.Max.X), min(y0+h, b.Max.Y)
	if minX >= maxX || minY >= maxY || opacity == 0 {
		return
	}
	for y := minY; y < maxY; y++ {
		si := 4 * ((y-y0)*w + (minX - x0))
		di := dst.PixOffset(minX, y)
		for x := minX; x < maxX; x++ {
			sa := uint32(src[si+3]) * opacity / 255
			if sa != 0 {
				ia := 255 - sa
				d := dst.Pix[di : di+4 : di+4]
				d[0] = uint8(uint32(src[si])*opacity/255 + uint32(d[0])*ia/255)
				d[1] = uint8(uint32(src[si+1])*opacity/255 + uint32(d[1])*ia/255)
				d[2] = uint8(uint32(src[si+2])*opacity/255 + uint32(d[2])*ia/255)
				d[3] = uint8(sa + uint32(d[3])*ia/255)
			}
			si += 4
			di += 4
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

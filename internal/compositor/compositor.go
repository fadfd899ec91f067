package compositor

import (
	"image"

	"github.com/gogpu/gg"

	"rainfx/internal/utils"
)

// Fixed shader input resolutions. The foreground is sampled through the
// droplet refraction, so it stays small; the background is what shows
// between drops.
const (
	ForegroundWidth  = 96
	ForegroundHeight = 64
	BackgroundWidth  = 384
	BackgroundHeight = 256
)

// Surface is one off-screen canvas. Draws accumulate: nothing is cleared
// between calls, so a draw at alpha < 1 blends over whatever is there.
type Surface struct {
	ctx     *gg.Context
	width   int
	height  int
	alpha   float64
	version uint64
}

func newSurface(width, height int) *Surface {
	return &Surface{ctx: gg.NewContext(width, height), width: width, height: height}
}

func (s *Surface) Width() int  { return s.width }
func (s *Surface) Height() int { return s.height }

// Alpha is the paint alpha of the most recent draw.
func (s *Surface) Alpha() float64 { return s.alpha }

// Version increments on every draw that changed the surface.
func (s *Surface) Version() uint64 { return s.version }

// Image returns a snapshot of the surface pixels.
func (s *Surface) Image() image.Image { return s.ctx.Image() }

func (s *Surface) draw(src *gg.ImageBuf, alpha float64) {
	s.ctx.DrawImageEx(src, gg.DrawImageOptions{
		DstWidth:      float64(s.width),
		DstHeight:     float64(s.height),
		Interpolation: gg.InterpBilinear,
		Opacity:       alpha,
		BlendMode:     gg.BlendNormal,
	})
	s.alpha = alpha
	s.version++
}

// Compositor owns the foreground and background surfaces. Only the
// weather controller draws into them.
type Compositor struct {
	fg, bg *Surface

	// Source images are reused across every tween step, so their gg
	// conversions are kept.
	buffers map[image.Image]*gg.ImageBuf
}

func New() *Compositor {
	return &Compositor{
		fg:      newSurface(ForegroundWidth, ForegroundHeight),
		bg:      newSurface(BackgroundWidth, BackgroundHeight),
		buffers: make(map[image.Image]*gg.ImageBuf),
	}
}

func (c *Compositor) Foreground() *Surface { return c.fg }
func (c *Compositor) Background() *Surface { return c.bg }

// Composite paints fg and bg, each stretched over its whole surface, at
// the given paint alpha. Alpha at or below zero leaves both surfaces
// untouched; alpha above one is treated as one. A nil image skips its
// surface.
func (c *Compositor) Composite(fg, bg image.Image, alpha float64) {
	if alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}
	if fg != nil {
		c.fg.draw(c.buffer(fg), alpha)
	}
	if bg != nil {
		c.bg.draw(c.buffer(bg), alpha)
	}
}

func (c *Compositor) buffer(img image.Image) *gg.ImageBuf {
	if buf, ok := c.buffers[img]; ok {
		return buf
	}
	b := img.Bounds()
	utils.Debug("Compositor: converting %dx%d source image", b.Dx(), b.Dy())
	buf := gg.ImageBufFromImage(img)
	c.buffers[img] = buf
	return buf
}

func (c *Compositor) Close() {
	c.fg.ctx.Close()
	c.bg.ctx.Close()
	c.buffers = nil
}

package debug

import (
	"fmt"
	"image"

	"rainfx/internal/pipeline"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const thumbnailRefresh = 30

// Overlay is the F8 debug panel: frame and weather counters plus
// thumbnails of the two composited surfaces.
type Overlay struct {
	fontHeight   int32
	sidebarWidth int32
	padding      int32

	thumbs [2]rl.Texture2D
	frames int
}

func NewOverlay() *Overlay {
	return &Overlay{fontHeight: 16, sidebarWidth: 330, padding: 10}
}

// Lines formats the panel text.
func Lines(s pipeline.Stats, active string, fps int32) []string {
	w := s.Weather
	return []string{
		fmt.Sprintf("FPS: %d", fps),
		fmt.Sprintf("Weather: %s", active),
		fmt.Sprintf("Frames: %d", s.Renderer.Frames),
		fmt.Sprintf("Surface uploads: %d (last frame %d)", s.Renderer.TextureUploads, s.Renderer.LastUploadFrame),
		fmt.Sprintf("Water map uploads: %d", s.Renderer.WaterMapUploads),
		fmt.Sprintf("Parallax: %.2f, %.2f", s.Renderer.LastParallaxSent[0], s.Renderer.LastParallaxSent[1]),
		fmt.Sprintf("Transitions: %d", w.Transitions),
		fmt.Sprintf("Flashes: %d started, %d done, %d dropped", w.FlashesStarted, w.FlashesCompleted, w.FlashesDropped),
		fmt.Sprintf("Last flash: %d steps", len(w.LastFlash)),
	}
}

func (d *Overlay) refresh(i int, img image.Image) {
	if d.thumbs[i].ID != 0 {
		rl.UnloadTexture(d.thumbs[i])
	}
	rlImg := rl.NewImageFromImage(img)
	d.thumbs[i] = rl.LoadTextureFromImage(rlImg)
	rl.UnloadImage(rlImg)
}

// Draw paints the panel over the current frame.
func (d *Overlay) Draw(p *pipeline.Pipeline) {
	if d.frames%thumbnailRefresh == 0 {
		fg, bg := p.Surfaces()
		d.refresh(0, fg)
		d.refresh(1, bg)
	}
	d.frames++

	lines := Lines(p.Stats(), p.Active().Name, rl.GetFPS())
	height := int32(len(lines))*(d.fontHeight+4) + d.padding*2 + 120

	rl.DrawRectangle(0, 0, d.sidebarWidth, height, rl.Fade(rl.Black, 0.7))
	y := d.padding
	for _, line := range lines {
		rl.DrawText(line, d.padding, y, d.fontHeight, rl.White)
		y += d.fontHeight + 4
	}

	y += d.padding
	x := float32(d.padding)
	for _, tex := range d.thumbs {
		if tex.ID == 0 {
			continue
		}
		scale := float32(100) / float32(tex.Height)
		rl.DrawTextureEx(tex, rl.NewVector2(x, float32(y)), 0, scale, rl.White)
		rl.DrawRectangleLines(int32(x), y, int32(float32(tex.Width)*scale), 100, rl.Gray)
		x += float32(tex.Width)*scale + float32(d.padding)
	}
}

func (d *Overlay) Close() {
	for i := range d.thumbs {
		if d.thumbs[i].ID != 0 {
			rl.UnloadTexture(d.thumbs[i])
			d.thumbs[i] = rl.Texture2D{}
		}
	}
}

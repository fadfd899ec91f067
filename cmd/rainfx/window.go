package main

import (
	"fmt"
	"time"

	"rainfx/internal/assets"
	"rainfx/internal/debug"
	"rainfx/internal/gpu/opengl"
	"rainfx/internal/pipeline"
	"rainfx/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type WindowOptions struct {
	Width, Height int
	FPS           int
	Wallpaper     bool
	X11Pointer    bool
	MSAA          bool
	Weather       string
	FlashInterval time.Duration
	Seed          uint64
}

type Window struct {
	opts     WindowOptions
	device   *opengl.Device
	pipeline *pipeline.Pipeline
	overlay  *debug.Overlay
	pointer  *utils.X11Pointer
	presets  []string

	renderWidth, renderHeight int
	lastX, lastY              float64
	frameErrors               int
}

var presetKeys = []int32{rl.KeyOne, rl.KeyTwo, rl.KeyThree, rl.KeyFour, rl.KeyFive}

func NewWindow(opts WindowOptions, images assets.Set) (*Window, error) {
	var flags uint32 = rl.FlagVsyncHint | rl.FlagWindowResizable
	if opts.MSAA {
		flags |= rl.FlagMsaa4xHint
	}
	if opts.Wallpaper {
		flags |= rl.FlagWindowUndecorated | rl.FlagWindowMousePassthrough
	}
	rl.SetConfigFlags(flags)

	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		width, height = 1280, 720
	}
	rl.InitWindow(int32(width), int32(height), "rainfx")
	if !rl.IsWindowReady() {
		return nil, fmt.Errorf("window creation failed")
	}

	monitor := rl.GetCurrentMonitor()
	if opts.Wallpaper || opts.Width <= 0 || opts.Height <= 0 {
		width, height = rl.GetMonitorWidth(monitor), rl.GetMonitorHeight(monitor)
		rl.SetWindowSize(width, height)
		pos := rl.GetMonitorPosition(monitor)
		rl.SetWindowPosition(int(pos.X), int(pos.Y))
	}
	rl.SetTargetFPS(int32(opts.FPS))

	w := &Window{
		opts:         opts,
		device:       opengl.NewDevice(),
		overlay:      debug.NewOverlay(),
		renderWidth:  rl.GetRenderWidth(),
		renderHeight: rl.GetRenderHeight(),
	}

	scale := rl.GetWindowScaleDPI().X
	if scale <= 0 {
		scale = 1
	}

	cfg := pipeline.DefaultConfig(w.renderWidth, w.renderHeight)
	cfg.Scale = float64(scale)
	cfg.Weather = opts.Weather
	cfg.FlashInterval = opts.FlashInterval
	cfg.Seed = opts.Seed
	cfg.Start = time.Now()

	p, err := pipeline.New(cfg, w.device, images, nil)
	if err != nil {
		w.device.Close()
		rl.CloseWindow()
		return nil, err
	}
	w.pipeline = p
	w.presets = p.Presets()

	if opts.X11Pointer {
		if w.pointer, err = utils.OpenX11Pointer(); err != nil {
			utils.Warn("X11 pointer unavailable, using window events: %v", err)
		}
	}

	utils.Info("Window: %dx%d render surface, dpi scale %.2f", w.renderWidth, w.renderHeight, scale)
	return w, nil
}

func (w *Window) Run() {
	for !rl.WindowShouldClose() {
		w.Update()

		rl.BeginDrawing()
		w.Draw()
		rl.EndDrawing()
	}
}

func (w *Window) Update() {
	for i, key := range presetKeys {
		if i < len(w.presets) && rl.IsKeyPressed(key) {
			if err := w.pipeline.SelectPreset(w.presets[i]); err != nil {
				utils.Warn("Window: %v", err)
			}
		}
	}
	if rl.IsKeyPressed(rl.KeyF8) {
		utils.ShowDebugUI = !utils.ShowDebugUI
	}

	rw, rh := rl.GetRenderWidth(), rl.GetRenderHeight()
	if rw != w.renderWidth || rh != w.renderHeight {
		w.renderWidth, w.renderHeight = rw, rh
		if err := w.pipeline.Resize(rw, rh); err != nil {
			utils.Error("Window: resize to %dx%d: %v", rw, rh, err)
		}
	}

	x, y := w.pointerPosition()
	if x != w.lastX || y != w.lastY {
		w.lastX, w.lastY = x, y
		w.pipeline.TrackPointer(x, y)
	}
}

// pointerPosition returns the pointer in render pixels.
func (w *Window) pointerPosition() (float64, float64) {
	var x, y float64
	if w.pointer != nil {
		px, py, err := w.pointer.Position()
		if err == nil {
			pos := rl.GetWindowPosition()
			x, y = float64(px)-float64(pos.X), float64(py)-float64(pos.Y)
		} else {
			utils.Debug("Window: X11 pointer query failed: %v", err)
			mouse := rl.GetMousePosition()
			x, y = float64(mouse.X), float64(mouse.Y)
		}
	} else {
		mouse := rl.GetMousePosition()
		x, y = float64(mouse.X), float64(mouse.Y)
	}

	if sw := rl.GetScreenWidth(); sw > 0 {
		x *= float64(w.renderWidth) / float64(sw)
	}
	if sh := rl.GetScreenHeight(); sh > 0 {
		y *= float64(w.renderHeight) / float64(sh)
	}
	return x, y
}

func (w *Window) Draw() {
	rl.ClearBackground(rl.Black)

	// Flush raylib's batch before issuing our own GL calls.
	rl.DrawRenderBatchActive()
	if err := w.pipeline.Frame(time.Now()); err != nil {
		w.frameErrors++
		if w.frameErrors == 1 || w.frameErrors%600 == 0 {
			utils.Error("Frame failed (%d times): %v", w.frameErrors, err)
		}
	}

	if utils.ShowDebugUI {
		w.overlay.Draw(w.pipeline)
	}
	if utils.DebugMode {
		rl.DrawFPS(int32(w.renderWidth)-100, 10)
	}
}

func (w *Window) Close() {
	if w.pointer != nil {
		w.pointer.Close()
	}
	w.overlay.Close()
	w.pipeline.Close()
	w.device.Close()
	rl.CloseWindow()
}

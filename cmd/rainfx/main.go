package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"rainfx/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/gogpu/gg"
)

func main() {
	assetsPath := flag.String("assets", "assets", "Directory or .pkg archive with the rain textures")
	weatherFlag := flag.String("weather", "rain", "Initial weather: a preset name (rain, storm, fallout, drizzle, sunny) or a slide id like #slide-2")
	width := flag.Int("width", 0, "Window width (0 uses the monitor width)")
	height := flag.Int("height", 0, "Window height (0 uses the monitor height)")
	fps := flag.Int("fps", 60, "Target frame rate")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	noColor := flag.Bool("no-color", false, "Disable ANSI colors in log output")
	raylibInfo := flag.Bool("raylib-info", false, "Show raylib info messages")
	flashInterval := flag.Duration("flash-interval", 500*time.Millisecond, "How often lightning may strike")
	seed := flag.Uint64("seed", 0, "Random seed (0 picks one from the clock)")
	wallpaperMode := flag.Bool("wallpaper", false, "Borderless, click-through window covering the monitor")
	x11Pointer := flag.Bool("x11-pointer", false, "Track the global pointer through X11 (useful with -wallpaper)")
	msaa := flag.Bool("msaa", false, "Request 4x MSAA")
	decodeTex := flag.String("decode", "", "Decode a .tex file to PNG and exit")
	flag.Parse()

	utils.DebugMode = *debugFlag
	utils.NoColor = *noColor
	utils.ShowRaylibInfo = *raylibInfo
	if level, err := utils.ParseLevel(*logLevel); err != nil {
		utils.Warn("%v, keeping %s", err, utils.CurrentLevel)
	} else {
		utils.CurrentLevel = level
	}
	if utils.DebugMode {
		utils.CurrentLevel = utils.LevelDebug
	}

	rl.SetTraceLogCallback(utils.RaylibLogCallback)
	gg.SetLogger(slog.New(&utils.SlogHandler{Source: "GG"}))

	if *decodeTex != "" {
		if err := runDecode(*decodeTex); err != nil {
			utils.Error("Decode failed: %v", err)
			os.Exit(1)
		}
		return
	}

	utils.Info("--- rainfx start ---")

	images, err := loadAssets(*assetsPath)
	if err != nil {
		utils.Error("Failed to load assets from %s: %v", *assetsPath, err)
		os.Exit(1)
	}

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	window, err := NewWindow(WindowOptions{
		Width:         *width,
		Height:        *height,
		FPS:           *fps,
		Wallpaper:     *wallpaperMode,
		X11Pointer:    *x11Pointer,
		MSAA:          *msaa,
		Weather:       *weatherFlag,
		FlashInterval: *flashInterval,
		Seed:          *seed,
	}, images)
	if err != nil {
		utils.Error("Failed to start: %v", err)
		os.Exit(1)
	}
	defer window.Close()

	utils.Info("Starting render loop...")
	window.Run()
}

package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shimmer/config"
	"github.com/pthm-cable/shimmer/game"
	"github.com/pthm-cable/shimmer/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	mode := flag.String("mode", "", "Field mode: generative or image (empty = use config)")
	imageSrc := flag.String("image", "", "Image path, data URI or URL (implies -mode image)")
	fallback := flag.String("fallback", "", "Image tried once when -image fails")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *imageSrc != "" {
		cfg.Field.Image = *imageSrc
		cfg.Field.Mode = config.ModeImage
	}
	if *fallback != "" {
		cfg.Field.FallbackImage = *fallback
	}
	if *mode != "" {
		m := config.Mode(*mode)
		if !m.Valid() {
			slog.Error("invalid mode", "mode", *mode)
			os.Exit(1)
		}
		cfg.Field.Mode = m
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	opts := game.Options{
		Headless:       *headless,
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		Output:         output,
	}

	if *headless {
		// Headless mode: CPU compositing only, no window
		g := game.NewGame(cfg, opts)
		defer g.Unload()

		slog.Info("starting headless run",
			"seed", rngSeed,
			"mode", cfg.Field.Mode,
			"max_frames", *maxFrames,
		)

		for {
			g.Update()

			if *maxFrames > 0 && int(g.Tick()) >= *maxFrames {
				slog.Info("max frames reached", "tick", g.Tick(), "state", g.Status().State)
				return
			}
		}
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagVsyncHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Shimmer")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	opts.Width = int(rl.GetScreenWidth())
	opts.Height = int(rl.GetScreenHeight())
	g := game.NewGame(cfg, opts)
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.HandleInput()
		g.Update()
		g.Draw()

		if *maxFrames > 0 && int(g.Tick()) >= *maxFrames {
			break
		}
	}
}

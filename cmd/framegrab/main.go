// Framegrab renders the field headlessly and writes one frame as PNG.
//
// Usage: go run ./cmd/framegrab -image photo.jpg -frames 120 -out frame.png
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"time"

	"golang.org/x/image/draw"

	"github.com/pthm-cable/shimmer/config"
	"github.com/pthm-cable/shimmer/game"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	imageSrc := flag.String("image", "", "Image path, data URI or URL (implies image mode)")
	width := flag.Int("width", 0, "Canvas width (0 = config screen width)")
	height := flag.Int("height", 0, "Canvas height (0 = config screen height)")
	frames := flag.Int("frames", 120, "Frames to render before capturing")
	seed := flag.Int64("seed", 1, "RNG seed")
	pointerX := flag.Float64("pointer-x", -1, "Hold the pointer at this x (negative = no pointer)")
	pointerY := flag.Float64("pointer-y", -1, "Hold the pointer at this y")
	scale := flag.Float64("scale", 1, "Output scale factor")
	out := flag.String("out", "frame.png", "Output PNG path")
	timeout := flag.Duration("timeout", 30*time.Second, "Maximum wait for the image to load")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *imageSrc != "" {
		cfg.Field.Mode = config.ModeImage
		cfg.Field.Image = *imageSrc
	}

	g := game.NewGame(cfg, game.Options{
		Headless: true,
		Width:    *width,
		Height:   *height,
		Seed:     *seed,
	})
	defer g.Unload()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := g.WaitIdle(ctx); err != nil {
		log.Fatalf("waiting for field: %v", err)
	}
	status := g.Status()
	if status.State != game.StateReady {
		log.Fatalf("no field: %v", status.Err)
	}

	if *pointerX >= 0 && *pointerY >= 0 {
		g.OnPointerMove(*pointerX, *pointerY)
	}
	for i := 0; i < *frames; i++ {
		g.Update()
	}

	if err := writePNG(*out, g.Frame(), *scale); err != nil {
		log.Fatalf("writing frame: %v", err)
	}
	fmt.Printf("Wrote %s (%s, %d particles, %d frames)\n", *out, status.Mode, status.Particles, g.Tick())
}

// writePNG encodes frame to path, resampled by scale.
func writePNG(path string, frame *image.RGBA, scale float64) error {
	var img image.Image = frame
	if scale > 0 && scale != 1 {
		b := frame.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(b.Dx())*scale), int(float64(b.Dy())*scale)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), frame, b, draw.Src, nil)
		img = dst
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package systems

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"

	"golang.org/x/image/draw"

	"github.com/pthm-cable/shimmer/components"
	"github.com/pthm-cable/shimmer/config"
)

// containScale shrinks the fitted image so it never touches the canvas edges.
const containScale = 0.8

// SampleParams configures SampleImage.
type SampleParams struct {
	Width, Height       int
	Gap                 int // Settings.Gap
	MinGap              int
	AlphaThreshold      uint8
	BrightnessThreshold float64
	Oscillation         config.OscillationConfig
	Depth               bool
}

// SampleParamsFromConfig builds sampling parameters for a canvas.
func SampleParamsFromConfig(cfg *config.Config, settings config.Settings, width, height int) SampleParams {
	return SampleParams{
		Width:               width,
		Height:              height,
		Gap:                 settings.Gap,
		MinGap:              cfg.Field.MinGap,
		AlphaThreshold:      cfg.Field.AlphaThreshold,
		BrightnessThreshold: cfg.Field.BrightnessThreshold,
		Oscillation:         cfg.Oscillation,
		Depth:               cfg.Field.Depth,
	}
}

// Stride returns the effective sampling step in pixels.
func (p SampleParams) Stride() int {
	return maxInt(maxInt(p.MinGap, p.Gap), 1)
}

// ContainRect returns where an image of size (iw, ih) is drawn on a canvas of
// size (cw, ch): scaled to fit, shrunk by containScale, and centered.
func ContainRect(iw, ih, cw, ch int) image.Rectangle {
	scale := math.Min(float64(cw)/float64(iw), float64(ch)/float64(ih)) * containScale
	w := int(math.Round(float64(iw) * scale))
	h := int(math.Round(float64(ih) * scale))
	x := (cw - w) / 2
	y := (ch - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

// SampleImage rasterizes img onto an off-screen canvas-sized buffer and
// spawns one particle per opaque grid pixel. Bright pixels become accents.
func SampleImage(img image.Image, rng *rand.Rand, p SampleParams) (field *Field, err error) {
	defer func() {
		if r := recover(); r != nil {
			field = nil
			err = fmt.Errorf("sampling image: %v", r)
		}
	}()

	if p.Width <= 0 || p.Height <= 0 {
		return nil, ErrEmptyCanvas
	}
	src := img.Bounds()
	if src.Dx() <= 0 || src.Dy() <= 0 {
		return nil, fmt.Errorf("sampling image: %w", ErrEmptyCanvas)
	}

	buf := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.ApproxBiLinear.Scale(buf, ContainRect(src.Dx(), src.Dy(), p.Width, p.Height), img, src, draw.Src, nil)

	field = NewField(config.ModeImage, p.Width, p.Height)
	stride := p.Stride()
	for y := 0; y < p.Height; y += stride {
		for x := 0; x < p.Width; x += stride {
			i := buf.PixOffset(x, y)
			c := color.NRGBA{R: buf.Pix[i], G: buf.Pix[i+1], B: buf.Pix[i+2], A: buf.Pix[i+3]}
			if c.A < p.AlphaThreshold {
				continue
			}
			brightness := (float64(c.R) + float64(c.G) + float64(c.B)) / 3
			look := components.Appearance{
				Color:    c,
				BaseSize: 1,
				Accent:   brightness >= p.BrightnessThreshold,
			}
			field.Spawn(float64(x), float64(y), look, newMotion(rng, p.Oscillation, p.Depth))
		}
	}
	return field, nil
}

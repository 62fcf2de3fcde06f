package systems

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/shimmer/components"
	"github.com/pthm-cable/shimmer/config"
)

// Tree palette anchors; ornaments and the star jitter lightness around these.
var (
	ornamentRed  = colorful.Color{R: 0.86, G: 0.13, B: 0.18}
	ornamentGold = colorful.Color{R: 1.0, G: 0.80, B: 0.25}
	starYellow   = colorful.Color{R: 1.0, G: 0.97, B: 0.78}
)

const (
	ornamentRedShare = 0.4
	ornamentSize     = 1.5
	ornamentSpan     = 0.9 // ornaments stay in the lower 90% and inner 90% of the cone
	branchWaves      = 25.0
	branchDepth      = 0.15
	heightBias       = 0.7
)

// TreeGeometry is the cone the procedural tree is drawn in.
type TreeGeometry struct {
	CX, CY    float64 // Base center
	Height    float64
	MaxRadius float64
}

// NewTreeGeometry computes the tree cone for a canvas.
func NewTreeGeometry(width, height int) TreeGeometry {
	w, h := float64(width), float64(height)
	return TreeGeometry{
		CX:        w / 2,
		CY:        h * 0.85,
		Height:    math.Min(h*0.7, 600),
		MaxRadius: math.Min(w*0.35, 250),
	}
}

// RadiusAt returns the half-width of the tree at height fraction h (0 = base,
// 1 = apex). The sine term carves the wavy branch bands.
func (g TreeGeometry) RadiusAt(h float64) float64 {
	return g.MaxRadius * (1 - h) * (1 + branchDepth*math.Sin(branchWaves*h))
}

// Apex returns the top of the tree.
func (g TreeGeometry) Apex() (x, y float64) {
	return g.CX, g.CY - g.Height
}

// TreeParams configures GenerateTree.
type TreeParams struct {
	Width, Height int
	Tree          config.TreeConfig
	Oscillation   config.OscillationConfig
	Depth         bool
}

// TreeParamsFromConfig builds tree parameters for a canvas from cfg.
func TreeParamsFromConfig(cfg *config.Config, width, height int) TreeParams {
	return TreeParams{
		Width:       width,
		Height:      height,
		Tree:        cfg.Tree,
		Oscillation: cfg.Oscillation,
		Depth:       cfg.Field.Depth,
	}
}

// GenerateTree builds a fresh procedural tree field. Body particles whose
// sampled offset falls outside the cone are skipped, not retried, which thins
// the silhouette edges.
func GenerateTree(rng *rand.Rand, p TreeParams) (*Field, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, ErrEmptyCanvas
	}

	field := NewField(config.ModeGenerative, p.Width, p.Height)
	geo := NewTreeGeometry(p.Width, p.Height)
	spawn := func(x, y float64, look components.Appearance) {
		x = clampFloat(x, 0, float64(p.Width-1))
		y = clampFloat(y, 0, float64(p.Height-1))
		field.Spawn(x, y, look, newMotion(rng, p.Oscillation, p.Depth))
	}

	// Body
	alphaSpan := p.Tree.BodyAlphaMax - p.Tree.BodyAlphaMin
	for i := 0; i < p.Tree.BodyCount; i++ {
		h := 1 - math.Pow(rng.Float64(), heightBias)
		radius := geo.RadiusAt(h)
		xOff := (rng.Float64()*2 - 1) * radius
		if math.Abs(xOff) >= radius {
			continue
		}
		look := components.Appearance{
			Color: color.NRGBA{
				R: uint8(20 + rng.Intn(40)),
				G: uint8(100 + rng.Intn(100)),
				B: uint8(40 + rng.Intn(40)),
				A: alphaByte(p.Tree.BodyAlphaMin + rng.Float64()*alphaSpan),
			},
			BaseSize: 1,
		}
		spawn(geo.CX+xOff, geo.CY-h*geo.Height, look)
	}

	// Ornaments
	for i := 0; i < p.Tree.OrnamentCount; i++ {
		h := rng.Float64() * ornamentSpan
		radius := geo.RadiusAt(h) * ornamentSpan
		xOff := (rng.Float64()*2 - 1) * radius
		base := ornamentGold
		if rng.Float64() < ornamentRedShare {
			base = ornamentRed
		}
		look := components.Appearance{
			Color:    jitterColor(rng, base, 0.08),
			BaseSize: ornamentSize,
			Accent:   true,
		}
		spawn(geo.CX+xOff, geo.CY-h*geo.Height, look)
	}

	// Star
	ax, ay := geo.Apex()
	for i := 0; i < p.Tree.StarCount; i++ {
		angle := rng.Float64() * 2 * math.Pi
		dist := math.Sqrt(rng.Float64()) * p.Tree.StarRadius
		look := components.Appearance{
			Color:    jitterColor(rng, starYellow, 0.04),
			BaseSize: 1,
			Accent:   true,
		}
		spawn(ax+math.Cos(angle)*dist, ay+math.Sin(angle)*dist, look)
	}

	return field, nil
}

// newMotion draws per-particle oscillation and depth parameters.
func newMotion(rng *rand.Rand, osc config.OscillationConfig, depth bool) components.Motion {
	m := components.Motion{
		Phase:            rng.Float64() * 2 * math.Pi,
		OscillationSpeed: osc.BaseSpeed + rng.Float64()*osc.Jitter,
	}
	if depth {
		m.Depth = rng.Float64()*2 - 1
		m.HasDepth = true
	}
	return m
}

// jitterColor varies the lightness of base in HCL space and returns an opaque color.
func jitterColor(rng *rand.Rand, base colorful.Color, amount float64) color.NRGBA {
	h, c, l := base.Hcl()
	l = clamp01(l + (rng.Float64()*2-1)*amount)
	r, g, b := colorful.Hcl(h, c, l).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func alphaByte(a float64) uint8 {
	return uint8(math.Round(clamp01(a) * 255))
}

// Package renderer composites particle fields into an RGBA raster and presents
// that raster in a raylib window.
package renderer

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/pthm-cable/shimmer/components"
	"github.com/pthm-cable/shimmer/config"
)

// circleKappa places cubic Bézier control points so four segments approximate a circle.
const circleKappa = 0.5522847498

// Compositor owns the persistent frame. Each frame is a translucent fade over
// the previous one followed by anti-aliased disks, which leaves motion trails.
type Compositor struct {
	canvas     *image.RGBA
	fade       *image.Uniform
	background color.RGBA
	ras        *vector.Rasterizer

	glowScale float64
	glowAlpha float64
}

// NewCompositor creates a compositor for a width x height canvas, filled with
// the opaque background.
func NewCompositor(width, height int, rc config.RenderConfig, derived config.DerivedConfig) *Compositor {
	c := &Compositor{
		fade:       image.NewUniform(derived.FadeColor),
		background: derived.Background,
		ras:        vector.NewRasterizer(1, 1),
		glowScale:  rc.GlowScale,
		glowAlpha:  rc.GlowAlpha,
	}
	c.Resize(width, height)
	return c
}

// Resize replaces the canvas. Trails are not carried across a resize.
func (c *Compositor) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if c.canvas != nil && c.canvas.Rect.Dx() == width && c.canvas.Rect.Dy() == height {
		return
	}
	c.canvas = image.NewRGBA(image.Rect(0, 0, width, height))
	c.Clear()
}

// Clear fills the canvas with the opaque background.
func (c *Compositor) Clear() {
	draw.Draw(c.canvas, c.canvas.Rect, image.NewUniform(c.background), image.Point{}, draw.Src)
}

// Fade paints the translucent fade layer over the whole canvas.
func (c *Compositor) Fade() {
	draw.Draw(c.canvas, c.canvas.Rect, c.fade, image.Point{}, draw.Over)
}

// DrawParticle draws one particle at its current position. Accents get a
// larger, fainter glow disk underneath.
func (c *Compositor) DrawParticle(pos components.Position, look components.Appearance, render components.Render) {
	alpha := float64(look.Color.A) / 255 * render.Alpha
	if look.Accent && c.glowScale > 0 && c.glowAlpha > 0 {
		c.Disk(pos.X, pos.Y, render.Size*c.glowScale, look.Color, alpha*c.glowAlpha)
	}
	c.Disk(pos.X, pos.Y, render.Size, look.Color, alpha)
}

// Disk composites a filled anti-aliased disk of the given color at opacity
// alpha. The color's own alpha is ignored; pass it in through alpha. Disks
// partly or fully off-canvas are clipped.
func (c *Compositor) Disk(x, y, radius float64, col color.NRGBA, alpha float64) {
	if radius <= 0 || alpha <= 0 || math.IsNaN(x) || math.IsNaN(y) {
		return
	}
	if alpha > 1 {
		alpha = 1
	}

	// The rasterizer only covers the disk's bounding box, clipped to the canvas
	bounds := image.Rect(
		int(math.Floor(x-radius)), int(math.Floor(y-radius)),
		int(math.Ceil(x+radius)), int(math.Ceil(y+radius)),
	).Intersect(c.canvas.Rect)
	if bounds.Empty() {
		return
	}

	cx := float32(x - float64(bounds.Min.X))
	cy := float32(y - float64(bounds.Min.Y))
	r := float32(radius)
	k := r * circleKappa

	c.ras.Reset(bounds.Dx(), bounds.Dy())
	c.ras.MoveTo(cx+r, cy)
	c.ras.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	c.ras.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	c.ras.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	c.ras.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	c.ras.ClosePath()

	src := image.NewUniform(premultiply(col, alpha))
	c.ras.DrawOp = draw.Over
	c.ras.Draw(c.canvas, bounds, src, image.Point{})
}

// Frame returns the live canvas. It is overwritten by the next frame.
func (c *Compositor) Frame() *image.RGBA {
	return c.canvas
}

// Size returns the canvas dimensions.
func (c *Compositor) Size() (width, height int) {
	return c.canvas.Rect.Dx(), c.canvas.Rect.Dy()
}

func premultiply(col color.NRGBA, alpha float64) color.RGBA {
	return color.RGBA{
		R: uint8(math.Round(float64(col.R) * alpha)),
		G: uint8(math.Round(float64(col.G) * alpha)),
		B: uint8(math.Round(float64(col.B) * alpha)),
		A: uint8(math.Round(255 * alpha)),
	}
}

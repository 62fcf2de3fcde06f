package renderer

import (
	"image"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Presenter uploads the composited frame into a GPU texture and draws it.
type Presenter struct {
	tex         rl.Texture2D
	pixels      []color.RGBA
	texW, texH  int
	initialized bool
}

// NewPresenter creates a presenter. The texture is created lazily on the first
// Draw, after the raylib window exists.
func NewPresenter() *Presenter {
	return &Presenter{}
}

func (p *Presenter) init(w, h int) {
	if p.initialized {
		rl.UnloadTexture(p.tex)
	}
	img := rl.GenImageColor(w, h, rl.Black)
	p.tex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)

	p.texW = w
	p.texH = h
	p.pixels = make([]color.RGBA, w*h)
	p.initialized = true
}

// Draw uploads frame and draws it at the window origin. The texture is
// recreated when the frame size changes.
func (p *Presenter) Draw(frame *image.RGBA) {
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	if w == 0 || h == 0 {
		return
	}
	if !p.initialized || w != p.texW || h != p.texH {
		p.init(w, h)
	}

	for y := 0; y < h; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+w*4]
		out := p.pixels[y*w : (y+1)*w]
		for x := range out {
			out[x] = color.RGBA{R: row[x*4], G: row[x*4+1], B: row[x*4+2], A: 255}
		}
	}

	rl.UpdateTexture(p.tex, p.pixels)
	rl.DrawTexture(p.tex, 0, 0, rl.White)
}

// Unload frees GPU resources.
func (p *Presenter) Unload() {
	if !p.initialized {
		return
	}
	rl.UnloadTexture(p.tex)
	p.initialized = false
}

package systems

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/pthm-cable/shimmer/config"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func testSampleParams(w, h, gap int) SampleParams {
	return SampleParams{
		Width:               w,
		Height:              h,
		Gap:                 gap,
		MinGap:              1,
		AlphaThreshold:      20,
		BrightnessThreshold: 200,
		Oscillation:         config.OscillationConfig{BaseSpeed: 0.02},
	}
}

func TestContainRect(t *testing.T) {
	tests := []struct {
		iw, ih, cw, ch int
		want           image.Rectangle
	}{
		{200, 100, 200, 100, image.Rect(20, 10, 180, 90)},
		{100, 100, 1000, 500, image.Rect(300, 50, 700, 450)},
		{400, 100, 1000, 1000, image.Rect(100, 400, 900, 600)},
	}
	for _, tc := range tests {
		if got := ContainRect(tc.iw, tc.ih, tc.cw, tc.ch); got != tc.want {
			t.Errorf("ContainRect(%d,%d,%d,%d) = %v, want %v", tc.iw, tc.ih, tc.cw, tc.ch, got, tc.want)
		}
	}
}

func TestSampleImageCountScalesWithGap(t *testing.T) {
	img := solidImage(200, 100, color.NRGBA{R: 90, G: 90, B: 90, A: 255})
	rng := rand.New(rand.NewSource(1))

	counts := map[int]int{}
	for _, gap := range []int{4, 8} {
		field, err := SampleImage(img, rng, testSampleParams(200, 100, gap))
		if err != nil {
			t.Fatalf("gap %d: %v", gap, err)
		}
		counts[gap] = field.Len()

		// Drawn area is 160x80
		want := (160 / gap) * (80 / gap)
		if diff := field.Len() - want; diff < -want/10 || diff > want/10 {
			t.Errorf("gap %d: expected ~%d particles, got %d", gap, want, field.Len())
		}
		if field.Accents() != 0 {
			t.Errorf("gap %d: expected no accents on a dark image, got %d", gap, field.Accents())
		}
	}

	ratio := float64(counts[4]) / float64(counts[8])
	if ratio < 3.5 || ratio > 4.5 {
		t.Errorf("expected ~4x fewer particles when gap doubles, ratio %.2f", ratio)
	}
}

func TestSampleImageSkipsTransparent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 100; x < 200; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	field, err := SampleImage(img, rand.New(rand.NewSource(2)), testSampleParams(200, 100, 2))
	if err != nil {
		t.Fatal(err)
	}
	if field.Len() == 0 {
		t.Fatal("expected particles from the opaque half")
	}

	query := field.Query()
	for query.Next() {
		anchor, _, _, look, _, _ := query.Get()
		// Opaque half starts at canvas x = 20 + 100*0.8
		if anchor.X < 97 {
			t.Errorf("particle at x=%f sampled from transparent half", anchor.X)
		}
		if look.Color.A < 20 {
			t.Errorf("particle alpha %d below threshold", look.Color.A)
		}
		if !look.Accent {
			t.Errorf("white pixel at (%f, %f) not flagged accent", anchor.X, anchor.Y)
		}
	}
}

func TestSampleImageOriginsInCanvas(t *testing.T) {
	img := solidImage(37, 91, color.NRGBA{R: 10, G: 200, B: 30, A: 255})
	field, err := SampleImage(img, rand.New(rand.NewSource(3)), testSampleParams(640, 480, 3))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range field.Snapshot(nil) {
		if s.Anchor.X < 0 || s.Anchor.X >= 640 || s.Anchor.Y < 0 || s.Anchor.Y >= 480 {
			t.Errorf("origin outside canvas: %+v", s.Anchor)
		}
		if s.Pos.X != s.Anchor.X || s.Pos.Y != s.Anchor.Y {
			t.Errorf("expected particle to start at its origin: %+v", s)
		}
	}
}

func TestSampleParamsStride(t *testing.T) {
	tests := []struct {
		gap, minGap, want int
	}{
		{4, 2, 4},
		{1, 2, 2},
		{0, 0, 1},
		{-3, 1, 1},
	}
	for _, tc := range tests {
		p := SampleParams{Gap: tc.gap, MinGap: tc.minGap}
		if got := p.Stride(); got != tc.want {
			t.Errorf("Stride(gap=%d, min=%d) = %d, want %d", tc.gap, tc.minGap, got, tc.want)
		}
	}
}

func TestSampleImageErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	if _, err := SampleImage(image.NewNRGBA(image.Rect(0, 0, 0, 0)), rng, testSampleParams(100, 100, 2)); err == nil {
		t.Error("expected error for empty image")
	}
	if _, err := SampleImage(solidImage(10, 10, color.NRGBA{A: 255}), rng, testSampleParams(0, 100, 2)); err != ErrEmptyCanvas {
		t.Errorf("expected ErrEmptyCanvas, got %v", err)
	}
}

func TestSampleImageAccentThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	p := testSampleParams(100, 100, 5)

	at, err := SampleImage(solidImage(20, 20, color.NRGBA{R: 200, G: 200, B: 200, A: 255}), rng, p)
	if err != nil {
		t.Fatal(err)
	}
	if at.Accents() != at.Len() {
		t.Errorf("expected every pixel at the threshold to be an accent, got %d of %d", at.Accents(), at.Len())
	}

	below, err := SampleImage(solidImage(20, 20, color.NRGBA{R: 199, G: 199, B: 199, A: 255}), rng, p)
	if err != nil {
		t.Fatal(err)
	}
	if below.Accents() != 0 {
		t.Errorf("expected no accents below the threshold, got %d", below.Accents())
	}
}

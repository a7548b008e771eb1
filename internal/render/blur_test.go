package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/andresmejia3/facemask/internal/types"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// checker builds a high-contrast pattern so any blur is visible.
func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func clone(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	return out
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   types.Rectangle
		want types.Rectangle
	}{
		{"Inside", types.Rectangle{X: 10, Y: 10, Width: 20, Height: 20}, types.Rectangle{X: 10, Y: 10, Width: 20, Height: 20}},
		{"Overflows right and bottom", types.Rectangle{X: 90, Y: 40, Width: 20, Height: 20}, types.Rectangle{X: 90, Y: 40, Width: 10, Height: 10}},
		{"Negative origin", types.Rectangle{X: -5, Y: -5, Width: 20, Height: 20}, types.Rectangle{X: 0, Y: 0, Width: 20, Height: 20}},
		{"Fully outside", types.Rectangle{X: 110, Y: 0, Width: 20, Height: 20}, types.Rectangle{X: 110, Y: 0, Width: 0, Height: 20}},
		{"Inverted", types.Rectangle{X: 50, Y: 20, Width: -30, Height: 10}, types.Rectangle{X: 50, Y: 20, Width: 0, Height: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.in, 100, 50); got != tt.want {
				t.Errorf("Clamp() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBlurRegion_ZeroRadiusIsNoop(t *testing.T) {
	for _, radius := range []int{0, -3} {
		img := checker(40, 40)
		before := clone(img)
		BlurRegion(img, types.Rectangle{X: 5, Y: 5, Width: 20, Height: 20}, radius)
		if !bytes.Equal(img.Pix, before.Pix) {
			t.Errorf("radius %d mutated the surface", radius)
		}
	}
}

func TestBlurRegion_OutOfBoundsIsNoop(t *testing.T) {
	rects := []types.Rectangle{
		{X: 50, Y: 0, Width: 10, Height: 10}, // surface_width + 10
		{X: 0, Y: 60, Width: 10, Height: 10},
		{X: 10, Y: 10, Width: -5, Height: 10},
		{X: 10, Y: 10, Width: 0, Height: 0},
	}
	for _, r := range rects {
		img := checker(40, 40)
		before := clone(img)
		BlurRegion(img, r, 4)
		if !bytes.Equal(img.Pix, before.Pix) {
			t.Errorf("rect %+v mutated the surface", r)
		}
	}
}

func TestBlurRegion_LeavesOutsideUntouched(t *testing.T) {
	// Solid background with a checkered patch in the middle.
	img := solid(60, 60, color.RGBA{200, 30, 30, 255})
	patch := checker(20, 20)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.SetRGBA(20+x, 20+y, patch.RGBAAt(x, y))
		}
	}
	before := clone(img)

	rect := types.Rectangle{X: 15, Y: 15, Width: 30, Height: 30}
	BlurRegion(img, rect, 5)

	inside := image.Rect(15, 15, 45, 45)
	changed := false
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			p := image.Pt(x, y)
			if p.In(inside) {
				if img.RGBAAt(x, y) != before.RGBAAt(x, y) {
					changed = true
				}
				continue
			}
			if img.RGBAAt(x, y) != before.RGBAAt(x, y) {
				t.Fatalf("Pixel (%d,%d) outside the region changed: %v -> %v", x, y, before.RGBAAt(x, y), img.RGBAAt(x, y))
			}
		}
	}
	if !changed {
		t.Error("Expected pixels inside the region to change")
	}
}

func TestBlurRegion_SolidColorStaysSolid(t *testing.T) {
	c := color.RGBA{10, 120, 240, 255}
	img := solid(30, 30, c)
	BlurRegion(img, types.Rectangle{X: 0, Y: 0, Width: 30, Height: 30}, 6)
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			if got := img.RGBAAt(x, y); got != c {
				t.Fatalf("Pixel (%d,%d) = %v, want %v", x, y, got, c)
			}
		}
	}
}

func TestBlurRegion_SpreadsValues(t *testing.T) {
	img := solid(21, 21, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(10, 10, color.RGBA{255, 255, 255, 255})

	BlurRegion(img, types.Rectangle{X: 0, Y: 0, Width: 21, Height: 21}, 2)

	if center := img.RGBAAt(10, 10).R; center == 255 {
		t.Error("Expected the bright pixel to be spread out")
	}
	if near := img.RGBAAt(12, 10).R; near == 0 {
		t.Error("Expected a neighbor within the radius to pick up brightness")
	}
	if far := img.RGBAAt(0, 0).R; far != 0 {
		t.Errorf("Expected a pixel far outside the radius to stay dark, got %d", far)
	}
}

func TestBlurRegion_ClipsOverflowingRect(t *testing.T) {
	img := checker(30, 30)
	before := clone(img)
	BlurRegion(img, types.Rectangle{X: 20, Y: 20, Width: 100, Height: 100}, 3)

	for y := 0; y < 20; y++ {
		for x := 0; x < 30; x++ {
			if img.RGBAAt(x, y) != before.RGBAAt(x, y) {
				t.Fatalf("Pixel (%d,%d) above the region changed", x, y)
			}
		}
	}
	if bytes.Equal(img.Pix, before.Pix) {
		t.Error("Expected the in-bounds part of the region to be blurred")
	}
}

func TestBlurRegion_Deterministic(t *testing.T) {
	rect := types.Rectangle{X: 4, Y: 4, Width: 24, Height: 24}

	a := checker(32, 32)
	BlurRegion(a, rect, 3)
	BlurRegion(a, rect, 3)

	b := checker(32, 32)
	BlurRegion(b, rect, 3)
	BlurRegion(b, rect, 3)

	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("Two identical blur sequences produced different output")
	}
}

func TestBlurRegion_OffsetSurface(t *testing.T) {
	// A surface whose bounds do not start at the origin is addressed in local coordinates.
	img := image.NewRGBA(image.Rect(100, 100, 140, 140))
	base := checker(40, 40)
	copy(img.Pix, base.Pix)
	before := clone(img)

	BlurRegion(img, types.Rectangle{X: 0, Y: 0, Width: 10, Height: 10}, 2)

	if img.RGBAAt(130, 130) != before.RGBAAt(130, 130) {
		t.Error("Pixel outside the local region changed")
	}
	if img.RGBAAt(105, 105) == before.RGBAAt(105, 105) && img.RGBAAt(104, 105) == before.RGBAAt(104, 105) {
		t.Error("Expected the local region to be blurred")
	}
}

func TestBoxRadii(t *testing.T) {
	for _, sigma := range []float64{1, 2, 5, 10, 25} {
		radii := boxRadii(sigma, gaussPasses)
		if len(radii) != gaussPasses {
			t.Fatalf("sigma %v: expected %d radii, got %d", sigma, gaussPasses, len(radii))
		}
		// Variance of a box of width w is (w^2-1)/12; the passes should sum to ~sigma^2.
		var variance float64
		for _, r := range radii {
			w := float64(2*r + 1)
			variance += (w*w - 1) / 12
		}
		if variance < sigma*sigma*0.5 || variance > sigma*sigma*1.5 {
			t.Errorf("sigma %v: radii %v give variance %v", sigma, radii, variance)
		}
	}
}

func TestRadiusFor(t *testing.T) {
	if got := RadiusFor(1000, 600); got != 9 {
		t.Errorf("RadiusFor(1000, 600) = %d, want 9", got)
	}
	if got := RadiusFor(20, 20); got != 0 {
		t.Errorf("RadiusFor(20, 20) = %d, want 0", got)
	}
}

func TestDecodeEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, checker(8, 6)); err != nil {
		t.Fatal(err)
	}
	surface, format, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if surface.Bounds() != image.Rect(0, 0, 8, 6) {
		t.Errorf("Unexpected bounds %v", surface.Bounds())
	}

	var out bytes.Buffer
	if err := Encode(&out, surface, FormatForPath("out.PNG")); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := png.Decode(&out); err != nil {
		t.Errorf("Encoded output is not png: %v", err)
	}

	if _, _, err := Decode(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("Expected an error for garbage input")
	}
}

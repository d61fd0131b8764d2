package extract

import (
	"image"
	"image/color"
	"testing"
)

func TestGrayPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(1, 0, color.RGBA{A: 255})

	pixels, width, height := grayPixels(img)
	if width != 2 || height != 1 {
		t.Fatalf("unexpected dimensions %dx%d", width, height)
	}
	if pixels[0] != 255 || pixels[1] != 0 {
		t.Errorf("expected white/black, got %v", pixels)
	}
}

func TestCropGrayPatch(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for i := range img.Pix {
		img.Pix[i] = 90
	}

	patch := cropGrayPatch(img, Region{Top: 10, Right: 60, Bottom: 60, Left: 10})
	if len(patch) != PatchSize*PatchSize {
		t.Fatalf("unexpected patch length %d", len(patch))
	}
	for i, v := range patch {
		if v != 90 {
			t.Fatalf("uniform source must yield a uniform patch, pixel %d = %d", i, v)
		}
	}
}

func TestCropGrayPatch_TransparentSource(t *testing.T) {
	// Half-transparent white: the crop must reproduce the source pixel's
	// converted value, not composite it over anything.
	img := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			img.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 128})
		}
	}

	patch := cropGrayPatch(img, Region{Top: 0, Right: 50, Bottom: 50, Left: 0})
	for i, v := range patch {
		if v < 126 || v > 130 {
			t.Fatalf("expected ~128 for half-transparent white, pixel %d = %d", i, v)
		}
	}
}

package extract

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// PatchSize is the side length of the normalized grayscale face patch the
// classifier variant trains and predicts on.
const PatchSize = 200

// decodeImage decodes JPEG, PNG, GIF or BMP image data.
func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// grayPixels converts an image to a row-major 8-bit grayscale buffer using
// the luminosity weights. Returns the buffer plus image dimensions.
func grayPixels(img image.Image) ([]uint8, int, int) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	pixels := make([]uint8, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			pixels[y*width+x] = uint8((r*299 + g*587 + b*114) / 1000 / 256)
		}
	}
	return pixels, width, height
}

// cropGrayPatch crops the face region out of the image and scales it to a
// PatchSize x PatchSize grayscale patch.
func cropGrayPatch(img image.Image, region Region) []uint8 {
	src := image.Rect(region.Left, region.Top, region.Right, region.Bottom)
	dst := image.NewGray(image.Rect(0, 0, PatchSize, PatchSize))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)

	patch := make([]uint8, PatchSize*PatchSize)
	copy(patch, dst.Pix)
	return patch
}

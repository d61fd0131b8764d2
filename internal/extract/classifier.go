package extract

import (
	"fmt"

	pigo "github.com/esimov/pigo/core"
)

// Detection parameters for the pigo cascade.
const (
	minFaceSize      = 20
	maxFaceSize      = 1000
	shiftFactor      = 0.1
	scaleFactor      = 1.1
	clusterThreshold = 0.2
	qualityThreshold = 5.0
)

// ClassifierExtractor locates faces with a pigo cascade and produces
// normalized grayscale patches for the LBPH model. It is the fallback
// backend when no embedding server is configured.
type ClassifierExtractor struct {
	classifier *pigo.Pigo
}

// NewClassifierExtractor unpacks the binary cascade and builds the detector.
func NewClassifierExtractor(cascade []byte) (*ClassifierExtractor, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade: %w", err)
	}
	return &ClassifierExtractor{classifier: classifier}, nil
}

func (c *ClassifierExtractor) Variant() string { return VariantClassifier }

// DetectAndExtract runs the cascade over the image and crops one normalized
// patch per clustered detection. An image with no faces yields an empty
// slice, never an error.
func (c *ClassifierExtractor) DetectAndExtract(imageData []byte) ([]Face, error) {
	img, err := decodeImage(imageData)
	if err != nil {
		return nil, &ExtractionError{Reason: "undecodable image", Err: err}
	}

	pixels, width, height := grayPixels(img)

	maxSize := maxFaceSize
	if width < maxSize {
		maxSize = width
	}
	if height < maxSize {
		maxSize = height
	}

	cParams := pigo.CascadeParams{
		MinSize:     minFaceSize,
		MaxSize:     maxSize,
		ShiftFactor: shiftFactor,
		ScaleFactor: scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   height,
			Cols:   width,
			Dim:    width,
		},
	}

	dets := c.classifier.RunCascade(cParams, 0.0)
	dets = c.classifier.ClusterDetections(dets, clusterThreshold)

	faces := make([]Face, 0, len(dets))
	for _, det := range dets {
		if det.Q < qualityThreshold {
			continue
		}

		region := Region{
			Top:    clamp(det.Row-det.Scale/2, 0, height),
			Bottom: clamp(det.Row+det.Scale/2, 0, height),
			Left:   clamp(det.Col-det.Scale/2, 0, width),
			Right:  clamp(det.Col+det.Scale/2, 0, width),
		}
		if region.Right <= region.Left || region.Bottom <= region.Top {
			continue
		}

		faces = append(faces, Face{
			Region: region,
			Patch:  cropGrayPatch(img, region),
		})
	}
	return faces, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

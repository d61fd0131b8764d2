package extract

import "fmt"

// Region is the pixel bounding box of a detected face, in the
// (top, right, bottom, left) order recognition results report it.
type Region struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Face is one detected face together with its extracted features.
// Exactly one of Embedding or Patch is set, depending on the active
// extractor variant.
type Face struct {
	Region    Region
	Embedding []float32 // embedding variant: fixed-length descriptor
	Patch     []uint8   // classifier variant: normalized grayscale patch (PatchSize x PatchSize)
}

// Extractor turns a decoded image into zero or more detected faces with
// their feature representation. "No face found" is not an error: it is an
// empty slice. An error is returned only when the input itself defeats
// extraction (unreadable or corrupt image data).
type Extractor interface {
	// Variant reports which gallery representation this extractor produces.
	Variant() string
	// DetectAndExtract locates faces in the image and extracts their features.
	DetectAndExtract(imageData []byte) ([]Face, error)
}

// Extractor variant tags, persisted in the gallery so a stored gallery is
// never interpreted by the wrong backend.
const (
	VariantEmbedding  = "embedding"
	VariantClassifier = "classifier"
)

// ExtractionError indicates the input image could not be decoded or
// processed. It never means "no face found".
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// DetectorUnavailableError indicates the classifier variant could not locate
// its face detection cascade asset in any of the configured locations.
type DetectorUnavailableError struct {
	Searched []string
}

func (e *DetectorUnavailableError) Error() string {
	return fmt.Sprintf("face detection cascade not found (searched: %v); "+
		"set FACEID_CASCADE_PATH or place a pigo facefinder cascade in the model directory", e.Searched)
}

package engine

import (
	"errors"
	"fmt"
)

// ErrNoFacesFound is the whole-batch training failure: not a single record
// could be enrolled, so nothing was persisted.
var ErrNoFacesFound = errors.New("no faces found in training images")

// ErrModelNotTrained is returned when recognition runs before any
// successful training or gallery load.
var ErrModelNotTrained = errors.New("model not trained")

// ImageNotFoundError indicates the query image path did not resolve.
type ImageNotFoundError struct {
	Path string
}

func (e *ImageNotFoundError) Error() string {
	return fmt.Sprintf("image file not found: %s", e.Path)
}

// BackendUnavailableError means neither extractor variant is usable. The
// message carries the remediation steps since this is the first thing an
// operator hits on a misconfigured deployment.
type BackendUnavailableError struct {
	EmbeddingErr error
	DetectorErr  error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf(
		"no face recognition backend available.\n"+
			"Options:\n"+
			"1. Run an embedding server and set FACEID_EMBEDDING_URL (recommended): embedding probe failed: %v\n"+
			"2. Install a pigo facefinder cascade for the local classifier: %v",
		e.EmbeddingErr, e.DetectorErr)
}

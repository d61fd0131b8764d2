package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/attendly/faceid/internal/config"
	"github.com/attendly/faceid/internal/extract"
	"github.com/attendly/faceid/internal/gallery"
	"github.com/attendly/faceid/internal/match"
)

// errNoFaceDetected distinguishes "the image is fine but contains no face"
// from actual faults. The two recognition forms render it differently.
var errNoFaceDetected = errors.New("no face detected")

// Engine resolves face identities against an enrolled gallery and builds
// that gallery from labeled training sets. One extractor variant is active
// for the whole process lifetime; the gallery is loaded once and replaced
// wholesale by training, never mutated in place.
type Engine struct {
	extractor extract.Extractor
	store     *gallery.Store
	matcher   *match.Matcher
	useHNSW   bool
	log       *log.Logger

	gallery *gallery.Gallery
	model   *extract.LBPHModel // decoded classifier artifact, nil for embedding variant

	// OnProgress, if set, is called once per processed training record.
	// Used by the CLI to drive a progress bar; never touches stdout.
	OnProgress func()
}

// New creates an engine around an already selected extractor.
func New(extractor extract.Extractor, store *gallery.Store, matcher *match.Matcher, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Engine{
		extractor: extractor,
		store:     store,
		matcher:   matcher,
		log:       logger,
	}
}

// SetUseHNSW enables ANN candidate pre-selection for large embedding
// galleries. Takes effect at the next Load.
func (e *Engine) SetUseHNSW(enabled bool) {
	e.useHNSW = enabled
}

// SelectBackend decides once, at startup, which extractor variant runs for
// the lifetime of the process. Embedding first; the local classifier only
// when no embedding server is reachable.
func SelectBackend(ctx context.Context, cfg *config.Config) (extract.Extractor, error) {
	var embeddingErr error
	if cfg.Embedding.URL != "" {
		emb := extract.NewEmbeddingExtractor(cfg.Embedding.URL, cfg.Embedding.Dim)
		if embeddingErr = emb.Probe(ctx); embeddingErr == nil {
			return emb, nil
		}
	} else {
		embeddingErr = errors.New("FACEID_EMBEDDING_URL not set")
	}

	cascade, detectorErr := extract.ResolveCascade(cfg.Cascade.Path, cascadePaths(cfg))
	if detectorErr == nil {
		clf, err := extract.NewClassifierExtractor(cascade)
		if err == nil {
			return clf, nil
		}
		detectorErr = err
	}

	return nil, &BackendUnavailableError{EmbeddingErr: embeddingErr, DetectorErr: detectorErr}
}

// cascadePaths prepends the model directory to the documented fallbacks so
// an asset dropped next to the gallery is found without configuration.
func cascadePaths(cfg *config.Config) []string {
	paths := []string{filepath.Join(cfg.ModelDir, "facefinder")}
	return append(paths, cfg.Cascade.SearchPaths...)
}

// Load reads the persisted gallery, if any, and prepares it for matching.
// Called once at process start; recognition before a successful training or
// load reports "model not trained".
func (e *Engine) Load() error {
	g, err := e.store.Load(e.extractor.Variant())
	if err != nil {
		return fmt.Errorf("failed to load gallery: %w", err)
	}
	if g == nil {
		return nil
	}
	return e.install(g)
}

// Gallery returns the currently loaded gallery, or nil.
func (e *Engine) Gallery() *gallery.Gallery {
	return e.gallery
}

// install makes a gallery the active one, decoding the classifier artifact
// and building the ANN index where applicable.
func (e *Engine) install(g *gallery.Gallery) error {
	if g.Variant == extract.VariantClassifier {
		model, err := extract.DecodeModel(g.Model)
		if err != nil {
			return fmt.Errorf("failed to decode classifier model: %w", err)
		}
		e.model = model
	} else if e.useHNSW {
		e.matcher.UseIndex(match.BuildIndex(g.Encodings))
	}
	e.gallery = g
	return nil
}

// Train builds a fresh gallery from the records, replacing any previous
// state. Per-record problems (missing file, no detectable face) are logged
// and skipped; the run fails only when nothing at all could be enrolled.
// Nothing is persisted on failure.
func (e *Engine) Train(records []TrainingRecord) (result TrainResult) {
	defer func() {
		if r := recover(); r != nil {
			result = TrainResult{Success: false, Message: fmt.Sprintf("training error: %v", r)}
		}
	}()

	runID := uuid.New().String()
	e.log.Printf("training run %s: %d records", runID, len(records))

	builder := gallery.NewBuilder(e.extractor.Variant())
	var patches [][]uint8
	var patchLabels []int32
	trained := 0

	for _, rec := range records {
		if e.OnProgress != nil {
			e.OnProgress()
		}

		path := normalizePath(rec.ImagePath)
		if path == "" {
			e.log.Printf("record %d: empty image path", rec.LabelID)
			continue
		}
		if _, err := os.Stat(path); err != nil {
			e.log.Printf("image not found: %s", path)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			e.log.Printf("error reading %s: %v", path, err)
			continue
		}

		faces, err := e.extractor.DetectAndExtract(data)
		if err != nil {
			e.log.Printf("error processing %s: %v", path, err)
			continue
		}
		if len(faces) == 0 {
			e.log.Printf("no face found in %s", path)
			continue
		}

		switch e.extractor.Variant() {
		case extract.VariantEmbedding:
			// Only the first detected face per training image is enrolled;
			// additional faces are ignored.
			builder.Append(rec.LabelID, faces[0].Embedding)
		case extract.VariantClassifier:
			face := largestFace(faces)
			patches = append(patches, face.Patch)
			patchLabels = append(patchLabels, rec.LabelID)
		}

		builder.UpsertIdentity(gallery.Identity{
			LabelID:    rec.LabelID,
			StudentID:  rec.StudentID,
			Name:       rec.Name,
			Department: rec.Department,
		})
		trained++
	}

	for _, w := range builder.Warnings() {
		e.log.Printf("warning: %s", w)
	}

	if trained == 0 {
		e.log.Printf("training run %s failed: %v", runID, ErrNoFacesFound)
		return TrainResult{Success: false, Message: "No faces found in training images"}
	}

	if e.extractor.Variant() == extract.VariantClassifier {
		model, err := extract.TrainLBPH(patches, patchLabels)
		if err != nil {
			return TrainResult{Success: false, Message: fmt.Sprintf("training error: %v", err)}
		}
		encoded, err := extract.EncodeModel(model)
		if err != nil {
			return TrainResult{Success: false, Message: fmt.Sprintf("training error: %v", err)}
		}
		builder.SetModel(encoded)
	}

	g, err := builder.Build(runID)
	if err != nil {
		return TrainResult{Success: false, Message: fmt.Sprintf("training error: %v", err)}
	}

	if err := e.store.Save(g); err != nil {
		return TrainResult{Success: false, Message: fmt.Sprintf("error saving model: %v", err)}
	}

	if err := e.install(g); err != nil {
		return TrainResult{Success: false, Message: fmt.Sprintf("training error: %v", err)}
	}

	return TrainResult{
		Success:      true,
		Message:      fmt.Sprintf("Trained %d faces successfully", trained),
		TrainedCount: trained,
	}
}

// Recognize resolves every face in the query image against the gallery.
// This is the single-evaluated-image form: zero detected faces is a
// user-facing failure, not an empty success.
func (e *Engine) Recognize(imagePath string) (result RecognizeResult) {
	defer func() {
		if r := recover(); r != nil {
			result = RecognizeResult{Success: false, Message: fmt.Sprintf("recognition error: %v", r)}
		}
	}()

	results, err := e.resolve(imagePath)
	if err != nil {
		return RecognizeResult{Success: false, Message: recognizeMessage(err)}
	}
	return RecognizeResult{Success: true, Results: results}
}

// RecognizeFrame is the streaming form used for captured frames: a frame
// with no detectable faces is a success with an empty list.
func (e *Engine) RecognizeFrame(framePath string) (result FrameResult) {
	defer func() {
		if r := recover(); r != nil {
			result = FrameResult{Success: false, Message: fmt.Sprintf("%v", r)}
		}
	}()

	results, err := e.resolve(framePath)
	if errors.Is(err, errNoFaceDetected) {
		return FrameResult{Success: true, Faces: []MatchResult{}}
	}
	if err != nil {
		return FrameResult{Success: false, Message: frameMessage(err)}
	}
	return FrameResult{Success: true, Faces: results}
}

// resolve runs the shared recognition path: path check, gallery check,
// detection, matching. Detection order is preserved in the results.
func (e *Engine) resolve(path string) ([]MatchResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &ImageNotFoundError{Path: path}
	}

	if e.gallery == nil || e.gallery.Empty() {
		return nil, ErrModelNotTrained
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not load image: %w", err)
	}

	faces, err := e.extractor.DetectAndExtract(data)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, errNoFaceDetected
	}

	return e.matchFaces(faces), nil
}

// recognizeMessage renders resolution errors for the single-image form.
func recognizeMessage(err error) string {
	var notFound *ImageNotFoundError
	switch {
	case errors.As(err, &notFound):
		return "Image file not found"
	case errors.Is(err, ErrModelNotTrained):
		return "Model not trained"
	case errors.Is(err, errNoFaceDetected):
		return "No face detected"
	default:
		return fmt.Sprintf("recognition error: %v", err)
	}
}

// frameMessage renders resolution errors for the streaming form.
func frameMessage(err error) string {
	var notFound *ImageNotFoundError
	switch {
	case errors.As(err, &notFound):
		return "Frame not found"
	case errors.Is(err, ErrModelNotTrained):
		return "Model not loaded"
	default:
		return err.Error()
	}
}

// matchFaces resolves each detected face, preserving detection order.
func (e *Engine) matchFaces(faces []extract.Face) []MatchResult {
	results := make([]MatchResult, 0, len(faces))
	for _, face := range faces {
		var res match.Result
		switch e.extractor.Variant() {
		case extract.VariantEmbedding:
			res = e.matcher.Match(face.Embedding, e.gallery)
		case extract.VariantClassifier:
			label, rawScore, err := e.model.Predict(face.Patch)
			if err != nil {
				e.log.Printf("prediction failed: %v", err)
				res = e.matcher.MatchPrediction(gallery.UnknownLabel, 100, e.gallery)
			} else {
				res = e.matcher.MatchPrediction(label, rawScore, e.gallery)
			}
		}
		results = append(results, MatchResult{Result: res, Location: face.Region})
	}
	return results
}

// largestFace picks the detection with the biggest area. The classifier
// backend enrolls the dominant face of a training image.
func largestFace(faces []extract.Face) extract.Face {
	best := faces[0]
	bestArea := area(best.Region)
	for _, f := range faces[1:] {
		if a := area(f.Region); a > bestArea {
			best = f
			bestArea = a
		}
	}
	return best
}

func area(r extract.Region) int {
	return (r.Right - r.Left) * (r.Bottom - r.Top)
}

// normalizePath converts Windows-style backslash paths from upstream
// records into the platform's separator.
func normalizePath(p string) string {
	if p == "" {
		return ""
	}
	return filepath.FromSlash(strings.ReplaceAll(p, "\\", "/"))
}

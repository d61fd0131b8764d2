package match

import (
	"github.com/attendly/faceid/internal/gallery"
)

// unknownName labels a face that matched no enrolled identity.
const unknownName = "Unknown"

// Result is the outcome of matching one detected face against the gallery.
// Confidence is always reported, even for an Unknown result.
type Result struct {
	LabelID    int32   `json:"labelId"`
	Name       string  `json:"name"`
	Department string  `json:"department"`
	Confidence float64 `json:"confidence"`
}

// Matcher applies the acceptance rules on top of raw distances or scores.
// Both backends normalize onto the same confidence scale: [0, 1], higher is
// better, accepted only above MinConfidence.
type Matcher struct {
	// Tolerance is the acceptance band on raw embedding distance: a nearest
	// neighbor further away than this is rejected regardless of confidence.
	Tolerance float64

	// MinConfidence is the confidence floor shared by both backends.
	MinConfidence float64

	index *Index
}

// NewMatcher creates a matcher with the given acceptance thresholds.
func NewMatcher(tolerance, minConfidence float64) *Matcher {
	return &Matcher{Tolerance: tolerance, MinConfidence: minConfidence}
}

// UseIndex attaches an ANN index built over the gallery this matcher will be
// queried against. The index only pre-selects candidates; final distances
// are always exact.
func (m *Matcher) UseIndex(idx *Index) {
	m.index = idx
}

// Match finds the enrolled encoding nearest to the query and applies the
// acceptance rules. Ties on exactly equal distance resolve to the earliest
// enrolled entry. An empty gallery yields Unknown with confidence 0.
func (m *Matcher) Match(query []float32, g *gallery.Gallery) Result {
	best, bestDist := m.nearest(query, g)
	if best < 0 {
		return unknown(0)
	}

	confidence := clamp01(1 - bestDist)

	if bestDist > m.Tolerance || confidence <= m.MinConfidence {
		return unknown(confidence)
	}

	id, ok := g.Identity(g.Labels[best])
	if !ok {
		return unknown(confidence)
	}

	return Result{
		LabelID:    id.LabelID,
		Name:       id.Name,
		Department: id.Department,
		Confidence: confidence,
	}
}

// MatchPrediction converts a classifier prediction into a Result. The raw
// score is the classifier's native error measure: non-negative, lower is
// better, on a 0-100 scale.
func (m *Matcher) MatchPrediction(label int32, rawScore float64, g *gallery.Gallery) Result {
	confidence := clamp01((100 - rawScore) / 100)

	if confidence <= m.MinConfidence {
		return unknown(confidence)
	}

	id, ok := g.Identity(label)
	if !ok {
		return unknown(confidence)
	}

	return Result{
		LabelID:    id.LabelID,
		Name:       id.Name,
		Department: id.Department,
		Confidence: confidence,
	}
}

// nearest returns the position of the closest enrolled encoding and its
// exact distance, or (-1, 0) for an empty gallery.
func (m *Matcher) nearest(query []float32, g *gallery.Gallery) (int, float64) {
	if len(g.Encodings) == 0 {
		return -1, 0
	}

	if m.index != nil {
		return m.rerank(query, g, m.index.Candidates(query, 1))
	}

	best := 0
	bestDist := EuclideanDistance(query, g.Encodings[0])
	for i := 1; i < len(g.Encodings); i++ {
		if d := EuclideanDistance(query, g.Encodings[i]); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}

// rerank computes exact distances over the candidate positions. Choosing
// the lowest position among equal distances keeps the stable-argmin
// tie-break the linear scan has.
func (m *Matcher) rerank(query []float32, g *gallery.Gallery, candidates []int) (int, float64) {
	if len(candidates) == 0 {
		return -1, 0
	}

	best := -1
	bestDist := 0.0
	for _, pos := range candidates {
		if pos < 0 || pos >= len(g.Encodings) {
			continue
		}
		d := EuclideanDistance(query, g.Encodings[pos])
		if best < 0 || d < bestDist || (d == bestDist && pos < best) {
			best = pos
			bestDist = d
		}
	}
	return best, bestDist
}

func unknown(confidence float64) Result {
	return Result{
		LabelID:    gallery.UnknownLabel,
		Name:       unknownName,
		Confidence: confidence,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

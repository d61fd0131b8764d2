package gallery

import (
	"fmt"
	"time"

	"github.com/attendly/faceid/internal/extract"
)

// UnknownLabel is the reserved sentinel for "no enrolled identity matched".
// It never appears in the identity mapping and is never persisted.
const UnknownLabel int32 = -1

// Identity is one enrolled person. Created during training, immutable once
// written, looked up by label id.
type Identity struct {
	LabelID    int32  `cbor:"label_id"`
	StudentID  string `cbor:"student_id"`
	Name       string `cbor:"name"`
	Department string `cbor:"department"`
}

// Gallery is the enrolled state one training run produces: either parallel
// encoding/label sequences (embedding variant) or one opaque trained model
// (classifier variant), plus the label-to-identity mapping. A gallery is
// immutable after build; training replaces it wholesale.
type Gallery struct {
	Variant    string             `cbor:"variant"`
	Encodings  [][]float32        `cbor:"encodings,omitempty"`
	Labels     []int32            `cbor:"labels,omitempty"`
	Model      []byte             `cbor:"model,omitempty"`
	Identities map[int32]Identity `cbor:"identities"`
	RunID      string             `cbor:"run_id"`
	TrainedAt  time.Time          `cbor:"trained_at"`
}

// Empty reports whether the gallery holds no enrolled feature data.
func (g *Gallery) Empty() bool {
	switch g.Variant {
	case extract.VariantEmbedding:
		return len(g.Encodings) == 0
	case extract.VariantClassifier:
		return len(g.Model) == 0
	}
	return true
}

// Validate checks the internal invariants: parallel encoding/label slices,
// and an identity record for every referenced label id. The sentinel
// UnknownLabel may never be enrolled or mapped.
func (g *Gallery) Validate() error {
	switch g.Variant {
	case extract.VariantEmbedding:
		if len(g.Encodings) != len(g.Labels) {
			return fmt.Errorf("encoding/label count mismatch: %d vs %d", len(g.Encodings), len(g.Labels))
		}
	case extract.VariantClassifier:
		if len(g.Encodings) != 0 || len(g.Labels) != 0 {
			return fmt.Errorf("classifier gallery must not carry raw encodings")
		}
	default:
		return fmt.Errorf("unknown gallery variant %q", g.Variant)
	}

	if _, ok := g.Identities[UnknownLabel]; ok {
		return fmt.Errorf("identity mapping contains the reserved label %d", UnknownLabel)
	}

	for _, label := range g.Labels {
		if label == UnknownLabel {
			return fmt.Errorf("reserved label %d enrolled as feature entry", UnknownLabel)
		}
		if _, ok := g.Identities[label]; !ok {
			return fmt.Errorf("label %d has feature data but no identity record", label)
		}
	}
	return nil
}

// Identity returns the identity record for a label, if enrolled.
func (g *Gallery) Identity(label int32) (Identity, bool) {
	id, ok := g.Identities[label]
	return id, ok
}

// Builder accumulates enrollments for one training run and produces an
// immutable Gallery. It warns (rather than fails) when two distinct label
// ids enroll under the same normalized name, since that usually points at a
// mislabeled training set.
type Builder struct {
	variant    string
	encodings  [][]float32
	labels     []int32
	model      []byte
	identities map[int32]Identity
	names      map[string]int32
	warnings   []string
}

// NewBuilder starts an empty gallery for the given variant.
func NewBuilder(variant string) *Builder {
	return &Builder{
		variant:    variant,
		identities: make(map[int32]Identity),
		names:      make(map[string]int32),
	}
}

// Append adds one encoding under a label. Multiple encodings may share a
// label (multi-image enrollment); insertion order is preserved.
func (b *Builder) Append(label int32, encoding []float32) {
	b.encodings = append(b.encodings, encoding)
	b.labels = append(b.labels, label)
}

// SetModel attaches the opaque trained model artifact (classifier variant).
func (b *Builder) SetModel(model []byte) {
	b.model = model
}

// UpsertIdentity records the identity for a label, overwriting any earlier
// record for the same label.
func (b *Builder) UpsertIdentity(id Identity) {
	norm := NormalizeName(id.Name)
	if prev, ok := b.names[norm]; ok && prev != id.LabelID && norm != "" {
		b.warnings = append(b.warnings,
			fmt.Sprintf("labels %d and %d enroll the same name %q", prev, id.LabelID, id.Name))
	} else {
		b.names[norm] = id.LabelID
	}
	b.identities[id.LabelID] = id
}

// Warnings returns diagnostics accumulated while building.
func (b *Builder) Warnings() []string {
	return b.warnings
}

// Count returns the number of identities enrolled so far.
func (b *Builder) Count() int {
	return len(b.identities)
}

// Build freezes the accumulated state into a Gallery.
func (b *Builder) Build(runID string) (*Gallery, error) {
	g := &Gallery{
		Variant:    b.variant,
		Encodings:  b.encodings,
		Labels:     b.labels,
		Model:      b.model,
		Identities: b.identities,
		RunID:      runID,
		TrainedAt:  time.Now().UTC(),
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

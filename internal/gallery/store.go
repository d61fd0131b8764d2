package gallery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
)

// SchemaVersion is bumped whenever the on-disk layout changes. A loader
// never tries to interpret a file written under a different version.
const SchemaVersion = 1

// ErrVariantMismatch is returned when a stored gallery was produced by the
// other extractor variant. An embedding gallery is never interpretable as a
// classifier model and vice versa.
var ErrVariantMismatch = errors.New("gallery variant mismatch")

// galleryFile is the on-disk envelope: explicit version and variant tags in
// front of the payload so a loader can reject the wrong format outright.
type galleryFile struct {
	SchemaVersion int     `cbor:"schema_version"`
	Variant       string  `cbor:"variant"`
	Gallery       Gallery `cbor:"gallery"`
}

// Store persists one gallery as a single CBOR file. Saves are atomic:
// the file is written to a temporary name and swapped into place, so a
// concurrent reader sees either the old gallery or the new one, never a
// half-written file.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Save writes the gallery. The parent directory is created if needed.
func (s *Store) Save(g *Gallery) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("refusing to persist invalid gallery: %w", err)
	}

	data, err := cbor.Marshal(galleryFile{
		SchemaVersion: SchemaVersion,
		Variant:       g.Variant,
		Gallery:       *g,
	})
	if err != nil {
		return fmt.Errorf("failed to encode gallery: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "gallery-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write gallery: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace gallery file: %w", err)
	}
	return nil
}

// Load reads the persisted gallery. A missing file is not an error: it
// returns (nil, nil), meaning "absent". A file written by the other variant
// or under a different schema version is rejected.
func (s *Store) Load(variant string) (*Gallery, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read gallery file: %w", err)
	}

	var file galleryFile
	if err := cbor.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode gallery file: %w", err)
	}

	if file.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported gallery schema version %d (expected %d)",
			file.SchemaVersion, SchemaVersion)
	}

	if file.Variant != variant {
		return nil, fmt.Errorf("%w: stored %q, expected %q", ErrVariantMismatch, file.Variant, variant)
	}

	g := file.Gallery
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("stored gallery is inconsistent: %w", err)
	}
	return &g, nil
}

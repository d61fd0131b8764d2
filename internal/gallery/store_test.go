package gallery

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/attendly/faceid/internal/extract"
)

func testGallery() *Gallery {
	return &Gallery{
		Variant:   extract.VariantEmbedding,
		Encodings: [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}, {0.7, 0.8, 0.9}},
		Labels:    []int32{1, 2, 1},
		Identities: map[int32]Identity{
			1: {LabelID: 1, StudentID: "s-100", Name: "Alice", Department: "CS"},
			2: {LabelID: 2, StudentID: "s-200", Name: "Bob", Department: "EE"},
		},
		RunID:     "run-42",
		TrainedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "gallery.cbor"))

	want := testGallery()
	if err := store.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(extract.VariantEmbedding)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned absent for an existing gallery")
	}

	// Element-for-element equality of feature/label pairs and identities.
	if !reflect.DeepEqual(got.Encodings, want.Encodings) {
		t.Errorf("encodings differ after roundtrip:\n got %v\nwant %v", got.Encodings, want.Encodings)
	}
	if !reflect.DeepEqual(got.Labels, want.Labels) {
		t.Errorf("labels differ after roundtrip: got %v, want %v", got.Labels, want.Labels)
	}
	if !reflect.DeepEqual(got.Identities, want.Identities) {
		t.Errorf("identities differ after roundtrip:\n got %v\nwant %v", got.Identities, want.Identities)
	}
	if got.RunID != want.RunID {
		t.Errorf("run id differs: got %q, want %q", got.RunID, want.RunID)
	}
	if !got.TrainedAt.Equal(want.TrainedAt) {
		t.Errorf("trained-at differs: got %v, want %v", got.TrainedAt, want.TrainedAt)
	}
}

func TestStore_LoadAbsent(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.cbor"))

	g, err := store.Load(extract.VariantEmbedding)
	if err != nil {
		t.Fatalf("absent gallery must not be an error, got: %v", err)
	}
	if g != nil {
		t.Error("expected nil gallery for absent file")
	}
}

func TestStore_VariantMismatch(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "gallery.cbor"))

	if err := store.Save(testGallery()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	_, err := store.Load(extract.VariantClassifier)
	if err == nil {
		t.Fatal("expected variant mismatch error")
	}
	if !errors.Is(err, ErrVariantMismatch) {
		t.Errorf("expected ErrVariantMismatch, got: %v", err)
	}
}

func TestStore_RejectsFutureSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.cbor")

	data, err := cbor.Marshal(galleryFile{
		SchemaVersion: SchemaVersion + 1,
		Variant:       extract.VariantEmbedding,
		Gallery:       *testGallery(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewStore(path).Load(extract.VariantEmbedding); err == nil {
		t.Error("expected error for unsupported schema version")
	}
}

func TestStore_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.cbor")
	if err := os.WriteFile(path, []byte("definitely not cbor"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewStore(path).Load(extract.VariantEmbedding); err == nil {
		t.Error("expected error for corrupt gallery file")
	}
}

func TestStore_SaveReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "gallery.cbor"))

	first := testGallery()
	if err := store.Save(first); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	second := testGallery()
	second.RunID = "run-43"
	second.Encodings = [][]float32{{1, 1, 1}}
	second.Labels = []int32{2}
	if err := store.Save(second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := store.Load(extract.VariantEmbedding)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.RunID != "run-43" {
		t.Errorf("expected replacement gallery, got run id %q", got.RunID)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one file in model dir, found %d", len(entries))
	}
}

func TestStore_RefusesInvalidGallery(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "gallery.cbor"))

	bad := testGallery()
	bad.Labels = append(bad.Labels, 99) // label without identity, lengths broken

	if err := store.Save(bad); err == nil {
		t.Error("expected Save to refuse an invalid gallery")
	}

	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("invalid gallery must not be persisted")
	}
}

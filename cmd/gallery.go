package cmd

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/attendly/faceid/internal/config"
	"github.com/attendly/faceid/internal/extract"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Show the trained gallery",
	Long: `Prints a summary of the persisted gallery for the active backend:
variant, enrolled face count, identities, and the training run that
produced it.`,
	RunE: runGallery,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
}

type galleryIdentity struct {
	LabelID    int32  `json:"labelId"`
	StudentID  string `json:"studentId"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Faces      int    `json:"faces"`
}

type gallerySummary struct {
	Trained    bool              `json:"trained"`
	Variant    string            `json:"variant,omitempty"`
	FaceCount  int               `json:"faceCount,omitempty"`
	RunID      string            `json:"runId,omitempty"`
	TrainedAt  *time.Time        `json:"trainedAt,omitempty"`
	Identities []galleryIdentity `json:"identities,omitempty"`
}

func runGallery(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	e, err := newEngine(cmd.Context(), cfg)
	if err != nil {
		return outputFailure(err)
	}
	if err := e.Load(); err != nil {
		return outputFailure(err)
	}

	g := e.Gallery()
	if g == nil {
		return outputJSON(gallerySummary{Trained: false})
	}

	perLabel := make(map[int32]int)
	faceCount := 0
	switch g.Variant {
	case extract.VariantEmbedding:
		for _, label := range g.Labels {
			perLabel[label]++
		}
		faceCount = len(g.Labels)
	case extract.VariantClassifier:
		model, err := extract.DecodeModel(g.Model)
		if err != nil {
			return err
		}
		for _, sample := range model.Samples {
			perLabel[sample.Label]++
		}
		faceCount = len(model.Samples)
	}

	identities := make([]galleryIdentity, 0, len(g.Identities))
	for _, id := range g.Identities {
		identities = append(identities, galleryIdentity{
			LabelID:    id.LabelID,
			StudentID:  id.StudentID,
			Name:       id.Name,
			Department: id.Department,
			Faces:      perLabel[id.LabelID],
		})
	}
	sort.Slice(identities, func(i, j int) bool {
		return identities[i].LabelID < identities[j].LabelID
	})

	trainedAt := g.TrainedAt
	return outputJSON(gallerySummary{
		Trained:    true,
		Variant:    g.Variant,
		FaceCount:  faceCount,
		RunID:      g.RunID,
		TrainedAt:  &trainedAt,
		Identities: identities,
	})
}

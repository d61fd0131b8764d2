package cmd

import (
	"github.com/spf13/cobra"

	"github.com/attendly/faceid/internal/config"
	"github.com/attendly/faceid/internal/engine"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize [image]",
	Short: "Resolve the identities of all faces in an image",
	Long: `Detects every face in the image and matches it against the trained
gallery. Faces outside the acceptance thresholds resolve to "Unknown"
with the computed confidence preserved.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	recognizeCmd.Flags().Float64("tolerance", 0, "Override the distance tolerance for this run")
	rootCmd.AddCommand(recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if tolerance := mustGetFloat64(cmd, "tolerance"); tolerance > 0 {
		cfg.Matcher.DistanceTolerance = tolerance
	}

	e, err := newEngine(cmd.Context(), cfg)
	if err != nil {
		return outputJSON(engine.RecognizeResult{Success: false, Message: err.Error()})
	}
	if err := e.Load(); err != nil {
		return outputJSON(engine.RecognizeResult{Success: false, Message: err.Error()})
	}

	return outputJSON(e.Recognize(args[0]))
}

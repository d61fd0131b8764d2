package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/attendly/faceid/internal/config"
	"github.com/attendly/faceid/internal/engine"
)

var trainCmd = &cobra.Command{
	Use:   "train [records.json]",
	Short: "Train the face gallery from labeled student photos",
	Long: `Reads a JSON array of training records (studentId, name, department,
imagePath, labelId) and builds a fresh gallery from them, replacing any
previously trained state. Records whose image is missing or contains no
detectable face are skipped with a diagnostic on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().Bool("quiet", false, "Suppress the progress bar")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	quiet := mustGetBool(cmd, "quiet")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read records file: %w", err)
	}

	var records []engine.TrainingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse records file: %w", err)
	}

	cfg := config.Load()
	e, err := newEngine(cmd.Context(), cfg)
	if err != nil {
		return outputJSON(engine.TrainResult{Success: false, Message: err.Error()})
	}

	if bar := newTrainProgressBar(len(records), quiet); bar != nil {
		e.OnProgress = func() { _ = bar.Add(1) }
	}

	result := e.Train(records)
	return outputJSON(result)
}

// newTrainProgressBar creates a progress bar on stderr, or nil when quiet.
// Stdout stays reserved for the JSON result.
func newTrainProgressBar(count int, quiet bool) *progressbar.ProgressBar {
	if quiet || count == 0 {
		return nil
	}
	return progressbar.NewOptions(count,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Training faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}

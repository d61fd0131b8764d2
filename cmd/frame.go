package cmd

import (
	"github.com/spf13/cobra"

	"github.com/attendly/faceid/internal/config"
	"github.com/attendly/faceid/internal/engine"
)

var frameCmd = &cobra.Command{
	Use:   "frame [image]",
	Short: "Resolve identities in a captured frame",
	Long: `Streaming variant of recognize for frames captured from a camera feed:
a frame with no detectable faces is reported as a success with an empty
face list rather than as a failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runFrame,
}

func init() {
	rootCmd.AddCommand(frameCmd)
}

func runFrame(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	e, err := newEngine(cmd.Context(), cfg)
	if err != nil {
		return outputJSON(engine.FrameResult{Success: false, Message: err.Error()})
	}
	if err := e.Load(); err != nil {
		return outputJSON(engine.FrameResult{Success: false, Message: err.Error()})
	}

	return outputJSON(e.RecognizeFrame(args[0]))
}

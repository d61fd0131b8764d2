package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "faceid",
	Short: "A CLI tool for face enrollment and identity resolution",
	Long: `faceid trains a face gallery from labeled student photos and resolves
identities in query images against it. It prefers a remote embedding
server when one is configured and falls back to a local detector with
a histogram classifier otherwise.

Results are written to stdout as a single JSON document; diagnostics
and progress go to stderr.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// outputFailure renders an error as the command's single JSON result.
// Backend selection and gallery load faults reach the caller this way
// rather than as a bare error on stderr.
func outputFailure(err error) error {
	return outputJSON(struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{false, err.Error()})
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

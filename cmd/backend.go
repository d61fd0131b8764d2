package cmd

import (
	"context"
	"log"
	"os"

	"github.com/attendly/faceid/internal/config"
	"github.com/attendly/faceid/internal/engine"
	"github.com/attendly/faceid/internal/gallery"
	"github.com/attendly/faceid/internal/match"
)

// newEngine selects the backend and wires the gallery store and matcher.
// The persisted gallery is not loaded here; commands that need it call
// Load themselves, training replaces it wholesale anyway.
func newEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, error) {
	extractor, err := engine.SelectBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := gallery.NewStore(cfg.GalleryPath())
	matcher := match.NewMatcher(cfg.Matcher.DistanceTolerance, cfg.Matcher.MinConfidence)
	logger := log.New(os.Stderr, "", log.LstdFlags)

	e := engine.New(extractor, store, matcher, logger)
	e.SetUseHNSW(cfg.Matcher.UseHNSW)
	return e, nil
}

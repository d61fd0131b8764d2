package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	ModelDir  string
	Embedding EmbeddingConfig
	Matcher   MatcherConfig
	Cascade   CascadeConfig
}

type EmbeddingConfig struct {
	URL string // embedding server base URL (empty = embedding backend unavailable)
	Dim int    // expected descriptor dimension (default 128)
}

type MatcherConfig struct {
	DistanceTolerance float64 // acceptance band on raw embedding distance
	MinConfidence     float64 // confidence floor shared by both backends
	UseHNSW           bool    // ANN candidate pre-selection for large galleries
}

type CascadeConfig struct {
	Path        string   // primary path to the pigo cascade asset
	SearchPaths []string // fallback locations, tried in order
}

// GalleryPath returns the location of the persisted gallery inside ModelDir.
func (c *Config) GalleryPath() string {
	return filepath.Join(c.ModelDir, "gallery.cbor")
}

// defaults mirrors the embedded defaults.yaml.
type defaults struct {
	Matcher struct {
		DistanceTolerance float64 `yaml:"distance_tolerance"`
		MinConfidence     float64 `yaml:"min_confidence"`
	} `yaml:"matcher"`
	Cascade struct {
		SearchPaths []string `yaml:"search_paths"`
	} `yaml:"cascade"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float in (0, 1].
// Returns the default value if the env var is unset, empty, or out of range.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var def defaults
	if err := yaml.Unmarshal(defaultsYAML, &def); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		ModelDir: envString("FACEID_MODEL_DIR", "models"),
		Embedding: EmbeddingConfig{
			URL: os.Getenv("FACEID_EMBEDDING_URL"),
			Dim: envInt("FACEID_EMBEDDING_DIM", 128),
		},
		Matcher: MatcherConfig{
			DistanceTolerance: envFloat("FACEID_DISTANCE_TOLERANCE", def.Matcher.DistanceTolerance),
			MinConfidence:     envFloat("FACEID_MIN_CONFIDENCE", def.Matcher.MinConfidence),
			UseHNSW:           os.Getenv("FACEID_HNSW") == "1" || os.Getenv("FACEID_HNSW") == "true",
		},
		Cascade: CascadeConfig{
			Path:        os.Getenv("FACEID_CASCADE_PATH"),
			SearchPaths: def.Cascade.SearchPaths,
		},
	}
}

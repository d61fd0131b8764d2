package extract

import "os"

// ResolveCascade finds the pigo face detection cascade: the configured
// primary path first, then the documented fallback locations in order.
// Returns the cascade bytes or a DetectorUnavailableError naming every
// location that was tried.
func ResolveCascade(primary string, fallbacks []string) ([]byte, error) {
	var searched []string

	candidates := make([]string, 0, len(fallbacks)+1)
	if primary != "" {
		candidates = append(candidates, primary)
	}
	candidates = append(candidates, fallbacks...)

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		searched = append(searched, path)
	}

	return nil, &DetectorUnavailableError{Searched: searched}
}

package extract

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// lbphGrid splits the patch into lbphGrid x lbphGrid cells; one 256-bin
// local-binary-pattern histogram per cell.
const lbphGrid = 8

// LBPHModel is the trained artifact of the classifier backend: one LBP
// histogram per enrolled face patch, predicted against by nearest histogram.
// Predict returns a raw score on a 0-100 scale where lower is better, the
// convention the downstream confidence conversion expects.
type LBPHModel struct {
	Grid    int          `cbor:"grid"`
	Samples []LBPHSample `cbor:"samples"`
}

// LBPHSample is one enrolled patch: its label and concatenated histograms.
type LBPHSample struct {
	Label     int32     `cbor:"label"`
	Histogram []float32 `cbor:"histogram"`
}

// TrainLBPH builds a model from normalized grayscale patches and their
// labels. Patches and labels are parallel slices.
func TrainLBPH(patches [][]uint8, labels []int32) (*LBPHModel, error) {
	if len(patches) == 0 {
		return nil, errors.New("no patches to train on")
	}
	if len(patches) != len(labels) {
		return nil, fmt.Errorf("patch/label count mismatch: %d vs %d", len(patches), len(labels))
	}

	model := &LBPHModel{Grid: lbphGrid, Samples: make([]LBPHSample, 0, len(patches))}
	for i, patch := range patches {
		if len(patch) != PatchSize*PatchSize {
			return nil, fmt.Errorf("patch %d has %d pixels, want %d", i, len(patch), PatchSize*PatchSize)
		}
		model.Samples = append(model.Samples, LBPHSample{
			Label:     labels[i],
			Histogram: lbpHistogram(patch),
		})
	}
	return model, nil
}

// Predict finds the enrolled sample closest to the patch. Ties on exactly
// equal distance resolve to the earliest enrolled sample.
func (m *LBPHModel) Predict(patch []uint8) (int32, float64, error) {
	if len(m.Samples) == 0 {
		return -1, 0, errors.New("model has no samples")
	}
	if len(patch) != PatchSize*PatchSize {
		return -1, 0, fmt.Errorf("patch has %d pixels, want %d", len(patch), PatchSize*PatchSize)
	}

	hist := lbpHistogram(patch)

	best := 0
	bestDist := chiSquare(hist, m.Samples[0].Histogram)
	for i := 1; i < len(m.Samples); i++ {
		if d := chiSquare(hist, m.Samples[i].Histogram); d < bestDist {
			best = i
			bestDist = d
		}
	}

	// Map the unbounded chi-square distance onto a 0-100 score, monotone in
	// the distance and 0 for an exact histogram match.
	score := 100 * bestDist / (bestDist + 1)
	return m.Samples[best].Label, score, nil
}

// EncodeModel serializes the model for gallery persistence.
func EncodeModel(m *LBPHModel) ([]byte, error) {
	data, err := cbor.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	return data, nil
}

// DecodeModel deserializes a model persisted by EncodeModel.
func DecodeModel(data []byte) (*LBPHModel, error) {
	var m LBPHModel
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if m.Grid != lbphGrid {
		return nil, fmt.Errorf("model grid %d does not match expected %d", m.Grid, lbphGrid)
	}
	return &m, nil
}

// lbpHistogram computes the concatenated per-cell LBP histogram of a patch.
// Each cell histogram is L1-normalized so patch size cancels out.
func lbpHistogram(patch []uint8) []float32 {
	codes := lbpCodes(patch)

	cell := PatchSize / lbphGrid
	hist := make([]float32, lbphGrid*lbphGrid*256)

	for gy := 0; gy < lbphGrid; gy++ {
		for gx := 0; gx < lbphGrid; gx++ {
			base := (gy*lbphGrid + gx) * 256
			count := 0
			for y := gy * cell; y < (gy+1)*cell; y++ {
				for x := gx * cell; x < (gx+1)*cell; x++ {
					hist[base+int(codes[y*PatchSize+x])]++
					count++
				}
			}
			if count > 0 {
				for b := 0; b < 256; b++ {
					hist[base+b] /= float32(count)
				}
			}
		}
	}
	return hist
}

// lbpCodes computes the 8-neighbor local binary pattern code per pixel.
// Border pixels keep code 0.
func lbpCodes(patch []uint8) []uint8 {
	codes := make([]uint8, PatchSize*PatchSize)
	for y := 1; y < PatchSize-1; y++ {
		for x := 1; x < PatchSize-1; x++ {
			center := patch[y*PatchSize+x]
			var code uint8
			if patch[(y-1)*PatchSize+x-1] >= center {
				code |= 1 << 7
			}
			if patch[(y-1)*PatchSize+x] >= center {
				code |= 1 << 6
			}
			if patch[(y-1)*PatchSize+x+1] >= center {
				code |= 1 << 5
			}
			if patch[y*PatchSize+x+1] >= center {
				code |= 1 << 4
			}
			if patch[(y+1)*PatchSize+x+1] >= center {
				code |= 1 << 3
			}
			if patch[(y+1)*PatchSize+x] >= center {
				code |= 1 << 2
			}
			if patch[(y+1)*PatchSize+x-1] >= center {
				code |= 1 << 1
			}
			if patch[y*PatchSize+x-1] >= center {
				code |= 1
			}
			codes[y*PatchSize+x] = code
		}
	}
	return codes
}

// chiSquare computes the chi-square distance between two histograms of
// equal length. Bins empty in both histograms contribute nothing.
func chiSquare(a, b []float32) float64 {
	var sum float64
	for i := range a {
		s := float64(a[i]) + float64(b[i])
		if s == 0 {
			continue
		}
		d := float64(a[i]) - float64(b[i])
		sum += d * d / s
	}
	return sum
}

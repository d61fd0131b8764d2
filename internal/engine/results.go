package engine

import (
	"encoding/json"

	"github.com/attendly/faceid/internal/extract"
	"github.com/attendly/faceid/internal/match"
)

// TrainingRecord is one labeled enrollment input: an identity and the path
// of one training image for it. The same label id may appear on multiple
// records (multi-image enrollment).
type TrainingRecord struct {
	StudentID  string `json:"studentId"`
	Name       string `json:"name"`
	Department string `json:"department"`
	ImagePath  string `json:"imagePath"`
	LabelID    int32  `json:"labelId"`
}

// MatchResult is one matched face: the identity decision plus where the
// face was found in the query image.
type MatchResult struct {
	match.Result
	Location extract.Region `json:"location"`
}

// TrainResult is the structured outcome of a training run. Always
// well-formed: failures carry a message, never a fault.
type TrainResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	TrainedCount int    `json:"trainedCount,omitempty"`
}

// RecognizeResult is the outcome of single-image recognition. Zero detected
// faces is a failure in this form ("No face detected").
type RecognizeResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Results []MatchResult `json:"results,omitempty"`
}

// FrameResult is the streaming-form outcome: zero detected faces is a
// success with an empty list.
type FrameResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Faces   []MatchResult `json:"faces"`
}

// MarshalJSON keeps the faces key out of failure results while a success
// always carries it, even as an empty array.
func (r FrameResult) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Message string `json:"message,omitempty"`
		}{r.Success, r.Message})
	}

	faces := r.Faces
	if faces == nil {
		faces = []MatchResult{}
	}
	return json.Marshal(struct {
		Success bool          `json:"success"`
		Faces   []MatchResult `json:"faces"`
	}{r.Success, faces})
}

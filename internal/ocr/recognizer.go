package ocr

import (
	"context"

	"sentry-gate/internal/vision"
)

// RawCandidate is an uninterpreted read from the OCR backend.
// Confidence is normalized to [0,1]. An empty Text with confidence 0
// means "no text found" and is not an error.
type RawCandidate struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Recognizer is the OCR backend capability. Any engine honoring this
// contract is interchangeable; backend failure is reported as
// domain.ErrRecognizerUnavailable so the pipeline can retry.
type Recognizer interface {
	Recognize(ctx context.Context, region vision.CandidateRegion) (RawCandidate, error)
}

package validator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"sentry-gate/internal/domain"
	"sentry-gate/internal/ocr"
)

// Result is the terminal decision for one raw candidate.
// NormalizedPlate is nil when the candidate was rejected.
type Result struct {
	Outcome         domain.Outcome
	NormalizedPlate *string
}

// Validator applies the three-tier acceptance policy: reject below
// the minimum confidence or on grammar mismatch, hold grammar matches
// below the auto-accept threshold as ambiguous, accept the rest.
// It is deterministic for a given configuration.
type Validator struct {
	minConfidence float64
	autoAccept    float64
	patterns      []*regexp.Regexp
	substitutions map[string]string
}

func New(minConfidence, autoAccept float64, patterns []string, substitutions map[string]string) (*Validator, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: at least one plate pattern is required", domain.ErrInvalidInput)
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: plate pattern %q: %v", domain.ErrInvalidInput, p, err)
		}
		compiled = append(compiled, re)
	}
	return &Validator{
		minConfidence: minConfidence,
		autoAccept:    autoAccept,
		patterns:      compiled,
		substitutions: substitutions,
	}, nil
}

func (v *Validator) Validate(candidate ocr.RawCandidate) Result {
	if candidate.Confidence < v.minConfidence {
		return Result{Outcome: domain.OutcomeRejected}
	}

	normalized := v.Normalize(candidate.Text)
	if !v.matches(normalized) {
		return Result{Outcome: domain.OutcomeRejected}
	}

	outcome := domain.OutcomeAccepted
	if candidate.Confidence < v.autoAccept {
		outcome = domain.OutcomeAmbiguous
	}
	return Result{Outcome: outcome, NormalizedPlate: &normalized}
}

// Normalize canonicalizes a raw read: strip separators, uppercase,
// then map common OCR confusions, keeping a substitution only when it
// turns a non-matching text into a grammar match. Idempotent.
func (v *Validator) Normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(text) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	if v.matches(cleaned) {
		return cleaned
	}
	// Sorted key order keeps the result deterministic when more than
	// one substitution would produce a match.
	keys := make([]string, 0, len(v.substitutions))
	for from := range v.substitutions {
		keys = append(keys, from)
	}
	sort.Strings(keys)
	for _, from := range keys {
		swapped := strings.ReplaceAll(cleaned, from, v.substitutions[from])
		if swapped != cleaned && v.matches(swapped) {
			return swapped
		}
	}
	return cleaned
}

func (v *Validator) matches(text string) bool {
	if text == "" {
		return false
	}
	for _, re := range v.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

package validator

import (
	"errors"
	"testing"

	"sentry-gate/internal/domain"
	"sentry-gate/internal/ocr"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New(0.50, 0.90,
		[]string{
			`^[A-Z]{3}[0-9][A-Z][0-9]{2}$`,
			`^[A-Z]{3}[0-9]{4}$`,
		},
		map[string]string{"0": "O", "1": "I", "5": "S", "8": "B"},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestValidate(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name       string
		text       string
		confidence float64
		outcome    domain.Outcome
		normalized string
	}{
		{"high confidence mercosul", "ABC1D23", 0.95, domain.OutcomeAccepted, "ABC1D23"},
		{"high confidence legacy with separators", "abc-1234", 0.92, domain.OutcomeAccepted, "ABC1234"},
		{"grammar match below auto accept", "ABC1234", 0.75, domain.OutcomeAmbiguous, "ABC1234"},
		{"below reject threshold", "ABC1234", 0.40, domain.OutcomeRejected, ""},
		{"grammar mismatch", "XYZ", 0.95, domain.OutcomeRejected, ""},
		{"empty text", "", 0.95, domain.OutcomeRejected, ""},
		{"confusion substitution rescues read", "A8C1234", 0.95, domain.OutcomeAccepted, "ABC1234"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := v.Validate(ocr.RawCandidate{Text: tc.text, Confidence: tc.confidence})
			if got.Outcome != tc.outcome {
				t.Fatalf("outcome = %q, want %q", got.Outcome, tc.outcome)
			}
			if tc.normalized == "" {
				if got.NormalizedPlate != nil {
					t.Fatalf("normalized = %q, want nil", *got.NormalizedPlate)
				}
				return
			}
			if got.NormalizedPlate == nil {
				t.Fatal("normalized = nil, want value")
			}
			if *got.NormalizedPlate != tc.normalized {
				t.Fatalf("normalized = %q, want %q", *got.NormalizedPlate, tc.normalized)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		in   string
		want string
	}{
		{"abc 1234", "ABC1234"},
		{"ABC-1234", "ABC1234"},
		{"AB01234", "ABO1234"},   // 0 to O makes the grammar match
		{"ABC1234", "ABC1234"},   // already matching, substitutions untouched
		{"A8C012", "A8C012"},     // no single substitution produces a match
		{"garbage!!", "GARBAGE"}, // cleaned but never matching
	}
	for _, tc := range tests {
		if got := v.Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	v := newTestValidator(t)
	for _, in := range []string{"abc-1234", "A8C1234", "AB01234", "XYZ", ""} {
		once := v.Normalize(in)
		twice := v.Normalize(once)
		if once != twice {
			t.Errorf("Normalize(%q): %q then %q, want stable", in, once, twice)
		}
	}
}

func TestValidateDeterministic(t *testing.T) {
	v := newTestValidator(t)
	candidate := ocr.RawCandidate{Text: "a8c-1234", Confidence: 0.95}
	first := v.Validate(candidate)
	for i := 0; i < 100; i++ {
		got := v.Validate(candidate)
		if got.Outcome != first.Outcome {
			t.Fatalf("run %d: outcome %q, first run %q", i, got.Outcome, first.Outcome)
		}
		if (got.NormalizedPlate == nil) != (first.NormalizedPlate == nil) {
			t.Fatalf("run %d: normalized presence changed", i)
		}
		if got.NormalizedPlate != nil && *got.NormalizedPlate != *first.NormalizedPlate {
			t.Fatalf("run %d: normalized %q, first run %q", i, *got.NormalizedPlate, *first.NormalizedPlate)
		}
	}
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	if _, err := New(0.5, 0.9, nil, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("no patterns: err = %v, want ErrInvalidInput", err)
	}
	if _, err := New(0.5, 0.9, []string{"("}, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("bad pattern: err = %v, want ErrInvalidInput", err)
	}
}

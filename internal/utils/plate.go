package utils

import "strings"

// NormalizePlate canonicalizes a plate identifier: uppercase, no
// separators. Storage-level normalization only; OCR confusion mapping
// belongs to the validator.
func NormalizePlate(plate string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(plate) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

package domain

import (
	"regexp"
	"strings"
)

// Validation Helpers

var cveRegex = regexp.MustCompile(`^CVE-\d{4}-\d{4,}$`)

// IsValidCVEID checks if the string follows the CVE identifier format
// (CVE-YYYY-NNNN with four or more digits in the sequence part).
func IsValidCVEID(id string) bool {
	return cveRegex.MatchString(strings.ToUpper(strings.TrimSpace(id)))
}

// NormalizeCVEID upper-cases and trims a CVE identifier so lookups and
// comparisons are format-insensitive. Invalid input is returned trimmed only.
func NormalizeCVEID(id string) string {
	trimmed := strings.TrimSpace(id)
	upper := strings.ToUpper(trimmed)
	if cveRegex.MatchString(upper) {
		return upper
	}
	return trimmed
}

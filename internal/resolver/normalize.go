package resolver

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

var (
	// Trailing recognizer noise: "Underground Station", "Tube Station".
	// A bare trailing "Station" is deliberately not stripped here; that case
	// is handled by the suffix-tolerant matching stage so it scores 0.95
	// rather than 1.0.
	suffixRe     = regexp.MustCompile(`\s+(underground|tube)\s+station$`)
	dashRe       = regexp.MustCompile(`[‐‑–—−-]`)
	apostropheRe = regexp.MustCompile(`['’‘"“”]`)
	punctRe      = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// normalize canonicalizes a station name or recognized text for comparison.
// Lowercase, dash variants to spaces, "&" to "and", apostrophes and remaining
// punctuation stripped, whitespace collapsed, trailing underground/tube
// station suffix removed.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = dashRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&", " and ")
	s = apostropheRe.ReplaceAllString(s, "")
	s = punctRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = suffixRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// similarity scores two already-normalized strings in [0,1]:
// 1 − editDistance/max(len). Equal strings score 1, disjoint strings
// approach 0.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

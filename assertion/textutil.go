package assertion

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeSentence collapses whitespace and applies NFKC so that
// validation treats visually blank input as empty. The raw sentence,
// not the normalized form, is what gets tokenized.
func normalizeSentence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFKC.String(s)
}

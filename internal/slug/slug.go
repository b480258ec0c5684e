// Package slug turns free text into a URL-safe identifier.
//
// The pipeline follows python-slugify with its default options:
//
//  1. apostrophes become hyphens
//  2. transliterate to ASCII with unidecode
//  3. HTML entities are decoded (&amp; → &), then NFKD-normalized
//  4. lower-case, and drop apostrophes unidecode produced
//  5. a comma between two digits is removed (1,000 → 1000)
//  6. every run of characters other than ASCII letters, digits and hyphens
//     becomes one hyphen, and hyphens are trimmed from both ends
//
//	slug.Make("Alice Smith")   → "alice-smith"
//	slug.Make("Crème Brûlée!") → "creme-brulee"
//	slug.Make("Привет, мир")   → "privet-mir"
//	slug.Make("你好")           → "ni-hao"
package slug

import (
	"html"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

// Make returns the slug for s. The result may be empty when s holds nothing
// that transliterates to a letter or digit.
func Make(s string) string {
	s = strings.ReplaceAll(s, "'", "-")
	s = unidecode.Unidecode(s)

	if strings.Contains(s, "&") {
		// A decoded entity may be non-ASCII. NFKD splits off its accent,
		// which the separator pass then drops.
		s = norm.NFKD.String(html.UnescapeString(s))
	}

	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "'", "")
	s = joinDigitGroups(s)

	var out strings.Builder
	out.Grow(len(s))
	sep := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlnum(c) {
			if sep && out.Len() > 0 {
				out.WriteByte('-')
			}
			sep = false
			out.WriteByte(c)
			continue
		}
		sep = true
	}
	return out.String()
}

// joinDigitGroups drops a comma that sits between two digits.
func joinDigitGroups(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ',' && i > 0 && i+1 < len(s) && isDigit(s[i-1]) && isDigit(s[i+1]) {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlnum(c byte) bool { return isDigit(c) || (c >= 'a' && c <= 'z') }

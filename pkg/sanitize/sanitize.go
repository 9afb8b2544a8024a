// Package sanitize normalizes the loosely-typed values that arrive from
// spreadsheets and registration forms before they touch the domain layer.
package sanitize

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Placeholders protect the letter enye while combining marks are stripped.
const (
	enyeLower = "__ENYE__"
	enyeUpper = "__ENYE_MAYUS__"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// CleanText trims, removes diacritics (keeping ñ/Ñ verbatim) and upper-cases.
// Empty input yields the empty string.
func CleanText(value string) string {
	txt := strings.TrimSpace(value)
	if txt == "" {
		return ""
	}

	txt = strings.ReplaceAll(txt, "ñ", enyeLower)
	txt = strings.ReplaceAll(txt, "Ñ", enyeUpper)

	if stripped, _, err := transform.String(stripMarks, txt); err == nil {
		txt = stripped
	}

	txt = strings.ReplaceAll(txt, enyeLower, "ñ")
	txt = strings.ReplaceAll(txt, enyeUpper, "Ñ")
	return strings.ToUpper(txt)
}

// CleanIdentifier strips separators and the ".0" artifact produced when a
// numeric identifier passes through a float cell.
func CleanIdentifier(value string) string {
	c := strings.ReplaceAll(strings.TrimSpace(value), ".0", "")
	c = strings.ReplaceAll(c, "-", "")
	c = strings.ReplaceAll(c, ".", "")
	return strings.ReplaceAll(c, ",", "")
}

// CleanScore parses a cell into a score, accepting comma decimal separators.
// Blank and sentinel values parse to 0.0; this function never fails.
func CleanScore(value string) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	switch s {
	case "-", "", "nan", "None":
		return 0.0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return f
}

// ValidateNationalID reports whether a 10-digit national identifier passes
// the modulo-10 check: region code 01-24 or 30, alternating 2,1 weights over
// the first nine digits (products >= 10 lose 9), check digit compared against
// 10 - sum%10 (0 when the sum is a multiple of 10).
func ValidateNationalID(id string) bool {
	if len(id) != 10 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}

	region, err := strconv.Atoi(id[0:2])
	if err != nil || !((region >= 1 && region <= 24) || region == 30) {
		return false
	}

	weights := [9]int{2, 1, 2, 1, 2, 1, 2, 1, 2}
	total := 0
	for i := 0; i < 9; i++ {
		v := int(id[i]-'0') * weights[i]
		if v >= 10 {
			v -= 9
		}
		total += v
	}

	expected := 0
	if rem := total % 10; rem != 0 {
		expected = 10 - rem
	}
	return int(id[9]-'0') == expected
}

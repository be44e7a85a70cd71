package extract

import (
	"regexp"
	"strings"

	"talent-match/internal/domain/profile"
)

var (
	cgpaRe    = regexp.MustCompile(`(?i)CGPA[:\s]*([0-9]+\.?[0-9]*(?:/[0-9]+\.?[0-9]*)?)`)
	percentRe = regexp.MustCompile(`([0-9]{1,3}\.?[0-9]*)\s*%`)
	jeeRe     = regexp.MustCompile(`(?i)JEE\s*Rank[:\s]*([0-9,]+)`)
	yearRe    = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

// NumericSnippets pulls CGPA/percentage/JEE-rank/year hits out of the raw
// text. These are the deterministic cross-check values the validator weighs
// against the model output.
func NumericSnippets(text string) profile.NumericSnippets {
	var s profile.NumericSnippets
	if m := cgpaRe.FindStringSubmatch(text); m != nil {
		s.CGPA = m[1]
	}
	if m := percentRe.FindStringSubmatch(text); m != nil {
		s.Percentage = m[1]
	}
	if m := jeeRe.FindStringSubmatch(text); m != nil {
		s.JEERank = strings.ReplaceAll(m[1], ",", "")
	}
	if years := yearRe.FindAllString(text, -1); len(years) > 0 {
		seen := make(map[string]bool, len(years))
		for _, y := range years {
			if !seen[y] {
				seen[y] = true
				s.Years = append(s.Years, y)
			}
		}
	}
	return s
}

var (
	multiNewlineRe = regexp.MustCompile(`\n{2,}`)
	nonASCIIRe     = regexp.MustCompile(`[^\x00-\x7F]+`)
)

// CleanText normalizes line endings, collapses blank runs and strips
// non-ASCII noise left by OCR.
func CleanText(text string) string {
	s := strings.ReplaceAll(text, "\r", "\n")
	s = multiNewlineRe.ReplaceAllString(s, "\n\n")
	s = nonASCIIRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

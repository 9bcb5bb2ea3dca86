package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate      = regexp.MustCompile(`\b20\d{2}[./-]\s?\d{2}[./-]\s?\d{2}`)
	reCurr      = regexp.MustCompile(`\b(ft|huf)\b`)
	reAmount    = regexp.MustCompile(`\b\d{1,3}(?:[ .]\d{3})+\b|\b\d+,\d{2}\b`)
	reBoxNoise  = regexp.MustCompile(`[|_~]{3,}`)
	reBlankRuns = regexp.MustCompile(`\n{3,}`)
)

func hasDatePattern(s string) bool     { return reDate.MatchString(s) }
func hasCurrencyPattern(s string) bool { return reCurr.MatchString(s) }
func hasAmountPattern(s string) bool   { return reAmount.MatchString(s) }

// naive heuristic confidence based on what an invoice usually shows
func heuristicConfidence(txt string) float32 {
	if strings.TrimSpace(txt) == "" {
		return 0
	}
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	if hasDatePattern(txtL) {
		score += 0.2
	}
	if hasCurrencyPattern(txtL) {
		score += 0.15
	}
	if hasAmountPattern(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Normalize strips table-rule noise, trailing blanks and runs of empty lines
// from engine output.
func Normalize(txt string) string {
	txt = strings.ReplaceAll(txt, "\r\n", "\n")
	txt = reBoxNoise.ReplaceAllString(txt, "")
	lines := strings.Split(txt, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, " \t\f")
	}
	txt = strings.Join(lines, "\n")
	txt = reBlankRuns.ReplaceAllString(txt, "\n\n")
	return strings.TrimSpace(txt)
}

// Package labels recovers amount, due date and provider name from the text
// around Hungarian billing labels ("Fizetendő összeg", "Fizetési határidő",
// "Szolgáltató neve").
package labels

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
	"github.com/joseph-ayodele/invoice-autofill/internal/textnorm"
)

// Step names the search step that produced a value.
type Step string

const (
	StepPlain        Step = "plain"
	StepDeShifted    Step = "deshifted"
	StepDeShiftedRaw Step = "deshifted-raw"
	StepLine         Step = "line"
	StepLookahead    Step = "lookahead"
	StepEncodedASCII Step = "encoded-ascii"
	StepEncodedRaw   Step = "encoded-raw"
)

// MaxLookahead is how many lines after a label line are searched for its value.
const MaxLookahead = 2

// Result carries the extracted fields and where each one came from.
type Result struct {
	Fields          fields.FieldSet `json:"fields"`
	RawAmount       string          `json:"raw_amount,omitempty"`
	RawDueDate      string          `json:"raw_due_date,omitempty"`
	AmountStep      Step            `json:"amount_step,omitempty"`
	DueStep         Step            `json:"due_step,omitempty"`
	NameStep        Step            `json:"name_step,omitempty"`
	HasPayableLabel bool            `json:"has_payable_label"`
}

type patterns struct {
	amount *regexp.Regexp
	due    *regexp.Regexp
	name   *regexp.Regexp
}

var (
	strict = patterns{
		amount: regexp.MustCompile(`fizetendo\s*osszeg\s*([0-9 .,-]+(?:ft|huf)?)`),
		due:    regexp.MustCompile(`fizetesi\s*hatarido\s*([0-9 ./-]+)`),
		name:   regexp.MustCompile(`szolgaltato\s+neve\s+([a-z0-9 .-]{3,80})`),
	}
	// the unrepaired de-shifted text loses accented vowels, so label words are matched by prefix
	loose = patterns{
		amount: regexp.MustCompile(`fizetend\w*\s*osszeg\s*([0-9 .,-]+(?:ft|huf)?)`),
		due:    regexp.MustCompile(`fizetes\w*\s*hatarido\s*([0-9./-]+)`),
		name:   strict.name,
	}

	reAmountLabel = regexp.MustCompile(`fizetendo.*osszeg`)
	reDueLabel    = regexp.MustCompile(`fizetesi.*hatarido`)
	reNameLabel   = regexp.MustCompile(`szolgaltato\s+neve`)

	reLineAmount = regexp.MustCompile(`(?i)([0-9][0-9 .,-]+(?:ft|huf)?)`)
	reLineDate   = regexp.MustCompile(`([0-9]{4}[./-][0-9]{2}[./-][0-9]{2})`)
	reLineName   = regexp.MustCompile(`(?i)szolg[aá]ltat[oó]\s+neve\s*:?\s*(.*)$`)

	rePayable = regexp.MustCompile(`fizetend`)
)

// Extract scans raw invoice text. Every step only fills fields that are still
// empty, so the first successful match in the fixed order wins: line-by-line
// variants (plain, de-shifted, unrepaired de-shifted), lookahead below a label
// line that carries no value, then the encoded-byte fallbacks. A value never
// extends past the end of its label's line.
func Extract(raw string) Result {
	var res Result
	if strings.TrimSpace(raw) == "" {
		return res
	}
	vs := textnorm.Variants(raw)
	lines := splitLines(raw)

	// names keep their original casing when the label sits on a readable line
	res.fromNameLines(lines)

	for _, v := range []struct {
		kind textnorm.VariantKind
		pats patterns
		step Step
	}{
		{textnorm.VariantPlain, strict, StepPlain},
		{textnorm.VariantDeShifted, strict, StepDeShifted},
		{textnorm.VariantDeShiftedRaw, loose, StepDeShiftedRaw},
	} {
		variant, _ := textnorm.Lookup(vs, v.kind)
		for _, line := range variant.Lines() {
			if rePayable.MatchString(line) {
				res.HasPayableLabel = true
			}
			res.fromCompact(line, v.pats, v.step)
		}
	}

	if res.Fields.Amount == nil {
		if val, ok := findValueNearLabel(lines, reAmountLabel, reLineAmount); ok {
			res.setAmount(val, StepLookahead, nil)
		}
	}
	if res.Fields.DueDate == nil {
		if val, ok := findValueNearLabel(lines, reDueLabel, reLineDate); ok {
			res.setDue(val, StepLookahead)
		}
	}

	ascii, _ := textnorm.Lookup(vs, textnorm.VariantASCII)
	res.fromEncoded(ascii.Text, raw)
	return res
}

// fromCompact matches label and value on one folded line.
func (r *Result) fromCompact(line string, p patterns, step Step) {
	if r.Fields.ProviderName == nil {
		if m := p.name.FindStringSubmatch(line); m != nil {
			if name := strings.TrimSpace(m[1]); len(name) >= 3 {
				r.Fields.ProviderName = &name
				r.NameStep = step
			}
		}
	}
	if r.Fields.Amount == nil {
		if m := p.amount.FindStringSubmatch(line); m != nil {
			r.setAmount(strings.TrimSpace(m[1]), step, nil)
		}
	}
	if r.Fields.DueDate == nil {
		if m := p.due.FindStringSubmatch(line); m != nil {
			r.setDue(strings.Join(strings.Fields(m[1]), ""), step)
		}
	}
}

func (r *Result) fromNameLines(lines []string) {
	for i, line := range lines {
		if !reNameLabel.MatchString(textnorm.Fold(line)) {
			continue
		}
		candidate := ""
		if m := reLineName.FindStringSubmatch(line); m != nil {
			candidate = cleanName(m[1])
		}
		for j := i + 1; candidate == "" && j < len(lines) && j <= i+MaxLookahead; j++ {
			candidate = cleanName(lines[j])
		}
		if len([]rune(candidate)) >= 3 {
			r.Fields.ProviderName = &candidate
			r.NameStep = StepLine
			return
		}
	}
}

func cleanName(s string) string {
	s = textnorm.CollapseWhitespace(s)
	s = strings.Trim(s, ":;,- ")
	if r := []rune(s); len(r) > 80 {
		s = strings.TrimSpace(string(r[:80]))
	}
	return s
}

// setAmount records a candidate only when it parses to a positive value; an
// explicit currency overrides the unit inferred from the text.
func (r *Result) setAmount(raw string, step Step, currency *string) {
	amt := fields.PositiveAmount(raw)
	if amt == nil {
		return
	}
	r.Fields.Amount = amt
	r.RawAmount = raw
	r.AmountStep = step
	if currency != nil {
		r.Fields.Currency = currency
	} else {
		r.Fields.Currency = fields.InferCurrency(raw)
	}
}

func (r *Result) setDue(raw string, step Step) {
	iso, ok := fields.NormalizeDate(raw)
	if !ok {
		return
	}
	r.Fields.DueDate = &iso
	r.RawDueDate = raw
	r.DueStep = step
}

// findValueNearLabel looks for a label on the folded form of each line (plain
// and de-shifted) and then for a value on that line or the next MaxLookahead
// lines, trying the original line before its de-shifted rendering.
func findValueNearLabel(lines []string, label, value *regexp.Regexp) (string, bool) {
	for i, line := range lines {
		plainHit := label.MatchString(textnorm.Fold(line))
		shiftHit := !plainHit && label.MatchString(textnorm.FoldDeShifted(line))
		if !plainHit && !shiftHit {
			continue
		}
		for j := i; j < len(lines) && j <= i+MaxLookahead; j++ {
			candidates := []string{lines[j]}
			if shiftHit {
				candidates = append(candidates, textnorm.DeShift(lines[j]))
			}
			for _, c := range candidates {
				if m := value.FindStringSubmatch(c); m != nil {
					if v := strings.TrimSpace(m[1]); v != "" {
						return v, true
					}
				}
			}
		}
	}
	return "", false
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}


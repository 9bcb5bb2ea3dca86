package labels

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
)

// Byte patterns left in one provider's legacy PDFs when the text layer is
// shifted and no variant reveals the labels. ")L]HW" is "Fizet" stored 29 code
// points low; "VV]HJ" is the tail of "összeg", "KDWiULG" of "határidő".
var (
	reEncodedAmountASCII = regexp.MustCompile(`\)L\]HW[^\n\r]{0,60}?VV\]HJ[:\s]*([0-9][0-9.\s]+)`)
	reEncodedDueASCII    = regexp.MustCompile(`\)L\]HWpVL[^\n\r]{0,60}?KDWiULG[:\s]*([0-9]{4}[./-][0-9]{2}[./-][0-9]{2})`)
	reEncodedAmountRaw   = regexp.MustCompile(`\)L\]HWHN[\s\S]{0,80}?[: ]+([0-9][0-9.]+)`)
	reEncodedDueRaw      = regexp.MustCompile(`\)L\]HWpVL[\s\S]{0,80}?[: ]+([0-9]{4}[./-][0-9]{2}[./-][0-9]{2})`)
)

// fromEncoded is the last resort for that provider's documents. Amounts found
// here are always forints.
func (r *Result) fromEncoded(ascii, raw string) {
	huf := fields.String(constants.DefaultCurrency)
	if r.Fields.Amount == nil {
		if m := reEncodedAmountASCII.FindStringSubmatch(ascii); m != nil {
			r.setAmount(strings.TrimSpace(m[1]), StepEncodedASCII, huf)
		}
	}
	if r.Fields.DueDate == nil {
		if m := reEncodedDueASCII.FindStringSubmatch(ascii); m != nil {
			r.setDue(strings.TrimSpace(m[1]), StepEncodedASCII)
		}
	}
	if r.Fields.Amount == nil {
		if m := reEncodedAmountRaw.FindStringSubmatch(raw); m != nil {
			r.setAmount(strings.TrimSpace(m[1]), StepEncodedRaw, huf)
		}
	}
	if r.Fields.DueDate == nil {
		if m := reEncodedDueRaw.FindStringSubmatch(raw); m != nil {
			r.setDue(strings.TrimSpace(m[1]), StepEncodedRaw)
		}
	}
}

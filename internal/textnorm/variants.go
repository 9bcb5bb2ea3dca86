package textnorm

import "strings"

// VariantKind names one canonical form of the same extracted text.
type VariantKind string

const (
	// VariantPlain is Fold of the raw text.
	VariantPlain VariantKind = "plain"
	// VariantDeShifted is Fold of the de-shifted text with accent glyphs repaired.
	VariantDeShifted VariantKind = "deshifted"
	// VariantDeShiftedRaw is Fold of the de-shifted text without glyph repair;
	// label patterns applied to it are looser.
	VariantDeShiftedRaw VariantKind = "deshifted-raw"
	// VariantASCII is the raw text with non-printable-ASCII blanked, case kept.
	VariantASCII VariantKind = "ascii"
)

// Variant is one normalized rendition of the text. The folded kinds keep the
// line structure of their source: each line is folded on its own and the
// lines are joined with "\n".
type Variant struct {
	Kind VariantKind
	Text string
}

// Lines splits a folded variant back into its lines.
func (v Variant) Lines() []string {
	if v.Text == "" {
		return nil
	}
	return strings.Split(v.Text, "\n")
}

// Variants returns every rendition in the fixed priority order label searches
// use. The de-shifted kinds cover only lines that LooksShifted and are empty
// for readable text.
func Variants(raw string) []Variant {
	var repaired, unrepaired string
	if deshifted, ok := DeShiftLines(raw); ok {
		repaired = foldLines(repairDeShifted(deshifted))
		unrepaired = foldLines(deshifted)
	}
	return []Variant{
		{Kind: VariantPlain, Text: foldLines(raw)},
		{Kind: VariantDeShifted, Text: repaired},
		{Kind: VariantDeShiftedRaw, Text: unrepaired},
		{Kind: VariantASCII, Text: ASCIIOnly(raw)},
	}
}

// foldLines applies Fold to every non-blank line.
func foldLines(s string) string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if f := Fold(line); f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, "\n")
}

// Lookup returns the variant of the given kind.
func Lookup(vs []Variant, kind VariantKind) (Variant, bool) {
	for _, v := range vs {
		if v.Kind == kind {
			return v, true
		}
	}
	return Variant{}, false
}

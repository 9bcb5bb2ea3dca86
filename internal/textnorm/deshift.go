package textnorm

import (
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// ShiftOffset is the glyph offset used by the one provider whose PDF text layer
// stores every code unit 29 below its Windows-1250 byte value.
const ShiftOffset = 29

// DeShift reverses that provider's text-layer obfuscation: each UTF-16 code unit
// is moved up by ShiftOffset modulo 256 and the resulting bytes are decoded as
// Windows-1250. It is not meaningful for any other input.
func DeShift(s string) string {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, len(units))
	for i, u := range units {
		buf[i] = byte((int(u) + ShiftOffset) & 0xff)
	}
	out, err := charmap.Windows1250.NewDecoder().Bytes(buf)
	if err != nil {
		// latin-1 reading of the same bytes
		r := make([]rune, len(buf))
		for i, b := range buf {
			r[i] = rune(b)
		}
		return string(r)
	}
	return string(out)
}

var glyphFixes = strings.NewReplacer(
	"†", "a",
	"Ť", "e",
	"™", "o",
	"–", "o",
	"=", "o",
)

// repairDeShifted maps the glyphs that accented vowels land on after DeShift back
// to their base letters, including a "5" squeezed between two letters.
func repairDeShifted(s string) string {
	s = glyphFixes.Replace(s)
	r := []rune(s)
	for i := 1; i+1 < len(r); i++ {
		if r[i] == '5' && isASCIILetter(r[i-1]) && isASCIILetter(r[i+1]) {
			r[i] = 'o'
		}
	}
	return string(r)
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// FoldDeShifted is Fold applied to the de-shifted, glyph-repaired text.
func FoldDeShifted(s string) string {
	return Fold(repairDeShifted(DeShift(s)))
}

// LooksShifted reports whether one line of text carries the shifted layout:
// spaces and digits land on C0 control codes and lowercase letters on
// uppercase ones, with "z", "y" and "x" turning into "]", "\" and "[".
// Readable Hungarian text has neither pattern.
func LooksShifted(line string) bool {
	var total, ctrl, lower, upper, marks int
	for _, r := range line {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			continue
		case r < 0x20 || (r >= 0x7f && r < 0xa0):
			ctrl++
		case r >= 'a' && r <= 'z':
			lower++
		case r >= 'A' && r <= 'Z':
			upper++
		case r == '[' || r == '\\' || r == ']':
			marks++
		}
		total++
	}
	if ctrl >= 2 && ctrl*20 >= total {
		return true
	}
	letters := lower + upper
	return letters >= 8 && marks > 0 && lower*5 < letters
}

// DeShiftLines de-shifts only the lines of raw that LooksShifted and drops the
// readable ones. ok is false when no line looks shifted.
func DeShiftLines(raw string) (string, bool) {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if LooksShifted(line) {
			out = append(out, DeShift(line))
		}
	}
	if len(out) == 0 {
		return "", false
	}
	return strings.Join(out, "\n"), true
}

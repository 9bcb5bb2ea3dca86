// Package pdffixture assembles minimal single-page PDFs for tests.
package pdffixture

import (
	"strconv"
	"strings"
)

// TextPDF returns a one-page PDF whose text layer holds one line per argument,
// drawn top to bottom in Helvetica. Lines should be ASCII.
func TextPDF(lines ...string) []byte {
	var stream strings.Builder
	y := 720
	for _, line := range lines {
		stream.WriteString("BT\n/F1 12 Tf\n72 ")
		stream.WriteString(strconv.Itoa(y))
		stream.WriteString(" Td\n(")
		stream.WriteString(escape(line))
		stream.WriteString(") Tj\nET\n")
		y -= 20
	}
	return assemble(
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		streamObject("", stream.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
}

// ImageOnlyPDF returns a one-page PDF that paints a single image and has no text.
func ImageOnlyPDF() []byte {
	img := "\xff\xd8\xff\xe0"
	return assemble(
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /XObject << /Im1 5 0 R >> >> /Contents 4 0 R >>",
		streamObject("", "q 100 0 0 100 72 692 cm /Im1 Do Q"),
		streamObject("/Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceRGB /BitsPerComponent 8 ", img),
	)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}

func streamObject(dict, data string) string {
	return "<< " + dict + "/Length " + strconv.Itoa(len(data)) + " >>\nstream\n" + data + "\nendstream"
}

// assemble writes catalog and page tree as objects 1 and 2 followed by the
// given objects, with a correct xref table.
func assemble(objects ...string) []byte {
	all := append([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
	}, objects...)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(all))
	for i, obj := range all {
		offsets[i] = b.Len()
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(" 0 obj\n")
		b.WriteString(obj)
		b.WriteString("\nendobj\n")
	}

	xref := b.Len()
	size := strconv.Itoa(len(all) + 1)
	b.WriteString("xref\n0 " + size + "\n")
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		b.WriteString(pad10(off))
		b.WriteString(" 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size " + size + " /Root 1 0 R >>\nstartxref\n")
	b.WriteString(strconv.Itoa(xref))
	b.WriteString("\n%%EOF\n")
	return []byte(b.String())
}

func pad10(n int) string {
	s := strconv.Itoa(n)
	return strings.Repeat("0", 10-len(s)) + s
}

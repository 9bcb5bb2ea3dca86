package llm

import (
	"encoding/json"
	"strings"

	"github.com/joseph-ayodele/invoice-autofill/internal/textnorm"
)

// SystemPrompt instructs the model to copy values only when they are explicit.
const SystemPrompt = "Te egy magyar számlaadat-kinyerő asszisztens vagy. " +
	"Csak olyan adatot adj vissza, ami a szövegben explicit módon szerepel (kulcsszóval vagy egyértelmű címkével). " +
	"Ha nem biztos, null. Ne találj ki értéket. " +
	"A type mező legyen RENT, UTILITY, COMMON_COST vagy OTHER. " +
	"A due_date ISO (YYYY-MM-DD). " +
	"A currency legyen 3 betűs kód (pl. HUF, EUR, USD). " +
	"Figyelj a magyar kulcsszavakra: fizetési határidő/esedékesség, összeg/fizetendő. " +
	"Az összeget magyar formátumból is értelmezd (pl. 1 234,56 HUF). " +
	"A name legyen a szolgáltató/kibocsátó neve, ne a vevő/számlázási cím."

// BuildUserPrompt wraps the invoice text.
func BuildUserPrompt(text string) string {
	return "Számla szöveg:\n" + text
}

// SchemaInstruction is appended to the system prompt for backends without a
// native schema-constrained output mode.
func SchemaInstruction(schema map[string]any) string {
	b, _ := json.MarshalIndent(schema, "", "  ")
	return "Return ONLY a JSON object that matches this JSON Schema, with every key present:\n" + string(b)
}

// PrepareText collapses whitespace inside each line, drops blank lines and
// keeps at most maxChars runes.
func PrepareText(text string, maxChars int) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, ln := range lines {
		if ln = textnorm.CollapseWhitespace(ln); ln != "" {
			kept = append(kept, ln)
		}
	}
	out := strings.Join(kept, "\n")
	if maxChars > 0 {
		if r := []rune(out); len(r) > maxChars {
			out = string(r[:maxChars])
		}
	}
	return out
}

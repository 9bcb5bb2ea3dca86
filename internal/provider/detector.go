// Package provider recognises known invoice issuers from their text signatures.
package provider

import (
	"fmt"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/textnorm"
)

// Hint is the result of a signature match.
type Hint struct {
	Name             string               `json:"name"`
	DefaultType      constants.ChargeType `json:"type"`
	RequiresFallback bool                 `json:"requires_fallback"`
}

// Signature is one row of the ordered provider table.
type Signature struct {
	Pattern *regexp.Regexp
	Hint
	// Telecom marks the signature that triggers the canonical-name override.
	Telecom bool
}

var builtin = []Signature{
	{
		Pattern: regexp.MustCompile(`(?i)\bM\s*V\s*M\b|Magyar\s+Villamos\s+M[uű]vek`),
		Hint:    Hint{Name: "MVM", DefaultType: constants.ChargeUtility},
	},
	{
		Pattern: regexp.MustCompile(`(?i)\bTelekom\b|Magyar\s+Telekom`),
		Hint:    Hint{Name: "Magyar Telekom", DefaultType: constants.ChargeUtility},
		Telecom: true,
	},
	{
		// \b is ASCII-only in RE2, so the Ő form spells out its right edge
		Pattern: regexp.MustCompile(`(?i)\bMIH(?:O\b|Ő(?:$|[^\p{L}\p{N}_]))|Miskolci\s+h[őo]szolg[aá]ltat[oó]`),
		Hint:    Hint{Name: "MIHŐ", DefaultType: constants.ChargeUtility, RequiresFallback: true},
	},
}

// Detector matches text against an ordered signature table. It holds no
// mutable state and is safe for concurrent use.
type Detector struct {
	signatures []Signature
}

// NewDetector returns a detector over the built-in table followed by extra.
func NewDetector(extra ...Signature) *Detector {
	sigs := make([]Signature, 0, len(builtin)+len(extra))
	sigs = append(sigs, builtin...)
	sigs = append(sigs, extra...)
	return &Detector{signatures: sigs}
}

// Detect tests the raw text and then the de-shifted form of the lines that
// look shifted; the first signature that matches wins. Readable lines are
// never de-shifted, since digits such as " 090 " turn into "MVM".
func (d *Detector) Detect(raw string) (Hint, bool) {
	if raw == "" {
		return Hint{}, false
	}
	if h, ok := d.match(raw); ok {
		return h, true
	}
	deshifted, ok := textnorm.DeShiftLines(raw)
	if !ok {
		return Hint{}, false
	}
	return d.match(deshifted)
}

func (d *Detector) match(text string) (Hint, bool) {
	for _, s := range d.signatures {
		if s.Pattern.MatchString(text) {
			return s.Hint, true
		}
	}
	return Hint{}, false
}

// IsTelecom reports whether any telecom signature appears in the raw text.
func (d *Detector) IsTelecom(raw string) bool {
	for _, s := range d.signatures {
		if s.Telecom && s.Pattern.MatchString(raw) {
			return true
		}
	}
	return false
}

type signatureFile struct {
	Signatures []struct {
		Pattern          string `yaml:"pattern"`
		Name             string `yaml:"name"`
		Type             string `yaml:"type"`
		RequiresFallback bool   `yaml:"requires_fallback"`
		Telecom          bool   `yaml:"telecom"`
	} `yaml:"signatures"`
}

// LoadSignatures reads additional signatures from YAML:
//
//	signatures:
//	  - pattern: '(?i)\bE\.ON\b'
//	    name: E.ON
//	    type: UTILITY
func LoadSignatures(r io.Reader) ([]Signature, error) {
	var f signatureFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode signatures: %w", err)
	}
	out := make([]Signature, 0, len(f.Signatures))
	for i, s := range f.Signatures {
		if s.Pattern == "" || s.Name == "" {
			return nil, fmt.Errorf("signature %d: pattern and name are required", i)
		}
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("signature %d (%s): %w", i, s.Name, err)
		}
		ct, ok := constants.CanonicalizeChargeType(s.Type)
		if !ok && s.Type != "" {
			return nil, fmt.Errorf("signature %d (%s): unknown type %q", i, s.Name, s.Type)
		}
		if s.Type == "" {
			ct = constants.ChargeUtility
		}
		out = append(out, Signature{
			Pattern: re,
			Hint:    Hint{Name: s.Name, DefaultType: ct, RequiresFallback: s.RequiresFallback},
			Telecom: s.Telecom,
		})
	}
	return out, nil
}

package ocr

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/joseph-ayodele/invoice-autofill/constants"
)

type fakeLocal struct {
	text string
	err  error
}

func (f fakeLocal) RecognizePDF(context.Context, []byte) (string, error) { return f.text, f.err }

type fakeCloud struct {
	configured bool
	byEngine   map[Engine]string
	errs       map[Engine]error
	engines    []Engine
	files      []string
}

func (f *fakeCloud) Configured() bool { return f.configured }

func (f *fakeCloud) Recognize(_ context.Context, _ []byte, filename string, e Engine) (string, error) {
	f.engines = append(f.engines, e)
	f.files = append(f.files, filename)
	return f.byEngine[e], f.errs[e]
}

type fakeRaster []byte

func (f fakeRaster) RasterizeFirstPage(context.Context, []byte) []byte { return f }

func TestChainFromPDF(t *testing.T) {
	tests := []struct {
		name     string
		local    pdfRecognizer
		cloud    *fakeCloud
		wantText string
		wantProv constants.TextProvenance
		wantErrs int
	}{
		{
			name:     "local engine wins",
			local:    fakeLocal{text: "helyi szöveg"},
			cloud:    &fakeCloud{configured: true},
			wantText: "helyi szöveg",
			wantProv: constants.ProvenanceOCRLocal,
		},
		{
			name:     "cloud after local failure",
			local:    fakeLocal{err: errors.New("tesseract missing")},
			cloud:    &fakeCloud{configured: true, byEngine: map[Engine]string{EngineA: "felhő"}},
			wantText: "felhő",
			wantProv: constants.ProvenanceOCRCloudA,
			wantErrs: 1,
		},
		{
			name:     "cloud after empty local text",
			local:    fakeLocal{text: "  \n"},
			cloud:    &fakeCloud{configured: true, byEngine: map[Engine]string{EngineA: "felhő"}},
			wantText: "felhő",
			wantProv: constants.ProvenanceOCRCloudA,
		},
		{
			name:     "nothing configured",
			cloud:    &fakeCloud{},
			wantErrs: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChain(tt.local, tt.cloud, nil, nil)
			got, errs := c.FromPDF(context.Background(), []byte("%PDF"))
			if got.Content != tt.wantText || got.Provenance != tt.wantProv {
				t.Errorf("got (%q, %q), want (%q, %q)", got.Content, got.Provenance, tt.wantText, tt.wantProv)
			}
			if len(errs) != tt.wantErrs {
				t.Errorf("errs = %v, want %d", errs, tt.wantErrs)
			}
			if tt.wantProv == constants.ProvenanceOCRCloudA && !slices.Equal(tt.cloud.files, []string{"invoice.pdf"}) {
				t.Errorf("cloud saw %v, want the original PDF", tt.cloud.files)
			}
		})
	}
}

func TestChainFromImage(t *testing.T) {
	tests := []struct {
		name        string
		cloud       *fakeCloud
		wantText    string
		wantProv    constants.TextProvenance
		wantEngines []Engine
	}{
		{
			name:        "engine A finds the billing label",
			cloud:       &fakeCloud{configured: true, byEngine: map[Engine]string{EngineA: "Fizetendő összeg 100 Ft"}},
			wantText:    "Fizetendő összeg 100 Ft",
			wantProv:    constants.ProvenanceOCRCloudA,
			wantEngines: []Engine{EngineA},
		},
		{
			name: "engine B appended when label missing",
			cloud: &fakeCloud{configured: true, byEngine: map[Engine]string{
				EngineA: "MIHŐ Kft.",
				EngineB: "FIZETENDO OSSZEG 100 Ft",
			}},
			wantText:    "MIHŐ Kft.\nFIZETENDO OSSZEG 100 Ft",
			wantProv:    constants.ProvenanceOCRCloudB,
			wantEngines: []Engine{EngineA, EngineB},
		},
		{
			name:        "engine B empty keeps engine A",
			cloud:       &fakeCloud{configured: true, byEngine: map[Engine]string{EngineA: "MIHŐ Kft."}},
			wantText:    "MIHŐ Kft.",
			wantProv:    constants.ProvenanceOCRCloudA,
			wantEngines: []Engine{EngineA, EngineB},
		},
		{
			name: "engine A fails",
			cloud: &fakeCloud{configured: true,
				byEngine: map[Engine]string{EngineB: "Fizetendő 5 Ft"},
				errs:     map[Engine]error{EngineA: errors.New("503")},
			},
			wantText:    "Fizetendő 5 Ft",
			wantProv:    constants.ProvenanceOCRCloudB,
			wantEngines: []Engine{EngineA, EngineB},
		},
		{
			name:  "not configured",
			cloud: &fakeCloud{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := NewChain(nil, tt.cloud, nil, nil).FromImage(context.Background(), []byte("PNG"))
			if got.Content != tt.wantText || got.Provenance != tt.wantProv {
				t.Errorf("got (%q, %q), want (%q, %q)", got.Content, got.Provenance, tt.wantText, tt.wantProv)
			}
			if !slices.Equal(tt.cloud.engines, tt.wantEngines) {
				t.Errorf("engines = %v, want %v", tt.cloud.engines, tt.wantEngines)
			}
		})
	}
}

func TestChainFromFirstPage(t *testing.T) {
	cloud := &fakeCloud{configured: true, byEngine: map[Engine]string{EngineA: "Fizetendő 1 Ft"}}
	got, errs := NewChain(nil, cloud, fakeRaster("PNG"), nil).FromFirstPage(context.Background(), []byte("%PDF"))
	if got.Content != "Fizetendő 1 Ft" || len(errs) != 0 {
		t.Errorf("got %q errs %v", got.Content, errs)
	}

	got, errs = NewChain(nil, cloud, fakeRaster(nil), nil).FromFirstPage(context.Background(), []byte("%PDF"))
	if !got.Empty() || len(errs) != 1 || !strings.Contains(errs[0], "rasterize") {
		t.Errorf("got %q errs %v", got.Content, errs)
	}
}

package constants

// TextProvenance records which source produced the text handed to the field extractors.
type TextProvenance string

const (
	ProvenanceNone      TextProvenance = ""
	ProvenanceTextLayer TextProvenance = "text-layer"
	ProvenanceOCRLocal  TextProvenance = "ocr-local"
	ProvenanceOCRCloudA TextProvenance = "ocr-cloud-engine-A"
	ProvenanceOCRCloudB TextProvenance = "ocr-cloud-engine-B"
)

const (
	DefaultCurrency        = "HUF"
	CanonicalTelecomName   = "Magyar Telekom Nyrt."
	DefaultDocIntelModelID = "prebuilt-invoice"
)

package queue

const TypeInvoiceImport = "invoice:import"

// ImportPayload carries the document itself; the import path has no file store.
type ImportPayload struct {
	JobID    string `json:"job_id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	PDF      []byte `json:"pdf"`
}

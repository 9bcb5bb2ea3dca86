// Package ingest finds PDF invoices on the local filesystem and loads them
// as raw documents.
package ingest

import (
	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
)

// File is one discovered document, read into memory and hashed.
type File struct {
	Path    string
	HashHex string
	Doc     extract.RawDocument
}

// DirStats summarizes a directory walk.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

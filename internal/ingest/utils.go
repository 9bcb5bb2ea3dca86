package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/invoice-autofill/constants"
)

// AllowedExt reports whether ext (with or without the dot) is ingested.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

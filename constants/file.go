package constants

import (
	"mime"
	"strings"
)

// MimePDF is the only media type the extraction pipeline accepts.
const MimePDF = "application/pdf"

// AllowedExtensions holds the file extensions picked up by directory ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDFMime reports whether a declared media type is PDF, ignoring parameters and case.
func IsPDFMime(mimeType string) bool {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(mimeType))
	if err != nil {
		return false
	}
	return mt == MimePDF
}

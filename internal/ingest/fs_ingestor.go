package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/cache"
	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
)

// DefaultMaxSize matches the HTTP upload limit.
const DefaultMaxSize = 20 << 20

// ReadFile loads one PDF. The MIME type comes from the extension; the
// pipeline checks the bytes.
func ReadFile(path string, maxSize int64) (File, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return File{}, err
	}
	ext := constants.NormalizeExt(filepath.Ext(abs))
	if !AllowedExt(ext) {
		return File{}, fmt.Errorf("unsupported or missing extension %q", ext)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", abs)
	}
	if info.Size() > maxSize {
		return File{}, fmt.Errorf("%s is %d bytes, limit is %d", abs, info.Size(), maxSize)
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		return File{}, err
	}
	return File{
		Path:    abs,
		HashHex: cache.ContentHash(b),
		Doc: extract.RawDocument{
			Bytes:    b,
			MimeType: constants.MimePDF,
			Filename: filepath.Base(abs),
		},
	}, nil
}

// Package ocr recovers text from PDFs without a usable text layer: a local
// rasterizer and tesseract engine, a cloud OCR service with two engines, and
// the Chain that orders them.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "hun"
	TessdataDir   string
	DPI           int // rasterization DPI, default 300
}

func (c Config) withDefaults() Config {
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.TesseractLang == "" {
		c.TesseractLang = "hun"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	return c
}

// Rasterizer renders page 1 of a PDF to a grayscale PNG with pdftoppm.
type Rasterizer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewRasterizer(cfg Config, runner Runner, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	return &Rasterizer{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

// RasterizeFirstPage returns the PNG bytes of page 1, or nil on any failure.
// The scratch directory is removed on every path.
func (r *Rasterizer) RasterizeFirstPage(ctx context.Context, pdf []byte) []byte {
	tmpDir, err := os.MkdirTemp("", "inv-pp-*")
	if err != nil {
		r.logger.Warn("ocr.rasterize.tmpdir", "error", err)
		return nil
	}
	defer removeTemp(r.logger, tmpDir)

	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		r.logger.Warn("ocr.rasterize.write", "error", err)
		return nil
	}
	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f 1 -l 1 -gray -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm,
		"-f", "1", "-l", "1", "-gray", "-r", strconv.Itoa(r.cfg.DPI), "-png", in, prefix)
	if err != nil {
		r.logger.Warn("ocr.rasterize.failed", "error", err, "stderr", truncate(string(errb), 1<<10))
		return nil
	}

	// pdftoppm pads the page suffix to the page-count width (page-1.png, page-01.png)
	matches, _ := filepath.Glob(prefix + "*.png")
	if len(matches) == 0 {
		r.logger.Warn("ocr.rasterize.no_output")
		return nil
	}
	sort.Strings(matches)
	png, err := os.ReadFile(matches[0])
	if err != nil || len(png) == 0 {
		r.logger.Warn("ocr.rasterize.read", "error", err)
		return nil
	}
	r.logger.Debug("ocr.rasterize.ok", "bytes", len(png))
	return png
}

// LocalEngine runs tesseract on page 1. PDFs are rasterized first.
type LocalEngine struct {
	cfg    Config
	runner Runner
	raster *Rasterizer
	logger *slog.Logger
}

func NewLocalEngine(cfg Config, runner Runner, raster *Rasterizer, logger *slog.Logger) *LocalEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	if raster == nil {
		raster = NewRasterizer(cfg, runner, logger)
	}
	return &LocalEngine{cfg: cfg.withDefaults(), runner: runner, raster: raster, logger: logger}
}

var errNoImage = errors.New("page 1 could not be rasterized")

// RecognizePDF rasterizes page 1 and recognizes it.
func (e *LocalEngine) RecognizePDF(ctx context.Context, pdf []byte) (string, error) {
	png := e.raster.RasterizeFirstPage(ctx, pdf)
	if png == nil {
		return "", errNoImage
	}
	return e.RecognizeImage(ctx, png)
}

// RecognizeImage runs tesseract on PNG bytes.
func (e *LocalEngine) RecognizeImage(ctx context.Context, png []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "inv-tess-*")
	if err != nil {
		return "", err
	}
	defer removeTemp(e.logger, tmpDir)

	path := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(path, png, 0o600); err != nil {
		return "", err
	}

	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return Normalize(string(out)), nil
}

func removeTemp(logger *slog.Logger, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
	}
}

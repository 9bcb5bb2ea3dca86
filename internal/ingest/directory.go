package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

// WalkDirectory reads every PDF under root and hands it to fn. Unreadable
// files are counted and logged; an error from fn stops the walk.
func WalkDirectory(ctx context.Context, root string, skipHidden bool, fn func(File) error) (DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return stats, errors.New("root path is required")
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			slog.Warn("ingest.walk.error", "path", path, "err", walkErr)
			stats.Failed++
			return nil
		}
		if path != root && skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		f, err := ReadFile(path, 0)
		if err != nil {
			slog.Warn("ingest.read.failed", "path", path, "err", err)
			stats.Failed++
			return nil
		}
		return fn(f)
	})
	if err != nil {
		return stats, fmt.Errorf("walk: %w", err)
	}
	return stats, nil
}

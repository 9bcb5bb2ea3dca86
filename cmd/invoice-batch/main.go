package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/joseph-ayodele/invoice-autofill/internal/app"
	"github.com/joseph-ayodele/invoice-autofill/internal/async"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/export"
	"github.com/joseph-ayodele/invoice-autofill/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir     = flag.String("dir", "", "directory to process invoices from (required)")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		workers = flag.Int("workers", 4, "concurrent extractions")
		watch   = flag.Bool("watch", false, "keep running and process PDFs as they appear; no report is written")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		parentDir := filepath.Dir(filepath.Clean(*dir))
		*out = filepath.Join(parentDir, "invoices.xlsx")
	}

	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{JobLog: true, InMemory: *inmem, Cache: true})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var (
		mu   sync.Mutex
		rows []export.Row
	)
	q := async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(*workers),
		async.WithProcessTimeout(5*time.Minute),
		async.WithOutcome(func(o async.Outcome) {
			mu.Lock()
			defer mu.Unlock()
			rows = append(rows, export.Row{Path: o.Job.Path, JobID: o.JobID, Result: o.Result, Err: o.Err})
		}),
	)

	submit := func(f ingest.File) error {
		seen, err := a.Processor.Seen(ctx, f.HashHex)
		if err != nil {
			logger.Warn("job log lookup failed", "path", f.Path, "error", err)
		}
		if seen {
			logger.Info("skipping already processed file", "path", f.Path, "hash", f.HashHex)
			mu.Lock()
			rows = append(rows, export.Row{Path: f.Path, Skipped: true})
			mu.Unlock()
			return nil
		}
		return q.Enqueue(ctx, async.Job{Path: f.Path, Doc: f.Doc})
	}

	if *watch {
		runWatch(ctx, *dir, submit, logger)
		q.Shutdown(context.Background())
		return
	}

	logger.Info("starting ingestion", "dir", *dir)
	stats, err := ingest.WalkDirectory(ctx, *dir, true, submit)
	q.Shutdown(context.Background())
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		a.Close()
		os.Exit(1)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })
	var ok, failed, skipped int
	for _, r := range rows {
		switch {
		case r.Skipped:
			skipped++
		case r.Err == nil && r.Result.OK:
			ok++
		default:
			failed++
		}
	}

	logger.Info("exporting to XLSX", "output", *out)
	fh, err := os.Create(*out)
	if err != nil {
		logger.Error("failed to create output file", "error", err)
		a.Close()
		os.Exit(1)
	}
	if err := export.WriteXLSX(fh, rows, logger); err != nil {
		_ = fh.Close()
		logger.Error("failed to export invoices", "error", err)
		a.Close()
		os.Exit(1)
	}
	if err := fh.Close(); err != nil {
		logger.Error("failed to write output file", "error", err)
		a.Close()
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"read_failures", stats.Failed,
		"succeeded", ok,
		"failed", failed,
		"skipped", skipped,
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files matched: %d\n", stats.Matched)
	fmt.Printf("- Extracted: %d\n", ok)
	fmt.Printf("- Failures: %d\n", failed+int(stats.Failed))
	fmt.Printf("- Skipped (already processed): %d\n", skipped)
	fmt.Printf("- Output: %s\n", *out)
}

func runWatch(ctx context.Context, dir string, submit func(ingest.File) error, logger *slog.Logger) {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    2 * time.Second,
	})
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		return
	}
	logger.Info("watching for invoices", "dir", dir)
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return
			}
			f, err := ingest.ReadFile(path, 0)
			if err != nil {
				logger.Warn("cannot read file", "path", path, "error", err)
				continue
			}
			if err := submit(f); err != nil {
				logger.Error("enqueue failed", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

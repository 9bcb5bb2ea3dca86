package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joseph-ayodele/invoice-autofill/internal/app"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
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
		file  = flag.String("file", "", "PDF invoice to extract (required)")
		debug = flag.Bool("debug", false, "attach diagnostics to the result")
	)
	flag.Parse()

	if *file == "" {
		printError("Error: --file is required\n")
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	if *debug {
		cfg.Pipeline.Debug = true
	}
	// stdout carries the result
	logger := common.NewLoggerTo(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		printError("Error: %s\n", common.UserMessage(err))
		os.Exit(1)
	}
	defer a.Close()

	f, err := ingest.ReadFile(*file, cfg.Server.MaxUploadSize)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	res := a.Processor.Extract(ctx, f.Doc)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if !res.OK {
		a.Close()
		os.Exit(2)
	}
}

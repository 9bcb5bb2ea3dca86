package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joseph-ayodele/invoice-autofill/internal/app"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/repository"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLoggerTo(os.Stderr, cfg.LogLevel)
	if cfg.Database.DSN == "" {
		logger.Info("DB_URL not set, using local sqlite", "dsn", repository.DefaultSQLiteDSN)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := app.OpenJobLog(ctx, cfg.Database, false, logger)
	if err != nil {
		fmt.Printf("DB open: FAIL (%v)\n", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	if err := db.HealthCheck(ctx, time.Second); err != nil {
		fmt.Printf("DB health: FAIL (%v)\n", err)
		db.Close(logger)
		os.Exit(1)
	}
	fmt.Printf("DB health: OK (%s)\n", db.Dialect())

	jobs, err := repository.NewExtractionJobRepository(db, logger).List(ctx, 10)
	if err != nil {
		fmt.Printf("job log query: FAIL (%v)\n", err)
		db.Close(logger)
		os.Exit(1)
	}
	fmt.Printf("recent jobs: %d\n", len(jobs))
	for _, j := range jobs {
		fmt.Printf("- %s %-9s %s\n", j.StartedAt.Format(time.RFC3339), j.Status, j.Filename)
	}
}

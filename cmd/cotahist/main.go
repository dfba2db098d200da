package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ahmethakanbesel/cotahist/internal/apperror"
	"github.com/ahmethakanbesel/cotahist/internal/archive"
	"github.com/ahmethakanbesel/cotahist/internal/config"
	"github.com/ahmethakanbesel/cotahist/internal/cotahist"
	"github.com/ahmethakanbesel/cotahist/internal/history"
	"github.com/ahmethakanbesel/cotahist/internal/platform/sqlite"
	"github.com/ahmethakanbesel/cotahist/internal/quote"
	downloadrepo "github.com/ahmethakanbesel/cotahist/internal/repository/download"
)

const usage = "usage: cotahist <initial YYYY-MM-DD> <final YYYY-MM-DD> <ticker>..."

func main() {
	// Cancelled on SIGINT/SIGTERM so an in-flight download stops promptly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, time.Now())
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, today time.Time) int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return apperror.Wrap(apperror.Config, err).ExitCode()
	}
	logger := cfg.Logger(stderr)
	slog.SetDefault(logger)

	if err := execute(ctx, cfg, args, stdout, logger, today); err != nil {
		logger.Error("cotahist failed", "error", err)
		return apperror.ExitCode(err)
	}
	return 0
}

func execute(ctx context.Context, cfg config.Config, args []string, stdout io.Writer, logger *slog.Logger, today time.Time) error {
	if len(args) < 3 {
		return apperror.New(apperror.Usage, usage)
	}

	// Dates are checked before anything touches the disk or the network.
	initial, err := quote.ParseDate(args[0])
	if err != nil {
		return apperror.Wrap(apperror.Usage, err)
	}
	final, err := quote.ParseDate(args[1])
	if err != nil {
		return apperror.Wrap(apperror.Usage, err)
	}
	r, err := quote.Validate(initial, final, today)
	if err != nil {
		return apperror.Wrap(apperror.InvalidRange, err)
	}

	spec, err := cotahist.LoadColumnSpec(cfg.ConfigPath)
	if err != nil {
		return apperror.Wrap(apperror.Config, err)
	}

	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	logger.Info("starting", "from", r.Initial.Format(quote.DateLayout), "to", r.Final.Format(quote.DateLayout),
		"tickers", args[2:], "data_dir", cfg.DataDir)

	opts := []archive.Option{
		archive.WithBaseURL(cfg.BaseURL),
		archive.WithClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		archive.WithAttempts(cfg.MaxAttempts, cfg.RetryBackoff),
		archive.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)),
		archive.WithLogger(logger),
	}

	if cfg.DBPath != "" {
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return apperror.Wrap(apperror.Config, fmt.Errorf("open download ledger: %w", err))
		}
		defer func() { _ = db.Close() }()
		opts = append(opts, archive.WithRecorder(downloadrepo.NewRepository(db.DB, runID)))
	}

	fetcher := archive.New(cfg.DataDir, opts...)
	svc := history.NewService(fetcher, spec, logger)
	return svc.Run(ctx, stdout, args[2:], r)
}

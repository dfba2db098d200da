// Package history turns a ticker list and a date range into a combined
// closing price table, fetching and parsing one archive year at a time.
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/ahmethakanbesel/cotahist/internal/apperror"
	"github.com/ahmethakanbesel/cotahist/internal/archive"
	"github.com/ahmethakanbesel/cotahist/internal/cotahist"
	"github.com/ahmethakanbesel/cotahist/internal/quote"
	"github.com/ahmethakanbesel/cotahist/internal/report"
	"github.com/ahmethakanbesel/cotahist/internal/table"
)

// Fetcher makes a year's archive available on disk.
type Fetcher interface {
	EnsureLocal(ctx context.Context, year int) (string, error)
}

type Service struct {
	fetcher Fetcher
	spec    cotahist.ColumnSpec
	logger  *slog.Logger
}

func NewService(fetcher Fetcher, spec cotahist.ColumnSpec, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{fetcher: fetcher, spec: spec, logger: logger}
}

// Build fetches every year touched by r, then parses and pivots each year in
// order. Any failure aborts the whole build.
func (s *Service) Build(ctx context.Context, tickers []string, r quote.DateRange) (*table.Combined, error) {
	tickers = normalize(tickers)
	if len(tickers) == 0 {
		return nil, apperror.New(apperror.Usage, "no tickers requested")
	}

	chunks := r.YearChunks()
	paths := make([]string, len(chunks))
	for i, c := range chunks {
		path, err := s.fetcher.EnsureLocal(ctx, c.Initial.Year())
		if err != nil {
			return nil, classify(err)
		}
		paths[i] = path
	}

	combined := &table.Combined{}
	for i, c := range chunks {
		yearly, err := table.Build(cotahist.ParseFile(paths[i], s.spec), tickers, c)
		if err != nil {
			return nil, classify(fmt.Errorf("build %d: %w", c.Initial.Year(), err))
		}
		s.logger.Info("built yearly table", "year", yearly.Year,
			"columns", len(yearly.Columns), "rows", len(yearly.Rows))
		if missing := len(tickers) - len(yearly.Columns); missing > 0 {
			s.logger.Warn("tickers absent from archive", "year", yearly.Year, "missing", missing)
		}
		combined.Append(yearly)
	}
	return combined, nil
}

// Run builds the table for tickers over r and writes it to w.
func (s *Service) Run(ctx context.Context, w io.Writer, tickers []string, r quote.DateRange) error {
	combined, err := s.Build(ctx, tickers, r)
	if err != nil {
		return err
	}
	if err := report.Emit(w, combined); err != nil {
		return fmt.Errorf("emit report: %w", err)
	}
	s.logger.Info("report written", "columns", len(combined.Columns()), "rows", combined.Len())
	return nil
}

// normalize trims, deduplicates and sorts the requested tickers.
func normalize(tickers []string) []string {
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func classify(err error) error {
	var fetchErr *archive.FetchError
	var parseErr *cotahist.ParseError
	switch {
	case errors.As(err, &fetchErr):
		return apperror.Wrap(apperror.Fetch, err)
	case errors.As(err, &parseErr):
		return apperror.Wrap(apperror.Parse, err)
	default:
		return apperror.Wrap(apperror.Internal, err)
	}
}

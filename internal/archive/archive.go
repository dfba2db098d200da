// Package archive keeps a local copy of the B3 COTAHIST yearly files. Each
// year is downloaded as a ZIP archive once and unpacked next to the others;
// the unpacked file doubles as the cache marker for later runs.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL     = "https://bvmf.bmfbovespa.com.br/InstDados/SerHist"
	DefaultMaxAttempts = 10
	DefaultBackoff     = time.Second
	defaultChunkSize   = 8192
	userAgent          = "Mozilla/5.0"
)

// ErrorKind classifies a FetchError.
type ErrorKind string

const (
	Network        ErrorKind = "network"
	CorruptArchive ErrorKind = "corrupt_archive"
	Storage        ErrorKind = "storage"
)

// FetchError reports why a year could not be made available locally.
type FetchError struct {
	Kind ErrorKind
	Year int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %d: %s: %v", e.Year, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Download describes a completed archive download.
type Download struct {
	Year     int
	URL      string
	Path     string
	Bytes    int64
	Partial  bool
	Attempts int
}

// Recorder is notified of every archive actually downloaded.
type Recorder interface {
	Record(ctx context.Context, d Download) error
}

// Fetcher downloads and unpacks yearly archives into a data directory.
type Fetcher struct {
	dir         string
	baseURL     string
	client      *http.Client
	maxAttempts int
	backoff     time.Duration
	chunkSize   int
	limiter     *rate.Limiter
	recorder    Recorder
	logger      *slog.Logger
}

// New creates a Fetcher storing files under dir.
func New(dir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		dir:         dir,
		baseURL:     DefaultBaseURL,
		client:      &http.Client{},
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
		chunkSize:   defaultChunkSize,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 1),
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithBaseURL overrides the URL the yearly archive names are appended to.
func WithBaseURL(u string) Option {
	return func(f *Fetcher) { f.baseURL = u }
}

// WithAttempts bounds the number of download attempts per year. The wait
// before the second attempt is backoff and doubles after every failure.
func WithAttempts(n int, backoff time.Duration) Option {
	return func(f *Fetcher) {
		f.maxAttempts = max(n, 1)
		f.backoff = backoff
	}
}

// WithChunkSize sets the size of the buffer used to stream archives to disk.
func WithChunkSize(n int) Option {
	return func(f *Fetcher) { f.chunkSize = n }
}

// WithRateLimit paces HTTP requests, retries included.
func WithRateLimit(l *rate.Limiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithRecorder registers a Recorder for completed downloads.
func WithRecorder(r Recorder) Option {
	return func(f *Fetcher) { f.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// FileName is the name of the unpacked yearly file.
func FileName(year int) string { return fmt.Sprintf("COTAHIST_A%d.TXT", year) }

// ArchiveName is the name of the published yearly archive.
func ArchiveName(year int) string { return fmt.Sprintf("COTAHIST_A%d.ZIP", year) }

// LocalPath returns where the unpacked file for year lives.
func (f *Fetcher) LocalPath(year int) string { return filepath.Join(f.dir, FileName(year)) }

// ArchiveURL returns the remote archive location for year.
func (f *Fetcher) ArchiveURL(year int) string { return f.baseURL + "/" + ArchiveName(year) }

// EnsureLocal makes sure the unpacked file for year exists and returns its
// path. A file already on disk is returned without any network access.
func (f *Fetcher) EnsureLocal(ctx context.Context, year int) (string, error) {
	path := f.LocalPath(year)

	info, err := os.Stat(path)
	switch {
	case err == nil && info.Mode().IsRegular():
		f.logger.Debug("archive already present", "year", year, "path", path)
		return path, nil
	case err == nil:
		return "", &FetchError{Kind: Storage, Year: year, Err: fmt.Errorf("%s is not a regular file", path)}
	case !errors.Is(err, fs.ErrNotExist):
		return "", &FetchError{Kind: Storage, Year: year, Err: err}
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", &FetchError{Kind: Storage, Year: year, Err: fmt.Errorf("create data dir: %w", err)}
	}

	zipPath := filepath.Join(f.dir, ArchiveName(year))
	defer func() {
		if err := os.Remove(zipPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("failed to remove archive", "path", zipPath, "error", err)
		}
	}()

	start := time.Now()
	dl, err := f.download(ctx, year, zipPath)
	if err != nil {
		var se *storageError
		if errors.As(err, &se) {
			return "", &FetchError{Kind: Storage, Year: year, Err: err}
		}
		return "", &FetchError{Kind: Network, Year: year, Err: err}
	}

	if err := extract(zipPath, year, path); err != nil {
		return "", &FetchError{Kind: CorruptArchive, Year: year, Err: err}
	}
	dl.Path = path

	f.logger.Info("downloaded archive", "year", year,
		"size", humanize.Bytes(uint64(dl.Bytes)),
		"partial", dl.Partial,
		"attempts", dl.Attempts,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if f.recorder != nil {
		if err := f.recorder.Record(ctx, dl); err != nil {
			f.logger.Warn("failed to record download", "year", year, "error", err)
		}
	}
	return path, nil
}

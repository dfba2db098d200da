package archive

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"
)

// statusError is a non-200 archive response.
type statusError struct {
	StatusCode int
	URL        string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s returned HTTP %d", e.URL, e.StatusCode)
}

// storageError wraps local filesystem failures, which are never retried.
type storageError struct{ err error }

func (e *storageError) Error() string { return e.err.Error() }
func (e *storageError) Unwrap() error { return e.err }

// retryable reports whether err is a transient failure: a 5xx or 429
// response, or a transport error such as a refused connection, a reset, a
// timeout or an early EOF. Certificate problems, malformed URLs and local
// storage failures fail fast.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	var ste *storageError
	if errors.As(err, &ste) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var certErr *tls.CertificateVerificationError
	var authErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &certErr) || errors.As(err, &authErr) ||
		errors.As(err, &hostErr) || errors.As(err, &invalidErr) {
		return false
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	// *url.Error satisfies net.Error itself, so look at what it wraps.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// download fetches the archive for year into dst, retrying transient
// failures with exponential backoff.
func (f *Fetcher) download(ctx context.Context, year int, dst string) (Download, error) {
	link := f.ArchiveURL(year)
	backoff := f.backoff

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 && backoff > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			wait := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			f.logger.Debug("retrying download", "year", year, "attempt", attempt, "backoff", wait)

			select {
			case <-ctx.Done():
				return Download{}, ctx.Err()
			case <-time.After(wait):
			}
			backoff *= 2
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return Download{}, err
		}

		n, partial, err := f.get(ctx, link, dst)
		if err == nil {
			return Download{Year: year, URL: link, Bytes: n, Partial: partial, Attempts: attempt}, nil
		}

		lastErr = err
		if !retryable(err) {
			return Download{}, err
		}
		f.logger.Warn("download attempt failed", "year", year, "attempt", attempt, "error", err)
	}

	return Download{}, fmt.Errorf("max attempts exceeded: %w", lastErr)
}

// get streams a single GET response body into dst in fixed-size chunks.
func (f *Fetcher) get(ctx context.Context, link, dst string) (int64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return 0, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := f.client.Do(req) //nolint:gosec // URL built from internal config
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return 0, false, &statusError{StatusCode: res.StatusCode, URL: link}
	}

	out, err := os.Create(dst)
	if err != nil {
		return 0, false, &storageError{fmt.Errorf("create %s: %w", dst, err)}
	}
	defer func() { _ = out.Close() }()

	body := &partialBody{r: res.Body}
	// Wrapping out hides ReadFrom so the chunk buffer is actually used.
	n, err := io.CopyBuffer(struct{ io.Writer }{out}, body, make([]byte, f.chunkSize))
	if err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			return n, false, &storageError{fmt.Errorf("write %s: %w", dst, err)}
		}
		return n, false, fmt.Errorf("read body: %w", err)
	}
	if err := out.Close(); err != nil {
		return n, false, &storageError{fmt.Errorf("close %s: %w", dst, err)}
	}

	if body.truncated {
		f.logger.Warn("server closed the connection early, keeping partial body",
			"url", link, "received", n, "expected", res.ContentLength)
	}
	return n, body.truncated, nil
}

// partialBody ends the stream cleanly when the server closes the connection
// before the declared length was sent. B3 is known to do this after all
// usable data was transferred.
type partialBody struct {
	r         io.Reader
	truncated bool
}

func (p *partialBody) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		p.truncated = true
		return n, io.EOF
	}
	return n, err
}

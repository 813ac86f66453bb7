// Package fetch retrieves Release, Packages, and .deb artifacts from
// upstream repositories over HTTP(S), with bounded retries and bounded
// concurrency. It is grounded on http/grab.go's
// cavaliergopher/grab-based downloader and http/download.go's
// retry/backoff shape, generalized to the retry policy this system
// requires.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aptprep/aptprep/aptlyerrors"
	"github.com/aptprep/aptprep/utils"
	"github.com/cavaliergopher/grab/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Retry policy, per the fetcher's contract: minimum 3 attempts, 250ms
// initial delay, doubling, capped at 5s.
const (
	MinAttempts     = 3
	initialDelay    = 250 * time.Millisecond
	maxDelay        = 5 * time.Second
	delayMultiplier = 2
)

// Options configures a Fetcher's concurrency and timeout behavior.
type Options struct {
	// PerHostConcurrency bounds simultaneous requests to a single host.
	PerHostConcurrency int
	// GlobalConcurrency bounds simultaneous requests across all hosts.
	GlobalConcurrency int
	// RequestTimeout bounds a single HTTP request/response cycle.
	RequestTimeout time.Duration
	// SpeedLimit, when non-zero, makes New build a bytes/sec rate.Limiter
	// held on the Fetcher. Fetch and DownloadWithChecksum do not consult
	// it, so transfers are not throttled.
	SpeedLimit int64
	// MaxAttempts overrides MinAttempts when larger.
	MaxAttempts int
}

// DefaultOptions returns the fetcher's documented defaults.
func DefaultOptions() Options {
	return Options{
		PerHostConcurrency: 4,
		GlobalConcurrency:  16,
		RequestTimeout:     60 * time.Second,
		MaxAttempts:        MinAttempts,
	}
}

// Fetcher retrieves bytes over HTTP(S), retrying transient failures and
// bounding concurrency per-host and globally. HTTPS_PROXY/HTTP_PROXY/NO_PROXY
// are honored because requests flow through http.DefaultTransport's
// proxy-from-environment behavior; no bespoke proxy resolver is used.
type Fetcher struct {
	opts    Options
	client  *grab.Client
	global  *semaphore.Weighted
	mu      sync.Mutex // guards perHost
	perHost map[string]*semaphore.Weighted
	limiter *rate.Limiter
	metrics *Metrics
}

// New constructs a Fetcher with the given options and metrics sink. metrics
// may be nil to disable instrumentation.
func New(opts Options, metrics *Metrics) *Fetcher {
	if opts.PerHostConcurrency <= 0 {
		opts.PerHostConcurrency = 4
	}
	if opts.GlobalConcurrency <= 0 {
		opts.GlobalConcurrency = 16
	}
	if opts.MaxAttempts < MinAttempts {
		opts.MaxAttempts = MinAttempts
	}

	var limiter *rate.Limiter
	if opts.SpeedLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.SpeedLimit), int(opts.SpeedLimit))
	}

	client := grab.NewClient()
	if opts.RequestTimeout > 0 {
		client.HTTPClient = &http.Client{
			Transport: http.DefaultTransport,
			Timeout:   opts.RequestTimeout,
		}
	}

	return &Fetcher{
		opts:    opts,
		client:  client,
		global:  semaphore.NewWeighted(int64(opts.GlobalConcurrency)),
		perHost: make(map[string]*semaphore.Weighted),
		limiter: limiter,
		metrics: metrics,
	}
}

func (f *Fetcher) hostSemaphore(rawURL string) *semaphore.Weighted {
	host := "_"
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if sem, ok := f.perHost[host]; ok {
		return sem
	}
	sem := semaphore.NewWeighted(int64(f.opts.PerHostConcurrency))
	f.perHost[host] = sem
	return sem
}

// NormalizeBaseURL strips query, fragment, and path-suffix components
// beyond the repository root, correcting a class of user-configuration
// errors (e.g. a source_url copy-pasted with a trailing "/dists/bionic/").
func NormalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	u.RawQuery = ""
	u.Fragment = ""

	if idx := strings.Index(u.Path, "/dists/"); idx >= 0 {
		u.Path = u.Path[:idx]
	}

	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	return u.String(), nil
}

func retryableStatus(code int) bool {
	return code == 0 || code >= 500
}

// Fetch retrieves rawURL fully into memory, retrying per the documented
// backoff policy.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error

	delay := initialDelay
	for attempt := 1; attempt <= f.opts.MaxAttempts; attempt++ {
		if err := f.acquire(ctx, rawURL); err != nil {
			return nil, err
		}

		data, statusCode, err := f.fetchOnce(ctx, rawURL)
		f.release(rawURL)

		if f.metrics != nil {
			f.metrics.ObserveAttempt(rawURL, err != nil)
		}

		if err == nil {
			return data, nil
		}

		lastErr = err
		log.Debug().Str("url", rawURL).Int("attempt", attempt).Err(err).Msg("fetch attempt failed")

		if statusCode != 0 && !retryableStatus(statusCode) {
			return nil, aptlyerrors.NewFetchError(rawURL, statusCode, err)
		}
		if attempt == f.opts.MaxAttempts {
			break
		}

		if f.metrics != nil {
			f.metrics.ObserveRetry(rawURL)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= delayMultiplier
		if delay > maxDelay {
			delay = maxDelay
		}
	}

	return nil, aptlyerrors.NewFetchError(rawURL, 0, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := f.client.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, rawURL)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, resp.StatusCode, err
	}

	if f.metrics != nil {
		f.metrics.ObserveBytes(rawURL, int64(buf.Len()))
	}

	return buf.Bytes(), resp.StatusCode, nil
}

// DownloadWithChecksum downloads rawURL to destination, verifying against
// expected via grab's checksum support (the file is hashed once the
// transfer completes), retrying per the documented backoff policy. 4xx
// responses are terminal.
func (f *Fetcher) DownloadWithChecksum(ctx context.Context, rawURL, destination string, expected *utils.ChecksumInfo) error {
	var lastErr error

	delay := initialDelay
	for attempt := 1; attempt <= f.opts.MaxAttempts; attempt++ {
		if err := f.acquire(ctx, rawURL); err != nil {
			return err
		}

		statusCode, err := f.downloadOnce(ctx, rawURL, destination, expected)
		f.release(rawURL)

		if f.metrics != nil {
			f.metrics.ObserveAttempt(rawURL, err != nil)
		}

		if err == nil {
			return nil
		}

		lastErr = err
		log.Debug().Str("url", rawURL).Int("attempt", attempt).Err(err).Msg("download attempt failed")

		if statusCode != 0 && !retryableStatus(statusCode) {
			return aptlyerrors.NewFetchError(rawURL, statusCode, err)
		}
		if attempt == f.opts.MaxAttempts {
			break
		}

		if f.metrics != nil {
			f.metrics.ObserveRetry(rawURL)
		}

		os.Remove(destination)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= delayMultiplier
		if delay > maxDelay {
			delay = maxDelay
		}
	}

	return aptlyerrors.NewFetchError(rawURL, 0, lastErr)
}

func (f *Fetcher) downloadOnce(ctx context.Context, rawURL, destination string, expected *utils.ChecksumInfo) (int, error) {
	req, err := grab.NewRequest(destination, rawURL)
	if err != nil {
		return 0, errors.Wrap(err, rawURL)
	}
	req = req.WithContext(ctx)

	if err := maybeSetupChecksum(req, expected); err != nil {
		return 0, errors.Wrap(err, rawURL)
	}

	resp := f.client.Do(req)
	statusCode := 0
	if resp.HTTPResponse != nil {
		statusCode = resp.HTTPResponse.StatusCode
	}

	if err := resp.Err(); err != nil {
		return statusCode, err
	}

	if f.metrics != nil {
		f.metrics.ObserveBytes(rawURL, resp.Size())
	}

	return statusCode, nil
}

func (f *Fetcher) acquire(ctx context.Context, rawURL string) error {
	if err := f.global.Acquire(ctx, 1); err != nil {
		return err
	}
	if err := f.hostSemaphore(rawURL).Acquire(ctx, 1); err != nil {
		f.global.Release(1)
		return err
	}
	return nil
}

func (f *Fetcher) release(rawURL string) {
	f.hostSemaphore(rawURL).Release(1)
	f.global.Release(1)
}

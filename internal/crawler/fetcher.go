package crawler

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"
)

var errTooManyRedirects = errors.New("too many redirects")

// Fetcher performs single HTTP GET requests with timing metrics. One
// instance is shared by all jobs; the underlying client pools
// connections per host.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a fetcher with the given identity and per-request
// timeout.
func NewFetcher(userAgent string, timeout time.Duration) *Fetcher {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errTooManyRedirects
			}
			return nil
		},
	}

	return &Fetcher{
		client:    client,
		userAgent: userAgent,
	}
}

// Fetch performs one GET. On success failure is nil; on any failure,
// including non-2xx statuses, result is nil and failure carries the
// kind plus whatever metrics were gathered before the request died.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*FetchResult, *FetchFailure) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchFailure{Kind: FailConnection, Message: err.Error()}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	var metrics FetchMetrics
	start := time.Now()

	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			metrics.TTFB = time.Since(start)
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	resp, err := f.client.Do(req)
	if err != nil {
		metrics.Duration = time.Since(start)
		return nil, classifyFetchError(err, metrics)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	metrics.Duration = time.Since(start)
	metrics.Size = int64(len(body))
	metrics.Status = resp.StatusCode
	if err != nil {
		failure := classifyFetchError(err, metrics)
		failure.Status = resp.StatusCode
		return nil, failure
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchFailure{
			Kind:    FailHTTPError,
			Status:  resp.StatusCode,
			Message: resp.Status,
			Metrics: metrics,
		}
	}

	return &FetchResult{
		URL:         url,
		FinalURL:    resp.Request.URL.String(),
		Status:      resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Metrics:     metrics,
	}, nil
}

// Close releases pooled connections.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}

func classifyFetchError(err error, metrics FetchMetrics) *FetchFailure {
	failure := &FetchFailure{
		Kind:    FailConnection,
		Message: err.Error(),
		Metrics: metrics,
	}

	if errors.Is(err, errTooManyRedirects) {
		failure.Kind = FailTooManyRedirects
		return failure
	}
	if errors.Is(err, context.DeadlineExceeded) {
		failure.Kind = FailTimeout
		return failure
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		failure.Kind = FailTimeout
	}
	return failure
}

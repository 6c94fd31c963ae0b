package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Sumatoshi-tech/colprofile/pkg/units"
)

// Defaults for the HTTP fetcher.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxBytes = 64 * units.MB
)

// ErrResponseTooLarge is wrapped in a NetworkError when the body exceeds the size cap.
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// errUnexpectedStatus is wrapped in a NetworkError for non-2xx responses.
var errUnexpectedStatus = errors.New("unexpected HTTP status")

// NetworkError describes a failed retrieval: unreachable host, non-success
// status, timeout or an oversized body.
type NetworkError struct {
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	case e.Timeout:
		return fmt.Sprintf("fetch %s: timed out: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPFetcher downloads a resource with a single GET request. No retries.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithTimeout bounds the whole request, body included.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		if timeout > 0 {
			f.client.Timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.userAgent = userAgent
	}
}

// WithMaxBytes caps the accepted body size. Zero or negative disables the cap.
func WithMaxBytes(limit int64) HTTPOption {
	return func(f *HTTPFetcher) {
		f.maxBytes = limit
	}
}

// WithHTTPClient replaces the underlying client. The client timeout is kept
// unless a WithTimeout option follows.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTransport sets the round tripper of the underlying client.
func WithTransport(rt http.RoundTripper) HTTPOption {
	return func(f *HTTPFetcher) {
		if rt != nil {
			f.client.Transport = rt
		}
	}
}

// NewHTTPFetcher creates an HTTP fetcher with a 30s timeout and a 64MB cap.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	fetcher := &HTTPFetcher{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: "colprofile",
		maxBytes:  DefaultMaxBytes,
	}

	for _, opt := range opts {
		opt(fetcher)
	}

	return fetcher
}

// Fetch performs one GET and returns the body.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) (*Resource, error) {
	if location == "" {
		return nil, ErrEmptyLocation
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
	if err != nil {
		return nil, &NetworkError{URL: location, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: location, Timeout: isTimeout(err), Err: err}
	}
	//nolint:errcheck // Defer close on HTTP response body.
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &NetworkError{
			URL:        location,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", errUnexpectedStatus, resp.Status),
		}
	}

	data, err := f.readBody(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: location, Timeout: isTimeout(err), Err: err}
	}

	return &Resource{
		Location:    location,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
		FetchedAt:   time.Now(),
	}, nil
}

func (f *HTTPFetcher) readBody(body io.Reader) ([]byte, error) {
	if f.maxBytes <= 0 {
		return io.ReadAll(body)
	}

	// One extra byte tells an exact-limit body apart from an oversized one.
	data, err := io.ReadAll(io.LimitReader(body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, f.maxBytes)
	}

	return data, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// transport performs GET requests with exponential backoff retry and a
// response size limit.
type transport struct {
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
	maxBytes    int64
	userAgent   string
}

func defaultTransport() transport {
	return transport{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxRetries:  3,
		baseBackoff: 500 * time.Millisecond,
		maxBytes:    DefaultMaxBytes,
		userAgent:   "stickerconv/1.0",
	}
}

// response is a fully read HTTP response body.
type response struct {
	Body        []byte
	ContentType string
}

// Option configures the HTTP behaviour of a fetcher.
type Option func(*transport)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *transport) {
		t.httpClient = c
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(t *transport) {
		t.httpClient = &http.Client{Timeout: d}
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
func WithMaxRetries(n int) Option {
	return func(t *transport) {
		t.maxRetries = n
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) Option {
	return func(t *transport) {
		t.baseBackoff = d
	}
}

// WithMaxBytes sets the largest accepted response body.
func WithMaxBytes(n int64) Option {
	return func(t *transport) {
		t.maxBytes = n
	}
}

// getWithRetry performs a GET request with exponential backoff retry.
func (t *transport) getWithRetry(ctx context.Context, url string) (*response, error) {
	var lastErr error
	backoff := t.baseBackoff

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch: context cancelled: %w", ctx.Err())
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}

		resp, err := t.get(ctx, url)
		if err == nil {
			return resp, nil
		}

		// Check if error is retryable
		if !isRetryable(err) {
			return nil, err
		}

		lastErr = err
	}

	return nil, fmt.Errorf("fetch: max retries exceeded: %w", lastErr)
}

// get performs a single GET request.
func (t *transport) get(ctx context.Context, url string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: create request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch: request cancelled: %w", ctx.Err())
		}
		return nil, &retryableError{err: fmt.Errorf("fetch: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		switch {
		case resp.StatusCode >= 500:
			return nil, &retryableError{err: fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, string(snippet))}
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, &retryableError{err: fmt.Errorf("%w: %s", ErrRateLimited, string(snippet))}
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
		default:
			return nil, fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(snippet))
		}
	}

	if t.maxBytes > 0 && resp.ContentLength > t.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, resp.ContentLength, t.maxBytes)
	}

	body, err := readLimited(resp.Body, t.maxBytes)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, &retryableError{err: fmt.Errorf("fetch: read response: %w", err)}
	}

	return &response{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}

// readLimited reads r fully, failing with ErrTooLarge past maxBytes.
// A non-positive maxBytes disables the limit.
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	return body, nil
}

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryable returns true if the error should be retried.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

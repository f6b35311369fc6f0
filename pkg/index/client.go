package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/wheelres/pkg/httputil"
)

const httpTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when the index has no such project or file.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// UserAgent is sent with every request.
const UserAgent = "wheelres/1"

// Client provides shared HTTP functionality for index and artifact fetches.
// It applies default headers and retries transient failures.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	http    *http.Client
	headers map[string]string
	backoff httputil.Backoff
}

// NewClient creates a Client with the given default headers.
// Pass nil for headers if no default headers are needed.
func NewClient(headers map[string]string) *Client {
	h := map[string]string{"User-Agent": UserAgent}
	for k, v := range headers {
		h[k] = v
	}
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		headers: h,
		backoff: httputil.DefaultBackoff,
	}
}

// WithHTTPClient returns a copy of c using hc for requests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	cp := *c
	cp.http = hc
	return &cp
}

// WithBackoff returns a copy of c using b for retries.
func (c *Client) WithBackoff(b httputil.Backoff) *Client {
	cp := *c
	cp.backoff = b
	return &cp
}

// Fetch performs a GET request and returns the response body. Request
// headers override client defaults for the same key.
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var data []byte
	err := httputil.Retry(ctx, c.backoff, func() error {
		body, err := c.doRequest(ctx, url, headers)
		if err != nil {
			return err
		}
		defer body.Close()
		data, err = io.ReadAll(body)
		if err != nil {
			return httputil.Retryable(fmt.Errorf("%w: read %s: %v", ErrNetwork, url, err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}

	if err := checkStatus(resp.StatusCode, url); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int, url string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	case code == http.StatusTooManyRequests || code >= 500:
		return httputil.Retryable(fmt.Errorf("%w: status %d from %s", ErrNetwork, code, url))
	default:
		return fmt.Errorf("%w: status %d from %s", ErrNetwork, code, url)
	}
}

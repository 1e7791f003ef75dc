package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// Client sends JSON requests to one provider.
type Client struct {
	// Provider names the provider in error messages.
	Provider string

	HTTP    *http.Client
	Limiter *RateLimiter

	// Header is added to every request (auth, API version).
	Header http.Header
}

// Request describes one call.
type Request struct {
	Method string
	URL    string

	// Body is JSON-encoded unless it is an io.Reader, which is sent as is.
	Body any

	// ContentType overrides the default "application/json".
	ContentType string
}

// Do sends the request and returns the raw response body.
//
// Network failures, 429 and 5xx responses are wrapped with
// domain.ErrTransientProvider; other non-2xx responses are returned as plain
// errors carrying the body.
func (c *Client) Do(ctx context.Context, r Request) ([]byte, error) {
	var body io.Reader = http.NoBody
	contentType := r.ContentType
	switch b := r.Body.(type) {
	case nil:
	case io.Reader:
		body = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: send request: %w", domain.ErrTransientProvider, c.Provider, err)
	}
	defer resp.Body.Close()

	if c.Limiter != nil {
		c.Limiter.Observe(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read response: %w", domain.ErrTransientProvider, c.Provider, err)
	}

	if err := CheckStatus(c.Provider, resp.StatusCode, data); err != nil {
		return nil, err
	}
	return data, nil
}

// DoJSON sends the request and decodes a JSON response into out.
func (c *Client) DoJSON(ctx context.Context, r Request, out any) error {
	data, err := c.Do(ctx, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %w", domain.ErrMalformedResponse, c.Provider, err)
	}
	return nil
}

// CheckStatus classifies an HTTP status code.
func CheckStatus(provider string, status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case IsRetryableStatus(status):
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrTransientProvider, provider, status, truncate(body))
	default:
		return fmt.Errorf("%s: API returned status %d: %s", provider, status, truncate(body))
	}
}

// IsRetryableStatus reports whether a status is worth retrying.
func IsRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500
}

// IsTransient reports whether err is a retryable provider failure.
func IsTransient(err error) bool {
	return errors.Is(err, domain.ErrTransientProvider)
}

func truncate(body []byte) string {
	const maxLen = 512
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}

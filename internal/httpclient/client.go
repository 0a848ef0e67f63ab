// Package httpclient performs the launcher's blocking HTTP GETs.
//
// No timeouts or retries are applied: a failed request fails the invocation
// and the user re-runs it.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	// DefaultUserAgent is the User-Agent header sent when none is configured
	DefaultUserAgent = "Baton/development"
	// maxErrorBody bounds how much of an error response is echoed back
	maxErrorBody = 4 << 10
	// maxRedirects matches the browser-style limit used by release hosts
	maxRedirects = 10
)

// ErrStatus is wrapped by errors for non-200 responses.
var ErrStatus = errors.New("unexpected HTTP status")

// Client issues GET requests with a fixed User-Agent and optional bearer token.
type Client struct {
	client    *http.Client
	userAgent string
}

// New creates a client. An empty userAgent selects DefaultUserAgent.
func New(userAgent string) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

// UserAgent returns the User-Agent header value.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Header is an extra request header.
type Header struct {
	Key, Value string
}

// Bearer returns an Authorization header for token, or nil if token is empty.
func Bearer(token string) []Header {
	if token == "" {
		return nil
	}
	return []Header{{Key: "Authorization", Value: "Bearer " + token}}
}

// Fetch returns the full body of url.
func (c *Client) Fetch(ctx context.Context, url string, headers ...Header) ([]byte, error) {
	resp, err := c.get(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}
	return body, nil
}

// Download streams the body of url into w.
func (c *Client) Download(ctx context.Context, url string, w io.Writer, headers ...Header) error {
	resp, err := c.get(ctx, url, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("copy response from %s: %w", url, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string, headers []Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	for _, h := range headers {
		req.Header.Set(h.Key, h.Value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: fetch %s: status=%s body=%s", ErrStatus, url, resp.Status, string(b))
	}

	return resp, nil
}

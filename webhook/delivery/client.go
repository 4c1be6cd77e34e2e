package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marcelsud/webhook-relay/webhook/payload"
)

/* Client sends one outbound webhook callback
 * It holds no delivery state; the caller decides what the status code means
 */

// DefaultTimeout bounds a single delivery when no timeout is configured
const DefaultTimeout = 10 * time.Second

// maxDrain caps how much of a response body is read before closing it
const maxDrain = 64 << 10

type Client struct {
	httpClient *http.Client
}

// NewClient creates a delivery client whose every call is bounded by timeout
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewClientWithHTTPClient uses the given http.Client; it must carry a Timeout
func NewClientWithHTTPClient(c *http.Client) (*Client, error) {
	if c == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if c.Timeout <= 0 {
		return nil, fmt.Errorf("http client must have a positive timeout")
	}
	return &Client{httpClient: c}, nil
}

// Send POSTs the payload as JSON and returns the response status once the call has settled
func (c *Client) Send(ctx context.Context, targetURL string, p payload.Payload) (int, error) {
	body, err := p.Bytes()
	if err != nil {
		return 0, fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("posting to %s: %w", targetURL, err)
	}
	defer resp.Body.Close()

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	return resp.StatusCode, nil
}

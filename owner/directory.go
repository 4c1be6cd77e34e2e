package owner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single owner lookup
const DefaultTimeout = 5 * time.Second

/* HTTPDirectory answers owner existence against the identity service
 * GET {base}/users/{id}: 200 means the owner exists, 404 means it does not,
 * anything else is an error so callers can refuse instead of guessing
 */
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDirectory creates a directory client for baseURL
func NewHTTPDirectory(baseURL string, timeout time.Duration) (*HTTPDirectory, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid owner service url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPDirectory{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// OwnerExists reports whether ownerID is a known user
func (d *HTTPDirectory) OwnerExists(ctx context.Context, ownerID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/users/%s", d.baseURL, url.PathEscape(ownerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("creating owner request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("looking up owner %s: %w", ownerID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("looking up owner %s: unexpected status %d", ownerID, resp.StatusCode)
	}
}

package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"WallabagEnhancer/internal/enhancer"
	"WallabagEnhancer/internal/retry"
)

const (
	defaultUserAgent = "WallabagEnhancer/1.0"
	maxBodyBytes     = 8 << 20
)

// Fetcher is a plain GET client used by enhancers for auxiliary pages.
type Fetcher struct {
	client    *http.Client
	userAgent string
	policy    retry.Policy
}

var _ enhancer.Fetcher = (*Fetcher)(nil)

// New wires an HTTP client; a nil client gets a 20s timeout.
func New(client *http.Client, userAgent string, policy retry.Policy) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Fetcher{client: client, userAgent: userAgent, policy: policy}
}

// Fetch returns the response body as text. 5xx and 429 responses are retried
// according to the policy; other non-200 statuses fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	return retry.DoValue(ctx, f.policy, func(ctx context.Context) (string, error) {
		return f.fetchOnce(ctx, pageURL)
	})
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%s returned %s", pageURL, resp.Status)
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return "", retry.Transient(err)
		}
		return "", err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}

	return string(body), nil
}

// CloseIdleConnections releases pooled connections at the end of a run.
func (f *Fetcher) CloseIdleConnections() {
	f.client.CloseIdleConnections()
}

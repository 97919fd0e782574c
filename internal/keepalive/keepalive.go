// Package keepalive pings the service's own health endpoint so hosting
// platforms that idle inactive instances keep it awake.
package keepalive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"audiovault/internal/middleware"
	"audiovault/internal/observability"
)

const (
	DefaultInterval = 14 * time.Minute
	requestTimeout  = 10 * time.Second
)

// Pinger periodically GETs a URL. Failures are logged and counted, never retried.
type Pinger struct {
	url      string
	interval time.Duration
	client   *http.Client
}

// New returns a Pinger for url. A non-positive interval falls back to DefaultInterval.
func New(url string, interval time.Duration) *Pinger {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Pinger{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

// Run blocks, pinging once per interval until ctx is cancelled.
func (p *Pinger) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	middleware.Logger.Info("keep-alive started", "url", p.url, "interval", p.interval.String())
	for {
		select {
		case <-ctx.Done():
			middleware.Logger.Info("keep-alive stopped")
			return
		case <-ticker.C:
			if err := p.Ping(ctx); err != nil {
				middleware.Logger.WarnContext(ctx, "keep-alive ping failed", "url", p.url, "error", err)
			}
		}
	}
}

// Ping performs a single GET and treats any non-2xx status as a failure.
func (p *Pinger) Ping(ctx context.Context) (err error) {
	defer func() {
		observability.KeepAlivePings.WithLabelValues(observability.Outcome(err)).Inc()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

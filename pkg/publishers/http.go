package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/khobor-dash/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-dash/pkg/scrapeapi"
)

type httpPublisher struct {
	id      string
	url     string
	method  string
	headers map[string]string
	client  httpclient.Client
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg Config, log Logger) (Publisher, error) {
	if cfg.HTTP == nil || cfg.HTTP.URL == "" {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	timeout := cfg.HTTP.Timeout
	if timeout <= 0 {
		timeout = httpDefaultTimeout
	}
	return newHTTPPublisherWithClient(cfg, httpclient.NewRestyClient(timeout), log), nil
}

func newHTTPPublisherWithClient(cfg Config, client httpclient.Client, log Logger) *httpPublisher {
	method := cfg.HTTP.Method
	if method == "" {
		method = httpDefaultMethod
	}
	return &httpPublisher{
		id:      cfg.ID,
		url:     cfg.HTTP.URL,
		method:  method,
		headers: cfg.HTTP.Headers,
		client:  client,
		log:     ensureLogger(log),
	}
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return TypeHTTP }
func (p *httpPublisher) Close() error { return nil }

// Publish sends evt as a JSON body. Any non-2xx response is an error.
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	start := time.Now()
	resp, err := p.client.Do(ctx, p.method, p.url, evt, p.headers)
	if err != nil {
		return fmt.Errorf("%s %s: %w", p.method, p.url, err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d: %s", p.method, p.url, code, scrapeapi.Snippet(resp.Body()))
	}

	p.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"publisher":   p.id,
		"event_id":    evt.EventID,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

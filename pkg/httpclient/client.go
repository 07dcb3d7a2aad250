// Package httpclient provides the resty-backed HTTP client shared by providers,
// the scrape proxy and the HTTP publisher.
package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "khobor-dash/1.0 (+https://github.com/Adda-Baaj/khobor-dash)"

// Response is the subset of a resty response callers rely on.
type Response interface {
	StatusCode() int
	Body() []byte
}

// Client issues HTTP requests and returns the raw response. Non-2xx statuses
// are not errors; callers inspect StatusCode.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	PostJSON(ctx context.Context, url string, body any, headers map[string]string) (Response, error)
	Do(ctx context.Context, method, url string, body any, headers map[string]string) (Response, error)
}

type restyClient struct {
	rc *resty.Client
}

// NewRestyClient returns a Client with the given per-request timeout.
func NewRestyClient(timeout time.Duration) Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", defaultUserAgent).
		SetRetryCount(0)
	return &restyClient{rc: rc}
}

// Get performs a GET request.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return c.Do(ctx, resty.MethodGet, url, nil, headers)
}

// PostJSON performs a POST with a JSON encoded body.
func (c *restyClient) PostJSON(ctx context.Context, url string, body any, headers map[string]string) (Response, error) {
	return c.Do(ctx, resty.MethodPost, url, body, headers)
}

// Do performs a request with an arbitrary method. A non-nil body is sent as JSON.
func (c *restyClient) Do(ctx context.Context, method, url string, body any, headers map[string]string) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req := c.rc.R().SetContext(ctx).SetHeaders(headers)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

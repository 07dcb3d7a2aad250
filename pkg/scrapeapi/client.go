// Package scrapeapi talks to a Firecrawl-compatible scrape endpoint, either
// directly or through the local scrape proxy.
package scrapeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Adda-Baaj/khobor-dash/pkg/httpclient"
)

// Metadata is the structured page metadata returned by the scrape API.
type Metadata struct {
	Title         string `json:"title,omitempty"`
	OGTitle       string `json:"ogTitle,omitempty"`
	Description   string `json:"description,omitempty"`
	OGDescription string `json:"ogDescription,omitempty"`
	OGImage       string `json:"ogImage,omitempty"`
	SourceURL     string `json:"sourceURL,omitempty"`
}

// Empty reports whether none of the fields used for extraction are set.
func (m *Metadata) Empty() bool {
	if m == nil {
		return true
	}
	return strings.TrimSpace(m.Title) == "" &&
		strings.TrimSpace(m.OGTitle) == "" &&
		strings.TrimSpace(m.Description) == "" &&
		strings.TrimSpace(m.OGDescription) == "" &&
		strings.TrimSpace(m.OGImage) == ""
}

// Payload is one unstructured scrape result.
type Payload struct {
	Metadata *Metadata `json:"metadata,omitempty"`
	Content  string    `json:"content,omitempty"`
	Markdown string    `json:"markdown,omitempty"`
	HTML     string    `json:"html,omitempty"`
}

// Text returns the free-text body, preferring content over markdown.
func (p *Payload) Text() string {
	if p == nil {
		return ""
	}
	if strings.TrimSpace(p.Content) != "" {
		return p.Content
	}
	return p.Markdown
}

// envelope mirrors the upstream response. Bare payloads (no success/data
// wrapper) decode into the embedded Payload.
type envelope struct {
	Success *bool    `json:"success"`
	Error   string   `json:"error"`
	Data    *Payload `json:"data"`
	Payload
}

type scrapeRequest struct {
	URL string `json:"url"`
}

// Client scrapes single URLs.
type Client interface {
	Scrape(ctx context.Context, url string) (*Payload, error)
}

type client struct {
	http     httpclient.Client
	endpoint string
	apiKey   string
}

// NewClient builds a Client posting {url} to endpoint with a bearer token.
func NewClient(hc httpclient.Client, endpoint, apiKey string) Client {
	return &client{
		http:     hc,
		endpoint: strings.TrimSpace(endpoint),
		apiKey:   strings.TrimSpace(apiKey),
	}
}

// Scrape posts the URL and decodes the scrape result.
func (c *client) Scrape(ctx context.Context, url string) (*Payload, error) {
	if c.endpoint == "" {
		return nil, errors.New("scrape endpoint is empty")
	}

	headers := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	resp, err := c.http.PostJSON(ctx, c.endpoint, scrapeRequest{URL: url}, headers)
	if err != nil {
		return nil, fmt.Errorf("post scrape request: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("scrape endpoint returned status %d body: %s", resp.StatusCode(), Snippet(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode scrape response: %w", err)
	}
	if env.Success != nil && !*env.Success {
		msg := strings.TrimSpace(env.Error)
		if msg == "" {
			msg = "upstream reported failure"
		}
		return nil, fmt.Errorf("scrape failed: %s", msg)
	}
	if env.Data != nil {
		return env.Data, nil
	}

	payload := env.Payload
	return &payload, nil
}

// Snippet returns a truncated, trimmed body for error messages and logs.
func Snippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/khobor-dash/internal/domain"
	"github.com/Adda-Baaj/khobor-dash/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-dash/pkg/textutil"
)

// Provider ids accepted by the registry and the `source` config key.
const (
	ProviderFixture  = "fixture"
	ProviderHeadline = "headline"
	ProviderScrape   = "scrape"
)

// HTTPClient is the transport used by network-backed fetchers.
type HTTPClient = httpclient.Client

// Fetcher obtains articles for a category and optional search query from one
// backing source.
type Fetcher interface {
	ID() string
	// CheckConfig reports a *ConfigError when the fetcher cannot run, e.g. a
	// missing credential. It never performs I/O.
	CheckConfig() error
	FetchArticles(ctx context.Context, category, query string) ([]domain.Article, error)
}

// EmptyResultMessager is implemented by fetchers with a source-specific
// message for an empty, unfiltered result.
type EmptyResultMessager interface {
	EmptyResultMessage() string
}

// FetcherRegistry resolves the active fetcher by id.
type FetcherRegistry interface {
	FetcherFor(id string) (Fetcher, error)
	IDs() []string
}

type fetcherRegistry struct {
	fetchers map[string]Fetcher
	order    []string
	mu       sync.RWMutex
}

// NewFetcherRegistry builds a registry for the provided fetcher implementations.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchers: make(map[string]Fetcher, len(fetchers)),
	}

	for _, f := range fetchers {
		if f == nil {
			continue
		}
		key := normalizeID(f.ID())
		if _, dup := reg.fetchers[key]; !dup {
			reg.order = append(reg.order, key)
		}
		reg.fetchers[key] = f
	}

	return reg
}

// FetcherFor selects the fetcher registered under id.
func (r *fetcherRegistry) FetcherFor(id string) (Fetcher, error) {
	key := normalizeID(id)
	if key == "" {
		return nil, fmt.Errorf("provider id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.fetchers[key]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("no fetcher registered for provider %q", id)
}

// IDs lists registered provider ids in registration order.
func (r *fetcherRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// DefaultHTTPClient returns the resty client used when none is injected.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }

// FilterByQuery keeps articles whose title or description contains query,
// case-insensitively. A blank query keeps everything.
func FilterByQuery(articles []domain.Article, query string) []domain.Article {
	query = strings.TrimSpace(query)
	if query == "" {
		return articles
	}

	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if textutil.ContainsFold(a.Title, query) || textutil.ContainsFold(a.Description, query) {
			out = append(out, a)
		}
	}
	return out
}

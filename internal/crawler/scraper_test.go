package crawler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/khobor-dash/internal/domain"
	"github.com/Adda-Baaj/khobor-dash/pkg/scrapeapi"
)

// fakeScrapeClient records concurrency and returns canned payloads per URL.
type fakeScrapeClient struct {
	mu       sync.Mutex
	calls    []string
	inFlight atomic.Int32
	peak     atomic.Int32
	hold     time.Duration
	fail     map[string]error
	panicOn  string
}

func (f *fakeScrapeClient) Scrape(ctx context.Context, url string) (*scrapeapi.Payload, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		old := f.peak.Load()
		if cur <= old || f.peak.CompareAndSwap(old, cur) {
			break
		}
	}
	if f.hold > 0 {
		time.Sleep(f.hold)
	}

	if url == f.panicOn {
		panic("boom")
	}
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	return &scrapeapi.Payload{Metadata: &scrapeapi.Metadata{OGTitle: "Story from " + url}}, nil
}

func targets(n int, category string) []domain.SourceTarget {
	out := make([]domain.SourceTarget, n)
	for i := range out {
		out[i] = domain.SourceTarget{
			Name:     "site",
			URL:      "https://www.site" + string(rune('a'+i)) + ".com/",
			Category: category,
		}
	}
	return out
}

func TestSelectTargets(t *testing.T) {
	s := NewScraper(&fakeScrapeClient{}, nil, nil, 0)
	all := []domain.SourceTarget{
		{Name: "India", URL: "https://a.com", Category: "general"},
		{Name: "Tech", URL: "https://b.com", Category: "technology"},
		{Name: "World", URL: "https://c.com", Category: "world"},
	}

	tech := s.SelectTargets(all, "Technology")
	require.Len(t, tech, 1)
	assert.Equal(t, "Tech", tech[0].Name)

	fallback := s.SelectTargets(all, "sports")
	require.Len(t, fallback, 1)
	assert.Equal(t, "India", fallback[0].Name)

	general := s.SelectTargets(all, "")
	require.Len(t, general, 1)
	assert.Equal(t, "India", general[0].Name)

	assert.Empty(t, s.SelectTargets(all[1:], "sports"))
}

func TestSelectTargetsCapsToFirstFour(t *testing.T) {
	s := NewScraper(&fakeScrapeClient{}, nil, nil, 10)
	many := targets(7, "world")

	got := s.SelectTargets(many, "world")
	require.Len(t, got, MaxTargets)
	assert.Equal(t, many[:MaxTargets], got)

	lower := NewScraper(&fakeScrapeClient{}, nil, nil, 2)
	assert.Len(t, lower.SelectTargets(many, "world"), 2)
}

func TestScrapeAllRunsConcurrently(t *testing.T) {
	client := &fakeScrapeClient{hold: 50 * time.Millisecond}
	s := NewScraper(client, newTestExtractor(), nil, 0)

	start := time.Now()
	arts := s.ScrapeAll(context.Background(), s.SelectTargets(targets(9, "world"), "world"))
	elapsed := time.Since(start)

	require.Len(t, arts, MaxTargets)
	assert.Len(t, client.calls, MaxTargets)
	assert.Equal(t, int32(MaxTargets), client.peak.Load())
	assert.Less(t, elapsed, 4*client.hold)
}

func TestScrapeAllSurvivesPartialFailure(t *testing.T) {
	ts := targets(4, "world")
	client := &fakeScrapeClient{
		fail:    map[string]error{ts[1].URL: errors.New("connection reset")},
		panicOn: ts[3].URL,
	}
	s := NewScraper(client, newTestExtractor(), nil, 0)

	arts := s.ScrapeAll(context.Background(), ts)
	require.Len(t, arts, 2)
	assert.Equal(t, ts[0].URL, arts[0].URL)
	assert.Equal(t, ts[2].URL, arts[1].URL)
}

func TestScrapeAllDropsEmptyExtractions(t *testing.T) {
	client := &emptyClient{}
	s := NewScraper(client, newTestExtractor(), nil, 0)

	assert.Empty(t, s.ScrapeAll(context.Background(), targets(3, "general")))
	assert.Nil(t, s.ScrapeAll(context.Background(), nil))
}

type emptyClient struct{}

func (emptyClient) Scrape(context.Context, string) (*scrapeapi.Payload, error) {
	return &scrapeapi.Payload{}, nil
}

package providers

import (
	"context"
	"strings"

	"github.com/Adda-Baaj/khobor-dash/internal/crawler"
	"github.com/Adda-Baaj/khobor-dash/internal/domain"
	"github.com/Adda-Baaj/khobor-dash/internal/logger"
	"github.com/Adda-Baaj/khobor-dash/pkg/scrapeapi"
)

const (
	DefaultScrapeEndpoint = "http://localhost:5000/scrape"

	scrapeMissingKey = "Firecrawl API key not configured"
)

// DefaultSourceTargets are scraped when no targets are configured.
var DefaultSourceTargets = []domain.SourceTarget{
	{Name: "TOI India", URL: "https://timesofindia.indiatimes.com/india", Category: domain.CategoryGeneral},
	{Name: "TOI Tech", URL: "https://timesofindia.indiatimes.com/technology", Category: "technology"},
	{Name: "TOI World", URL: "https://timesofindia.indiatimes.com/world", Category: "world"},
}

// ScrapeConfig configures the scrape fetcher.
type ScrapeConfig struct {
	Endpoint   string
	APIKey     string
	MaxTargets int
	Targets    []domain.SourceTarget
}

// scrapeFetcher scrapes configured news sites through the scrape API.
type scrapeFetcher struct {
	apiKey  string
	targets []domain.SourceTarget
	scraper *crawler.Scraper
	log     logger.Logger
}

// NewScrapeFetcher builds the scrape-backed fetcher.
func NewScrapeFetcher(client HTTPClient, cfg ScrapeConfig, log logger.Logger) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	log = logger.Ensure(log)

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultScrapeEndpoint
	}
	targets := cfg.Targets
	if len(targets) == 0 {
		targets = DefaultSourceTargets
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	sc := scrapeapi.NewClient(client, endpoint, apiKey)
	return &scrapeFetcher{
		apiKey:  apiKey,
		targets: append([]domain.SourceTarget(nil), targets...),
		scraper: crawler.NewScraper(sc, crawler.NewExtractor(log, nil), log, cfg.MaxTargets),
		log:     log,
	}
}

func (f *scrapeFetcher) ID() string { return ProviderScrape }

func (f *scrapeFetcher) CheckConfig() error {
	if f.apiKey == "" {
		return &ConfigError{Provider: ProviderScrape, Message: scrapeMissingKey}
	}
	return nil
}

func (f *scrapeFetcher) EmptyResultMessage() string {
	return "No articles could be scraped at this time. Please try again later."
}

// FetchArticles scrapes the selected targets concurrently and filters the
// extracted articles by query. Per-target failures only shrink the result.
func (f *scrapeFetcher) FetchArticles(ctx context.Context, category, query string) ([]domain.Article, error) {
	if err := f.CheckConfig(); err != nil {
		return nil, err
	}

	selected := f.scraper.SelectTargets(f.targets, category)
	f.log.InfoObj("scraping source targets", "scrape_fanout", map[string]any{
		"category": category,
		"targets":  len(selected),
	})

	articles := f.scraper.ScrapeAll(ctx, selected)
	return FilterByQuery(articles, query), nil
}

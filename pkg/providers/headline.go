package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-dash/internal/domain"
	"github.com/Adda-Baaj/khobor-dash/internal/logger"
	"github.com/Adda-Baaj/khobor-dash/pkg/scrapeapi"
	"github.com/Adda-Baaj/khobor-dash/pkg/textutil"
)

const (
	DefaultHeadlineBaseURL  = "https://newsapi.org/v2"
	DefaultHeadlinePageSize = 20
	DefaultHeadlineCountry  = "us"

	headlineMissingKey    = "NewsAPI key not configured"
	headlineUpstreamError = "Failed to fetch news from NewsAPI"
	headlineNoDescription = "No description available"
	headlineUnknownSource = "Unknown Source"
)

// HeadlineConfig configures the headline API fetcher.
type HeadlineConfig struct {
	BaseURL  string
	APIKey   string
	PageSize int
	Country  string
}

type headlineResponse struct {
	Status       string            `json:"status"`
	Code         string            `json:"code"`
	Message      string            `json:"message"`
	TotalResults int               `json:"totalResults"`
	Articles     []headlineArticle `json:"articles"`
}

type headlineArticle struct {
	Source struct {
		ID   *string `json:"id"`
		Name string  `json:"name"`
	} `json:"source"`
	Author      *string `json:"author"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	URLToImage  *string `json:"urlToImage"`
	PublishedAt string  `json:"publishedAt"`
	Content     *string `json:"content"`
}

// headlineFetcher queries a NewsAPI-compatible headline service.
type headlineFetcher struct {
	client HTTPClient
	cfg    HeadlineConfig
	log    logger.Logger
	now    func() time.Time
}

// NewHeadlineFetcher builds a fetcher for the headline API. The API key is
// injected here; the fetcher never looks credentials up on its own.
func NewHeadlineFetcher(client HTTPClient, cfg HeadlineConfig, log logger.Logger) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHeadlineBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultHeadlinePageSize
	}
	if strings.TrimSpace(cfg.Country) == "" {
		cfg.Country = DefaultHeadlineCountry
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	return &headlineFetcher{client: client, cfg: cfg, log: logger.Ensure(log), now: time.Now}
}

func (f *headlineFetcher) ID() string { return ProviderHeadline }

func (f *headlineFetcher) CheckConfig() error {
	if f.cfg.APIKey == "" {
		return &ConfigError{Provider: ProviderHeadline, Message: headlineMissingKey}
	}
	return nil
}

func (f *headlineFetcher) EmptyResultMessage() string {
	return "No articles available in this category at the moment."
}

// FetchArticles issues one request: the search endpoint when query is set,
// otherwise the top headlines for category.
func (f *headlineFetcher) FetchArticles(ctx context.Context, category, query string) ([]domain.Article, error) {
	if err := f.CheckConfig(); err != nil {
		return nil, err
	}

	endpoint := f.buildURL(category, query, f.cfg.PageSize, f.cfg.APIKey)
	f.log.DebugObj("fetching headlines", "headline_fetch", map[string]any{
		"url": strings.ReplaceAll(endpoint, url.QueryEscape(f.cfg.APIKey), "[API_KEY]"),
	})

	payload, err := f.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if payload.Status != "ok" {
		msg := strings.TrimSpace(payload.Message)
		if msg == "" {
			msg = headlineUpstreamError
		}
		f.log.WarnObj("headline api returned error", "headline_upstream_error", map[string]any{
			"status":  payload.Status,
			"code":    payload.Code,
			"message": payload.Message,
		})
		return nil, &UpstreamError{Provider: ProviderHeadline, Code: payload.Code, Message: msg}
	}

	articles := make([]domain.Article, 0, len(payload.Articles))
	for _, item := range payload.Articles {
		if strings.TrimSpace(item.Title) == "" || strings.TrimSpace(item.URL) == "" {
			continue
		}
		articles = append(articles, f.toArticle(item))
	}

	f.log.DebugObj("headline fetch complete", "headline_fetch_done", map[string]any{
		"total_results": payload.TotalResults,
		"kept":          len(articles),
	})
	return articles, nil
}

// VerifyKey probes the API with a single-item request and reports whether the
// key is accepted.
func (f *headlineFetcher) VerifyKey(ctx context.Context, apiKey string) bool {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return false
	}
	payload, err := f.get(ctx, f.buildURL(domain.CategoryGeneral, "", 1, apiKey))
	if err != nil {
		f.log.WarnObj("headline key verification failed", "headline_verify_error", map[string]any{
			"error": err.Error(),
		})
		return false
	}
	return payload.Status == "ok"
}

// KeyVerifier is implemented by fetchers that can probe a credential.
type KeyVerifier interface {
	VerifyKey(ctx context.Context, apiKey string) bool
}

func (f *headlineFetcher) buildURL(category, query string, pageSize int, apiKey string) string {
	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(pageSize))

	path := "/top-headlines"
	if q := strings.TrimSpace(query); q != "" {
		path = "/everything"
		params.Set("q", q)
		params.Set("sortBy", "publishedAt")
	} else {
		category = strings.ToLower(strings.TrimSpace(category))
		if category != "" && category != domain.CategoryGeneral {
			params.Set("category", category)
		}
		params.Set("country", f.cfg.Country)
	}
	params.Set("apiKey", apiKey)

	return f.cfg.BaseURL + path + "?" + params.Encode()
}

// get decodes the JSON body regardless of HTTP status; the API reports
// failures in the body's status field.
func (f *headlineFetcher) get(ctx context.Context, endpoint string) (headlineResponse, error) {
	resp, err := f.client.Get(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return headlineResponse{}, fmt.Errorf("fetch headlines: %w", err)
	}

	var payload headlineResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return headlineResponse{}, fmt.Errorf("decode headlines (status %d body: %s): %w",
			resp.StatusCode(), scrapeapi.Snippet(resp.Body()), err)
	}
	return payload, nil
}

func (f *headlineFetcher) toArticle(item headlineArticle) domain.Article {
	link := strings.TrimSpace(item.URL)

	published, err := time.Parse(time.RFC3339, strings.TrimSpace(item.PublishedAt))
	if err != nil {
		published = f.now().UTC()
	}

	return domain.Article{
		ID:          domain.ArticleID(link),
		Title:       orDefault(strings.TrimSpace(item.Title), domain.UntitledArticle),
		Description: orDefault(textutil.StripHTML(deref(item.Description)), headlineNoDescription),
		URL:         link,
		ImageURL:    strings.TrimSpace(deref(item.URLToImage)),
		PublishedAt: published,
		Source:      domain.Source{Name: orDefault(strings.TrimSpace(item.Source.Name), headlineUnknownSource)},
		Author:      orDefault(strings.TrimSpace(deref(item.Author)), domain.DefaultAuthor),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

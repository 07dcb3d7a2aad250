package providers

import (
	"context"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-dash/internal/domain"
)

// DefaultFixtureDelay emulates network latency for the demo catalog.
const DefaultFixtureDelay = 800 * time.Millisecond

type fixtureEntry struct {
	title, description, url, image, source, author string
	age                                            time.Duration
}

var fixtureCatalog = []fixtureEntry{
	{
		title:       "Breaking: Major Tech Innovation Announced",
		description: "A groundbreaking advancement in artificial intelligence has been unveiled, promising to revolutionize the way we interact with technology in our daily lives.",
		url:         "https://example.com/tech-innovation",
		image:       "https://images.unsplash.com/photo-1518709268805-4e9042af2176?w=800&h=600&fit=crop",
		source:      "TechNews",
		author:      "Sarah Johnson",
		age:         2 * time.Hour,
	},
	{
		title:       "Global Markets Show Strong Recovery",
		description: "International financial markets demonstrate resilience as key indicators point toward sustained economic growth across major economies.",
		url:         "https://example.com/markets-recovery",
		image:       "https://images.unsplash.com/photo-1611974789855-9c2a0a7236a3?w=800&h=600&fit=crop",
		source:      "Financial Times",
		author:      "Michael Chen",
		age:         4 * time.Hour,
	},
	{
		title:       "Climate Summit Reaches Historic Agreement",
		description: "World leaders unite in unprecedented climate action plan, setting ambitious targets for carbon reduction and renewable energy adoption.",
		url:         "https://example.com/climate-summit",
		image:       "https://images.unsplash.com/photo-1569163139394-de4e4f43e4e3?w=800&h=600&fit=crop",
		source:      "Environmental Post",
		author:      "Dr. Emily Rodriguez",
		age:         6 * time.Hour,
	},
	{
		title:       "Sports Championship Finals Draw Record Viewership",
		description: "The championship game attracts millions of viewers worldwide, breaking previous records and showcasing incredible athletic performances.",
		url:         "https://example.com/sports-finals",
		image:       "https://images.unsplash.com/photo-1540747913346-19e32dc3e97e?w=800&h=600&fit=crop",
		source:      "Sports Central",
		author:      "Alex Turner",
		age:         8 * time.Hour,
	},
	{
		title:       "Medical Breakthrough Offers New Hope",
		description: "Researchers announce a significant advancement in treatment protocols that could benefit millions of patients worldwide.",
		url:         "https://example.com/medical-breakthrough",
		image:       "https://images.unsplash.com/photo-1559757148-5c350d0d3c56?w=800&h=600&fit=crop",
		source:      "Health Today",
		author:      "Dr. James Wilson",
		age:         10 * time.Hour,
	},
	{
		title:       "Space Mission Achieves Remarkable Success",
		description: "Latest space exploration mission surpasses expectations, providing valuable scientific data and inspiring future expeditions.",
		url:         "https://example.com/space-mission",
		image:       "https://images.unsplash.com/photo-1446776877081-d282a0f896e2?w=800&h=600&fit=crop",
		source:      "Space News",
		author:      "Dr. Maria Gonzalez",
		age:         12 * time.Hour,
	},
}

var entertainmentEntry = fixtureEntry{
	title:       "Movie Industry Celebrates Record-Breaking Year",
	description: "Box office numbers reach new heights as audiences return to theaters worldwide, with several blockbusters exceeding expectations.",
	url:         "https://example.com/movie-industry",
	image:       "https://images.unsplash.com/photo-1489599849896-11d6ba5b41bd?w=800&h=600&fit=crop",
	source:      "Entertainment Weekly",
	author:      "Jennifer Lee",
	age:         3 * time.Hour,
}

// categoryKeywords partitions the catalog by title substring.
var categoryKeywords = map[string][]string{
	"business":   {"Markets", "Tech"},
	"health":     {"Medical"},
	"science":    {"Space", "Climate"},
	"sports":     {"Sports"},
	"technology": {"Tech", "Innovation"},
}

// fixtureFetcher serves a static in-memory catalog.
type fixtureFetcher struct {
	delay      time.Duration
	catalog    []domain.Article
	categories map[string][]domain.Article
}

// NewFixtureFetcher builds the demo fetcher. Publication times are relative to
// now at construction.
func NewFixtureFetcher(delay time.Duration, now func() time.Time) Fetcher {
	if now == nil {
		now = time.Now
	}
	base := now().UTC()

	catalog := make([]domain.Article, 0, len(fixtureCatalog))
	for _, e := range fixtureCatalog {
		catalog = append(catalog, e.article(base))
	}

	categories := map[string][]domain.Article{
		domain.CategoryGeneral: catalog,
		"entertainment":        {entertainmentEntry.article(base)},
	}
	for category, keywords := range categoryKeywords {
		categories[category] = filterByTitleKeywords(catalog, keywords)
	}

	if delay < 0 {
		delay = 0
	}
	return &fixtureFetcher{delay: delay, catalog: catalog, categories: categories}
}

func (e fixtureEntry) article(base time.Time) domain.Article {
	return domain.Article{
		ID:          domain.ArticleID(e.url),
		Title:       e.title,
		Description: e.description,
		URL:         e.url,
		ImageURL:    e.image,
		PublishedAt: base.Add(-e.age),
		Source:      domain.Source{Name: e.source},
		Author:      e.author,
	}
}

func filterByTitleKeywords(articles []domain.Article, keywords []string) []domain.Article {
	var out []domain.Article
	for _, a := range articles {
		for _, kw := range keywords {
			if strings.Contains(a.Title, kw) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

func (f *fixtureFetcher) ID() string { return ProviderFixture }

func (f *fixtureFetcher) CheckConfig() error { return nil }

// FetchArticles waits for the configured delay, then serves the category
// slice (the whole catalog for unknown categories) filtered by query.
func (f *fixtureFetcher) FetchArticles(ctx context.Context, category, query string) ([]domain.Article, error) {
	if f.delay > 0 {
		timer := time.NewTimer(f.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	articles, ok := f.categories[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		articles = f.catalog
	}

	out := make([]domain.Article, len(articles))
	copy(out, articles)
	return FilterByQuery(out, query), nil
}

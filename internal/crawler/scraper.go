package crawler

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Adda-Baaj/khobor-dash/internal/domain"
	"github.com/Adda-Baaj/khobor-dash/internal/logger"
	"github.com/Adda-Baaj/khobor-dash/internal/metrics"
	"github.com/Adda-Baaj/khobor-dash/pkg/scrapeapi"
)

// MaxTargets bounds how many targets one retrieval scrapes.
const MaxTargets = 4

// Scraper fans scrape requests out to source targets and extracts one
// article per successful target.
type Scraper struct {
	client     scrapeapi.Client
	extractor  *Extractor
	log        logger.Logger
	maxTargets int
}

// NewScraper creates a Scraper. maxTargets outside 1..MaxTargets is clamped to MaxTargets.
func NewScraper(client scrapeapi.Client, extractor *Extractor, log logger.Logger, maxTargets int) *Scraper {
	log = logger.Ensure(log)
	if extractor == nil {
		extractor = NewExtractor(log, nil)
	}
	if maxTargets <= 0 || maxTargets > MaxTargets {
		maxTargets = MaxTargets
	}
	return &Scraper{client: client, extractor: extractor, log: log, maxTargets: maxTargets}
}

// SelectTargets picks the targets for a category: exact category matches,
// else general-tagged targets, capped to the first maxTargets in list order.
func (s *Scraper) SelectTargets(targets []domain.SourceTarget, category string) []domain.SourceTarget {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = domain.CategoryGeneral
	}

	selected := filterTargets(targets, category)
	if len(selected) == 0 && category != domain.CategoryGeneral {
		selected = filterTargets(targets, domain.CategoryGeneral)
	}
	if len(selected) > s.maxTargets {
		selected = selected[:s.maxTargets]
	}
	return selected
}

func filterTargets(targets []domain.SourceTarget, category string) []domain.SourceTarget {
	var out []domain.SourceTarget
	for _, t := range targets {
		if strings.EqualFold(strings.TrimSpace(t.Category), category) {
			out = append(out, t)
		}
	}
	return out
}

// ScrapeAll scrapes every target concurrently and waits for all of them.
// A failed target is logged and skipped; it never affects the others.
// Results keep target order.
func (s *Scraper) ScrapeAll(ctx context.Context, targets []domain.SourceTarget) []domain.Article {
	if len(targets) == 0 {
		return nil
	}

	out := make([]*domain.Article, len(targets))

	var g errgroup.Group
	g.SetLimit(len(targets))
	for idx, target := range targets {
		g.Go(func() error {
			out[idx] = s.scrapeOne(ctx, target)
			return nil
		})
	}
	_ = g.Wait()

	articles := make([]domain.Article, 0, len(out))
	for _, art := range out {
		if art != nil {
			articles = append(articles, *art)
		}
	}
	return articles
}

// scrapeOne scrapes a single target. Failures and panics become nil.
func (s *Scraper) scrapeOne(ctx context.Context, target domain.SourceTarget) (art *domain.Article) {
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorObj("scrape target panicked", "scrape_panic", map[string]any{
				"target": target.Name,
				"url":    target.URL,
				"panic":  r,
			})
			metrics.RecordScrapeTarget(target.Name, "error")
			art = nil
		}
	}()

	s.log.DebugObj("scraping target", "scrape_start", map[string]any{
		"target":   target.Name,
		"url":      target.URL,
		"category": target.Category,
	})

	payload, err := s.client.Scrape(ctx, target.URL)
	if err != nil {
		s.log.WarnObj("scrape target failed", "scrape_error", map[string]any{
			"target": target.Name,
			"url":    target.URL,
			"error":  err.Error(),
		})
		metrics.RecordScrapeTarget(target.Name, "error")
		return nil
	}

	art = s.extractor.Extract(payload, target.URL)
	if art == nil {
		metrics.RecordScrapeTarget(target.Name, "empty")
		return nil
	}
	metrics.RecordScrapeTarget(target.Name, "ok")
	return art
}

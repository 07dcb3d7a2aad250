package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Adda-Baaj/khobor-dash/internal/domain"
	"github.com/Adda-Baaj/khobor-dash/internal/logger"
	"github.com/Adda-Baaj/khobor-dash/pkg/scrapeapi"
	"github.com/Adda-Baaj/khobor-dash/pkg/textutil"
)

const (
	maxTitleRunes       = 80
	maxDescriptionRunes = 200
	minParagraphRunes   = 50
	ellipsis            = "..."
)

// Extractor turns scrape payloads into articles.
type Extractor struct {
	log logger.Logger
	now func() time.Time
}

// NewExtractor returns an Extractor. A nil clock defaults to time.Now.
func NewExtractor(log logger.Logger, now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{log: logger.Ensure(log), now: now}
}

// Extract converts one payload scraped from sourceURL into an article, or
// returns nil when nothing usable is present or the input cannot be parsed.
//
// PublishedAt is always the extraction time; payloads are not searched for a
// publication date.
func (e *Extractor) Extract(payload *scrapeapi.Payload, sourceURL string) *domain.Article {
	art, err := e.extract(payload, sourceURL)
	if err != nil {
		e.log.WarnObj("article extraction failed", "extract_error", map[string]any{
			"url":   sourceURL,
			"error": err.Error(),
		})
		return nil
	}
	if art == nil {
		e.log.DebugObj("no metadata or content in scrape payload", "extract_empty", map[string]any{
			"url": sourceURL,
		})
	}
	return art
}

func (e *Extractor) extract(payload *scrapeapi.Payload, sourceURL string) (art *domain.Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			art, err = nil, fmt.Errorf("panic during extraction: %v", r)
		}
	}()

	if payload == nil {
		return nil, nil
	}

	meta := scrapeapi.Metadata{}
	if payload.Metadata != nil {
		meta = *payload.Metadata
	}
	if strings.TrimSpace(payload.HTML) != "" {
		if htmlMeta, perr := parseMeta(payload.HTML); perr == nil {
			meta = mergeMeta(&meta, htmlMeta)
		} else {
			e.log.DebugObj("html metadata parse failed", "extract_html_error", map[string]any{
				"url":   sourceURL,
				"error": perr.Error(),
			})
		}
	}

	content := payload.Text()
	if meta.Empty() && strings.TrimSpace(content) == "" {
		return nil, nil
	}

	sourceName, err := SourceName(sourceURL)
	if err != nil {
		return nil, err
	}

	return &domain.Article{
		ID:          domain.ArticleID(sourceURL),
		Title:       resolveTitle(meta, content),
		Description: resolveDescription(meta, content),
		URL:         sourceURL,
		ImageURL:    resolveURL(strings.TrimSpace(meta.OGImage), sourceURL),
		PublishedAt: e.now().UTC(),
		Source:      domain.Source{Name: sourceName},
		Author:      domain.DefaultAuthor,
	}, nil
}

func resolveTitle(meta scrapeapi.Metadata, content string) string {
	if t := strings.TrimSpace(meta.OGTitle); t != "" {
		return t
	}
	if t := strings.TrimSpace(meta.Title); t != "" {
		return t
	}
	if content != "" {
		first, _, _ := strings.Cut(content, "\n")
		if line := strings.TrimSpace(textutil.Truncate(strings.TrimSpace(first), maxTitleRunes)); line != "" {
			return line
		}
	}
	return domain.UntitledArticle
}

func resolveDescription(meta scrapeapi.Metadata, content string) string {
	if d := textutil.StripHTML(meta.OGDescription); d != "" {
		return d
	}
	if d := textutil.StripHTML(meta.Description); d != "" {
		return d
	}
	for _, line := range strings.Split(content, "\n") {
		if looksLikeParagraph(line) {
			return textutil.Truncate(strings.TrimSpace(line), maxDescriptionRunes) + ellipsis
		}
	}
	return ""
}

// looksLikeParagraph rejects short lines, markdown headings and bullets.
func looksLikeParagraph(line string) bool {
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) <= minParagraphRunes {
		return false
	}
	return !strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "*")
}

// SourceName derives a display publication name from a URL host:
// "https://www.example.com/x" becomes "Example".
func SourceName(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", errors.New("source url has no host")
	}

	host = strings.TrimPrefix(host, "www.")
	label, _, _ := strings.Cut(host, ".")
	if label == "" {
		return "", fmt.Errorf("source url host %q has no name label", u.Hostname())
	}
	return textutil.Capitalize(label), nil
}

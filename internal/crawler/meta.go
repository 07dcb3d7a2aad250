package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/khobor-dash/pkg/scrapeapi"
)

const maxHTMLBytes = 1 << 20 // 1 MiB

// parseMeta extracts page metadata from raw HTML.
func parseMeta(html string) (scrapeapi.Metadata, error) {
	if len(html) > maxHTMLBytes {
		html = html[:maxHTMLBytes]
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return scrapeapi.Metadata{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return scrapeapi.Metadata{
		OGTitle:       extract(`meta[property="og:title"]`),
		Title:         strings.TrimSpace(doc.Find("title").First().Text()),
		OGDescription: extract(`meta[property="og:description"]`),
		Description:   extract(`meta[name="description"]`),
		OGImage:       extract(`meta[property="og:image"]`),
	}, nil
}

// mergeMeta fills fields missing from primary with values from fallback.
func mergeMeta(primary *scrapeapi.Metadata, fallback scrapeapi.Metadata) scrapeapi.Metadata {
	var out scrapeapi.Metadata
	if primary != nil {
		out = *primary
	}
	out.OGTitle = firstNonEmpty(out.OGTitle, fallback.OGTitle)
	out.Title = firstNonEmpty(out.Title, fallback.Title)
	out.OGDescription = firstNonEmpty(out.OGDescription, fallback.OGDescription)
	out.Description = firstNonEmpty(out.Description, fallback.Description)
	out.OGImage = firstNonEmpty(out.OGImage, fallback.OGImage)
	return out
}

// firstNonEmpty returns the first non-blank value, trimmed.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// resolveURL resolves a possibly relative URL against a base URL.
func resolveURL(raw, base string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if parsed.IsAbs() {
		return parsed.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return raw
	}
	return baseURL.ResolveReference(parsed).String()
}

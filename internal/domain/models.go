package domain

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"time"
)

// Domain contains core models shared by providers, the crawler and the retrieval layer.

const (
	// CategoryGeneral is the catch-all category used for fallbacks.
	CategoryGeneral = "general"

	// DefaultAuthor is used when a source does not expose a byline.
	DefaultAuthor = "Staff Writer"
	// UntitledArticle is used when no title can be resolved.
	UntitledArticle = "Untitled Article"
)

// Source names the publication an article came from.
type Source struct {
	Name string `json:"name"`
}

// Article is the normalized record every provider converges to.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      Source    `json:"source"`
	Author      string    `json:"author"`
}

// SourceTarget is a site the scrape provider may fetch for a category.
type SourceTarget struct {
	Name     string `json:"name" yaml:"name" mapstructure:"name"`
	URL      string `json:"url" yaml:"url" mapstructure:"url"`
	Category string `json:"category" yaml:"category" mapstructure:"category"`
}

// ArticleID derives a stable identifier from the article URL.
func ArticleID(u string) string {
	sum := sha1.Sum([]byte(u))
	return hex.EncodeToString(sum[:])
}

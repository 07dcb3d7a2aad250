package crawler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/khobor-dash/internal/domain"
	"github.com/Adda-Baaj/khobor-dash/pkg/scrapeapi"
)

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func newTestExtractor() *Extractor {
	return NewExtractor(nil, func() time.Time { return fixedNow })
}

func TestExtractReturnsNilWithoutMetadataOrContent(t *testing.T) {
	e := newTestExtractor()

	payloads := map[string]*scrapeapi.Payload{
		"nil payload":     nil,
		"empty payload":   {},
		"empty metadata":  {Metadata: &scrapeapi.Metadata{}},
		"blank content":   {Content: "  \n "},
		"only source url": {Metadata: &scrapeapi.Metadata{SourceURL: "https://example.com"}},
	}
	for name, p := range payloads {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, e.Extract(p, "https://www.example.com/news"))
		})
	}
}

func TestExtractStructuredTitleWinsExactly(t *testing.T) {
	e := newTestExtractor()

	titles := []string{"Breaking: Markets Rally", "Ünïcode headline - with dash", "x"}
	for _, title := range titles {
		art := e.Extract(&scrapeapi.Payload{
			Metadata: &scrapeapi.Metadata{OGTitle: title, Title: "other"},
			Content:  "First line\nsecond",
		}, "https://www.example.com/a")
		require.NotNil(t, art)
		assert.Equal(t, title, art.Title)
	}

	art := e.Extract(&scrapeapi.Payload{Metadata: &scrapeapi.Metadata{Title: "Plain title"}}, "https://example.com")
	require.NotNil(t, art)
	assert.Equal(t, "Plain title", art.Title)
}

func TestExtractTitleFallsBackToContentThenPlaceholder(t *testing.T) {
	e := newTestExtractor()

	long := strings.Repeat("a", 120)
	art := e.Extract(&scrapeapi.Payload{Content: long + "\nnext"}, "https://example.com")
	require.NotNil(t, art)
	assert.Equal(t, strings.Repeat("a", 80), art.Title)

	art = e.Extract(&scrapeapi.Payload{Markdown: "\nbody only"}, "https://example.com")
	require.NotNil(t, art)
	assert.Equal(t, domain.UntitledArticle, art.Title)
}

func TestExtractDescriptionResolution(t *testing.T) {
	e := newTestExtractor()
	paragraph := "This is a long enough paragraph that should be picked up as the summary line."

	tests := map[string]struct {
		payload *scrapeapi.Payload
		want    string
	}{
		"og description": {
			payload: &scrapeapi.Payload{Metadata: &scrapeapi.Metadata{OGDescription: "og", Description: "plain"}},
			want:    "og",
		},
		"plain description": {
			payload: &scrapeapi.Payload{Metadata: &scrapeapi.Metadata{Description: "<p>plain &amp; simple</p>"}},
			want:    "plain & simple",
		},
		"first paragraph skips headings and bullets": {
			payload: &scrapeapi.Payload{Content: strings.Join([]string{
				"Title line",
				"# A heading that is definitely longer than fifty characters in total",
				"* A bullet that is definitely longer than fifty characters in total",
				"short",
				paragraph,
			}, "\n")},
			want: paragraph + "...",
		},
		"paragraph truncated": {
			payload: &scrapeapi.Payload{Content: "t\n" + strings.Repeat("b", 300)},
			want:    strings.Repeat("b", 200) + "...",
		},
		"nothing usable": {
			payload: &scrapeapi.Payload{Content: "t\nshort\n# heading"},
			want:    "",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			art := e.Extract(tc.payload, "https://example.com/x")
			require.NotNil(t, art)
			assert.Equal(t, tc.want, art.Description)
		})
	}
}

func TestExtractFixedFields(t *testing.T) {
	e := newTestExtractor()

	art := e.Extract(&scrapeapi.Payload{
		Metadata: &scrapeapi.Metadata{OGTitle: "T", OGImage: "/img/lead.jpg"},
	}, "https://www.example.com/news/today")
	require.NotNil(t, art)

	assert.Equal(t, "https://www.example.com/news/today", art.URL)
	assert.Equal(t, "https://www.example.com/img/lead.jpg", art.ImageURL)
	assert.Equal(t, fixedNow, art.PublishedAt)
	assert.Equal(t, "Example", art.Source.Name)
	assert.Equal(t, domain.DefaultAuthor, art.Author)
	assert.Equal(t, domain.ArticleID(art.URL), art.ID)

	art = e.Extract(&scrapeapi.Payload{Content: "x"}, "https://example.com")
	require.NotNil(t, art)
	assert.Empty(t, art.ImageURL)
}

func TestExtractUsesHTMLMetaAsStructuredFallback(t *testing.T) {
	e := newTestExtractor()
	html := `<html><head>
		<title>Page Title</title>
		<meta property="og:description" content="From the page">
		<meta property="og:image" content="https://cdn.example.com/a.png">
	</head><body></body></html>`

	art := e.Extract(&scrapeapi.Payload{
		Metadata: &scrapeapi.Metadata{OGTitle: "Structured"},
		HTML:     html,
	}, "https://timesofindia.indiatimes.com/india")
	require.NotNil(t, art)
	assert.Equal(t, "Structured", art.Title)
	assert.Equal(t, "From the page", art.Description)
	assert.Equal(t, "https://cdn.example.com/a.png", art.ImageURL)
	assert.Equal(t, "Timesofindia", art.Source.Name)
}

func TestExtractBadURLReturnsNil(t *testing.T) {
	e := newTestExtractor()
	payload := &scrapeapi.Payload{Metadata: &scrapeapi.Metadata{OGTitle: "T"}}

	assert.Nil(t, e.Extract(payload, "://bad"))
	assert.Nil(t, e.Extract(payload, "not a url"))
}

func TestSourceName(t *testing.T) {
	tests := map[string]string{
		"https://www.example.com/a/b":      "Example",
		"https://www.example.co.uk":        "Example",
		"http://example.com":               "Example",
		"https://news.bbc.co.uk/x":         "News",
		"https://WWW.Reuters.com/world":    "Reuters",
		"https://timesofindia.com:8443/ok": "Timesofindia",
	}
	for in, want := range tests {
		got, err := SourceName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := SourceName("/relative/path")
	assert.Error(t, err)
}

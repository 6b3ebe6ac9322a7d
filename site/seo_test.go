package site

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/newsdailly/newsdailly/article"
)

// TestCanonicalURL verifies slash handling between base and path
func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"https://newsdailly.example", "/", "https://newsdailly.example/"},
		{"https://newsdailly.example/", "/article/x", "https://newsdailly.example/article/x"},
		{"https://newsdailly.example//", "//scam-alerts", "https://newsdailly.example/scam-alerts"},
		{"https://newsdailly.example", "/fresh-hitters//", "https://newsdailly.example/fresh-hitters/"},
		{"https://newsdailly.example", "", "https://newsdailly.example/"},
		{"", "/article/y", "http://localhost:5173/article/y"},
	}

	for _, tt := range tests {
		t.Run(tt.base+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalURL(tt.base, tt.path))
		})
	}
}

// TestBreadcrumbs verifies category routing and title truncation
func TestBreadcrumbs(t *testing.T) {
	crumbs := Breadcrumbs("Short title", "")
	assert.Equal(t, []Breadcrumb{{Label: "Home", Href: "/"}, {Label: "Short title"}}, crumbs)

	crumbs = Breadcrumbs("x", "Market Movers")
	assert.Equal(t, "/market-movers", crumbs[1].Href)

	crumbs = Breadcrumbs("x", article.BigNews)
	assert.Equal(t, "/big-news", crumbs[1].Href)

	long := strings.Repeat("é", 61)
	assert.Equal(t, strings.Repeat("é", 60)+"…", TruncateTitle(long, 60))
	assert.Equal(t, strings.Repeat("é", 60), TruncateTitle(strings.Repeat("é", 60), 60))
}

// TestArticleSEO verifies the NewsArticle JSON-LD and stored overrides
func TestArticleSEO(t *testing.T) {
	published := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	view := article.ArticleView{
		Title:    "ETH ETF approved",
		Slug:     "eth-etf",
		Tagline:  "A new era",
		Author:   "Ada",
		Category: article.FreshHitters,
		Tags:     []string{"eth"},
		SchemaLD: map[string]any{"publisher": "NewsDailly"},
	}
	view.PublishedAt = &published

	seo := ArticleSEO("https://newsdailly.example", view, "https://cdn.example/eth-etf.webp")
	assert.Equal(t, "A new era", seo.Description, "tagline stands in for a missing meta description")
	assert.Equal(t, "article", seo.OGType)
	assert.Equal(t, "https://cdn.example/eth-etf.webp", seo.Image)
	assert.Equal(t, "2025-06-15T00:00:00Z", seo.JSONLD["datePublished"])
	assert.Equal(t, "NewsDailly", seo.JSONLD["publisher"])
	assert.Equal(t, article.FreshHitters, seo.JSONLD["articleSection"])

	seo = ArticleSEO("", article.ArticleView{Slug: "x"}, "")
	assert.NotContains(t, seo.JSONLD, "image")
	assert.NotContains(t, seo.JSONLD, "datePublished")
}

// TestSiteSEO verifies listing defaults and the Organization JSON-LD
func TestSiteSEO(t *testing.T) {
	seo := SiteSEO("https://newsdailly.example", "", "", "/")
	assert.Equal(t, defaultTitle, seo.Title)
	assert.Equal(t, defaultDescription, seo.Description)
	assert.Equal(t, "website", seo.OGType)
	assert.Equal(t, "Organization", seo.JSONLD["@type"])
	assert.Equal(t, "https://newsdailly.example/", seo.JSONLD["url"])
}

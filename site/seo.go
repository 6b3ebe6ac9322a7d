package site

import (
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/newsdailly/newsdailly/article"
)

// DefaultSiteURL is the canonical base when none is configured.
const DefaultSiteURL = "http://localhost:5173"

const (
	defaultTitle       = article.SiteName + " | Crypto News"
	defaultDescription = "Real-time crypto news, airdrops, scam alerts, and fresh hitters."
	breadcrumbLimit    = 60
)

// SEO is the head metadata a client renders for a page.
type SEO struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Canonical   string         `json:"canonical"`
	OGType      string         `json:"og_type"`
	Image       string         `json:"image,omitempty"`
	TwitterCard string         `json:"twitter_card"`
	JSONLD      map[string]any `json:"json_ld"`
}

// CanonicalURL joins base and path with exactly one slash between them and
// at most one trailing slash. An empty base means DefaultSiteURL.
func CanonicalURL(base, path string) string {
	if base == "" {
		base = DefaultSiteURL
	}
	joined := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	if trimmed := strings.TrimRight(joined, "/"); trimmed != joined {
		return trimmed + "/"
	}
	return joined
}

// ArticlePath is the site path of an article.
func ArticlePath(slug string) string {
	return "/article/" + slug
}

// SiteSEO describes a listing page. Empty title and description take the
// site defaults.
func SiteSEO(base, title, description, path string) SEO {
	if title == "" {
		title = defaultTitle
	}
	if description == "" {
		description = defaultDescription
	}
	canonical := CanonicalURL(base, path)
	return SEO{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		OGType:      "website",
		TwitterCard: "summary_large_image",
		JSONLD: map[string]any{
			"@context": "https://schema.org",
			"@type":    "Organization",
			"name":     article.SiteName,
			"url":      canonical,
			"sameAs":   []string{"https://twitter.com/", "https://t.me/"},
		},
	}
}

// ArticleSEO describes an article page. The stored schema_ld is merged over
// the generated NewsArticle object, so its keys win.
func ArticleSEO(base string, view article.ArticleView, image string) SEO {
	description := view.MetaDescription
	if description == "" {
		description = view.Tagline
	}

	ld := map[string]any{
		"@context":       "https://schema.org",
		"@type":          "NewsArticle",
		"headline":       view.Title,
		"author":         []map[string]any{{"@type": "Person", "name": view.Author}},
		"articleSection": view.Category,
		"about":          view.Tags,
	}
	if view.PublishedAt != nil {
		ld["datePublished"] = article.FormatISO(*view.PublishedAt)
	}
	if image != "" {
		ld["image"] = image
	}
	maps.Copy(ld, view.SchemaLD)

	return SEO{
		Title:       view.Title,
		Description: description,
		Canonical:   CanonicalURL(base, ArticlePath(view.Slug)),
		OGType:      "article",
		Image:       image,
		TwitterCard: "summary_large_image",
		JSONLD:      ld,
	}
}

// Breadcrumb is one step of the trail above an article. The last step has
// no link.
type Breadcrumb struct {
	Label string `json:"label"`
	Href  string `json:"href,omitempty"`
}

// Breadcrumbs builds Home, the category when known, and the title cut to
// 60 characters.
func Breadcrumbs(title, category string) []Breadcrumb {
	crumbs := []Breadcrumb{{Label: "Home", Href: "/"}}
	if category != "" {
		crumbs = append(crumbs, Breadcrumb{Label: category, Href: article.CategoryRoute(category)})
	}
	return append(crumbs, Breadcrumb{Label: TruncateTitle(title, breadcrumbLimit)})
}

// TruncateTitle shortens s to n characters followed by an ellipsis.
func TruncateTitle(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

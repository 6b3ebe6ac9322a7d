// Package article normalises stored article documents into the view model
// the site renders.
package article

import (
	"strings"
	"time"
)

// SiteName is the author credited when a document names none.
const SiteName = "NewsDailly"

// RawDocument is a document as stored by the content pipeline. Its shape is
// not owned by this module: every key is optional and values may arrive in
// several encodings.
type RawDocument map[string]any

// Section is one titled block of article body text. At least one of Title
// and Text is non-empty.
type Section struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
}

// FAQ is a single question/answer pair.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ArticleView is the normalised, display-ready article.
type ArticleView struct {
	ID              string         `json:"id,omitempty"`
	Title           string         `json:"title"`
	Slug            string         `json:"slug"`
	PublishedAt     *time.Time     `json:"published_at,omitempty"`
	Tagline         string         `json:"tagline,omitempty"`
	MetaDescription string         `json:"meta_description,omitempty"`
	LSIKeywords     []string       `json:"lsi_keywords"`
	Tags            []string       `json:"tags"`
	Sections        []Section      `json:"sections"`
	Intro           string         `json:"intro,omitempty"`
	Conclusion      string         `json:"conclusion,omitempty"`
	FAQ             []FAQ          `json:"faq"`
	SchemaLD        map[string]any `json:"schema_ld,omitempty"`
	Author          string         `json:"author"`
	ReadTime        string         `json:"read_time"`
	Category        string         `json:"category"`
}

// DedupKey identifies the article within a feed: the store id when known,
// otherwise the slug. Titles are never used.
func (a ArticleView) DedupKey() string {
	if a.ID != "" {
		return a.ID
	}
	return a.Slug
}

// Category names.
const (
	FreshHitters    = "Fresh Hitters"
	AirdropAlerts   = "Airdrop Alerts"
	ScamAlerts      = "Scam Alerts"
	CalloutProjects = "Callout Projects"
	BigNews         = "Big News"

	// DefaultCategory is used when neither the document nor its tags name one.
	DefaultCategory = FreshHitters
)

// Category pairs a display name with its route slug.
type Category struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	// Feed is false for categories that have a route but no listing page.
	Feed bool `json:"feed"`
}

// Route returns the site path for the category listing.
func (c Category) Route() string {
	return "/" + c.Slug
}

var categories = []Category{
	{Name: ScamAlerts, Slug: "scam-alerts", Feed: true},
	{Name: AirdropAlerts, Slug: "airdrop-alerts", Feed: true},
	{Name: FreshHitters, Slug: "fresh-hitters", Feed: true},
	{Name: CalloutProjects, Slug: "callout-projects", Feed: true},
	{Name: BigNews, Slug: "big-news"},
}

// Categories returns every known category in navigation order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// LookupCategory finds a feed-able category by slug or by display name.
func LookupCategory(nameOrSlug string) (Category, bool) {
	for _, c := range categories {
		if !c.Feed {
			continue
		}
		if c.Slug == nameOrSlug || c.Name == nameOrSlug {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryRoute returns the listing path for a category name. Unknown names
// get a kebab-cased path so breadcrumbs still link somewhere sensible.
func CategoryRoute(name string) string {
	for _, c := range categories {
		if c.Name == name {
			return c.Route()
		}
	}
	if name == "" {
		name = "news"
	}
	return "/" + Kebab(name)
}

// Kebab lower-cases s and joins alphanumeric runs with single hyphens.
func Kebab(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

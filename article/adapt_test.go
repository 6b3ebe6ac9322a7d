package article

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: n space-separated words
func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func sampleDocument() RawDocument {
	return RawDocument{
		"title":            "Solana Airdrop Season Returns",
		"slug":             "solana-airdrop-season-returns",
		"tagline":          "Points programs are back",
		"meta_description": "What the new Solana points programs mean",
		"introduction":     "Airdrops are back on Solana.",
		"section1title":    "What happened",
		"section1text":     "Three protocols announced points.",
		"section3text":     "Watch for sybil filters.",
		"conclusion":       "Stay careful.",
		"tags":             []any{"Airdrop", "Solana"},
		"lsi_keywords":     []any{"points", "retroactive"},
		"faq": []any{
			map[string]any{"question": "Is it free?", "answer": "Mostly."},
		},
		"schema_ld":   map[string]any{"keywords": "airdrop"},
		"meta":        map[string]any{"author": "Ada"},
		"publishedat": map[string]any{"seconds": float64(1718445600), "nanoseconds": float64(0)},
	}
}

// TestAdapt_FullDocument verifies every field is mapped
func TestAdapt_FullDocument(t *testing.T) {
	view, err := Adapt("doc-1", sampleDocument())
	require.NoError(t, err)

	assert.Equal(t, "doc-1", view.ID)
	assert.Equal(t, "Solana Airdrop Season Returns", view.Title)
	assert.Equal(t, "solana-airdrop-season-returns", view.Slug)
	assert.Equal(t, "Points programs are back", view.Tagline)
	assert.Equal(t, []string{"Airdrop", "Solana"}, view.Tags)
	assert.Equal(t, []string{"points", "retroactive"}, view.LSIKeywords)
	assert.Equal(t, []FAQ{{Question: "Is it free?", Answer: "Mostly."}}, view.FAQ)
	assert.Equal(t, "airdrop", view.SchemaLD["keywords"])
	assert.Equal(t, "Ada", view.Author)
	assert.Equal(t, AirdropAlerts, view.Category, "category should be inferred from tags")
	assert.Equal(t, "1 minutes", view.ReadTime)

	require.NotNil(t, view.PublishedAt)
	assert.Equal(t, time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC), *view.PublishedAt)
}

// TestAdapt_SectionsSkipEmptyPairs verifies only populated sections survive
func TestAdapt_SectionsSkipEmptyPairs(t *testing.T) {
	view, err := Adapt("doc-1", sampleDocument())
	require.NoError(t, err)

	require.Len(t, view.Sections, 2)
	assert.Equal(t, Section{Title: "What happened", Text: "Three protocols announced points."}, view.Sections[0])
	assert.Equal(t, Section{Text: "Watch for sybil filters."}, view.Sections[1])
	for _, s := range view.Sections {
		assert.True(t, s.Title != "" || s.Text != "")
	}
}

// TestAdapt_IgnoresExtraSections verifies at most three sections are read
func TestAdapt_IgnoresExtraSections(t *testing.T) {
	raw := RawDocument{
		"section1title": "one", "section2title": "two",
		"section3title": "three", "section4title": "four",
	}

	view, err := Adapt("", raw)
	require.NoError(t, err)
	assert.Len(t, view.Sections, 3)
}

// TestAdapt_EmptyDocument verifies defaults for a document with no keys
func TestAdapt_EmptyDocument(t *testing.T) {
	view, err := Adapt("", RawDocument{})
	require.NoError(t, err)

	assert.Equal(t, SiteName, view.Author)
	assert.Equal(t, DefaultCategory, view.Category)
	assert.Equal(t, "1 minutes", view.ReadTime)
	assert.Empty(t, view.Sections)
	assert.NotNil(t, view.Tags)
	assert.NotNil(t, view.FAQ)
	assert.Nil(t, view.PublishedAt)
}

// TestAdapt_StoredValuesWin verifies stored category and read time are kept
func TestAdapt_StoredValuesWin(t *testing.T) {
	raw := sampleDocument()
	raw["category"] = BigNews
	raw["meta"] = map[string]any{"read_time": "7 min read"}

	view, err := Adapt("doc-1", raw)
	require.NoError(t, err)

	assert.Equal(t, BigNews, view.Category)
	assert.Equal(t, "7 min read", view.ReadTime)
	assert.Equal(t, SiteName, view.Author)
}

// TestAdapt_StoredReadTimeAnyString verifies any textual read time is kept,
// even an empty one, and only non-strings are recomputed
func TestAdapt_StoredReadTimeAnyString(t *testing.T) {
	raw := RawDocument{"introduction": words(500), "meta": map[string]any{"read_time": ""}}
	view, err := Adapt("", raw)
	require.NoError(t, err)
	assert.Equal(t, "", view.ReadTime)

	raw = RawDocument{"introduction": words(500), "meta": map[string]any{"read_time": 4}}
	view, err = Adapt("", raw)
	require.NoError(t, err)
	assert.Equal(t, "2 minutes", view.ReadTime)
}

// TestAdapt_ReadTimeRounding verifies the reading time rounds to the nearest minute
func TestAdapt_ReadTimeRounding(t *testing.T) {
	tests := []struct {
		name string
		raw  RawDocument
		want string
	}{
		{"no words", RawDocument{}, "1 minutes"},
		{"exactly one minute", RawDocument{"introduction": words(225)}, "1 minutes"},
		{"rounds down", RawDocument{"introduction": words(337)}, "1 minutes"},
		{"rounds up", RawDocument{"introduction": words(338)}, "2 minutes"},
		{
			"counts every body field",
			RawDocument{
				"tagline":      words(100),
				"introduction": words(100),
				"section1text": words(250),
				"conclusion":   words(225),
			},
			"3 minutes",
		},
		{"ignores titles", RawDocument{"title": words(1000), "section1title": words(1000)}, "1 minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := Adapt("", tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, view.ReadTime)
		})
	}
}

// TestAdapt_PublishedAtFallbackKey verifies the camel-case key is consulted
func TestAdapt_PublishedAtFallbackKey(t *testing.T) {
	view, err := Adapt("", RawDocument{"publishedAt": "2025-06-15T08:30:00Z"})
	require.NoError(t, err)

	require.NotNil(t, view.PublishedAt)
	assert.Equal(t, "June 15 2025", FormatPublished(*view.PublishedAt))
}

// TestAdapt_UnknownTimestampShape verifies unparseable dates are dropped
func TestAdapt_UnknownTimestampShape(t *testing.T) {
	view, err := Adapt("", RawDocument{"publishedat": true})
	require.NoError(t, err)
	assert.Nil(t, view.PublishedAt)
}

// TestAdapt_MalformedValues verifies wrong-typed values name the offending key
func TestAdapt_MalformedValues(t *testing.T) {
	tests := []struct {
		name string
		raw  RawDocument
		key  string
	}{
		{"title not a string", RawDocument{"title": 5}, "title"},
		{"tags not a list", RawDocument{"tags": "scam"}, "tags"},
		{"tag not a string", RawDocument{"tags": []any{"ok", 3}}, "tags[1]"},
		{"meta not an object", RawDocument{"meta": "Ada"}, "meta"},
		{"author not a string", RawDocument{"meta": map[string]any{"author": 1}}, "meta.author"},
		{"faq entry not an object", RawDocument{"faq": []any{"q"}}, "faq[0]"},
		{"faq answer not a string", RawDocument{"faq": []any{map[string]any{"answer": 2}}}, "faq[0].answer"},
		{"section text not a string", RawDocument{"section2text": []any{}}, "section2text"},
		{"category not a string", RawDocument{"category": 1}, "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Adapt("doc", tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))

			var adaptErr *AdaptError
			require.True(t, errors.As(err, &adaptErr))
			assert.Equal(t, tt.key, adaptErr.Key)
		})
	}
}

// TestAdapt_Idempotent verifies equal input gives equal output
func TestAdapt_Idempotent(t *testing.T) {
	first, err := Adapt("doc-1", sampleDocument())
	require.NoError(t, err)
	second, err := Adapt("doc-1", sampleDocument())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestInferCategory verifies tag precedence
func TestInferCategory(t *testing.T) {
	tests := []struct {
		tags []string
		want string
	}{
		{[]string{"new", "scam"}, ScamAlerts},
		{[]string{"Airdrop", "fresh"}, AirdropAlerts},
		{[]string{"Callout", "NEW listing"}, FreshHitters},
		{[]string{"Fresh"}, FreshHitters},
		{[]string{"callout"}, CalloutProjects},
		{[]string{"scammer"}, ScamAlerts},
		{[]string{"bitcoin"}, DefaultCategory},
		{nil, DefaultCategory},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, InferCategory(tt.tags), "tags %v", tt.tags)
	}
}

// TestArticleView_DedupKey verifies id is preferred over slug
func TestArticleView_DedupKey(t *testing.T) {
	assert.Equal(t, "id-1", ArticleView{ID: "id-1", Slug: "s"}.DedupKey())
	assert.Equal(t, "s", ArticleView{Slug: "s"}.DedupKey())
}

// TestCategories verifies routes and lookups
func TestCategories(t *testing.T) {
	c, ok := LookupCategory("scam-alerts")
	require.True(t, ok)
	assert.Equal(t, ScamAlerts, c.Name)
	assert.Equal(t, "/scam-alerts", c.Route())

	c, ok = LookupCategory(CalloutProjects)
	require.True(t, ok)
	assert.Equal(t, "callout-projects", c.Slug)

	_, ok = LookupCategory("big-news")
	assert.False(t, ok, "big news has no listing page")
	_, ok = LookupCategory("memes")
	assert.False(t, ok)

	assert.Equal(t, "/big-news", CategoryRoute(BigNews))
	assert.Equal(t, "/layer-2-rollups", CategoryRoute("Layer 2 / Rollups"))
	assert.Equal(t, "/news", CategoryRoute(""))
	assert.Len(t, Categories(), 5)
}

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdailly/newsdailly/article"
	"github.com/newsdailly/newsdailly/docstore"
	"github.com/newsdailly/newsdailly/feed"
	"github.com/newsdailly/newsdailly/images"
	"github.com/newsdailly/newsdailly/market"
)

// TestSeedID verifies id selection for seed documents
func TestSeedID(t *testing.T) {
	assert.Equal(t, "abc", seedID(article.RawDocument{"id": "abc", "slug": "s"}, false))
	assert.Equal(t, "s", seedID(article.RawDocument{"slug": "s"}, false))
	assert.Empty(t, seedID(article.RawDocument{"title": "t"}, false))
	assert.Len(t, seedID(article.RawDocument{"title": "t"}, true), 36)
}

// TestWriteDemoImage verifies inline images land under the storage folder
func TestWriteDemoImage(t *testing.T) {
	dir, err := images.NewDirBucket(t.TempDir(), "/images")
	require.NoError(t, err)

	require.NoError(t, writeDemoImage(dir, "newimages", "btc", "UklGRg=="))
	url, ok := images.NewResolver(dir, "newimages").Resolve(context.Background(), "btc")
	require.True(t, ok)
	assert.Equal(t, "/images/newimages/btc.webp", url)

	assert.Error(t, writeDemoImage(dir, "newimages", "bad", "%%%"))
}

// TestWrapText verifies wrapping by terminal width
func TestWrapText(t *testing.T) {
	assert.Equal(t, "one two\nthree", wrapText("one two three", 8))
	assert.Equal(t, "", wrapText("", 10))
	assert.Equal(t, "averyverylongword", wrapText("averyverylongword", 5))
}

// TestRangeBar verifies the bar is clamped to its width
func TestRangeBar(t *testing.T) {
	assert.Equal(t, "[··········]", rangeBar(0, 10))
	assert.Equal(t, "[█████·····]", rangeBar(50, 10))
	assert.Equal(t, "[██████████]", rangeBar(150, 10))
}

// TestPrintBoard verifies fallback chips render with the placeholder note
func TestPrintBoard(t *testing.T) {
	var buf bytes.Buffer
	printBoard(&buf, market.Board{Chips: market.Chips([]string{"BTCUSDT"}, nil)})

	out := buf.String()
	assert.Contains(t, out, "BTC")
	assert.Contains(t, out, "$67,342.15")
	assert.Contains(t, out, "placeholder prices")
}

// TestPrintPages verifies paged output and the resume hint
func TestPrintPages(t *testing.T) {
	store, err := docstore.NewSQLStore(docstore.DriverSQLite, filepath.Join(t.TempDir(), "feed.db"), "newarticles")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for i := 0; i < 12; i++ {
		slug := string(rune('a'+i)) + "-story"
		require.NoError(t, store.Put(ctx, slug, article.RawDocument{
			"title":       "Story " + slug,
			"slug":        slug,
			"publishedat": map[string]any{"seconds": float64(1749990600 + i)},
		}))
	}

	var buf bytes.Buffer
	loader := feed.NewLoader(store)
	require.NoError(t, printPages(ctx, &buf, loader, 1, "compact"))
	assert.Len(t, loader.Items(), 10)
	assert.Contains(t, buf.String(), "Story l-story", "newest first")
	assert.Contains(t, buf.String(), "More available: --cursor ")

	buf.Reset()
	loader = feed.NewLoader(store)
	require.NoError(t, printPages(ctx, &buf, loader, 3, "table"))
	assert.Len(t, loader.Items(), 12)
	assert.NotContains(t, buf.String(), "More available")
	assert.Contains(t, buf.String(), " 12. ")
}

package feed

import (
	"context"
	"fmt"

	"github.com/newsdailly/newsdailly/article"
	"github.com/newsdailly/newsdailly/docstore"
)

// DefaultSuggestions is the number of suggestions when the caller asks for
// none.
const DefaultSuggestions = 5

// minSuggestFetch is the smallest batch fetched to pick suggestions from.
const minSuggestFetch = 10

// Suggest picks up to count of the latest articles, skipping currentSlug,
// duplicates and documents that cannot be adapted.
func Suggest(ctx context.Context, store docstore.Store, currentSlug string, count int) ([]article.ArticleView, error) {
	if count <= 0 {
		count = DefaultSuggestions
	}

	docs, err := store.Page(ctx, docstore.Query{Limit: max(count*2, minSuggestFetch)})
	if err != nil {
		return nil, fmt.Errorf("failed to load suggestions: %w", err)
	}

	seen := make(map[string]struct{}, len(docs))
	picked := make([]article.ArticleView, 0, count)
	for _, doc := range docs {
		view, err := doc.View()
		if err != nil {
			continue
		}
		key := view.DedupKey()
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if currentSlug != "" && view.Slug == currentSlug {
			continue
		}
		seen[key] = struct{}{}
		picked = append(picked, view)
		if len(picked) >= count {
			break
		}
	}
	return picked, nil
}

// Package feed accumulates pages of adapted articles from a document store,
// de-duplicated and in insertion order.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/newsdailly/newsdailly/article"
	"github.com/newsdailly/newsdailly/docstore"
	"github.com/newsdailly/newsdailly/logger"
	"github.com/newsdailly/newsdailly/metrics"
)

// PageSize is the number of documents requested per page. A page of exactly
// this size is taken to mean more may follow.
const PageSize = 10

// Filter narrows a feed. The zero value is the home feed.
type Filter struct {
	Category string
}

// Label names the feed in logs and metrics.
func (f Filter) Label() string {
	if f.Category == "" {
		return "home"
	}
	return article.Kebab(f.Category)
}

// LoadError reports a failed page fetch. It stops further pagination.
type LoadError struct {
	Filter Filter
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s feed: %v", e.Filter.Label(), e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SkippedDocument records a document left out of a page because it could
// not be adapted.
type SkippedDocument struct {
	ID  string
	Key string
	Err error
}

// Page is the outcome of one LoadNextPage call.
type Page struct {
	// Items is the full accumulated list after the load.
	Items []article.ArticleView
	// Appended counts the items this load added.
	Appended int
	Skipped  []SkippedDocument
}

// Loader owns the cursor and accumulated items of one feed. Calls to
// LoadNextPage must not overlap; Trigger enforces that.
type Loader struct {
	store   docstore.Store
	log     logger.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	filter  generationFilter
	items   []article.ArticleView
	seen    map[string]struct{}
	cursor  *docstore.Cursor
	hasMore bool
	err     error
}

// generationFilter pairs the filter with a counter bumped on every reset so
// a fetch that started before a reset never lands in the new feed.
type generationFilter struct {
	Filter
	gen uint64
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load failures and skipped documents.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// WithMetrics records loads on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// NewLoader creates a loader for the home feed.
func NewLoader(store docstore.Store, opts ...Option) *Loader {
	l := &Loader{store: store, log: logger.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	l.Reset(Filter{})
	return l
}

// Reset clears items, cursor and error and switches to filter.
func (l *Loader) Reset(filter Filter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked(filter)
}

// Resume starts a fresh feed positioned after cursor, as when a client
// pages through the reader API with a cursor it was handed earlier.
func (l *Loader) Resume(filter Filter, cursor *docstore.Cursor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked(filter)
	l.cursor = cursor
}

func (l *Loader) resetLocked(filter Filter) {
	l.filter = generationFilter{Filter: filter, gen: l.filter.gen + 1}
	l.items = []article.ArticleView{}
	l.seen = make(map[string]struct{})
	l.cursor = nil
	l.hasMore = true
	l.err = nil
}

// LoadNextPage fetches up to PageSize documents after the cursor and
// appends the ones not seen before. When the feed is exhausted or has
// failed it returns the current items without fetching.
//
// A fetch error becomes a *LoadError, which also sets HasMore to false.
// Cancellation of ctx is returned as is and leaves the loader untouched.
func (l *Loader) LoadNextPage(ctx context.Context) (Page, error) {
	l.mu.RLock()
	if !l.hasMore {
		page := Page{Items: l.itemsLocked()}
		l.mu.RUnlock()
		return page, nil
	}
	filter := l.filter
	cursor := l.cursor
	l.mu.RUnlock()

	start := time.Now()
	docs, err := l.store.Page(ctx, docstore.Query{
		Category: filter.Category,
		After:    cursor,
		Limit:    PageSize,
	})
	l.observeDuration(filter.Filter, start)

	if err != nil && ctx.Err() != nil {
		return Page{Items: l.Items()}, ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.filter.gen != filter.gen {
		// Reset while the fetch was in flight.
		return Page{Items: l.itemsLocked()}, nil
	}

	if err != nil {
		loadErr := &LoadError{Filter: filter.Filter, Err: err}
		l.hasMore = false
		l.err = loadErr
		l.log.Error("Feed page load failed",
			logger.String("feed", filter.Label()),
			logger.String("category", filter.Category),
			logger.Error(err),
		)
		l.countPage(filter.Filter, metrics.OutcomeError)
		return Page{Items: l.itemsLocked()}, loadErr
	}

	page := Page{}
	for _, doc := range docs {
		view, adaptErr := doc.View()
		if adaptErr != nil {
			page.Skipped = append(page.Skipped, l.skip(doc, adaptErr))
			continue
		}

		key := view.DedupKey()
		if key == "" {
			continue
		}
		if _, dup := l.seen[key]; dup {
			if l.metrics != nil {
				l.metrics.DuplicatesDropped.Inc()
			}
			continue
		}
		l.seen[key] = struct{}{}
		l.items = append(l.items, view)
		page.Appended++
	}

	if len(docs) > 0 {
		l.cursor = docs[len(docs)-1].Cursor
	}
	l.hasMore = len(docs) == PageSize && l.cursor != nil

	outcome := metrics.OutcomeOK
	if len(docs) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	l.countPage(filter.Filter, outcome)
	l.log.Debug("Feed page loaded",
		logger.String("feed", filter.Label()),
		logger.Int("fetched", len(docs)),
		logger.Int("appended", page.Appended),
		logger.Bool("has_more", l.hasMore),
	)

	page.Items = l.itemsLocked()
	return page, nil
}

func (l *Loader) skip(doc docstore.Document, err error) SkippedDocument {
	skipped := SkippedDocument{ID: doc.ID, Err: err}
	var adaptErr *article.AdaptError
	if errors.As(err, &adaptErr) {
		skipped.Key = adaptErr.Key
	}
	l.log.Warn("Skipping malformed document",
		logger.String("doc_id", doc.ID),
		logger.String("key", skipped.Key),
		logger.Error(err),
	)
	if l.metrics != nil {
		l.metrics.DocumentsSkipped.WithLabelValues(skipped.Key).Inc()
	}
	return skipped
}

func (l *Loader) countPage(f Filter, outcome string) {
	if l.metrics != nil {
		l.metrics.PagesLoaded.WithLabelValues(f.Label(), outcome).Inc()
	}
}

func (l *Loader) observeDuration(f Filter, start time.Time) {
	if l.metrics != nil {
		l.metrics.PageLoadDuration.WithLabelValues(f.Label()).Observe(time.Since(start).Seconds())
	}
}

// Items returns a copy of the accumulated items.
func (l *Loader) Items() []article.ArticleView {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.itemsLocked()
}

func (l *Loader) itemsLocked() []article.ArticleView {
	out := make([]article.ArticleView, len(l.items))
	copy(out, l.items)
	return out
}

// HasMore reports whether another page may exist.
func (l *Loader) HasMore() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.hasMore
}

// Err returns the error that stopped the feed, if any.
func (l *Loader) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// Cursor returns the position after the last fetched document, nil before
// the first page.
func (l *Loader) Cursor() *docstore.Cursor {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cursor
}

// Filter returns the active filter.
func (l *Loader) Filter() Filter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.filter.Filter
}

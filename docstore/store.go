// Package docstore reads article documents from the configured backend in
// publication order, newest first.
package docstore

import (
	"context"
	"errors"

	"github.com/newsdailly/newsdailly/article"
)

// Custom errors for document store operations
var (
	ErrNotFound          = errors.New("document not found")
	ErrInvalidCursor     = errors.New("invalid cursor")
	ErrInvalidCollection = errors.New("collection name must be a plain identifier")
)

// Query selects one page of documents ordered by publication time
// descending. After, when set, is the cursor of the last document already
// seen; the page starts strictly after it.
type Query struct {
	Category string
	After    *Cursor
	Limit    int
}

// Document is a stored document together with its position in the sort
// order. Err is set when the stored body could not be decoded; Raw is then
// nil but Cursor is still valid, so paging continues past it.
type Document struct {
	ID     string
	Raw    article.RawDocument
	Cursor *Cursor
	Err    error
}

// View adapts the document, reporting a body that failed to decode as an
// *article.AdaptError.
func (d Document) View() (article.ArticleView, error) {
	if d.Err != nil {
		return article.ArticleView{}, d.Err
	}
	return article.Adapt(d.ID, d.Raw)
}

// Store is the read side used by feeds and article pages.
type Store interface {
	Page(ctx context.Context, q Query) ([]Document, error)
	// FindBySlug returns ErrNotFound when no document carries the slug.
	FindBySlug(ctx context.Context, slug string) (Document, error)
}

// Writer stores documents under a caller-chosen id, replacing any existing
// document with the same id.
type Writer interface {
	Put(ctx context.Context, id string, raw article.RawDocument) error
}

// Backend is a store that can also be written to, which is what the seed
// command needs.
type Backend interface {
	Store
	Writer
	Close() error
}

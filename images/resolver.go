// Package images finds the hero image for an article slug in object
// storage.
package images

import (
	"context"
	"errors"
	"strings"

	"github.com/newsdailly/newsdailly/logger"
	"github.com/newsdailly/newsdailly/metrics"
)

// ErrObjectNotFound is returned by a Bucket when no object exists at a key.
var ErrObjectNotFound = errors.New("object not found")

// Extensions are probed in this order; the first one that resolves wins.
var Extensions = []string{"webp", "jpg", "png"}

// Bucket resolves object keys to retrievable URLs.
type Bucket interface {
	DownloadURL(ctx context.Context, key string) (string, error)
}

// Resolver probes a bucket for the image of a slug.
type Resolver struct {
	bucket  Bucket
	folder  string
	log     logger.Logger
	metrics *metrics.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for probe misses.
func WithLogger(log logger.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// WithMetrics records probe outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver creates a resolver over bucket with folder as the default
// key prefix.
func NewResolver(bucket Bucket, folder string, opts ...Option) *Resolver {
	r := &Resolver{bucket: bucket, folder: folder, log: logger.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Folder returns the default key prefix.
func (r *Resolver) Folder() string {
	return r.folder
}

// Resolve looks up the image for slug in the default folder.
func (r *Resolver) Resolve(ctx context.Context, slug string) (string, bool) {
	return r.ResolveIn(ctx, r.folder, slug)
}

// ResolveIn tries {folder}/{slug}.{ext} for each extension in turn and
// returns the first URL the bucket hands back. A failed probe never stops
// the remaining ones; only cancellation of ctx does. No image is not an
// error.
func (r *Resolver) ResolveIn(ctx context.Context, folder, slug string) (string, bool) {
	if slug == "" {
		return "", false
	}

	for _, ext := range Extensions {
		if ctx.Err() != nil {
			return "", false
		}

		key := Key(folder, slug, ext)
		url, err := r.bucket.DownloadURL(ctx, key)
		if err != nil || url == "" {
			r.count(ext, metrics.OutcomeMiss)
			if err != nil && !errors.Is(err, ErrObjectNotFound) {
				r.log.Debug("Image probe failed", logger.String("key", key), logger.Error(err))
			}
			continue
		}

		r.count(ext, metrics.OutcomeHit)
		return url, true
	}

	r.log.Debug("No image for slug", logger.String("slug", slug), logger.String("folder", folder))
	return "", false
}

func (r *Resolver) count(ext, outcome string) {
	if r.metrics != nil {
		r.metrics.ImageProbes.WithLabelValues(ext, outcome).Inc()
	}
}

// Key builds the object key for a slug and extension.
func Key(folder, slug, ext string) string {
	name := slug + "." + ext
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

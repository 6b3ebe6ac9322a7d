package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/newsdailly/newsdailly/article"
)

// Default field names for dynamically mapped indexes.
const (
	DefaultSortField     = "published_key"
	DefaultFallbackField = "publishedat"
	DefaultTiebreakField = "slug.keyword"
	DefaultCategoryField = "category.keyword"
	DefaultSlugField     = "slug.keyword"
)

// SortKeyField holds the publication time as epoch milliseconds, written by
// Put from whatever encoding the document uses.
const SortKeyField = "published_key"

// ElasticConfig holds the connection settings for an Elasticsearch cluster.
type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// NewElasticClient builds a go-elasticsearch client from cfg.
func NewElasticClient(cfg ElasticConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return client, nil
}

// ElasticStore reads documents from one index, paging with search_after.
type ElasticStore struct {
	client *elasticsearch.Client
	index  string

	// SortField is the normalised epoch-ms key. Documents indexed by other
	// writers may lack it and are then ordered by FallbackField.
	SortField     string
	FallbackField string
	TiebreakField string
	CategoryField string
	SlugField     string
}

// NewElasticStore creates a store over index with the default field names.
func NewElasticStore(client *elasticsearch.Client, index string) *ElasticStore {
	return &ElasticStore{
		client:        client,
		index:         index,
		SortField:     DefaultSortField,
		FallbackField: DefaultFallbackField,
		TiebreakField: DefaultTiebreakField,
		CategoryField: DefaultCategoryField,
		SlugField:     DefaultSlugField,
	}
}

// Close is a no-op; the client holds no resources that need releasing.
func (s *ElasticStore) Close() error {
	return nil
}

type searchHit struct {
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
	Sort   []any           `json:"sort"`
}

// Page returns up to q.Limit documents after q.After, newest first.
func (s *ElasticStore) Page(ctx context.Context, q Query) ([]Document, error) {
	body := map[string]any{
		"sort":             s.sortClause(),
		"track_total_hits": false,
	}
	if q.Category != "" {
		body["query"] = map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{s.CategoryField: q.Category}},
				},
			},
		}
	}
	if q.After != nil {
		body["search_after"] = q.After.Values()
	}

	hits, err := s.search(ctx, body, q.Limit)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, hit.document())
	}
	return docs, nil
}

// FindBySlug returns the newest document whose slug matches exactly.
func (s *ElasticStore) FindBySlug(ctx context.Context, slug string) (Document, error) {
	body := map[string]any{
		"query": map[string]any{
			"term": map[string]any{s.SlugField: slug},
		},
		"sort": s.sortClause(),
	}

	hits, err := s.search(ctx, body, 1)
	if err != nil {
		return Document{}, err
	}
	if len(hits) == 0 {
		return Document{}, ErrNotFound
	}
	return hits[0].document(), nil
}

// Put indexes raw under id and refreshes so the document is immediately
// searchable. The publication time is also written to SortKeyField as
// epoch milliseconds, 0 when absent, so every timestamp encoding sorts.
func (s *ElasticStore) Put(ctx context.Context, id string, raw article.RawDocument) error {
	if id == "" {
		return errors.New("document id is required")
	}

	indexed := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		indexed[k] = v
	}
	var publishedKey int64
	if t, ok := article.PublishedTime(raw); ok {
		publishedKey = t.UnixMilli()
	}
	indexed[SortKeyField] = publishedKey

	data, err := json.Marshal(indexed)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(data),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(id),
		s.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

func (s *ElasticStore) sortClause() []map[string]any {
	return []map[string]any{
		{s.SortField: map[string]any{"order": "desc", "unmapped_type": "long"}},
		{s.FallbackField: map[string]any{"order": "desc", "unmapped_type": "date"}},
		{s.TiebreakField: map[string]any{"order": "desc", "unmapped_type": "keyword"}},
	}
}

func (s *ElasticStore) search(ctx context.Context, body map[string]any, size int) ([]searchHit, error) {
	queryJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	opts := []func(*esapi.SearchRequest){
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(queryJSON)),
	}
	if size > 0 {
		opts = append(opts, s.client.Search.WithSize(size))
	}

	res, err := s.client.Search(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		// A missing index is an empty collection.
		io.Copy(io.Discard, res.Body)
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []searchHit `json:"hits"`
		} `json:"hits"`
	}
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return esResponse.Hits.Hits, nil
}

func (h searchHit) document() Document {
	raw, err := decodeRaw(h.Source)
	var cursor *Cursor
	if len(h.Sort) > 0 {
		cursor = NewCursor(h.Sort...)
	}
	return Document{ID: h.ID, Raw: raw, Cursor: cursor, Err: err}
}

package docstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/newsdailly/newsdailly/article"
)

// Supported SQL drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLStore keeps one table per collection. The document body is stored as
// JSON next to the columns needed for filtering and ordering.
type SQLStore struct {
	db    *sqlx.DB
	table string
}

type documentRow struct {
	ID           string `db:"id"`
	Body         string `db:"body"`
	PublishedKey int64  `db:"published_key"`
}

// NewSQLStore opens dsn with driver and prepares the collection table.
func NewSQLStore(driver, dsn, collection string) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported SQL driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store, err := NewSQLStoreWithDB(db, collection)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStoreWithDB wraps an existing connection. The placeholder style
// follows db's driver name.
func NewSQLStoreWithDB(db *sqlx.DB, collection string) (*SQLStore, error) {
	if !identifierPattern.MatchString(collection) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}

	store := &SQLStore{db: db, table: collection}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates the collection table and its ordering index if they
// don't exist.
func (s *SQLStore) initSchema() error {
	statements := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			published_key BIGINT NOT NULL DEFAULT 0,
			body TEXT NOT NULL
		)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_published_idx ON %s (published_key DESC, id DESC)`, s.table, s.table),
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Put inserts or replaces the document stored under id.
func (s *SQLStore) Put(ctx context.Context, id string, raw article.RawDocument) error {
	if id == "" {
		return errors.New("document id is required")
	}

	body, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	var publishedKey int64
	if t, ok := article.PublishedTime(raw); ok {
		publishedKey = t.UnixMilli()
	}
	slug, _ := raw["slug"].(string)
	category, _ := raw["category"].(string)

	query := fmt.Sprintf(`
		INSERT INTO %s (id, slug, category, published_key, body)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			slug = excluded.slug,
			category = excluded.category,
			published_key = excluded.published_key,
			body = excluded.body
	`, s.table)

	_, err = s.db.ExecContext(ctx, s.db.Rebind(query), id, slug, category, publishedKey, string(body))
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

// Page returns up to q.Limit documents after q.After, newest first. Documents
// with equal publication time are ordered by id.
func (s *SQLStore) Page(ctx context.Context, q Query) ([]Document, error) {
	query := fmt.Sprintf("SELECT id, body, published_key FROM %s", s.table)
	var conditions []string
	var args []any

	if q.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, q.Category)
	}
	if q.After != nil {
		key, id, err := q.After.keyset()
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, "(published_key < ? OR (published_key = ? AND id < ?))")
		args = append(args, key, key, id)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY published_key DESC, id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.document())
	}
	return docs, nil
}

// FindBySlug returns the newest document carrying slug.
func (s *SQLStore) FindBySlug(ctx context.Context, slug string) (Document, error) {
	query := fmt.Sprintf(`
		SELECT id, body, published_key FROM %s
		WHERE slug = ?
		ORDER BY published_key DESC, id DESC
		LIMIT 1
	`, s.table)

	var row documentRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(query), slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("failed to get document: %w", err)
	}
	return row.document(), nil
}

func (r documentRow) document() Document {
	raw, err := decodeRaw([]byte(r.Body))
	return Document{
		ID:     r.ID,
		Raw:    raw,
		Cursor: NewCursor(r.PublishedKey, r.ID),
		Err:    err,
	}
}

// decodeRaw keeps numbers as json.Number so epoch timestamps survive intact.
// A body that is not a JSON object is an *article.AdaptError on "body".
func decodeRaw(data []byte) (article.RawDocument, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &article.AdaptError{Key: "body", Reason: "is not a JSON object: " + err.Error()}
	}
	if raw == nil {
		return nil, &article.AdaptError{Key: "body", Reason: "is null"}
	}
	return article.RawDocument(raw), nil
}

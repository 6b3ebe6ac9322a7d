package docstore

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdailly/newsdailly/article"
)

// Test helper: create a sqlite-backed store in a temp dir
func createTestSQLStore(t *testing.T) *SQLStore {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLStore(DriverSQLite, dbPath, "newarticles")
	require.NoError(t, err, "should create document store")
	t.Cleanup(func() { store.Close() })
	return store
}

// Test helper: store n documents published one minute apart, newest first
func seedDocuments(t *testing.T, store *SQLStore, n int, category string) {
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		raw := article.RawDocument{
			"title":       fmt.Sprintf("Story %d", i),
			"slug":        fmt.Sprintf("story-%02d", i),
			"category":    category,
			"publishedat": base.Add(-time.Duration(i) * time.Minute).UnixMilli(),
		}
		require.NoError(t, store.Put(context.Background(), fmt.Sprintf("%s-%02d", category, i), raw))
	}
}

func slugsOf(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i], _ = d.Raw["slug"].(string)
	}
	return out
}

// TestNewSQLStore_RejectsBadCollection verifies table names are validated
func TestNewSQLStore_RejectsBadCollection(t *testing.T) {
	_, err := NewSQLStore(DriverSQLite, filepath.Join(t.TempDir(), "x.db"), "news; DROP TABLE x")
	assert.ErrorIs(t, err, ErrInvalidCollection)

	_, err = NewSQLStore("mysql", "dsn", "newarticles")
	assert.Error(t, err)
}

// TestSQLStore_PagesNewestFirst verifies keyset pagination across pages
func TestSQLStore_PagesNewestFirst(t *testing.T) {
	store := createTestSQLStore(t)
	seedDocuments(t, store, 14, article.ScamAlerts)
	ctx := context.Background()

	first, err := store.Page(ctx, Query{Limit: 10})
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, "story-00", slugsOf(first)[0])
	assert.Equal(t, "story-09", slugsOf(first)[9])

	second, err := store.Page(ctx, Query{Limit: 10, After: first[9].Cursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"story-10", "story-11", "story-12", "story-13"}, slugsOf(second))

	third, err := store.Page(ctx, Query{Limit: 10, After: second[3].Cursor})
	require.NoError(t, err)
	assert.Empty(t, third)
}

// TestSQLStore_CursorRoundTrip verifies an encoded cursor resumes the feed
func TestSQLStore_CursorRoundTrip(t *testing.T) {
	store := createTestSQLStore(t)
	seedDocuments(t, store, 3, article.FreshHitters)
	ctx := context.Background()

	first, err := store.Page(ctx, Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, first, 1)

	cursor, err := ParseCursor(first[0].Cursor.String())
	require.NoError(t, err)

	rest, err := store.Page(ctx, Query{Limit: 10, After: cursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"story-01", "story-02"}, slugsOf(rest))
}

// TestSQLStore_FiltersByCategory verifies the category equality filter
func TestSQLStore_FiltersByCategory(t *testing.T) {
	store := createTestSQLStore(t)
	seedDocuments(t, store, 3, article.ScamAlerts)
	seedDocuments(t, store, 2, article.AirdropAlerts)

	docs, err := store.Page(context.Background(), Query{Category: article.AirdropAlerts, Limit: 10})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, d := range docs {
		assert.Equal(t, article.AirdropAlerts, d.Raw["category"])
	}
}

// TestSQLStore_TiesOrderedByID verifies equal timestamps page without gaps
func TestSQLStore_TiesOrderedByID(t *testing.T) {
	store := createTestSQLStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Put(ctx, id, article.RawDocument{"slug": id, "publishedat": int64(1000)}))
	}

	first, err := store.Page(ctx, Query{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, slugsOf(first))

	rest, err := store.Page(ctx, Query{Limit: 2, After: first[1].Cursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, slugsOf(rest))
}

// TestSQLStore_PutReplaces verifies a second put under the same id overwrites
func TestSQLStore_PutReplaces(t *testing.T) {
	store := createTestSQLStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "doc-1", article.RawDocument{"slug": "old"}))
	require.NoError(t, store.Put(ctx, "doc-1", article.RawDocument{"slug": "new", "title": "Updated"}))

	docs, err := store.Page(ctx, Query{Limit: 10})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Updated", docs[0].Raw["title"])

	_, err = store.FindBySlug(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestSQLStore_FindBySlug verifies slug lookup and the not-found sentinel
func TestSQLStore_FindBySlug(t *testing.T) {
	store := createTestSQLStore(t)
	seedDocuments(t, store, 2, article.ScamAlerts)
	ctx := context.Background()

	doc, err := store.FindBySlug(ctx, "story-01")
	require.NoError(t, err)
	assert.Equal(t, "Scam Alerts-01", doc.ID)
	assert.Equal(t, "Story 1", doc.Raw["title"])

	_, err = store.FindBySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestSQLStore_PreservesTimestampEncoding verifies stored bodies still adapt
func TestSQLStore_PreservesTimestampEncoding(t *testing.T) {
	store := createTestSQLStore(t)
	ctx := context.Background()
	raw := article.RawDocument{
		"slug":        "ts",
		"publishedat": map[string]any{"seconds": int64(1718445600), "nanoseconds": 0},
	}
	require.NoError(t, store.Put(ctx, "ts", raw))

	doc, err := store.FindBySlug(ctx, "ts")
	require.NoError(t, err)

	view, err := article.Adapt(doc.ID, doc.Raw)
	require.NoError(t, err)
	require.NotNil(t, view.PublishedAt)
	assert.Equal(t, int64(1718445600), view.PublishedAt.Unix())
	assert.Equal(t, []any{int64(1718445600000), "ts"}, doc.Cursor.Values())
}

// TestSQLStore_PostgresPlaceholders verifies queries are rebound for lib/pq
func TestSQLStore_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS newarticles")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS newarticles_published_idx")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewSQLStoreWithDB(sqlx.NewDb(db, "postgres"), "newarticles")
	require.NoError(t, err)

	query := "SELECT id, body, published_key FROM newarticles WHERE category = $1 AND " +
		"(published_key < $2 OR (published_key = $3 AND id < $4)) ORDER BY published_key DESC, id DESC LIMIT $5"
	rows := sqlmock.NewRows([]string{"id", "body", "published_key"}).
		AddRow("doc-a", `{"slug":"a","category":"Scam Alerts"}`, int64(900))
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("Scam Alerts", int64(1000), int64(1000), "doc-b", 10).
		WillReturnRows(rows)

	docs, err := store.Page(context.Background(), Query{
		Category: "Scam Alerts",
		After:    NewCursor(int64(1000), "doc-b"),
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-a", docs[0].ID)
	assert.Equal(t, "a", docs[0].Raw["slug"])

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO newarticles")).
		WithArgs("doc-c", "c", "", int64(0), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.Put(context.Background(), "doc-c", article.RawDocument{"slug": "c"}))

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestSQLStore_QueryError verifies driver failures are wrapped
func TestSQLStore_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := NewSQLStoreWithDB(sqlx.NewDb(db, "postgres"), "newarticles")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, body").WillReturnError(fmt.Errorf("connection reset"))
	_, err = store.Page(context.Background(), Query{Limit: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

// TestSQLStore_MalformedBody verifies a row whose body is not a JSON object
// comes back with its error and a usable cursor instead of failing the page
func TestSQLStore_MalformedBody(t *testing.T) {
	store := createTestSQLStore(t)
	seedDocuments(t, store, 3, article.ScamAlerts)

	_, err := store.db.Exec(
		`INSERT INTO newarticles (id, slug, category, published_key, body) VALUES (?, ?, ?, ?, ?)`,
		"bad", "bad", article.ScamAlerts, time.Date(2025, 6, 15, 11, 59, 30, 0, time.UTC).UnixMilli(), `["not","an","object"]`,
	)
	require.NoError(t, err)

	docs, err := store.Page(context.Background(), Query{Limit: 10})
	require.NoError(t, err)
	require.Len(t, docs, 4)

	bad := docs[1]
	assert.Equal(t, "bad", bad.ID)
	assert.Nil(t, bad.Raw)
	var adaptErr *article.AdaptError
	require.ErrorAs(t, bad.Err, &adaptErr)
	assert.Equal(t, "body", adaptErr.Key)
	require.NotNil(t, bad.Cursor)

	next, err := store.Page(context.Background(), Query{After: bad.Cursor, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"story-01", "story-02"}, slugsOf(next))

	doc, err := store.FindBySlug(context.Background(), "bad")
	require.NoError(t, err)
	_, err = doc.View()
	assert.ErrorIs(t, err, article.ErrMalformed)
}

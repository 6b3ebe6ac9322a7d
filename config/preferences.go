package config

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// ErrPreferenceNotFound is returned when a preference has never been set.
var ErrPreferenceNotFound = errors.New("preference not found")

// PreferenceStore keeps user preferences in SQLite as key/value pairs.
type PreferenceStore struct {
	db *sql.DB
}

// NewPreferenceStore opens the preference database at dbPath, creating its
// directory and schema when needed.
func NewPreferenceStore(dbPath string) (*PreferenceStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create preference directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &PreferenceStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (p *PreferenceStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := p.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (p *PreferenceStore) Close() error {
	return p.db.Close()
}

// Get returns the value stored under key, or ErrPreferenceNotFound.
func (p *PreferenceStore) Get(key string) (string, error) {
	var value string
	err := p.db.QueryRow("SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrPreferenceNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query preference %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (p *PreferenceStore) Set(key, value string) error {
	_, err := p.db.Exec("INSERT OR REPLACE INTO preferences (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("failed to update preference %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (p *PreferenceStore) Delete(key string) error {
	if _, err := p.db.Exec("DELETE FROM preferences WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete preference %q: %w", key, err)
	}
	return nil
}

// All returns every stored preference.
func (p *PreferenceStore) All() (map[string]string, error) {
	rows, err := p.db.Query("SELECT key, value FROM preferences ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}

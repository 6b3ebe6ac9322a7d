package images

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DirBucket keeps objects as files under a local directory and hands out
// URLs under a public prefix, typically served by the reader API.
type DirBucket struct {
	root    string
	baseURL string
}

// NewDirBucket creates the storage directory if it doesn't exist.
func NewDirBucket(root, baseURL string) (*DirBucket, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &DirBucket{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Root returns the storage directory.
func (b *DirBucket) Root() string {
	return b.root
}

// DownloadURL returns the public URL for key if the file exists.
func (b *DirBucket) DownloadURL(_ context.Context, key string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(filepath.Join(b.root, filepath.FromSlash(clean)))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrObjectNotFound
		}
		return "", fmt.Errorf("failed to stat image: %w", err)
	}
	if info.IsDir() {
		return "", ErrObjectNotFound
	}

	segments := strings.Split(clean, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return b.baseURL + "/" + strings.Join(segments, "/"), nil
}

// Put writes data at key, creating parent directories as needed.
func (b *DirBucket) Put(key string, data []byte) error {
	clean, err := cleanKey(key)
	if err != nil {
		return err
	}

	filename := filepath.Join(b.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create image folder: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

// cleanKey rejects keys that would escape the storage directory.
func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return clean, nil
}

package images

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// URLStyle selects how object keys map onto URLs.
type URLStyle string

const (
	// StylePath appends the key to the base URL as a path.
	StylePath URLStyle = "path"
	// StyleFirebase uses the Firebase Storage REST form
	// {base}/o/{escaped key}?alt=media.
	StyleFirebase URLStyle = "firebase"
)

const defaultProbeTimeout = 10 * time.Second

// HTTPBucket probes a public object store with HEAD requests.
type HTTPBucket struct {
	base   string
	style  URLStyle
	client *http.Client
}

// NewHTTPBucket creates a bucket rooted at baseURL. A nil client gets a
// default with a short timeout.
func NewHTTPBucket(baseURL string, style URLStyle, client *http.Client) (*HTTPBucket, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid image base URL %q", baseURL)
	}
	switch style {
	case "":
		style = StylePath
	case StylePath, StyleFirebase:
	default:
		return nil, fmt.Errorf("unknown image URL style %q", style)
	}
	if client == nil {
		client = &http.Client{Timeout: defaultProbeTimeout}
	}

	return &HTTPBucket{
		base:   strings.TrimRight(baseURL, "/"),
		style:  style,
		client: client,
	}, nil
}

// URL returns the public URL for key without checking that it exists.
func (b *HTTPBucket) URL(key string) string {
	if b.style == StyleFirebase {
		return b.base + "/o/" + url.PathEscape(key) + "?alt=media"
	}
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return b.base + "/" + strings.Join(segments, "/")
}

// DownloadURL returns the URL for key when a HEAD request for it succeeds.
func (b *HTTPBucket) DownloadURL(ctx context.Context, key string) (string, error) {
	target := b.URL(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to probe %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return target, nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusForbidden:
		return "", ErrObjectNotFound
	default:
		return "", fmt.Errorf("unexpected status probing %s: %d", key, resp.StatusCode)
	}
}

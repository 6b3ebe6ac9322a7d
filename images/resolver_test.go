package images

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdailly/newsdailly/metrics"
)

// fakeBucket answers from a fixed key set and records every probe.
type fakeBucket struct {
	mu     sync.Mutex
	found  map[string]bool
	errs   map[string]error
	probes []string
}

func (b *fakeBucket) DownloadURL(_ context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probes = append(b.probes, key)
	if err := b.errs[key]; err != nil {
		return "", err
	}
	if b.found[key] {
		return "https://cdn.example/" + key, nil
	}
	return "", ErrObjectNotFound
}

// TestResolver_FirstExtensionWins verifies probing stops at the first hit
func TestResolver_FirstExtensionWins(t *testing.T) {
	bucket := &fakeBucket{found: map[string]bool{
		"newimages/btc-halving.jpg": true,
		"newimages/btc-halving.png": true,
	}}
	r := NewResolver(bucket, "newimages")

	url, ok := r.Resolve(context.Background(), "btc-halving")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example/newimages/btc-halving.jpg", url)
	assert.Equal(t, []string{"newimages/btc-halving.webp", "newimages/btc-halving.jpg"}, bucket.probes)
}

// TestResolver_NothingFound verifies a missing image is not an error
func TestResolver_NothingFound(t *testing.T) {
	bucket := &fakeBucket{}
	m := metrics.New()
	r := NewResolver(bucket, "newimages", WithMetrics(m))

	url, ok := r.Resolve(context.Background(), "ghost")
	assert.False(t, ok)
	assert.Empty(t, url)
	assert.Len(t, bucket.probes, 3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImageProbes.WithLabelValues("png", metrics.OutcomeMiss)))
}

// TestResolver_ProbeErrorsDoNotAbort verifies one failing probe leaves the rest running
func TestResolver_ProbeErrorsDoNotAbort(t *testing.T) {
	bucket := &fakeBucket{
		errs:  map[string]error{"imgs/a.webp": errors.New("connection reset")},
		found: map[string]bool{"imgs/a.png": true},
	}
	r := NewResolver(bucket, "newimages")

	url, ok := r.ResolveIn(context.Background(), "imgs", "a")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example/imgs/a.png", url)
	assert.Len(t, bucket.probes, 3)
}

// TestResolver_Cancelled verifies cancellation stops further probes
func TestResolver_Cancelled(t *testing.T) {
	bucket := &fakeBucket{found: map[string]bool{"newimages/a.webp": true}}
	r := NewResolver(bucket, "newimages")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := r.Resolve(ctx, "a")
	assert.False(t, ok)
	assert.Empty(t, bucket.probes)
}

// TestResolver_EmptySlug verifies nothing is probed without a slug
func TestResolver_EmptySlug(t *testing.T) {
	bucket := &fakeBucket{}
	_, ok := NewResolver(bucket, "newimages").Resolve(context.Background(), "")
	assert.False(t, ok)
	assert.Empty(t, bucket.probes)
}

// TestKey verifies object key construction
func TestKey(t *testing.T) {
	assert.Equal(t, "newimages/a.webp", Key("newimages", "a", "webp"))
	assert.Equal(t, "newimages/a.webp", Key("/newimages/", "a", "webp"))
	assert.Equal(t, "a.png", Key("", "a", "png"))
}

// TestHTTPBucket_ProbesWithHead verifies HEAD probing and status mapping
func TestHTTPBucket_ProbesWithHead(t *testing.T) {
	var methods []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method)
		mu.Unlock()
		switch r.URL.Path {
		case "/newimages/a.jpg":
			w.WriteHeader(http.StatusOK)
		case "/newimages/broken.webp":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	bucket, err := NewHTTPBucket(server.URL+"/", StylePath, nil)
	require.NoError(t, err)

	url, err := bucket.DownloadURL(context.Background(), "newimages/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/newimages/a.jpg", url)

	_, err = bucket.DownloadURL(context.Background(), "newimages/a.webp")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = bucket.DownloadURL(context.Background(), "newimages/broken.webp")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectNotFound)

	resolved, ok := NewResolver(bucket, "newimages").Resolve(context.Background(), "a")
	require.True(t, ok)
	assert.Equal(t, server.URL+"/newimages/a.jpg", resolved)

	mu.Lock()
	defer mu.Unlock()
	for _, m := range methods {
		assert.Equal(t, http.MethodHead, m)
	}
}

// TestHTTPBucket_FirebaseStyle verifies keys are escaped into one segment
func TestHTTPBucket_FirebaseStyle(t *testing.T) {
	bucket, err := NewHTTPBucket("https://firebasestorage.googleapis.com/v0/b/demo.appspot.com", StyleFirebase, nil)
	require.NoError(t, err)

	assert.Equal(t,
		"https://firebasestorage.googleapis.com/v0/b/demo.appspot.com/o/newimages%2Fa%20b.webp?alt=media",
		bucket.URL("newimages/a b.webp"))
}

// TestNewHTTPBucket_Validation verifies bad configuration is rejected
func TestNewHTTPBucket_Validation(t *testing.T) {
	_, err := NewHTTPBucket("not a url", StylePath, nil)
	assert.Error(t, err)
	_, err = NewHTTPBucket("https://cdn.example", "s3", nil)
	assert.Error(t, err)
}

// TestDirBucket verifies local storage writes and lookups
func TestDirBucket(t *testing.T) {
	root := filepath.Join(t.TempDir(), "images")
	bucket, err := NewDirBucket(root, "/images")
	require.NoError(t, err)

	require.NoError(t, bucket.Put("newimages/eth-etf.webp", []byte("RIFF")))

	data, err := os.ReadFile(filepath.Join(root, "newimages", "eth-etf.webp"))
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))

	url, ok := NewResolver(bucket, "newimages").Resolve(context.Background(), "eth-etf")
	require.True(t, ok)
	assert.Equal(t, "/images/newimages/eth-etf.webp", url)

	_, err = bucket.DownloadURL(context.Background(), "newimages/missing.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = bucket.DownloadURL(context.Background(), "newimages")
	assert.ErrorIs(t, err, ErrObjectNotFound, "directories are not objects")
}

// TestDirBucket_RejectsTraversal verifies keys cannot escape the root
func TestDirBucket_RejectsTraversal(t *testing.T) {
	bucket, err := NewDirBucket(t.TempDir(), "/images")
	require.NoError(t, err)

	for _, key := range []string{"../secret.png", "newimages/../../x.png", "", `a\b.png`} {
		assert.Error(t, bucket.Put(key, []byte("x")), "key %q", key)
		_, err := bucket.DownloadURL(context.Background(), key)
		assert.Error(t, err, "key %q", key)
	}
}

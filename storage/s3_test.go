package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Store_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3Store(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3Store(&S3Config{AccessKey: "k", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		_, err := NewS3Store(&S3Config{Bucket: "b", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		_, err := NewS3Store(&S3Config{Bucket: "b", AccessKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("valid config creates store", func(t *testing.T) {
		s, err := NewS3Store(&S3Config{Bucket: "recipes", AccessKey: "k", SecretKey: "s", Endpoint: "localhost:9000", URLPrefix: "/blobs"})
		require.NoError(t, err)
		assert.Equal(t, "recipes", s.Bucket())
		assert.Equal(t, "/blobs/a.png", s.URL("a.png"))
	})
}

// fakeS3 serves the path-style subset of the S3 API the store uses.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string]fakeObject
}

type fakeObject struct {
	body        []byte
	contentType string
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	f := &fakeS3{buckets: map[string]bool{}, objects: map[string]fakeObject{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case key == "" && r.Method == http.MethodHead:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	case key == "" && r.Method == http.MethodPut:
		f.buckets[bucket] = true
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[bucket+"/"+key] = fakeObject{body: body, contentType: r.Header.Get("Content-Type")}
		w.Header().Set("ETag", `"etag"`)
	case r.Method == http.MethodGet:
		obj, ok := f.objects[bucket+"/"+key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", obj.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.body)))
		_, _ = w.Write(obj.body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3Store(t *testing.T, endpoint string) *S3Store {
	t.Helper()
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")
	s, err := NewS3Store(&S3Config{
		Bucket:       "recipes",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     endpoint,
		UsePathStyle: true,
		URLPrefix:    "/blobs",
	})
	require.NoError(t, err)
	return s
}

func TestS3Store_EnsureBucketCreatesOnce(t *testing.T) {
	fake, srv := newFakeS3(t)
	s := newTestS3Store(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, s.EnsureBucket(ctx))
	assert.True(t, fake.buckets["recipes"])
	require.NoError(t, s.EnsureBucket(ctx))
}

func TestS3Store_PutOpen(t *testing.T) {
	fake, srv := newFakeS3(t)
	s := newTestS3Store(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "pie.png", io.LimitReader(strings.NewReader("crust"), 5), -1, "image/png"))
	assert.Equal(t, "crust", string(fake.objects["recipes/pie.png"].body))

	rc, obj, err := s.Open(ctx, "pie.png")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "crust", string(body))
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, int64(5), obj.Size)

	_, _, err = s.Open(ctx, "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Put(ctx, "../x", strings.NewReader(""), 0, ""), ErrInvalidKey)
}

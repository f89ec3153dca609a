package source

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/childcare-availability/internal/ingest"
	"github.com/couchcryptid/childcare-availability/internal/observability"
)

const testCSV = "NO,名称,緯度,経度\n1,A,34,137\n"

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient() *HTTPClient {
	return NewHTTPClient(5*time.Second, testMetrics(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHTTPClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "no-store", r.Header.Get("Cache-Control"))
		_, _ = io.WriteString(w, testCSV)
	}))
	defer srv.Close()

	b, err := testClient().Fetch(context.Background(), srv.URL+"/facilities.csv")
	require.NoError(t, err)
	assert.Equal(t, testCSV, string(b))
}

func TestHTTPClient_Fetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "maintenance")
	}))
	defer srv.Close()

	_, err := testClient().Fetch(context.Background(), srv.URL)

	var ff *ingest.FetchFailure
	require.ErrorAs(t, err, &ff)
	assert.Equal(t, http.StatusServiceUnavailable, ff.StatusCode)
	assert.Equal(t, srv.URL, ff.URI)
	assert.Contains(t, err.Error(), "maintenance")
}

func TestHTTPClient_Fetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := testClient().Fetch(context.Background(), url)

	var ff *ingest.FetchFailure
	require.ErrorAs(t, err, &ff)
	assert.Zero(t, ff.StatusCode)
}

func TestHTTPClient_Fetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, testCSV)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient().Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facilities.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0o600))

	f := NewFileFetcher(testMetrics())

	t.Run("bare path", func(t *testing.T) {
		b, err := f.Fetch(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, testCSV, string(b))
	})

	t.Run("file uri", func(t *testing.T) {
		b, err := f.Fetch(context.Background(), "file://"+path)
		require.NoError(t, err)
		assert.Equal(t, testCSV, string(b))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), filepath.Join(dir, "nope.csv"))
		var ff *ingest.FetchFailure
		require.ErrorAs(t, err, &ff)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

type recordingFetcher struct {
	uris []string
}

func (r *recordingFetcher) Fetch(_ context.Context, uri string) ([]byte, error) {
	r.uris = append(r.uris, uri)
	return nil, nil
}

func TestRouter_DispatchesByScheme(t *testing.T) {
	h, f := &recordingFetcher{}, &recordingFetcher{}
	r := NewRouter(h, f)

	for _, uri := range []string{"https://example.jp/a.csv", "HTTP://example.jp/b.csv", "file:///tmp/c.csv", "testdata/d.csv"} {
		_, err := r.Fetch(context.Background(), uri)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"https://example.jp/a.csv", "HTTP://example.jp/b.csv"}, h.uris)
	assert.Equal(t, []string{"file:///tmp/c.csv", "testdata/d.csv"}, f.uris)
}

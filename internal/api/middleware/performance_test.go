package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveOptimized(body string, status int, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	h := ResponseOptimization(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestResponseOptimization_CachePolicy(t *testing.T) {
	assert.Equal(t, "public, max-age=3600", cachePolicy("/api/station"))
	assert.Equal(t, "public, max-age=60, must-revalidate", cachePolicy("/api/lots"))
	assert.Equal(t, "public, max-age=60, must-revalidate", cachePolicy("/api/lots/3/price"))
	assert.Equal(t, "private, no-cache, must-revalidate", cachePolicy("/api/lotsx"))
	assert.Equal(t, "private, no-cache, must-revalidate", cachePolicy("/health"))
}

func TestResponseOptimization_ETagIgnoresEncoding(t *testing.T) {
	body := strings.Repeat("駐車場", 200)

	plain := serveOptimized(body, http.StatusOK, http.MethodGet, "/api/lots", nil)
	zipped := serveOptimized(body, http.StatusOK, http.MethodGet, "/api/lots", map[string]string{"Accept-Encoding": "gzip, deflate"})

	require.NotEmpty(t, plain.Header().Get("ETag"))
	assert.Equal(t, plain.Header().Get("ETag"), zipped.Header().Get("ETag"))
	assert.Empty(t, plain.Header().Get("Content-Encoding"))
	assert.Equal(t, body, plain.Body.String())

	require.Equal(t, "gzip", zipped.Header().Get("Content-Encoding"))
	gz, err := gzip.NewReader(zipped.Body)
	require.NoError(t, err)
	got, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestResponseOptimization_NotModified(t *testing.T) {
	first := serveOptimized(`{"ok":true}`, http.StatusOK, http.MethodGet, "/api/station", nil)
	etag := first.Header().Get("ETag")

	again := serveOptimized(`{"ok":true}`, http.StatusOK, http.MethodGet, "/api/station",
		map[string]string{"If-None-Match": `"other", W/` + etag})
	assert.Equal(t, http.StatusNotModified, again.Code)
	assert.Empty(t, again.Body.String())
}

func TestResponseOptimization_SkipsSmallErrorAndPost(t *testing.T) {
	small := serveOptimized(`{"ok":true}`, http.StatusOK, http.MethodGet, "/api/lots", map[string]string{"Accept-Encoding": "gzip"})
	assert.Empty(t, small.Header().Get("Content-Encoding"))

	missing := serveOptimized(`{"error":"parking lot not found"}`, http.StatusNotFound, http.MethodGet, "/api/lots/9", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Empty(t, missing.Header().Get("ETag"))

	posted := serveOptimized(`{"status":"received"}`, http.StatusCreated, http.MethodPost, "/api/feedback", nil)
	assert.Equal(t, http.StatusCreated, posted.Code)
	assert.Empty(t, posted.Header().Get("ETag"))
}

func TestAcceptsGzip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, acceptsGzip(req))

	req.Header.Set("Accept-Encoding", "br, GZIP;q=0.8")
	assert.True(t, acceptsGzip(req))

	req.Header.Set("Accept-Encoding", "gzip;q=0")
	assert.False(t, acceptsGzip(req))
}

package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/cache"
)

func TestCacheMiddleware_TTL(t *testing.T) {
	m := NewCacheMiddleware(nil, nil)

	ttl := func(path string) time.Duration {
		d, _ := m.ttl(path)
		return d
	}
	assert.Equal(t, time.Minute, ttl("/api/lots"))
	assert.Equal(t, 3*time.Minute, ttl("/api/lots/suggest"))
	assert.Equal(t, 5*time.Minute, ttl("/api/lots/12/price"))

	_, ok := m.ttl("/api/feedback/link")
	assert.False(t, ok)
	_, ok = m.ttl("/api/lotsx")
	assert.False(t, ok)
}

func TestCacheMiddleware_CustomRules(t *testing.T) {
	m := NewCacheMiddleware(nil, nil, CacheRule{Path: "/api/", TTL: time.Second}, CacheRule{Path: "/api/station", TTL: 0})

	_, ok := m.ttl("/api/station")
	assert.False(t, ok)
	d, ok := m.ttl("/api/lots")
	assert.True(t, ok)
	assert.Equal(t, time.Second, d)
}

func TestCacheKey_IgnoresQueryOrder(t *testing.T) {
	a := httptest.NewRequest(http.MethodGet, "/api/lots?sort=daily&day=weekend", nil)
	b := httptest.NewRequest(http.MethodGet, "/api/lots?day=weekend&sort=daily", nil)
	c := httptest.NewRequest(http.MethodGet, "/api/lots?sort=hourly", nil)

	assert.Equal(t, cacheKey(a), cacheKey(b))
	assert.NotEqual(t, cacheKey(a), cacheKey(c))
}

func TestCacheMiddleware_PassThroughWithoutCache(t *testing.T) {
	m := NewCacheMiddleware(nil, nil)
	calls := 0
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/lots", nil))
		assert.Empty(t, w.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
}

func TestCacheMiddleware_HitAfterMiss(t *testing.T) {
	m := NewCacheMiddleware(cache.NewMemoryAdapter(), nil)
	calls := 0
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path == "/api/lots/9" {
			http.Error(w, `{"error":"parking lot not found"}`, http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"lots":[]}`)
	}))

	serve := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w
	}

	first := serve("/api/lots?sort=hourly")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := serve("/api/lots?sort=hourly")
	require.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, `{"lots":[]}`, second.Body.String())
	assert.Equal(t, 1, calls)

	serve("/api/lots/9")
	assert.Equal(t, "MISS", serve("/api/lots/9").Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}

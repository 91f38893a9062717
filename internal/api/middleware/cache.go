package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/providers"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/observability"
)

const responseCachePrefix = "http:cache:"

// CacheRule keeps GET responses for Path for TTL. A Path ending in "/"
// covers everything below it.
type CacheRule struct {
	Path string
	TTL  time.Duration
}

func (c CacheRule) matches(path string) bool {
	if strings.HasSuffix(c.Path, "/") {
		return strings.HasPrefix(path, c.Path)
	}
	return path == c.Path
}

// DefaultCacheRules covers the lot list, suggestions, per-lot reads and the
// station.
func DefaultCacheRules() []CacheRule {
	return []CacheRule{
		{Path: "/api/lots", TTL: time.Minute},
		{Path: "/api/lots/suggest", TTL: 3 * time.Minute},
		{Path: "/api/lots/", TTL: 5 * time.Minute},
		{Path: "/api/station", TTL: time.Hour},
	}
}

// CacheMiddleware serves repeated GETs from a CacheProvider
type CacheMiddleware struct {
	cache   providers.CacheProvider
	rules   []CacheRule
	metrics *observability.Metrics
}

// NewCacheMiddleware builds a response cache. Without rules it uses
// DefaultCacheRules.
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics, rules ...CacheRule) *CacheMiddleware {
	if len(rules) == 0 {
		rules = DefaultCacheRules()
	}
	sorted := append([]CacheRule(nil), rules...)
	// Longer paths are more specific.
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i].Path) > len(sorted[j].Path) })

	return &CacheMiddleware{cache: cache, rules: sorted, metrics: metrics}
}

// ttl returns how long responses for path are kept, or false if they are not
func (m *CacheMiddleware) ttl(path string) (time.Duration, bool) {
	for _, rule := range m.rules {
		if rule.matches(path) {
			return rule.TTL, rule.TTL > 0
		}
	}
	return 0, false
}

// cacheKey hashes the path and query. Query keys are sorted by Encode, so
// parameter order does not matter.
func cacheKey(r *http.Request) string {
	sum := sha256.Sum256([]byte(r.URL.Path + "?" + r.URL.Query().Encode()))
	return responseCachePrefix + hex.EncodeToString(sum[:])
}

// Middleware returns the caching handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.cache == nil || r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		ttl, ok := m.ttl(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := cacheKey(r)

		if body, err := m.cache.Get(ctx, key); err == nil {
			observability.RecordCacheHit(ctx, m.metrics, "http")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(body)
			return
		}
		observability.RecordCacheMiss(ctx, m.metrics, "http")
		w.Header().Set("X-Cache", "MISS")

		rec := &statusRecorder{ResponseWriter: w, capture: &bytes.Buffer{}}
		next.ServeHTTP(rec, r)

		if rec.Status() != http.StatusOK || rec.capture.Len() == 0 {
			return
		}
		seconds := int(ttl / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		if err := m.cache.Set(ctx, key, rec.capture.Bytes(), seconds); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("path", r.URL.Path).Msg("response not cached")
		}
	})
}

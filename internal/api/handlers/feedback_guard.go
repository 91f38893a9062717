package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/providers"
)

// counterStore keeps expiring counters for feedback throttling. Counters are
// keyed by client and by report fingerprint.
type counterStore interface {
	// bump increments key and returns the new count and the time left in
	// the window. A counter that already reached limit is left unchanged.
	bump(ctx context.Context, key string, limit int, window time.Duration) (int, time.Duration)
	// drop removes key
	drop(ctx context.Context, key string)
}

// feedbackGuard applies the per-client rate limit and the duplicate filter.
type feedbackGuard struct {
	store  counterStore
	limit  int
	window time.Duration
	dedupe time.Duration
}

func newFeedbackGuard(cache providers.CacheProvider) *feedbackGuard {
	var store counterStore = newProcessCounters()
	if cache != nil {
		store = cacheCounters{cache: cache}
	}
	return &feedbackGuard{
		store:  store,
		limit:  feedbackRateLimit,
		window: feedbackRateWindow,
		dedupe: feedbackDedupWindow,
	}
}

// admit reports whether ip may submit another report, and if not, how long
// until it may.
func (g *feedbackGuard) admit(ctx context.Context, ip string) (bool, time.Duration) {
	n, left := g.store.bump(ctx, "feedback:rate:"+ip, g.limit+1, g.window)
	return n <= g.limit, left
}

// repeated reports whether the same report was already accepted in the
// dedupe window. The first call for a fingerprint records it.
func (g *feedbackGuard) repeated(ctx context.Context, fingerprint string) bool {
	n, _ := g.store.bump(ctx, dupKey(fingerprint), 2, g.dedupe)
	return n > 1
}

// release forgets a fingerprint recorded by repeated, so a report that could
// not be stored can be sent again.
func (g *feedbackGuard) release(ctx context.Context, fingerprint string) {
	g.store.drop(ctx, dupKey(fingerprint))
}

func dupKey(fingerprint string) string { return "feedback:dup:" + fingerprint }

// cacheCounters shares counters between replicas through the cache.
type cacheCounters struct {
	cache providers.CacheProvider
}

type counterEntry struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}

func (c cacheCounters) bump(ctx context.Context, key string, limit int, window time.Duration) (int, time.Duration) {
	now := time.Now()
	entry := counterEntry{ResetAt: now.Add(window)}
	if data, err := c.cache.Get(ctx, key); err == nil {
		var stored counterEntry
		if json.Unmarshal(data, &stored) == nil && stored.ResetAt.After(now) {
			entry = stored
		}
	}

	if entry.Count < limit {
		entry.Count++
		ttl := int(entry.ResetAt.Sub(now).Seconds())
		if ttl < 1 {
			ttl = 1
		}
		if data, err := json.Marshal(entry); err == nil {
			_ = c.cache.Set(ctx, key, data, ttl)
		}
	}
	return entry.Count, entry.ResetAt.Sub(now)
}

func (c cacheCounters) drop(ctx context.Context, key string) {
	_ = c.cache.Delete(ctx, key)
}

// processCounters is used when no cache is configured. Lapsed windows are
// swept at most once per sweepEvery.
type processCounters struct {
	mu         sync.Mutex
	counts     map[string]int
	expires    map[string]time.Time
	sweepEvery time.Duration
	lastSweep  time.Time
}

func newProcessCounters() *processCounters {
	return &processCounters{
		counts:     map[string]int{},
		expires:    map[string]time.Time{},
		sweepEvery: time.Minute,
	}
}

func (p *processCounters) bump(_ context.Context, key string, limit int, window time.Duration) (int, time.Duration) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if now.Sub(p.lastSweep) >= p.sweepEvery {
		p.sweep(now)
	}
	if resetAt, ok := p.expires[key]; !ok || !resetAt.After(now) {
		p.counts[key] = 0
		p.expires[key] = now.Add(window)
	}
	if p.counts[key] < limit {
		p.counts[key]++
	}
	return p.counts[key], p.expires[key].Sub(now)
}

func (p *processCounters) sweep(now time.Time) {
	for key, resetAt := range p.expires {
		if !resetAt.After(now) {
			delete(p.expires, key)
			delete(p.counts, key)
		}
	}
	p.lastSweep = now
}

func (p *processCounters) drop(_ context.Context, key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.expires, key)
	delete(p.counts, key)
}

func (p *processCounters) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.expires)
}

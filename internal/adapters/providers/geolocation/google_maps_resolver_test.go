package geolocation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/cache"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/providers"
)

const placePage = `<html><head>
<meta property="og:title" content="タイムズ名駅南 - Google マップ">
<title>タイムズ名駅南 - Google マップ</title>
</head></html>`

func newMapsServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/s/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/maps/place/x/@35.1681,136.8845,17z", http.StatusFound)
	})
	mux.HandleFunc("/maps/place/x/", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(placePage))
	})
	mux.HandleFunc("/embedded", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<meta content="https://maps.example/staticmap?center=35.1701%2C136.8790&zoom=17" itemprop="image"><title>名駅パーク - Google Maps</title>`))
	})
	mux.HandleFunc("/nothing", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><title>Error</title></html>`))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleMapsResolver_FollowsRedirect(t *testing.T) {
	srv := newMapsServer(t, nil)
	r := NewGoogleMapsResolverWithOptions("test-agent", nil, srv.Client())

	place, err := r.Resolve(context.Background(), srv.URL+"/s/short")
	require.NoError(t, err)
	assert.Equal(t, "タイムズ名駅南", place.Name)
	assert.InDelta(t, 35.1681, place.Coordinates.Latitude, 1e-9)
	assert.InDelta(t, 136.8845, place.Coordinates.Longitude, 1e-9)
	assert.Contains(t, place.FinalURL, "@35.1681,136.8845")
}

func TestGoogleMapsResolver_PageCoordinates(t *testing.T) {
	srv := newMapsServer(t, nil)
	r := NewGoogleMapsResolverWithOptions("test-agent", nil, srv.Client())

	place, err := r.Resolve(context.Background(), srv.URL+"/embedded")
	require.NoError(t, err)
	assert.Equal(t, "名駅パーク", place.Name)
	assert.InDelta(t, 35.1701, place.Coordinates.Latitude, 1e-9)
	assert.InDelta(t, 136.8790, place.Coordinates.Longitude, 1e-9)
}

func TestGoogleMapsResolver_NotResolved(t *testing.T) {
	srv := newMapsServer(t, nil)
	r := NewGoogleMapsResolverWithOptions("test-agent", nil, srv.Client())

	_, err := r.Resolve(context.Background(), srv.URL+"/nothing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, providers.ErrPlaceNotResolved))

	_, err = r.Resolve(context.Background(), srv.URL+"/gone")
	require.Error(t, err)
	assert.False(t, errors.Is(err, providers.ErrPlaceNotResolved))

	_, err = r.Resolve(context.Background(), "  ")
	require.Error(t, err)
}

func TestGoogleMapsResolver_UsesCache(t *testing.T) {
	var hits int32
	srv := newMapsServer(t, &hits)
	r := NewGoogleMapsResolverWithOptions("test-agent", cache.NewMemoryAdapter(), srv.Client())

	first, err := r.Resolve(context.Background(), srv.URL+"/s/short")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), srv.URL+"/s/short")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestExtractName(t *testing.T) {
	assert.Equal(t, "A&B駐車場", extractName(`<meta property="og:title" content="A&amp;B駐車場 - Google Maps">`))
	assert.Equal(t, "名駅P", extractName(`<title>名駅P - Google マップ</title>`))
	assert.Equal(t, DefaultPlaceName, extractName(`<html></html>`))
}

func TestGoogleMapsResolver_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`<meta content="x?center=35.17%2C136.88&zoom=17"><title>P - Google Maps</title>`))
	}))
	t.Cleanup(srv.Close)

	r := NewGoogleMapsResolverWithOptions("test-agent", nil, srv.Client())
	r.retry.Initial = time.Millisecond
	r.retry.Max = time.Millisecond

	place, err := r.Resolve(context.Background(), srv.URL+"/busy")
	require.NoError(t, err)
	assert.Equal(t, "P", place.Name)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGoogleMapsResolver_ClientErrorNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	r := NewGoogleMapsResolverWithOptions("test-agent", nil, srv.Client())
	_, err := r.Resolve(context.Background(), srv.URL+"/blocked")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

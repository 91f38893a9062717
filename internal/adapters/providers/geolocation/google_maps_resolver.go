package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/providers"
	"github.com/mkt918/nagoya-parking-map/backend/pkg/retry"
)

const (
	// DefaultPlaceName is used when the page carries no usable title
	DefaultPlaceName = "新規駐車場"

	defaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	defaultResolveCacheTTL = 60 * 60 * 24 * 30
	defaultHTTPTimeout     = 15 * time.Second
	maxPageBytes           = 4 << 20
)

var (
	urlCoordsPattern  = regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`)
	pageCoordsPattern = regexp.MustCompile(`content="[^"]*?center=(-?\d+\.\d+)%2C(-?\d+\.\d+)`)
	ogTitlePattern    = regexp.MustCompile(`<meta property="og:title" content="(.*?)">`)
	titlePattern      = regexp.MustCompile(`<title>(.*?) - Google`)
	titleSuffixes     = []string{" - Google マップ", " - Google Maps"}
)

// GoogleMapsResolver resolves shared Google Maps links by following redirects
// and scraping the landing page.
type GoogleMapsResolver struct {
	httpClient *http.Client
	userAgent  string
	cache      providers.CacheProvider
	retry      retry.Policy
}

// NewGoogleMapsResolver creates a resolver with the default HTTP client
func NewGoogleMapsResolver(userAgent string, cache providers.CacheProvider) *GoogleMapsResolver {
	return NewGoogleMapsResolverWithOptions(userAgent, cache, nil)
}

// NewGoogleMapsResolverWithOptions allows overriding the HTTP client (used for tests).
func NewGoogleMapsResolverWithOptions(userAgent string, cache providers.CacheProvider, httpClient *http.Client) *GoogleMapsResolver {
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GoogleMapsResolver{
		httpClient: httpClient,
		userAgent:  userAgent,
		cache:      cache,
		retry:      retry.Request(),
	}
}

// Resolve follows mapsURL and extracts the place name and coordinates.
// ErrPlaceNotResolved is returned when neither the final URL nor the page
// carries coordinates.
func (g *GoogleMapsResolver) Resolve(ctx context.Context, mapsURL string) (*providers.ResolvedPlace, error) {
	trimmed := strings.TrimSpace(mapsURL)
	if trimmed == "" {
		return nil, fmt.Errorf("maps url is required")
	}

	cacheKey := "geo:v1:maps:" + hashKey(trimmed)
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var place providers.ResolvedPlace
			if err := json.Unmarshal(cached, &place); err == nil {
				return &place, nil
			}
		}
	}

	finalURL, page, err := g.fetch(ctx, trimmed)
	if err != nil {
		return nil, err
	}

	coords, ok := extractCoordinates(finalURL, page)
	if !ok {
		return nil, fmt.Errorf("%s: %w", trimmed, providers.ErrPlaceNotResolved)
	}

	place := &providers.ResolvedPlace{
		Name:        extractName(page),
		Coordinates: coords,
		FinalURL:    finalURL,
	}

	if g.cache != nil {
		if payload, err := json.Marshal(place); err == nil {
			_ = g.cache.Set(ctx, cacheKey, payload, defaultResolveCacheTTL)
		}
	}
	return place, nil
}

// fetch returns the URL the link finally landed on and the page body.
// Server errors and dropped connections are retried; other statuses are not.
func (g *GoogleMapsResolver) fetch(ctx context.Context, rawURL string) (finalURL, page string, err error) {
	err = g.retry.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to build maps request: %w", err))
		}
		req.Header.Set("User-Agent", g.userAgent)

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("maps request failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("maps request returned status %d", resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return retry.Permanent(fmt.Errorf("maps request returned status %d", resp.StatusCode))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
		if err != nil {
			return fmt.Errorf("failed to read maps page: %w", err)
		}
		finalURL, page = resp.Request.URL.String(), string(body)
		return nil
	})
	return finalURL, page, err
}

func extractCoordinates(finalURL, page string) (entities.Coordinates, bool) {
	m := urlCoordsPattern.FindStringSubmatch(finalURL)
	if m == nil {
		m = pageCoordsPattern.FindStringSubmatch(page)
	}
	if m == nil {
		return entities.Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return entities.Coordinates{}, false
	}
	lng, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return entities.Coordinates{}, false
	}
	return entities.Coordinates{Latitude: lat, Longitude: lng}, true
}

func extractName(page string) string {
	if m := ogTitlePattern.FindStringSubmatch(page); m != nil {
		name := html.UnescapeString(m[1])
		for _, suffix := range titleSuffixes {
			name = strings.ReplaceAll(name, suffix, "")
		}
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	if m := titlePattern.FindStringSubmatch(page); m != nil {
		if name := strings.TrimSpace(html.UnescapeString(m[1])); name != "" {
			return name
		}
	}
	return DefaultPlaceName
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

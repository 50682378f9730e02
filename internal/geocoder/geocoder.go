// Package geocoder resolves postal addresses to coordinates through the
// Nominatim search API. Lookups are cached with a TTL, misses included, so
// repeated imports don't hammer the free endpoint. A failed lookup degrades
// to "no coordinates" and never propagates as an error.
package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/logging"
)

var geocoderLogger *slog.Logger

func init() {
	var err error
	geocoderLogger, _, err = logging.NewFileLogger("logs/geocoder.log", "geocoder", slog.LevelInfo)
	if err != nil {
		geocoderLogger = logging.DiscardLogger("geocoder")
	}
}

// Coordinates is one resolved location. Found is false when the address did
// not resolve; Lat/Lng are then zero.
type Coordinates struct {
	Lat   float64
	Lng   float64
	Found bool
}

// Geocoder is a polite Nominatim client with a TTL cache.
type Geocoder struct {
	settings *conf.Settings
	client   *http.Client
	cache    *gocache.Cache

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a geocoder with its own cache sized by the configured TTL.
func New(settings *conf.Settings) *Geocoder {
	ttl := time.Duration(settings.Radar.Geocoder.CacheTTLMinutes) * time.Minute
	return NewWithCache(settings, gocache.New(ttl, 2*ttl))
}

// NewWithCache creates a geocoder with an injected cache. Useful when several
// components share one cache or tests need to inspect it.
func NewWithCache(settings *conf.Settings, cache *gocache.Cache) *Geocoder {
	return &Geocoder{
		settings: settings,
		client: &http.Client{
			Timeout: time.Duration(settings.Radar.Geocoder.TimeoutSeconds) * time.Second,
		},
		cache: cache,
		sleep: func(ctx context.Context, d time.Duration) {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
			}
		},
	}
}

// GeocodeAddress resolves street/postal-code/city to coordinates. Empty
// parts are skipped; a fully empty address returns a not-found result
// without touching the network.
func (g *Geocoder) GeocodeAddress(ctx context.Context, street, postalCode, city string) Coordinates {
	query := buildQuery(street, postalCode, city, g.settings.Radar.Region)
	if query == "" {
		return Coordinates{}
	}

	key := normalizeQuery(query)
	if cached, ok := g.cache.Get(key); ok {
		return cached.(Coordinates)
	}

	coords := g.lookup(ctx, query)
	g.cache.SetDefault(key, coords)
	return coords
}

func (g *Geocoder) lookup(ctx context.Context, query string) Coordinates {
	// Nominatim usage policy: at most one request per second.
	g.sleep(ctx, time.Duration(g.settings.Radar.Geocoder.DelayMillis)*time.Millisecond)
	if ctx.Err() != nil {
		return Coordinates{}
	}

	endpoint := g.settings.Radar.Geocoder.Endpoint
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	if cc := g.settings.Radar.Geocoder.CountryCodes; cc != "" {
		params.Set("countrycodes", cc)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		geocoderLogger.Error("building geocode request", "query", query, "error", err)
		return Coordinates{}
	}
	req.Header.Set("User-Agent", g.settings.Radar.Scraper.UserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		geocoderLogger.Warn("geocode request failed", "query", query, "error", err)
		return Coordinates{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		geocoderLogger.Warn("geocode request rejected", "query", query, "status", resp.StatusCode)
		return Coordinates{}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		geocoderLogger.Warn("reading geocode response", "query", query, "error", err)
		return Coordinates{}
	}

	// Nominatim returns lat/lon as JSON strings.
	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.Unmarshal(body, &results); err != nil || len(results) == 0 {
		geocoderLogger.Debug("no geocode result", "query", query)
		return Coordinates{}
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		geocoderLogger.Warn("unparsable coordinates in geocode response", "query", query)
		return Coordinates{}
	}
	return Coordinates{Lat: lat, Lng: lng, Found: true}
}

// buildQuery joins the non-empty address parts plus the configured region
// into one free-text query. The region alone is not an address, so an empty
// street/postal-code/city yields an empty query.
func buildQuery(street, postalCode, city, region string) string {
	var parts []string
	for _, p := range []string{street, postalCode, city} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	if region = strings.TrimSpace(region); region != "" {
		parts = append(parts, region)
	}
	return strings.Join(parts, ", ")
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// CacheStats reports cache occupancy for diagnostics.
func (g *Geocoder) CacheStats() string {
	return fmt.Sprintf("%d cached lookups", g.cache.ItemCount())
}

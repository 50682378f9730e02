package geocoder

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/radar-go/internal/conf"
)

const testEndpoint = "https://geocode.test/search"

func testSettings() *conf.Settings {
	s := &conf.Settings{}
	s.Radar.Region = "Kreis Stormarn"
	s.Radar.Scraper.UserAgent = "RadarBot/1.0"
	s.Radar.Geocoder = conf.GeocoderSettings{
		Endpoint:        testEndpoint,
		CountryCodes:    "de",
		TimeoutSeconds:  5,
		DelayMillis:     1000,
		CacheTTLMinutes: 60,
	}
	return s
}

func newTestGeocoder(t *testing.T) *Geocoder {
	t.Helper()
	g := NewWithCache(testSettings(), gocache.New(time.Hour, time.Hour))
	g.sleep = func(ctx context.Context, d time.Duration) {}
	httpmock.ActivateNonDefault(g.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return g
}

func TestGeocodeAddressResolves(t *testing.T) {
	g := newTestGeocoder(t)
	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(200, `[{"lat": "53.7565", "lon": "10.3786"}]`))

	coords := g.GeocodeAddress(context.Background(), "Hauptstraße 1", "23843", "Bad Oldesloe")

	require.True(t, coords.Found)
	assert.InDelta(t, 53.7565, coords.Lat, 0.0001)
	assert.InDelta(t, 10.3786, coords.Lng, 0.0001)

	// Query carries all address parts plus the region and country filter.
	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["GET "+testEndpoint])
}

func TestGeocodeAddressCachesHits(t *testing.T) {
	g := newTestGeocoder(t)
	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(200, `[{"lat": "53.7", "lon": "10.3"}]`))

	first := g.GeocodeAddress(context.Background(), "Hauptstraße 1", "23843", "Bad Oldesloe")
	second := g.GeocodeAddress(context.Background(), "hauptstraße  1", "23843", "bad oldesloe")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "second lookup must come from cache")
}

func TestGeocodeAddressCachesMisses(t *testing.T) {
	g := newTestGeocoder(t)
	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(200, `[]`))

	first := g.GeocodeAddress(context.Background(), "Nowhere 99", "", "Atlantis")
	second := g.GeocodeAddress(context.Background(), "Nowhere 99", "", "Atlantis")

	assert.False(t, first.Found)
	assert.False(t, second.Found)
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "misses are cached too")
}

func TestGeocodeAddressDegradesGracefully(t *testing.T) {
	g := newTestGeocoder(t)

	cases := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"network error", httpmock.NewErrorResponder(fmt.Errorf("connection refused"))},
		{"server error", httpmock.NewStringResponder(500, "boom")},
		{"garbage body", httpmock.NewStringResponder(200, "not json")},
		{"unparsable coordinates", httpmock.NewStringResponder(200, `[{"lat": "north", "lon": "east"}]`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			httpmock.Reset()
			httpmock.RegisterResponder("GET", testEndpoint, tc.responder)

			coords := g.GeocodeAddress(context.Background(), tc.name, "", "Somewhere")
			assert.False(t, coords.Found)
		})
	}
}

func TestGeocodeAddressEmptyQuerySkipsNetwork(t *testing.T) {
	// The configured region alone must not trigger a lookup.
	g := newTestGeocoder(t)

	coords := g.GeocodeAddress(context.Background(), "", "", "")
	assert.False(t, coords.Found)
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestGeocodeAddressHonorsCancellation(t *testing.T) {
	g := newTestGeocoder(t)
	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(200, `[{"lat": "53.7", "lon": "10.3"}]`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	coords := g.GeocodeAddress(ctx, "Hauptstraße 1", "", "Bad Oldesloe")
	assert.False(t, coords.Found)
	assert.Zero(t, httpmock.GetTotalCallCount())
}

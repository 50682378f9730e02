package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/radar-go/internal/conf"
)

func testSettings() *conf.Settings {
	s := &conf.Settings{}
	s.Radar.Keywords = []string{"ki", "machine learning", "chatbot"}
	s.Radar.Scraper = conf.ScraperSettings{
		UserAgent:       "RadarBot/1.0",
		AcceptLanguage:  "de-DE,de;q=0.9",
		TimeoutSeconds:  5,
		MaxPages:        3,
		DeepMaxPages:    5,
		DelaySeconds:    1,
		CharBudget:      8000,
		DeepCharBudget:  16000,
		MinSubpageChars: 50,
		LinkKeywords:    []string{"ki", "ai", "innovation", "produkt", "ueber", "about"},
	}
	return s
}

func newTestFetcher(t *testing.T, settings *conf.Settings) *Fetcher {
	t.Helper()
	f := New(settings)
	f.sleep = func(ctx context.Context, d time.Duration) {}
	httpmock.ActivateNonDefault(f.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return f
}

func TestFetchSiteUnreachableHostContainsError(t *testing.T) {
	f := newTestFetcher(t, testSettings())
	httpmock.RegisterResponder("GET", "https://unreachable.example",
		httpmock.NewErrorResponder(fmt.Errorf("dial tcp: connection refused")))

	result := f.FetchSite(context.Background(), "unreachable.example", false)

	require.Error(t, result.Err)
	assert.Empty(t, result.Text)
	assert.Equal(t, "https://unreachable.example", result.URL)
}

func TestFetchSiteHTTPErrorStatus(t *testing.T) {
	f := newTestFetcher(t, testSettings())
	httpmock.RegisterResponder("GET", "https://gone.example",
		httpmock.NewStringResponder(http.StatusNotFound, "not here"))

	result := f.FetchSite(context.Background(), "https://gone.example", false)

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "404")
	assert.Empty(t, result.Text)
}

const rootPage = `<html><head><title>Acme GmbH - Startseite</title></head>
<body>
<nav><a href="/impressum">Impressum</a></nav>
<h1>Willkommen bei Acme</h1>
<p>Wir setzen KI und Machine Learning produktiv ein.</p>
<a href="/ki-loesungen">Unsere KI-Lösungen</a>
<a href="/ueber-uns">Über uns</a>
<a href="https://other-domain.example/ai">Partner</a>
<a href="https://www.linkedin.com/company/acme-gmbh?trk=nav">LinkedIn</a>
<script>var tracking = "ignore me";</script>
</body></html>`

func TestFetchSiteExtractsTitleTextAndSignals(t *testing.T) {
	f := newTestFetcher(t, testSettings())

	httpmock.RegisterResponder("GET", "https://acme.example",
		httpmock.NewStringResponder(200, rootPage))
	httpmock.RegisterResponder("GET", "https://acme.example/ki-loesungen",
		httpmock.NewStringResponder(200, `<html><body><p>`+strings.Repeat("KI-Anwendungen im Detail. ", 10)+`</p></body></html>`))
	httpmock.RegisterResponder("GET", "https://acme.example/ueber-uns",
		httpmock.NewStringResponder(200, `<html><body><p>`+strings.Repeat("Geschichte des Unternehmens. ", 10)+`</p></body></html>`))

	result := f.FetchSite(context.Background(), "acme.example", false)

	require.NoError(t, result.Err)
	assert.Equal(t, "Acme GmbH - Startseite", result.Title)
	assert.Equal(t, 3, result.PagesFetched)
	assert.Contains(t, result.Text, "Willkommen bei Acme")
	assert.NotContains(t, result.Text, "ignore me")
	assert.NotContains(t, result.Text, "Impressum") // nav stripped

	// Page tags are present.
	assert.Contains(t, result.Text, "[start]")
	assert.Contains(t, result.Text, "[ki-loesungen]")

	assert.Equal(t, "https://www.linkedin.com/company/acme-gmbh", result.Social.LinkedIn)
	assert.Contains(t, result.KeywordHits, "ki")
	assert.Contains(t, result.KeywordHits, "machine learning")
	assert.NotContains(t, result.KeywordHits, "chatbot")
}

func TestFetchSitePrioritizesTopicLinks(t *testing.T) {
	settings := testSettings()
	settings.Radar.Scraper.MaxPages = 2 // root + 1 subpage
	f := newTestFetcher(t, settings)

	httpmock.RegisterResponder("GET", "https://acme.example",
		httpmock.NewStringResponder(200, rootPage))
	httpmock.RegisterResponder("GET", "https://acme.example/ki-loesungen",
		httpmock.NewStringResponder(200, `<html><body><p>`+strings.Repeat("KI Details. ", 20)+`</p></body></html>`))

	result := f.FetchSite(context.Background(), "https://acme.example", false)

	require.NoError(t, result.Err)
	// "ki" outranks "ueber": the topic page wins the single subpage slot.
	assert.Equal(t, []string{"https://acme.example/ki-loesungen"}, result.SubpageURLs)
}

func TestFetchSiteSkipsFailingAndShortSubpages(t *testing.T) {
	f := newTestFetcher(t, testSettings())

	httpmock.RegisterResponder("GET", "https://acme.example",
		httpmock.NewStringResponder(200, rootPage))
	httpmock.RegisterResponder("GET", "https://acme.example/ki-loesungen",
		httpmock.NewErrorResponder(fmt.Errorf("timeout")))
	httpmock.RegisterResponder("GET", "https://acme.example/ueber-uns",
		httpmock.NewStringResponder(200, `<html><body>kurz</body></html>`))

	result := f.FetchSite(context.Background(), "https://acme.example", false)

	// Root only: one subpage failed, the other was below the length filter.
	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.PagesFetched)
	assert.Empty(t, result.SubpageURLs)
}

func TestFetchSiteDeepRaisesBudget(t *testing.T) {
	settings := testSettings()
	settings.Radar.Scraper.CharBudget = 40
	settings.Radar.Scraper.DeepCharBudget = 100000
	f := newTestFetcher(t, settings)

	httpmock.RegisterResponder("GET", "https://acme.example",
		httpmock.NewStringResponder(200, rootPage))
	httpmock.RegisterResponder("GET", `=~^https://acme\.example/.*`,
		httpmock.NewStringResponder(200, `<html><body></body></html>`))

	shallow := f.FetchSite(context.Background(), "https://acme.example", false)
	deep := f.FetchSite(context.Background(), "https://acme.example", true)

	require.NoError(t, shallow.Err)
	require.NoError(t, deep.Err)
	assert.LessOrEqual(t, len(shallow.Text), 40)
	assert.Greater(t, len(deep.Text), len(shallow.Text))
}

func TestKeywordHitsAreCaseInsensitive(t *testing.T) {
	hits := keywordHits("Wir nutzen MACHINE LEARNING und Chatbots", []string{"machine learning", "chatbot", "robotik"})
	assert.Equal(t, []string{"machine learning", "chatbot"}, hits)
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://example.com", NormalizeURL("example.com"))
	assert.Equal(t, "http://example.com", NormalizeURL("http://example.com"))
	assert.Equal(t, "https://example.com", NormalizeURL("  https://example.com "))
}

func TestScoreLinkWeighsByPosition(t *testing.T) {
	keywords := []string{"ki", "produkt", "about"}
	kiScore := scoreLink("https://x.example/ki-themen", keywords)
	aboutScore := scoreLink("https://x.example/about", keywords)
	assert.Greater(t, kiScore, aboutScore)
	assert.Zero(t, scoreLink("https://x.example/kontakt", keywords))
}

func TestHasTopicRelevance(t *testing.T) {
	assert.False(t, HasTopicRelevance(nil, 1))
	assert.False(t, HasTopicRelevance(&SiteResult{KeywordHits: []string{}}, 1))
	assert.True(t, HasTopicRelevance(&SiteResult{KeywordHits: []string{"ki"}}, 1))
}

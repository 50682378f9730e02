// Package fetcher turns a company website URL into cleaned, bounded,
// topic-relevant text plus structured signals. It performs a small,
// prioritized same-domain crawl and never lets a network failure escape as
// anything but a structured result.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/k3a/html2text"

	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/errors"
	"github.com/tphakala/radar-go/internal/logging"
)

var fetcherLogger *slog.Logger

func init() {
	var err error
	fetcherLogger, _, err = logging.NewFileLogger("logs/fetcher.log", "fetcher", slog.LevelInfo)
	if err != nil {
		fetcherLogger = logging.DiscardLogger("fetcher")
	}
}

// SiteResult is the outcome of one site fetch. Err is set when the root
// page could not be retrieved; subpage failures are skipped silently.
type SiteResult struct {
	URL          string
	Title        string
	Text         string
	PagesFetched int
	SubpageURLs  []string
	KeywordHits  []string
	Social       SocialLinks
	Err          error
}

// SocialLinks holds social-media profile URLs found on the site.
type SocialLinks struct {
	LinkedIn string
}

// Fetcher retrieves and cleans company websites.
type Fetcher struct {
	settings *conf.Settings
	client   *http.Client

	// sleep is replaceable in tests so polite delays don't slow them down.
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a fetcher from the scraper settings.
func New(settings *conf.Settings) *Fetcher {
	return &Fetcher{
		settings: settings,
		client: &http.Client{
			Timeout: time.Duration(settings.Radar.Scraper.TimeoutSeconds) * time.Second,
		},
		sleep: politeSleep,
	}
}

func politeSleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// NormalizeURL adds the https scheme when none is present.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "https://" + raw
	}
	return raw
}

// FetchSite crawls the site starting at rawURL: the root page plus up to
// N highest-priority same-domain subpages. deep raises the page count and
// the character budget for re-analysis runs. The returned result always has
// a non-nil pointer; check result.Err for root fetch failure.
func (f *Fetcher) FetchSite(ctx context.Context, rawURL string, deep bool) *SiteResult {
	sc := f.settings.Radar.Scraper

	maxPages := sc.MaxPages
	charBudget := sc.CharBudget
	if deep {
		maxPages = sc.DeepMaxPages
		charBudget = sc.DeepCharBudget
	}

	result := &SiteResult{
		URL:         NormalizeURL(rawURL),
		SubpageURLs: []string{},
		KeywordHits: []string{},
	}

	body, err := f.fetchPage(ctx, result.URL)
	if err != nil {
		result.Err = err
		fetcherLogger.Warn("root page fetch failed", "url", result.URL, "error", err)
		return result
	}
	result.PagesFetched = 1

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		result.Err = errors.New(err).
			Component("fetcher").
			Category(errors.CategoryValidation).
			Context("url", result.URL).
			Build()
		return result
	}

	result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	result.Social = extractSocialLinks(doc, body)

	texts := []string{taggedText("start", cleanText(doc))}

	subpages := f.selectSubpages(result.URL, doc, maxPages-1)
	for _, link := range subpages {
		f.sleep(ctx, time.Duration(sc.DelaySeconds)*time.Second)
		if ctx.Err() != nil {
			break
		}
		subBody, subErr := f.fetchPage(ctx, link)
		if subErr != nil {
			fetcherLogger.Debug("subpage skipped", "url", link, "error", subErr)
			continue
		}
		subDoc, subErr := goquery.NewDocumentFromReader(strings.NewReader(subBody))
		if subErr != nil {
			continue
		}
		subText := cleanText(subDoc)
		if len(subText) < sc.MinSubpageChars {
			// Noise filter: cookie walls, redirect stubs, empty templates.
			continue
		}
		texts = append(texts, taggedText(pageLabel(link), subText))
		result.SubpageURLs = append(result.SubpageURLs, link)
		result.PagesFetched++
	}

	fullText := strings.Join(texts, " ")
	result.KeywordHits = keywordHits(fullText, f.settings.Radar.Keywords)
	if len(fullText) > charBudget {
		fullText = fullText[:charBudget]
	}
	result.Text = fullText

	fetcherLogger.Info("site fetched",
		"url", result.URL,
		"pages", result.PagesFetched,
		"chars", len(result.Text),
		"keyword_hits", len(result.KeywordHits),
	)
	return result
}

// fetchPage retrieves one page and returns its body as a string. Connection
// failures, timeouts and non-2xx statuses come back as categorized errors.
func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) (string, error) {
	sc := f.settings.Radar.Scraper

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", errors.New(err).
			Component("fetcher").
			Category(errors.CategoryValidation).
			Context("url", pageURL).
			Build()
	}
	req.Header.Set("User-Agent", sc.UserAgent)
	req.Header.Set("Accept-Language", sc.AcceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		category := errors.CategoryNetwork
		if isTimeout(err) {
			category = errors.CategoryTimeout
		}
		return "", errors.New(err).
			Component("fetcher").
			Category(category).
			Context("url", pageURL).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Newf("HTTP error: %d", resp.StatusCode).
			Component("fetcher").
			Category(errors.CategoryHTTP).
			Context("url", pageURL).
			Context("status", resp.StatusCode).
			Build()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", errors.New(err).
			Component("fetcher").
			Category(errors.CategoryNetwork).
			Context("url", pageURL).
			Build()
	}
	return string(body), nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// nonContentSelectors lists elements stripped before text extraction.
const nonContentSelectors = "script, style, nav, footer, header, aside, form, iframe, noscript"

var whitespaceRe = regexp.MustCompile(`\s+`)

// cleanText strips non-content elements and collapses the remainder to
// single-spaced prose.
func cleanText(doc *goquery.Document) string {
	clone := doc.Selection.Clone()
	clone.Find(nonContentSelectors).Remove()

	bodyHTML, err := clone.Find("body").Html()
	if err != nil || bodyHTML == "" {
		bodyHTML, _ = clone.Html()
	}
	text := html2text.HTML2Text(bodyHTML)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

func taggedText(label, text string) string {
	return fmt.Sprintf("[%s] %s", label, text)
}

// pageLabel derives a short identifier for a subpage from its path.
func pageLabel(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "page"
	}
	return strings.Trim(u.Path, "/")
}

type scoredLink struct {
	url   string
	score int
}

// selectSubpages scores every same-domain link against the priority-ordered
// keyword list and returns the top `limit` unique URLs. Earlier keywords in
// the configured list weigh more, so topic pages beat generic about/news
// pages when the budget is tight.
func (f *Fetcher) selectSubpages(baseURL string, doc *goquery.Document, limit int) []string {
	if limit <= 0 {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	keywords := f.settings.Radar.Scraper.LinkKeywords

	seen := make(map[string]bool)
	var candidates []scoredLink

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved := resolveLink(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		score := scoreLink(resolved, keywords)
		if score == 0 {
			return
		}
		seen[resolved] = true
		candidates = append(candidates, scoredLink{url: resolved, score: score})
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].url < candidates[j].url
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	urls := make([]string, 0, len(candidates))
	for _, c := range candidates {
		urls = append(urls, c.url)
	}
	return urls
}

// resolveLink joins href against base and returns it only when it stays on
// the same host and isn't the base page itself.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Host != base.Host {
		return ""
	}
	resolved.Fragment = ""
	if resolved.String() == base.String() {
		return ""
	}
	return resolved.String()
}

// scoreLink sums position weights for every keyword found in the URL.
func scoreLink(link string, keywords []string) int {
	lower := strings.ToLower(link)
	score := 0
	for i, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			score += len(keywords) - i
		}
	}
	return score
}

// keywordHits returns the configured topic keywords present anywhere in the
// text, case-insensitive. Cheap relevance signal independent of the LLM.
func keywordHits(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	hits := []string{}
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			hits = append(hits, kw)
		}
	}
	return hits
}

// HasTopicRelevance is a quick pre-filter: does the fetched text mention the
// topic at all?
func HasTopicRelevance(result *SiteResult, minHits int) bool {
	if result == nil {
		return false
	}
	return len(result.KeywordHits) >= minHits
}

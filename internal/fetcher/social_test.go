package fetcher

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractSocialLinksFromAnchors(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<a href="https://www.linkedin.com/company/acme-gmbh/?originalSubdomain=de">Follow us</a>
	</body></html>`)

	social := extractSocialLinks(doc, "")
	assert.Equal(t, "https://www.linkedin.com/company/acme-gmbh", social.LinkedIn)
}

func TestExtractSocialLinksFallsBackToRawHTML(t *testing.T) {
	// URL buried in a script blob, not an anchor.
	raw := `<html><body><script>var x = {"url": "https://de.linkedin.com/company/beta-ag"};</script></body></html>`
	doc := parseDoc(t, raw)

	social := extractSocialLinks(doc, raw)
	assert.Equal(t, "https://de.linkedin.com/company/beta-ag", social.LinkedIn)
}

func TestExtractSocialLinksIgnoresPersonalProfiles(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<a href="https://www.linkedin.com/in/jane-doe">CEO</a>
	</body></html>`)

	social := extractSocialLinks(doc, "")
	assert.Empty(t, social.LinkedIn)
}

func TestExtractSocialLinksSkipsReservedHandles(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<a href="https://www.linkedin.com/company/share?u=x">Share</a>
		<a href="https://www.linkedin.com/company/login">Login</a>
	</body></html>`)

	social := extractSocialLinks(doc, "")
	assert.Empty(t, social.LinkedIn)
}

func TestExtractSocialLinksBlockedHandleDoesNotMaskRealOne(t *testing.T) {
	raw := `<html><body>
		<a href="https://www.linkedin.com/company/share?u=x">Share</a>
		<a href="https://www.linkedin.com/company/acme-gmbh">Company</a>
	</body></html>`
	doc := parseDoc(t, raw)

	social := extractSocialLinks(doc, raw)
	assert.Equal(t, "https://www.linkedin.com/company/acme-gmbh", social.LinkedIn)
}

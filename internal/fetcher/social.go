package fetcher

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Only company pages are of interest; personal profiles (/in/) are not.
var linkedInPattern = regexp.MustCompile(`https?://(?:[a-z]{2}\.|www\.)?linkedin\.com/company/([^/\s"'?#><]+)`)

// reservedLinkedInHandles are path segments that show up in share buttons
// and platform chrome rather than naming an actual company page.
var reservedLinkedInHandles = map[string]bool{
	"share":        true,
	"sharearticle": true,
	"shareArticle": true,
	"login":        true,
	"signup":       true,
	"authwall":     true,
	"feed":         true,
	"legal":        true,
	"help":         true,
	"setup":        true,
}

// extractSocialLinks finds social-media company profiles on a page. Anchor
// hrefs are checked first; the raw HTML is the fallback for links buried in
// scripts or meta tags.
func extractSocialLinks(doc *goquery.Document, rawHTML string) SocialLinks {
	links := SocialLinks{}

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if match := matchLinkedIn(href); match != "" {
			links.LinkedIn = match
			return false
		}
		return true
	})

	if links.LinkedIn == "" {
		links.LinkedIn = matchLinkedIn(rawHTML)
	}
	return links
}

// matchLinkedIn extracts and normalizes the first acceptable LinkedIn
// company URL in the input, or returns "".
func matchLinkedIn(s string) string {
	for _, m := range linkedInPattern.FindAllStringSubmatch(s, -1) {
		handle := m[1]
		if reservedLinkedInHandles[handle] || reservedLinkedInHandles[strings.ToLower(handle)] {
			continue
		}
		full := m[0]
		full = strings.SplitN(full, "?", 2)[0]
		full = strings.SplitN(full, "#", 2)[0]
		return strings.TrimRight(full, "/")
	}
	return ""
}

package extract

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var listingLinkRe = regexp.MustCompile(`https?://(?:www\.)?rent\.591\.com\.tw/[^\s"'<>\)\]]+`)

// IsListingLink reports whether the URL points at a 591 rental detail page.
func IsListingLink(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	if host != "rent.591.com.tw" && host != "www.rent.591.com.tw" {
		return false
	}
	p := strings.ToLower(u.Path)
	return strings.Contains(p, "rent-detail") || strings.Contains(p, "/home/")
}

// Canonicalize normalizes a listing URL so the same unit always dedupes to
// the same key: lowercase scheme/host, no fragment, no tracking params,
// deterministic query order.
func Canonicalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" {
			q.Del(k)
		}
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// FindLinks scans free text (mail bodies, page blocks) for listing URLs
// and returns them canonicalized and deduplicated, in order of appearance.
func FindLinks(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range listingLinkRe.FindAllString(text, -1) {
		link := Canonicalize(strings.TrimRight(m, ".,;"))
		if link == "" || !IsListingLink(link) || seen[link] {
			continue
		}
		seen[link] = true
		out = append(out, link)
	}
	return out
}

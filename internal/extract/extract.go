// Package extract fetches rental listing pages and turns them into
// domain.Listing values. Selectors come from config so site markup changes
// are a config edit, not a code change.
package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"rentscout-engine/internal/config"
	"rentscout-engine/internal/domain"
)

type Extractor struct {
	hc        *http.Client
	userAgent string
	sel       config.Selectors
	limiter   *HostLimiter
}

func New(cfg config.Scraper, limiter *HostLimiter) *Extractor {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Extractor{
		hc:        &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
		sel:       cfg.Selectors,
		limiter:   limiter,
	}
}

// FetchListing downloads one detail page and parses it. The rate limiter
// gates the request per host, so callers can fan out without hammering
// the site.
func (e *Extractor) FetchListing(ctx context.Context, rawURL string) (domain.Listing, error) {
	link := Canonicalize(rawURL)
	if !IsListingLink(link) {
		return domain.Listing{}, fmt.Errorf("extract: not a rental listing link: %s", rawURL)
	}

	if e.limiter != nil {
		if err := e.limiter.WaitURL(ctx, link); err != nil {
			return domain.Listing{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("extract: build request: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	res, err := e.hc.Do(req)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("extract: get %s: %w", link, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return domain.Listing{}, fmt.Errorf("extract: %s status %d", link, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("extract: parse html: %w", err)
	}

	l := e.Parse(doc)
	l.URL = link
	if l.Title == "" {
		return l, fmt.Errorf("extract: no title at %s, selectors likely stale", link)
	}
	return l, nil
}

// Parse pulls a listing out of an already-fetched document. Split out from
// FetchListing so tests can feed static HTML.
func (e *Extractor) Parse(doc *goquery.Document) domain.Listing {
	l := domain.Listing{
		Title:       CleanText(doc.Find(e.sel.Title).First().Text()),
		Address:     CleanText(doc.Find(e.sel.Address).First().Text()),
		Description: CleanText(doc.Find(e.sel.Description).First().Text()),
		Contact:     CleanText(doc.Find(e.sel.Contact).First().Text()),
		Price:       ParsePrice(doc.Find(e.sel.Price).First().Text()),
	}

	doc.Find(e.sel.Facilities).Each(func(_ int, s *goquery.Selection) {
		if f := CleanText(s.Text()); f != "" {
			l.Facilities = append(l.Facilities, f)
		}
	})

	doc.Find(e.sel.DetailItem).Each(func(_ int, s *goquery.Selection) {
		label := CleanText(s.Find(e.sel.DetailLabel).First().Text())
		value := CleanText(s.Find(e.sel.DetailValue).First().Text())
		if label == "" || value == "" {
			return
		}
		if l.Details == nil {
			l.Details = map[string]string{}
		}
		l.Details[label] = value
	})

	doc.Find(e.sel.Images).Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			src, _ = s.Attr("data-src")
		}
		src = strings.TrimSpace(src)
		if src != "" && strings.HasPrefix(src, "http") {
			l.Images = append(l.Images, src)
		}
	})

	l.Floor = l.Details["樓層"]
	l.Area = l.Details["坪數"]
	return l
}

// ParsePrice extracts the monthly rent from display text like "15,000 元/月".
// Returns 0 when no digits are present.
func ParsePrice(text string) int {
	n := 0
	found := false
	for _, r := range text {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
			found = true
		} else if found && r != ',' {
			break
		}
	}
	if !found {
		return 0
	}
	return n
}

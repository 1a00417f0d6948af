package score

import (
	"sort"
	"strings"

	"rentscout-engine/internal/domain"
)

// Matcher decides whether a catalog keyword occurs in the listing corpus.
// The corpus is already lowercased. Swapping this out (tokenized, fuzzy)
// must not touch the scoring algorithm itself.
type Matcher interface {
	Match(corpus, keyword string) bool
}

// SubstringMatcher is the default strategy: case-insensitive containment,
// which is what the source site's free text supports reliably.
type SubstringMatcher struct{}

func (SubstringMatcher) Match(corpus, keyword string) bool {
	k := strings.ToLower(strings.TrimSpace(keyword))
	if k == "" {
		return false
	}
	return strings.Contains(corpus, k)
}

func anyMatch(m Matcher, corpus string, keywords []string) bool {
	for _, k := range keywords {
		if m.Match(corpus, k) {
			return true
		}
	}
	return false
}

// Corpus flattens a listing into the single lowercase text all keyword rules
// run against. Detail keys are sorted so identical inputs always produce an
// identical corpus.
func Corpus(l domain.Listing) string {
	parts := make([]string, 0, 4+len(l.Facilities)+2*len(l.Details))
	parts = append(parts, l.Title, l.Description, l.Address)
	parts = append(parts, l.Facilities...)

	keys := make([]string, 0, len(l.Details))
	for k := range l.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k, l.Details[k])
	}

	return strings.ToLower(strings.Join(parts, " "))
}

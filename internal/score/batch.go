package score

import (
	"sort"

	"rentscout-engine/internal/domain"
)

// Scored pairs a listing with its result so batch callers keep the two
// together through filtering and sorting.
type Scored struct {
	Listing domain.Listing `json:"listing"`
	Result  Result         `json:"result"`
}

// ScoreAndFilter scores every listing, drops anything below minScore
// (rejects score 0, so they fall out with any positive threshold) and
// returns the survivors best first. The sort is stable: equal totals keep
// input order.
func ScoreAndFilter(s Scorer, listings []domain.Listing, minScore int) []Scored {
	scored := make([]Scored, 0, len(listings))
	for _, l := range listings {
		res := s.Score(l)
		if res.Total < minScore {
			continue
		}
		scored = append(scored, Scored{Listing: l, Result: res})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Result.Total > scored[j].Result.Total
	})
	return scored
}

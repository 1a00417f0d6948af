package score

import "rentscout-engine/internal/domain"

// Category identifies one scoring dimension. The set is fixed; handlers and
// the mapper switch over it rather than over loose strings.
type Category string

const (
	CategoryPrice      Category = "price"
	CategoryFacilities Category = "facilities"
	CategoryLocation   Category = "location"
	CategoryPreferred  Category = "preferred"
	CategoryPetPolicy  Category = "pet_policy"
)

// Suitability is the human-facing band derived from the total score.
type Suitability string

const (
	SuitabilityExcellent Suitability = "非常適合"
	SuitabilityGreat     Suitability = "很適合"
	SuitabilityGood      Suitability = "適合"
	SuitabilityFair      Suitability = "尚可考慮"
	SuitabilityReview    Suitability = "需要評估"
	SuitabilityReject    Suitability = "不適合"
)

// SuitabilityFor maps a total score onto its band. Bands are tuned to the
// 0-100 nominal range; the pet bonus can push a total past 100 and stays in
// the top band.
func SuitabilityFor(total int) Suitability {
	switch {
	case total >= 90:
		return SuitabilityExcellent
	case total >= 80:
		return SuitabilityGreat
	case total >= 70:
		return SuitabilityGood
	case total >= 60:
		return SuitabilityFair
	case total >= 40:
		return SuitabilityReview
	default:
		return SuitabilityReject
	}
}

// CategoryScore is one category's contribution plus the material for the
// narrative fields.
type CategoryScore struct {
	Score     int      `json:"score"`
	Max       int      `json:"max"`
	Rationale string   `json:"rationale"`
	Matched   []string `json:"matched,omitempty"`
	Missing   []string `json:"missing,omitempty"`
}

// Result is the complete output of one scoring call. A deal-breaker result
// has Total 0, the reject band, a non-empty Warnings list and no breakdown;
// everything else carries all five categories.
type Result struct {
	Total           int                        `json:"total"`
	Suitability     Suitability                `json:"suitability"`
	Breakdown       map[Category]CategoryScore `json:"breakdown,omitempty"`
	Advantages      string                     `json:"advantages"`
	Recommendations []string                   `json:"recommendations,omitempty"`
	Warnings        []string                   `json:"warnings,omitempty"`
}

// Rejected reports whether the result came out of the deal-breaker gate.
// Callers must not confuse it with a low-but-scored listing.
func (r Result) Rejected() bool { return len(r.Warnings) > 0 }

type Scorer interface {
	Score(l domain.Listing) Result
}

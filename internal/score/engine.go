package score

import (
	"fmt"
	"strings"

	"rentscout-engine/internal/config"
	"rentscout-engine/internal/domain"
)

// CatalogScorer scores a listing against a rule catalog. It is a pure
// function of (listing, catalog): no I/O, no shared state, safe to call
// concurrently against the same catalog value.
type CatalogScorer struct {
	Catalog config.Scoring
	Matcher Matcher // nil means SubstringMatcher
}

func (s CatalogScorer) matcher() Matcher {
	if s.Matcher != nil {
		return s.Matcher
	}
	return SubstringMatcher{}
}

func (s CatalogScorer) Score(l domain.Listing) Result {
	corpus := Corpus(l)
	m := s.matcher()

	if warnings := s.checkDealBreakers(m, corpus, l.Price); len(warnings) > 0 {
		return Result{
			Total:       0,
			Suitability: SuitabilityReject,
			Warnings:    warnings,
		}
	}

	price := s.scorePrice(m, corpus, l.Price)
	facilities := s.scoreFacilities(m, corpus)
	location := s.scoreLocation(l.Address)
	preferred := s.scorePreferred(m, corpus)
	pet := s.scorePet(m, corpus)

	total := price.Score + facilities.Score + location.Score + preferred.Score + pet.Score
	if total > s.Catalog.MaxTotal {
		total = s.Catalog.MaxTotal
	}
	if total < 0 {
		total = 0
	}

	res := Result{
		Total:       total,
		Suitability: SuitabilityFor(total),
		Breakdown: map[Category]CategoryScore{
			CategoryPrice:      price,
			CategoryFacilities: facilities,
			CategoryLocation:   location,
			CategoryPreferred:  preferred,
			CategoryPetPolicy:  pet,
		},
	}
	res.Advantages = buildAdvantages(price, facilities, location, preferred, pet)
	res.Recommendations = buildRecommendations(facilities, pet, price)
	return res
}

// RoomType resolves the listing's room type by first keyword match over the
// catalog's ordered list. First match wins even when a later rule is more
// specific; catalog order is the contract.
func (s CatalogScorer) RoomType(l domain.Listing) string {
	return s.resolveRoomType(s.matcher(), Corpus(l))
}

func (s CatalogScorer) resolveRoomType(m Matcher, corpus string) string {
	for _, rt := range s.Catalog.RoomTypes {
		if anyMatch(m, corpus, rt.Any) {
			return rt.Name
		}
	}
	return s.Catalog.DefaultRoomType
}

// checkDealBreakers collects every triggered reject condition; it never
// stops at the first hit, so the warnings list is the full picture.
func (s CatalogScorer) checkDealBreakers(m Matcher, corpus string, price int) []string {
	var warnings []string

	for _, db := range s.Catalog.DealBreakers {
		if anyMatch(m, corpus, db.Any) {
			warnings = append(warnings, "包含排除條件："+db.Name)
		}
	}

	if maxBudget := s.Catalog.MaxBudget(); price > 0 &&
		float64(price) > s.Catalog.PriceRejectFactor*float64(maxBudget) {
		warnings = append(warnings, "價格過高，超出合理範圍")
	}
	if anyMatch(m, corpus, s.Catalog.StructureReject) {
		warnings = append(warnings, "房屋類型不符合需求")
	}
	if anyMatch(m, corpus, s.Catalog.Pets.Reject) {
		warnings = append(warnings, "不允許寵物")
	}

	return warnings
}

func (s CatalogScorer) scorePrice(m Matcher, corpus string, price int) CategoryScore {
	roomType := s.resolveRoomType(m, corpus)
	budget := s.Catalog.BudgetFor(roomType)

	cs := CategoryScore{Max: 25}
	// Tier boundaries are inclusive as documented: price == budget scores 20,
	// price == 0.8*budget scores 25. Integer ratios avoid float drift.
	switch {
	case price == 0:
		cs.Score = 0
		cs.Rationale = "價格資訊不明確"
	case price*10 > budget*12:
		cs.Score = 0
		cs.Rationale = fmt.Sprintf("價格 $%d 超出預算太多 (預算: $%d)", price, budget)
	case price > budget:
		cs.Score = 10
		cs.Rationale = fmt.Sprintf("價格 $%d 略超預算 (預算: $%d)", price, budget)
	case price*5 <= budget*4:
		cs.Score = 25
		cs.Rationale = fmt.Sprintf("價格 $%d 非常優惠 (預算: $%d)", price, budget)
	default:
		cs.Score = 20
		cs.Rationale = fmt.Sprintf("價格 $%d 在預算範圍內 (預算: $%d)", price, budget)
	}
	cs.Matched = []string{roomType}
	return cs
}

func (s CatalogScorer) scoreFacilities(m Matcher, corpus string) CategoryScore {
	cs := CategoryScore{}
	for _, rule := range s.Catalog.Required {
		cs.Max += rule.Weight
		if anyMatch(m, corpus, rule.Any) {
			cs.Score += rule.Weight
			cs.Matched = append(cs.Matched, rule.Name)
		} else {
			cs.Missing = append(cs.Missing, rule.Name)
		}
	}
	cs.Rationale = fmt.Sprintf("具備設備：%s；缺少：%s",
		joinOr(cs.Matched, "無"), joinOr(cs.Missing, "無"))
	return cs
}

// scoreLocation works on the raw address, not the corpus: a district named
// in the description is not where the unit is. A district only counts when
// a preferred city matched first.
func (s CatalogScorer) scoreLocation(address string) CategoryScore {
	cs := CategoryScore{Max: 20}

	city := firstContained(address, s.Catalog.Location.Cities)
	if city == "" {
		cs.Rationale = "地理位置待評估"
		return cs
	}

	cs.Score = 10
	cs.Matched = []string{city}
	parts := []string{"位於偏好城市：" + city}

	if district := firstContained(address, s.Catalog.Location.Districts); district != "" {
		cs.Score += 10
		cs.Matched = append(cs.Matched, district)
		parts = append(parts, "位於優質區域："+district)
	} else {
		cs.Score += 5
		parts = append(parts, "位於偏好城市但非優先區域")
	}

	cs.Rationale = strings.Join(parts, "；")
	return cs
}

func (s CatalogScorer) scorePreferred(m Matcher, corpus string) CategoryScore {
	cs := CategoryScore{Max: s.Catalog.PreferredCap}
	for _, rule := range s.Catalog.Preferred {
		if anyMatch(m, corpus, rule.Any) {
			cs.Score += rule.Weight
			cs.Matched = append(cs.Matched, rule.Name)
		}
	}
	if cs.Score > s.Catalog.PreferredCap {
		cs.Score = s.Catalog.PreferredCap
	}
	if len(cs.Matched) > 0 {
		cs.Rationale = "加分項目：" + strings.Join(cs.Matched, "、")
	} else {
		cs.Rationale = "無特別加分項目"
	}
	return cs
}

func (s CatalogScorer) scorePet(m Matcher, corpus string) CategoryScore {
	cs := CategoryScore{Max: 10}
	switch {
	case anyMatch(m, corpus, s.Catalog.Pets.Prohibited):
		cs.Score = -20
		cs.Rationale = "明確禁止寵物"
	case anyMatch(m, corpus, s.Catalog.Pets.Friendly):
		cs.Score = 10
		cs.Rationale = "寵物友善"
	default:
		cs.Score = 0
		cs.Rationale = "寵物政策不明確，需確認"
	}
	return cs
}

func buildAdvantages(price, facilities, location, preferred, pet CategoryScore) string {
	var adv []string

	if price.Score >= 20 {
		adv = append(adv, "價格優勢："+price.Rationale)
	}
	if len(facilities.Matched) > 0 {
		adv = append(adv, "設備完善："+strings.Join(facilities.Matched, "、"))
	}
	if len(location.Matched) > 0 {
		adv = append(adv, "地理位置佳："+location.Rationale)
	}
	if len(preferred.Matched) > 0 {
		adv = append(adv, "額外優點："+strings.Join(preferred.Matched, "、"))
	}
	if pet.Score > 0 {
		adv = append(adv, "寵物友善")
	}

	if len(adv) == 0 {
		return "基本條件符合"
	}
	return strings.Join(adv, "；")
}

func buildRecommendations(facilities, pet, price CategoryScore) []string {
	var recs []string

	if len(facilities.Missing) > 0 {
		recs = append(recs, "需確認設備："+strings.Join(facilities.Missing, "、"))
	}
	if pet.Score == 0 {
		recs = append(recs, "需確認寵物政策")
	}
	if price.Score == 10 { // over budget but inside the 1.2x band
		recs = append(recs, "可嘗試議價")
	}

	return recs
}

func firstContained(text string, candidates []string) string {
	for _, c := range candidates {
		if c != "" && strings.Contains(text, c) {
			return c
		}
	}
	return ""
}

func joinOr(xs []string, fallback string) string {
	if len(xs) == 0 {
		return fallback
	}
	return strings.Join(xs, "、")
}
